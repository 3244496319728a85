package middleware

import "net/http"

// SecureHeaders sets the standard hardening response headers on every
// response.
//
//	X-Content-Type-Options: nosniff  — no MIME sniffing of responses
//	X-Frame-Options: DENY            — no framing (clickjacking)
//	Referrer-Policy                  — full URLs stay off third-party wires
//	X-XSS-Protection: 0              — the legacy auditor does more harm
//	                                   than good in current browsers
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}
