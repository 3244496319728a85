package service

import "strings"

// slugify derives a lowercase, URL-safe base slug from a title.
//
// Rules: letters and digits pass through lowercased, every other run of
// characters collapses to a single hyphen, and leading/trailing hyphens
// are trimmed. "Hello, World!" → "hello-world".
//
// Non-ASCII letters are dropped rather than transliterated. Titles that
// reduce to nothing (e.g. "!!!") produce "post" so the collision loop
// still has something to suffix.
func slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "post"
	}
	return slug
}
