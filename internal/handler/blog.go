package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/auth"
	"github.com/sakif/inkwell/internal/model"
	"github.com/sakif/inkwell/internal/service"
)

// BlogHandler owns the blog JSON API: create, delete, and the two public
// listing endpoints.
type BlogHandler struct {
	blogService *service.BlogService
	logger      *slog.Logger
}

// NewBlogHandler creates a BlogHandler.
func NewBlogHandler(blogService *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blogService: blogService, logger: logger}
}

type createBlogRequest struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Content  string       `json:"content"`
	Status   model.Status `json:"status"` // optional, defaults to draft
	Image    string       `json:"image"`
}

// HandleCreate creates a post for the authenticated author.
//
// HTTP: POST /api/blogs (RequireAuth + RequireRole(author) in front)
// 201 {message,blog}; the slug in the response is the assigned one, which
// carries a numeric suffix when the title collides with an earlier post.
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("create blog: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	blog, err := h.blogService.Create(r.Context(), claims.UserID(), service.CreateInput{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Content:  req.Content,
		Status:   req.Status,
		Image:    req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "blog created",
		"blog":    blog,
	})
}

// HandleDelete removes a post by slug.
//
// HTTP: DELETE /api/blogs/{slug} (RequireAuth + RequireRole(author))
// 200 {message} or 404. Any author-role caller may delete any slug;
// ownership is not part of the contract.
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	if err := h.blogService.Delete(r.Context(), slug); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "blog deleted",
	})
}

// HandleList returns the public listing, newest first.
//
// HTTP: GET /api/blogs
// Author identity is stripped from this payload — the global listing shows
// content, not who wrote it.
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	blogs, err := h.blogService.ListListed(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range blogs {
		blogs[i].AuthorID = ""
		blogs[i].AuthorName = ""
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "blogs fetched",
		"blogs":   blogs,
	})
}

// HandleListByAuthor returns one author's listed posts.
//
// HTTP: GET /api/blogs/author/{username}
// An unknown username maps to 401 "author not found" — inconsistent with
// the 404 of the slug routes, but it is the documented contract, so the
// not-found from user resolution is rewritten here rather than letting
// writeError pick 404.
func (h *BlogHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	limit, offset := paginationParams(r)

	blogs, err := h.blogService.ListByAuthor(r.Context(), username, limit, offset)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "author not found"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "blogs fetched",
		"blogs":   blogs,
	})
}

// paginationParams reads limit/offset from the query string, falling back
// to the service defaults for anything absent or unparsable.
func paginationParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
