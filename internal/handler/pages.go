package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/auth"
	"github.com/sakif/inkwell/internal/model"
	"github.com/sakif/inkwell/internal/service"
)

// placeholderImages fills in for posts created without a cover image.
// Picked at render time, so the same post can show a different placeholder
// on each page load.
var placeholderImages = []string{
	"/static/img/placeholder-1.jpg",
	"/static/img/placeholder-2.jpg",
	"/static/img/placeholder-3.jpg",
	"/static/img/placeholder-4.jpg",
}

const defaultPageSize = 6

// PageHandler renders the server-side HTML pages.
//
// TEMPLATE MODEL:
// web/templates holds one layout.html plus one file per page. Each page
// file fills the layout's "content" block, so every page gets its own
// template set (layout + page) parsed once at startup. Rendering always
// executes the "layout" template.
type PageHandler struct {
	templates   map[string]*template.Template
	blogService *service.BlogService
	logger      *slog.Logger
}

// NewPageHandler parses every page template under templateDir against the
// shared layout.
func NewPageHandler(templateDir string, blogService *service.BlogService, logger *slog.Logger) (*PageHandler, error) {
	layout := filepath.Join(templateDir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}

	templates := map[string]*template.Template{}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.ParseFiles(layout, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}

	return &PageHandler{
		templates:   templates,
		blogService: blogService,
		logger:      logger,
	}, nil
}

// render executes a named page template with the layout.
func (h *PageHandler) render(w http.ResponseWriter, name string, data map[string]any) {
	t, ok := h.templates[name]
	if !ok {
		h.logger.Error("template not found", slog.String("name", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// pageData assembles the fields every page shares: title and the
// logged-in user's claims (nil when anonymous).
func pageData(r *http.Request, title string) map[string]any {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return map[string]any{
		"Title":  title,
		"Claims": claims,
	}
}

// HandleHome renders the home page with a featured carousel of the most
// recent listed posts.
//
// HTTP: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	featured, err := h.blogService.ListListed(r.Context(), 5, 0)
	if err != nil {
		h.logger.Error("home: listing featured blogs", slog.String("error", err.Error()))
		featured = nil // render the page anyway, just without the carousel
	}
	fillPlaceholderImages(featured)

	data := pageData(r, "Inkwell")
	data["Featured"] = featured
	h.render(w, "home", data)
}

// HandleSignup renders the signup form. Both /signup and /register serve it.
func (h *PageHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup", pageData(r, "Sign up"))
}

// HandleLogin renders the login form.
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login", pageData(r, "Log in"))
}

// HandleContact renders the contact page.
func (h *PageHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	h.render(w, "contact", pageData(r, "Contact"))
}

// HandleAbout renders the about page.
func (h *PageHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about", pageData(r, "About"))
}

// HandleSingle renders the static single-post sample page.
func (h *PageHandler) HandleSingle(w http.ResponseWriter, r *http.Request) {
	h.render(w, "single", pageData(r, "Post"))
}

// HandleBlogs renders the paginated blog listing page.
//
// HTTP: GET /blogs?page=N&pageSize=M
// HasMore is computed by asking the store for one row beyond the page; if
// it comes back, there's a next page and the extra row is dropped.
func (h *PageHandler) HandleBlogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 || pageSize > service.MaxListLimit {
		pageSize = defaultPageSize
	}

	blogs, err := h.blogService.ListListed(r.Context(), pageSize+1, (page-1)*pageSize)
	if err != nil {
		h.logger.Error("blogs page: listing", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	hasMore := len(blogs) > pageSize
	if hasMore {
		blogs = blogs[:pageSize]
	}
	fillPlaceholderImages(blogs)

	data := pageData(r, "Blog")
	data["Blogs"] = blogs
	data["Page"] = page
	data["PageSize"] = pageSize
	data["HasMore"] = hasMore
	data["PrevPage"] = page - 1
	data["NextPage"] = page + 1
	h.render(w, "blogs", data)
}

// HandleBlogBySlug renders one post.
//
// HTTP: GET /blogs/{slug}
func (h *PageHandler) HandleBlogBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	blog, err := h.blogService.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("blog page: fetching", slog.String("slug", slug), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if blog.Image == "" {
		blog.Image = randomPlaceholder()
	}

	data := pageData(r, blog.Title)
	data["Blog"] = blog
	h.render(w, "blog", data)
}

func fillPlaceholderImages(blogs []model.Blog) {
	for i := range blogs {
		if blogs[i].Image == "" {
			blogs[i].Image = randomPlaceholder()
		}
	}
}

func randomPlaceholder() string {
	return placeholderImages[rand.IntN(len(placeholderImages))]
}
