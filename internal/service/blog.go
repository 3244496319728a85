package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/model"
	"github.com/sakif/inkwell/internal/repository"
)

// listedStatus is the status both public listing endpoints filter on.
//
// TODO(product): confirm the intended polarity. The behavior being
// preserved here lists draft posts even though the endpoints are
// documented as "published" listings. Flip this constant to
// model.StatusPublished once product signs off — nothing else needs to
// change.
const listedStatus = model.StatusDraft

const (
	MaxTitleLength    = 200
	MaxContentLength  = 200000 // ~200KB of post body
	DefaultListLimit  = 20
	MaxListLimit      = 100
	maxSlugCandidates = 1000 // hard stop for the collision loop
)

// BlogService handles post creation, deletion, and the listing queries.
type BlogService struct {
	blogs  repository.BlogRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewBlogService creates a BlogService.
func NewBlogService(blogs repository.BlogRepository, users repository.UserRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		blogs:  blogs,
		users:  users,
		logger: logger,
	}
}

// CreateInput carries the caller-supplied fields for a new post.
type CreateInput struct {
	Title    string
	Subtitle string
	Content  string
	Status   model.Status // empty → draft
	Image    string
}

// Create validates, assigns a unique slug, and persists a new post for
// authorID.
//
// The author is re-resolved from the store even though the middleware
// already authenticated the claim: a token can outlive its account, and a
// forged-but-correctly-signed claim should not be able to attach posts to
// a ghost user. A missing author fails exactly like bad login credentials.
func (s *BlogService) Create(ctx context.Context, authorID string, in CreateInput) (*model.Blog, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	status := in.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/blog: resolving author %s: %w", authorID, err)
	}

	blog := &model.Blog{
		Title:      title,
		Subtitle:   strings.TrimSpace(in.Subtitle),
		Content:    in.Content,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Status:     status,
		Image:      strings.TrimSpace(in.Image),
	}

	if err := s.createWithUniqueSlug(ctx, blog); err != nil {
		return nil, err
	}

	s.logger.Info("blog created",
		slog.String("id", blog.ID),
		slog.String("slug", blog.Slug),
		slog.String("authorID", author.ID),
	)

	return blog, nil
}

// createWithUniqueSlug assigns the first free slug derived from the title
// and inserts the post.
//
// Candidate order: base, base-1, base-2, ... Each candidate costs one
// lookup; collisions are rare in practice so the loop almost always exits
// on the first probe. The lookup is only an optimization — the INSERT can
// still lose a race against a concurrent request claiming the same slug,
// in which case the UNIQUE constraint reports a conflict and we resume
// probing from the next suffix instead of trusting the earlier read.
func (s *BlogService) createWithUniqueSlug(ctx context.Context, blog *model.Blog) error {
	base := slugify(blog.Title)

	for i := 0; i < maxSlugCandidates; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		_, err := s.blogs.GetBySlug(ctx, candidate)
		if err == nil {
			continue // taken, try the next suffix
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("service/blog: checking slug %s: %w", candidate, err)
		}

		blog.Slug = candidate
		err = s.blogs.Create(ctx, blog)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperror.ErrConflict) {
			continue // lost a race for this slug, keep probing
		}
		return fmt.Errorf("service/blog: creating blog: %w", err)
	}

	return fmt.Errorf("service/blog: no free slug found for %q after %d candidates", base, maxSlugCandidates)
}

// Delete removes a post by slug. apperror.ErrNotFound if no such slug.
// Ownership is not checked: the role gate in front of the endpoint is the
// whole authorization story.
func (s *BlogService) Delete(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return apperror.ValidationFailed("slug", "slug is required")
	}

	if err := s.blogs.DeleteBySlug(ctx, slug); err != nil {
		return err
	}

	s.logger.Info("blog deleted", slog.String("slug", slug))
	return nil
}

// GetBySlug returns a single post.
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "slug is required")
	}
	return s.blogs.GetBySlug(ctx, slug)
}

// ListListed returns listed posts, newest first.
func (s *BlogService) ListListed(ctx context.Context, limit, offset int) ([]model.Blog, error) {
	blogs, err := s.blogs.ListByStatus(ctx, listedStatus, listOptions(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing blogs: %w", err)
	}
	return blogs, nil
}

// ListByAuthor resolves a username and returns that author's listed posts.
// An unknown username propagates apperror.ErrNotFound; the handler decides
// what status code that becomes.
func (s *BlogService) ListByAuthor(ctx context.Context, username string, limit, offset int) ([]model.Blog, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	blogs, err := s.blogs.ListByAuthor(ctx, author.ID, listedStatus, listOptions(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing blogs for %s: %w", username, err)
	}
	return blogs, nil
}

func listOptions(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
