package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/model"
	"github.com/sakif/inkwell/internal/repository"
)

// BlogStore implements repository.BlogRepository on the shared pool.
type BlogStore struct {
	db *DB
}

// compile-time check that *BlogStore implements repository.BlogRepository
var _ repository.BlogRepository = (*BlogStore)(nil)

// Create inserts a new blog post, generating the ID and timestamps.
//
// The UNIQUE constraint on slug is what actually guarantees slug
// uniqueness. When two requests race the same title, one insert loses with
// a constraint failure; we surface that as apperror.ErrConflict so the
// service can pick the next suffix and retry.
func (s *BlogStore) Create(ctx context.Context, blog *model.Blog) error {
	now := time.Now().UTC()
	blog.ID = xid.New().String()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	if blog.Status == "" {
		blog.Status = model.StatusDraft
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO blogs (id, title, subtitle, content, slug, author_id, status, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		blog.ID,
		blog.Title,
		blog.Subtitle,
		blog.Content,
		blog.Slug,
		blog.AuthorID,
		string(blog.Status),
		blog.Image,
		blog.CreatedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("slug already in use: %s", blog.Slug))
		}
		return fmt.Errorf("sqlite: inserting blog %q: %w", blog.Title, err)
	}

	return nil
}

// GetBySlug retrieves a single post by its slug, with the author's
// username joined in.
func (s *BlogStore) GetBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	var b model.Blog
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT b.id, b.title, b.subtitle, b.content, b.slug, b.author_id, u.username,
		        b.status, b.image, b.created_at, b.updated_at
		 FROM blogs b
		 JOIN users u ON u.id = b.author_id
		 WHERE b.slug = ?`,
		slug,
	).Scan(
		&b.ID, &b.Title, &b.Subtitle, &b.Content, &b.Slug, &b.AuthorID,
		&b.AuthorName, &b.Status, &b.Image, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("blog", slug)
		}
		return nil, fmt.Errorf("sqlite: getting blog %s: %w", slug, err)
	}
	return &b, nil
}

// DeleteBySlug removes a post. RowsAffected distinguishes "deleted" from
// "never existed".
func (s *BlogStore) DeleteBySlug(ctx context.Context, slug string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM blogs WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("sqlite: deleting blog %s: %w", slug, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("blog", slug)
	}
	return nil
}

// ListByStatus returns posts with the given status, newest first.
func (s *BlogStore) ListByStatus(ctx context.Context, status model.Status, opts repository.ListOptions) ([]model.Blog, error) {
	return s.listBlogs(ctx,
		`SELECT b.id, b.title, b.subtitle, b.content, b.slug, b.author_id, u.username,
		        b.status, b.image, b.created_at, b.updated_at
		 FROM blogs b
		 JOIN users u ON u.id = b.author_id
		 WHERE b.status = ?
		 ORDER BY b.created_at DESC
		 LIMIT ? OFFSET ?`,
		string(status), clampLimit(opts.Limit), clampOffset(opts.Offset))
}

// ListByAuthor returns one author's posts with the given status, newest first.
func (s *BlogStore) ListByAuthor(ctx context.Context, authorID string, status model.Status, opts repository.ListOptions) ([]model.Blog, error) {
	return s.listBlogs(ctx,
		`SELECT b.id, b.title, b.subtitle, b.content, b.slug, b.author_id, u.username,
		        b.status, b.image, b.created_at, b.updated_at
		 FROM blogs b
		 JOIN users u ON u.id = b.author_id
		 WHERE b.author_id = ? AND b.status = ?
		 ORDER BY b.created_at DESC
		 LIMIT ? OFFSET ?`,
		authorID, string(status), clampLimit(opts.Limit), clampOffset(opts.Offset))
}

func (s *BlogStore) listBlogs(ctx context.Context, query string, args ...any) ([]model.Blog, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]model.Blog, 0, 16)
	for rows.Next() {
		var b model.Blog
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Subtitle, &b.Content, &b.Slug, &b.AuthorID,
			&b.AuthorName, &b.Status, &b.Image, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning blog row: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating blogs: %w", err)
	}

	return blogs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
