// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/inkwell/internal/model"
)

// ListOptions carries pagination for listing queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
//
// Uniqueness of username, email, and github_id is enforced by the store
// itself (UNIQUE constraints). Create returns apperror.ErrConflict on a
// violation — that write-time signal is authoritative; any read-before-
// write check callers do is only for a friendlier early error.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error

	// GetByID returns a user without the password hash.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByUsername returns a user without the password hash.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByEmailWithPassword returns a user including the stored password
	// hash. Only the login flow calls this.
	GetByEmailWithPassword(ctx context.Context, email string) (*model.User, error)

	// ExistsByEmailOrUsername reports whether any account already holds
	// the given email or username.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// TouchLastLogin stamps last_login_at for the user.
	TouchLastLogin(ctx context.Context, id string) error

	// UpsertByGitHubID inserts a new account for the GitHub identity or
	// refreshes the profile fields of an existing one, filling user.ID
	// either way.
	UpsertByGitHubID(ctx context.Context, user *model.User) error
}

// BlogRepository persists blog posts.
//
// Slug uniqueness is enforced by a UNIQUE constraint; Create returns
// apperror.ErrConflict when the slug is already taken so the service can
// retry suffix selection.
type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) error
	GetBySlug(ctx context.Context, slug string) (*model.Blog, error)

	// DeleteBySlug removes a post; apperror.ErrNotFound if no such slug.
	DeleteBySlug(ctx context.Context, slug string) error

	// ListByStatus returns posts with the given status, newest first,
	// with author name joined in.
	ListByStatus(ctx context.Context, status model.Status, opts ListOptions) ([]model.Blog, error)

	// ListByAuthor returns the author's posts with the given status,
	// newest first.
	ListByAuthor(ctx context.Context, authorID string, status model.Status, opts ListOptions) ([]model.Blog, error)
}
