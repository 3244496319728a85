package model

import "time"

// Status is the publication state of a blog post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Blog represents a single post.
//
// Slug is the URL-safe identifier derived from the title at creation time.
// It is globally unique (enforced by a UNIQUE constraint in the store) and
// stable once assigned — posts are addressed by slug, never by ID, in URLs.
//
// AuthorName is denormalized from the users table at query time so listings
// don't need a join per row on the client side. The global listing strips
// author fields before responding; omitempty keeps them out of the JSON
// when the handler blanks them.
type Blog struct {
	ID         string    `json:"id"                   db:"id"`
	Title      string    `json:"title"                db:"title"`
	Subtitle   string    `json:"subtitle,omitempty"   db:"subtitle"`
	Content    string    `json:"content"              db:"content"`
	Slug       string    `json:"slug"                 db:"slug"`
	AuthorID   string    `json:"authorId,omitempty"   db:"author_id"`
	AuthorName string    `json:"authorName,omitempty" db:"author_name"`
	Status     Status    `json:"status"               db:"status"`
	Image      string    `json:"image,omitempty"      db:"image"`
	CreatedAt  time.Time `json:"createdAt"            db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"            db:"updated_at"`
}
