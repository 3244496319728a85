package service

// Hand-written in-memory mocks for the repository interfaces, in the
// style of the rest of the test suite: no database, no I/O, and knobs
// (forceConflicts) for failure modes a real store only hits under races.

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/model"
	"github.com/sakif/inkwell/internal/repository"
)

type mockUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.Conflict("an account with that email or username already exists")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleReader
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	result.PasswordHash = ""
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			result.PasswordHash = ""
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetByEmailWithPassword(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.LastLoginAt = time.Now()
	return nil
}

func (m *mockUserRepo) UpsertByGitHubID(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID && u.GitHubID != 0 {
			user.ID = u.ID
			u.Username = user.Username
			u.Email = user.Email
			return nil
		}
	}
	return m.Create(context.Background(), user)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockBlogRepo struct {
	blogs  map[string]*model.Blog // by slug
	nextID int

	// forceConflicts makes the next N Create calls fail with a conflict
	// even though the slug lookup said free — simulating losing the
	// insert race to a concurrent request.
	forceConflicts int
}

func newMockBlogRepo() *mockBlogRepo {
	return &mockBlogRepo{blogs: make(map[string]*model.Blog)}
}

func (m *mockBlogRepo) Create(_ context.Context, blog *model.Blog) error {
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return apperror.Conflict("slug already in use: " + blog.Slug)
	}
	if _, taken := m.blogs[blog.Slug]; taken {
		return apperror.Conflict("slug already in use: " + blog.Slug)
	}
	m.nextID++
	blog.ID = fmt.Sprintf("blog-%d", m.nextID)
	now := time.Now()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	if blog.Status == "" {
		blog.Status = model.StatusDraft
	}
	stored := *blog
	m.blogs[blog.Slug] = &stored
	return nil
}

func (m *mockBlogRepo) GetBySlug(_ context.Context, slug string) (*model.Blog, error) {
	b, ok := m.blogs[slug]
	if !ok {
		return nil, apperror.NotFound("blog", slug)
	}
	result := *b
	return &result, nil
}

func (m *mockBlogRepo) DeleteBySlug(_ context.Context, slug string) error {
	if _, ok := m.blogs[slug]; !ok {
		return apperror.NotFound("blog", slug)
	}
	delete(m.blogs, slug)
	return nil
}

func (m *mockBlogRepo) ListByStatus(_ context.Context, status model.Status, opts repository.ListOptions) ([]model.Blog, error) {
	result := make([]model.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		if b.Status == status {
			result = append(result, *b)
		}
	}
	return paginate(result, opts), nil
}

func (m *mockBlogRepo) ListByAuthor(_ context.Context, authorID string, status model.Status, opts repository.ListOptions) ([]model.Blog, error) {
	result := make([]model.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		if b.AuthorID == authorID && b.Status == status {
			result = append(result, *b)
		}
	}
	return paginate(result, opts), nil
}

func paginate(blogs []model.Blog, opts repository.ListOptions) []model.Blog {
	if opts.Offset >= len(blogs) {
		return []model.Blog{}
	}
	blogs = blogs[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(blogs) {
		blogs = blogs[:opts.Limit]
	}
	return blogs
}

var _ repository.BlogRepository = (*mockBlogRepo)(nil)
