package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/model"
)

// newTestDB opens an in-memory database with the full schema applied and
// closes it when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserCreateAndGet(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	user := &model.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		Role:         model.RoleAuthor,
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not stamp timestamps")
	}

	got, err := users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.Role != model.RoleAuthor {
		t.Errorf("role = %q, want author", got.Role)
	}
	// The default projection must not carry the hash.
	if got.PasswordHash != "" {
		t.Error("GetByID() returned the password hash")
	}

	byName, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != user.ID {
		t.Errorf("GetByUsername() ID = %s, want %s", byName.ID, user.ID)
	}
	if byName.PasswordHash != "" {
		t.Error("GetByUsername() returned the password hash")
	}
}

func TestUserCreate_DefaultRole(t *testing.T) {
	users := newTestDB(t).Users()

	user := &model.User{Username: "bob", Email: "bob@example.com"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.Role != model.RoleReader {
		t.Errorf("role = %q, want reader", user.Role)
	}
}

func TestUserCreate_DuplicateConstraints(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	first := &model.User{Username: "alice", Email: "alice@example.com"}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sameEmail := &model.User{Username: "other", Email: "alice@example.com"}
	if err := users.Create(ctx, sameEmail); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	sameUsername := &model.User{Username: "alice", Email: "other@example.com"}
	if err := users.Create(ctx, sameUsername); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}
}

func TestGetByEmailWithPassword(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	user := &model.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := users.GetByEmailWithPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmailWithPassword() error = %v", err)
	}
	if got.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("hash = %q, want the stored hash", got.PasswordHash)
	}

	if _, err := users.GetByEmailWithPassword(ctx, "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown email error = %v, want ErrNotFound", err)
	}
}

func TestExistsByEmailOrUsername(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	if err := users.Create(ctx, &model.User{Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cases := []struct {
		email, username string
		want            bool
	}{
		{"alice@example.com", "someone", true},
		{"someone@example.com", "alice", true},
		{"someone@example.com", "someone", false},
	}
	for _, tc := range cases {
		got, err := users.ExistsByEmailOrUsername(ctx, tc.email, tc.username)
		if err != nil {
			t.Fatalf("ExistsByEmailOrUsername(%q, %q) error = %v", tc.email, tc.username, err)
		}
		if got != tc.want {
			t.Errorf("ExistsByEmailOrUsername(%q, %q) = %v, want %v", tc.email, tc.username, got, tc.want)
		}
	}
}

func TestTouchLastLogin(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	user := &model.User{Username: "alice", Email: "alice@example.com"}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	before, _ := users.GetByID(ctx, user.ID)
	if !before.LastLoginAt.IsZero() {
		t.Fatal("new user already has a last-login stamp")
	}

	if err := users.TouchLastLogin(ctx, user.ID); err != nil {
		t.Fatalf("TouchLastLogin() error = %v", err)
	}

	after, _ := users.GetByID(ctx, user.ID)
	if after.LastLoginAt.IsZero() {
		t.Error("TouchLastLogin() left the stamp zero")
	}

	if err := users.TouchLastLogin(ctx, "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown ID error = %v, want ErrNotFound", err)
	}
}

func TestUpsertByGitHubID(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	first := &model.User{Username: "octocat", Email: "octo@example.com", GitHubID: 42}
	if err := users.UpsertByGitHubID(ctx, first); err != nil {
		t.Fatalf("first upsert error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("first upsert did not assign an ID")
	}

	// Same GitHub identity with a renamed profile must update in place.
	second := &model.User{Username: "octocat-renamed", Email: "octo@example.com", GitHubID: 42}
	if err := users.UpsertByGitHubID(ctx, second); err != nil {
		t.Fatalf("second upsert error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second upsert created a new row: %s vs %s", second.ID, first.ID)
	}

	got, err := users.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "octocat-renamed" {
		t.Errorf("username = %q, want octocat-renamed", got.Username)
	}
}

// Password accounts store NULL for github_id, so any number of them can
// coexist without tripping the UNIQUE constraint.
func TestUserCreate_ZeroGitHubIDsDoNotCollide(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	a := &model.User{Username: "alice", Email: "alice@example.com"}
	b := &model.User{Username: "bob", Email: "bob@example.com"}
	if err := users.Create(ctx, a); err != nil {
		t.Fatalf("Create(alice) error = %v", err)
	}
	if err := users.Create(ctx, b); err != nil {
		t.Fatalf("Create(bob) error = %v", err)
	}
}
