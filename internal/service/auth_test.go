package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/inkwell/internal/apperror"
	"github.com/sakif/inkwell/internal/auth"
	"github.com/sakif/inkwell/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	return NewAuthService(users, tokens, passwords, testLogger()), users
}

func TestRegister(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Register() did not assign an ID")
	}
	if user.Role != model.RoleReader {
		t.Errorf("default role = %q, want reader", user.Role)
	}
	// The returned user must never carry the hash.
	if user.PasswordHash != "" {
		t.Error("Register() returned the password hash")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "different-name", "alice@example.com", "secret123", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "alice", "different@example.com", "secret123", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	cases := []struct{ username, email, password string }{
		{"", "a@example.com", "pw"},
		{"alice", "", "pw"},
		{"alice", "a@example.com", ""},
	}
	for _, c := range cases {
		if _, err := svc.Register(ctx, c.username, c.email, c.password, ""); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Register(%q,%q,***) error = %v, want ErrValidation", c.username, c.email, err)
		}
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw", model.Role("superuser"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}
}

func TestRegister_ExplicitAuthorRole(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "bob", "bob@example.com", "pw", model.RoleAuthor)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Role != model.RoleAuthor {
		t.Errorf("role = %q, want author", user.Role)
	}
}

func TestLogin(t *testing.T) {
	svc, users := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned no token")
	}
	if result.User.ID != registered.ID {
		t.Errorf("Login() user = %s, want %s", result.User.ID, registered.ID)
	}
	if result.User.PasswordHash != "" {
		t.Error("Login() leaked the password hash")
	}

	// Last-login stamp must be persisted, not just set on the copy.
	stored := users.users[registered.ID]
	if stored.LastLoginAt.IsZero() {
		t.Error("Login() did not persist the last-login timestamp")
	}
}

// Unknown email and wrong password must be indistinguishable: same
// category, same message.
func TestLogin_UniformFailureMessage(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrongPassword := svc.Login(ctx, "alice@example.com", "not-the-password")
	_, errUnknownEmail := svc.Login(ctx, "nobody@example.com", "secret123")

	if !errors.Is(errWrongPassword, apperror.ErrUnauthorized) {
		t.Fatalf("wrong password error = %v, want ErrUnauthorized", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, apperror.ErrUnauthorized) {
		t.Fatalf("unknown email error = %v, want ErrUnauthorized", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("failure messages differ: %q vs %q — this leaks which emails exist",
			errWrongPassword.Error(), errUnknownEmail.Error())
	}
}

func TestLogin_TokenRoundTrips(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, _ := svc.Register(ctx, "carol", "carol@example.com", "pw123456", model.RoleAuthor)
	result, err := svc.Login(ctx, "carol@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	tokens, _ := auth.NewTokenService("test-secret-at-least-16-chars!!")
	claims, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID() != registered.ID {
		t.Errorf("token userID = %s, want %s", claims.UserID(), registered.ID)
	}
	if claims.Role != model.RoleAuthor {
		t.Errorf("token role = %q, want author", claims.Role)
	}
	if claims.Email != "carol@example.com" {
		t.Errorf("token email = %q", claims.Email)
	}
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	svc, users := newTestAuthService(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octocat", Email: "octo@example.com"}

	first, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("first sign-in error = %v", err)
	}
	if first.User.Role != model.RoleReader {
		t.Errorf("GitHub account role = %q, want reader", first.User.Role)
	}

	// Second sign-in reuses the same account.
	second, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("second sign-in error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("second sign-in created a new account: %s vs %s", second.User.ID, first.User.ID)
	}
	if len(users.users) != 1 {
		t.Errorf("user count = %d, want 1", len(users.users))
	}
}

func TestGetUserByID_MissingUserIsUnauthorized(t *testing.T) {
	svc, _ := newTestAuthService(t)

	// A stale or forged claim whose user is gone fails like bad
	// credentials, not like a missing resource.
	_, err := svc.GetUserByID(context.Background(), "no-such-user")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("GetUserByID() error = %v, want ErrUnauthorized", err)
	}
}
