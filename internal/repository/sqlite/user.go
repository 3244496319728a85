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

// UserStore implements repository.UserRepository on the shared pool.
type UserStore struct {
	db *DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// userColumns is the projection every lookup shares. password_hash is
// deliberately absent — only GetByEmailWithPassword selects it.
const userColumns = `id, username, email, role, github_id, last_login_at, created_at, updated_at`

// Create inserts a new user, generating the ID and timestamps in place.
//
// The UNIQUE constraints on username and email turn a duplicate into
// apperror.ErrConflict here, regardless of what any earlier existence
// check said — concurrent registrations race, the constraint doesn't.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleReader
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullableID(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("an account with that email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID, without the password hash.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username, without the password hash.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}
	return u, nil
}

// GetByEmailWithPassword retrieves a user by email INCLUDING the stored
// password hash. The login flow is the only caller; everything else goes
// through the hash-free lookups above.
func (s *UserStore) GetByEmailWithPassword(ctx context.Context, email string) (*model.User, error) {
	var (
		u         model.User
		githubID  sql.NullInt64
		lastLogin sql.NullTime
	)
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, github_id, last_login_at, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&githubID, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	u.GitHubID = githubID.Int64
	u.LastLoginAt = lastLogin.Time
	return &u, nil
}

// ExistsByEmailOrUsername reports whether either identifier is taken.
func (s *UserStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`,
		email, username,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user existence: %w", err)
	}
	return count > 0, nil
}

// TouchLastLogin stamps last_login_at with the current time.
func (s *UserStore) TouchLastLogin(ctx context.Context, id string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching last login for %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// UpsertByGitHubID inserts a new account for a GitHub identity or refreshes
// an existing one. Existing accounts keep their internal ID and role; only
// the profile fields (username, email) follow the GitHub side.
func (s *UserStore) UpsertByGitHubID(ctx context.Context, user *model.User) error {
	var existingID string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now().UTC()
		_, err = s.db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, updated_at = ? WHERE id = ?`,
			user.Username, user.Email, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	return s.Create(ctx, user)
}

// scanUser reads the userColumns projection from a row.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		githubID  sql.NullInt64
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Role,
		&githubID, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	u.LastLoginAt = lastLogin.Time
	return &u, nil
}

// nullableID maps the zero GitHub ID to NULL so password accounts don't
// collide on the UNIQUE github_id constraint.
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
