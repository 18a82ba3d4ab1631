package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// groupTypeSpecial marks the forum's built-in groups in the group table.
const groupTypeSpecial = 3

// PostgresConfig holds connection settings for the forum database.
type PostgresConfig struct {
	URL         string
	TablePrefix string
	MaxConns    int
	MinConns    int
	PingTimeout time.Duration
}

// DefaultPostgresConfig returns connection defaults suitable for a small
// forum deployment.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		TablePrefix: "phpbb_",
		MaxConns:    10,
		MinConns:    2,
		PingTimeout: 5 * time.Second,
	}
}

// PostgresStore implements Store and GroupDirectory against the forum's
// PostgreSQL schema. All statements are parameterized; usernames never
// reach the SQL text.
type PostgresStore struct {
	db     *sql.DB
	prefix string
}

// OpenPostgres connects to the forum database and verifies the connection.
func OpenPostgres(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return NewPostgresStore(db, cfg.TablePrefix), nil
}

// NewPostgresStore wraps an existing database handle. prefix is prepended
// to table names ("phpbb_" for a stock forum install).
func NewPostgresStore(db *sql.DB, prefix string) *PostgresStore {
	return &PostgresStore{db: db, prefix: prefix}
}

// DB exposes the underlying handle for health checks.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// FindByNormalizedUsername looks up an account by its clean username key.
func (s *PostgresStore) FindByNormalizedUsername(ctx context.Context, key string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT user_id, username, username_clean, user_email, user_avatar, group_id, user_type
		FROM %susers
		WHERE username_clean = $1
	`, s.prefix)

	user := &User{}
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&user.ID, &user.Username, &user.UsernameClean,
		&user.Email, &user.Avatar, &user.GroupID, &user.Role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return user, nil
}

// Create inserts a new account row. The clean username is written from
// user.UsernameClean; callers derive it with NormalizeUsername.
func (s *PostgresStore) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %susers (username, username_clean, user_password, user_email, user_avatar, group_id, user_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id
	`, s.prefix)

	err := s.db.QueryRowContext(ctx, query,
		user.Username, user.UsernameClean, user.PasswordHash,
		user.Email, user.Avatar, user.GroupID, user.Role,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.UsernameClean)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// UpdateProfile refreshes the asserted mutable attributes on an account.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, email, avatar string) error {
	query := fmt.Sprintf(`
		UPDATE %susers
		SET user_email = $1, user_avatar = $2
		WHERE user_id = $3
	`, s.prefix)

	if _, err := s.db.ExecContext(ctx, query, email, avatar, id); err != nil {
		return fmt.Errorf("failed to update account profile: %w", err)
	}
	return nil
}

// ResolveSpecialGroup returns the group ID for a built-in group name.
func (s *PostgresStore) ResolveSpecialGroup(ctx context.Context, name string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT group_id
		FROM %sgroups
		WHERE group_name = $1 AND group_type = $2
	`, s.prefix)

	var id int64
	err := s.db.QueryRowContext(ctx, query, name, groupTypeSpecial).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve group %s: %w", name, err)
	}

	return id, nil
}
