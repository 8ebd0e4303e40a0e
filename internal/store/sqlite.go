package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const userColumns = `id, subject_id, nick_name, avatar_url, created_at, last_login_at`

// SQLiteStore persists users in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	// one writer at a time; concurrent creates then serialize and the unique index decides
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrationFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create sub filesystem: %w", err)
	}

	provider, err := goose.NewProvider(database.DialectSQLite3, db, migrationFS)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// DB returns the raw database handle
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) FindBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE subject_id = ?`, subjectID)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by subject: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) Create(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (subject_id, created_at, last_login_at) VALUES (?, ?, ?) RETURNING `+userColumns,
		subjectID, toMillis(at), toMillis(at))

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE subject_id = ? RETURNING `+userColumns,
		toMillis(at), subjectID)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	return u, nil
}

// SetProfile fills profile fields; profile editing is outside the login flow.
func (s *SQLiteStore) SetProfile(ctx context.Context, subjectID string, nickName, avatarURL *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET nick_name = ?, avatar_url = ? WHERE subject_id = ?`,
		nullString(nickName), nullString(avatarURL), subjectID)
	if err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                    models.User
		nickName, avatarURL  sql.NullString
		createdAt, lastLogin int64
	)
	if err := row.Scan(&u.ID, &u.SubjectID, &nickName, &avatarURL, &createdAt, &lastLogin); err != nil {
		return nil, err
	}
	if nickName.Valid {
		u.NickName = &nickName.String
	}
	if avatarURL.Valid {
		u.AvatarURL = &avatarURL.String
	}
	u.CreatedAt = fromMillis(createdAt)
	u.LastLoginAt = fromMillis(lastLogin)
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ UserStore = (*SQLiteStore)(nil)
