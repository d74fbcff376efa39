package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vblinov/beamchat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// instead of the default schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser inserts a new user with a hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (id, email, full_name, password_hash, profile_pic, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.ProfilePic,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, profile_pic, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, profile_pic, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.ProfilePic,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates mutable profile fields. Empty values keep the
// existing column value.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id, fullName, profilePic string) (*store.User, error) {
	query := `
		UPDATE users
		SET full_name   = CASE WHEN ? = '' THEN full_name   ELSE ? END,
		    profile_pic = CASE WHEN ? = '' THEN profile_pic ELSE ? END
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, fullName, fullName, profilePic, profilePic, id)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return s.GetUserByID(ctx, id)
}

// ListUsersExcept lists all users except the given one, newest first.
func (s *SQLiteStore) ListUsersExcept(ctx context.Context, id string) ([]*store.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, profile_pic, created_at
		FROM users
		WHERE id != ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// SearchUsers searches users by full name or email substring.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	pattern := "%" + query + "%"
	q := `
		SELECT id, email, full_name, password_hash, profile_pic, created_at
		FROM users
		WHERE full_name LIKE ? OR email LIKE ?
		ORDER BY full_name ASC
	`
	rows, err := s.db.QueryContext(ctx, q, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*store.User, error) {
	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FullName,
			&user.PasswordHash,
			&user.ProfilePic,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Text,
		msg.Image,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessagesBetween returns all messages exchanged between two users in
// insertion order. Equal timestamps fall back to rowid, which preserves
// insertion order.
func (s *SQLiteStore) ListMessagesBetween(ctx context.Context, idA, idB string) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, idA, idB, idB, idA)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListMessagesWith returns every message the user sent or received,
// in insertion order.
func (s *SQLiteStore) ListMessagesWith(ctx context.Context, userID string) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// LastMessageBetween returns the most recent message between two users.
func (s *SQLiteStore) LastMessageBetween(ctx context.Context, idA, idB string) (*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, idA, idB, idB, idA).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&msg.Image,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// DeleteMessagesBetween removes all messages between two users in both
// directions.
func (s *SQLiteStore) DeleteMessagesBetween(ctx context.Context, idA, idB string) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
	`
	result, err := s.db.ExecContext(ctx, query, idA, idB, idB, idA)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Text,
			&msg.Image,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
