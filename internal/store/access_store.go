package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/guildboard/internal/domain"
)

// AccessEntry is a stored access window with its key.
type AccessEntry struct {
	Username  string              `json:"username"`
	Window    domain.AccessWindow `json:"window"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// AccessStore reads and writes entitlement windows keyed by username.
type AccessStore struct {
	db *DB
}

// NewAccessStore creates an access store using the given database.
func NewAccessStore(db *DB) *AccessStore {
	return &AccessStore{db: db}
}

// Lookup returns the access window for username. An unknown username yields
// an empty window and no error.
func (s *AccessStore) Lookup(ctx context.Context, username string) (domain.AccessWindow, error) {
	var lastPayment, dueDate sql.NullString
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT last_payment, due_date FROM access_windows WHERE username = ?`, username,
	).Scan(&lastPayment, &dueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AccessWindow{}, nil
	}
	if err != nil {
		return domain.AccessWindow{}, fmt.Errorf("looking up access for %q: %w", username, err)
	}
	return decodeWindow(lastPayment, dueDate)
}

// Put creates or replaces the access window for username.
func (s *AccessStore) Put(ctx context.Context, username string, w domain.AccessWindow) error {
	if username == "" {
		return errors.New("username is required")
	}
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO access_windows (username, last_payment, due_date, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
			last_payment = excluded.last_payment,
			due_date = excluded.due_date,
			updated_at = excluded.updated_at`,
		username, encodeTime(w.LastPayment), encodeTime(w.DueDate), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing access for %q: %w", username, err)
	}
	s.db.log.Debug().Str("username", username).Msg("access window stored")
	return nil
}

// Delete removes the window for username. Returns false if none existed.
func (s *AccessStore) Delete(ctx context.Context, username string) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM access_windows WHERE username = ?`, username)
	if err != nil {
		return false, fmt.Errorf("deleting access for %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all stored windows ordered by username.
func (s *AccessStore) List(ctx context.Context) ([]AccessEntry, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT username, last_payment, due_date, updated_at FROM access_windows ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing access windows: %w", err)
	}
	defer rows.Close()

	var entries []AccessEntry
	for rows.Next() {
		var (
			e                    AccessEntry
			lastPayment, dueDate sql.NullString
			updatedAt            string
		)
		if err := rows.Scan(&e.Username, &lastPayment, &dueDate, &updatedAt); err != nil {
			return nil, err
		}
		if e.Window, err = decodeWindow(lastPayment, dueDate); err != nil {
			return nil, err
		}
		e.UpdatedAt = parseStoredTime(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func encodeTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func decodeTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored time %q: %w", s.String, err)
	}
	return &t, nil
}

func decodeWindow(lastPayment, dueDate sql.NullString) (domain.AccessWindow, error) {
	lp, err := decodeTime(lastPayment)
	if err != nil {
		return domain.AccessWindow{}, err
	}
	dd, err := decodeTime(dueDate)
	if err != nil {
		return domain.AccessWindow{}, err
	}
	return domain.AccessWindow{LastPayment: lp, DueDate: dd}, nil
}

// parseStoredTime accepts both RFC3339 and SQLite's datetime('now') format.
func parseStoredTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.DateTime, s)
	return t
}
