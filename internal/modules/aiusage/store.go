package aiusage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// UseToken atomically checks the monthly quota and deducts one token.
// The counter resets to DefaultTokens when last_reset_month is behind month.
// Returns ErrInsufficientTokens when no row was updated (quota exhausted or user absent).
func (s *Store) UseToken(ctx context.Context, uid string, month time.Time) error {
	m := month.UTC().Format(monthKey)
	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month <> $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, m, DefaultTokens, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts a row for uid with the default allowance; existing rows are left alone.
func (s *Store) EnsureUser(ctx context.Context, uid string, month time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, DefaultTokens, month.UTC().Format(monthKey))
	return err
}

// Refund returns one token taken in month. It never lifts the balance
// above DefaultTokens and does nothing once the row has moved to a later
// month.
func (s *Store) Refund(ctx context.Context, uid string, month time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET tokens_remaining = LEAST(tokens_remaining + 1, $1)
		WHERE uid = $2 AND last_reset_month = $3
	`, DefaultTokens, uid, month.UTC().Format(monthKey))
	return err
}

// Remaining reports the tokens uid has left in month without consuming any.
func (s *Store) Remaining(ctx context.Context, uid string, month time.Time) (int, error) {
	var remaining int
	var last string
	err := s.db.QueryRow(ctx, `SELECT tokens_remaining, last_reset_month FROM ai_usage WHERE uid = $1`, uid).
		Scan(&remaining, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultTokens, nil
	}
	if err != nil {
		return 0, err
	}
	if last < month.UTC().Format(monthKey) {
		return DefaultTokens, nil
	}
	return remaining, nil
}
