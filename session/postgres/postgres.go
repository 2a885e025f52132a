// Package postgres persists sessions in a single table with upsert
// semantics; Update serializes same-user writes with a row lock.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/openclaw/tubebrief/session"
)

type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, userID string) (session.Session, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM sessions WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.New(userID), nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("postgres get %s: %w", userID, err)
	}
	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return session.Session{}, fmt.Errorf("postgres decode %s: %w", userID, err)
	}
	return sess, nil
}

func (s *Store) Put(ctx context.Context, userID string, sess session.Session) error {
	sess.UserID = userID
	sess.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres encode %s: %w", userID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			state_json = EXCLUDED.state_json,
			updated_at = EXCLUDED.updated_at`,
		userID, raw, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", userID, err)
	}
	return nil
}

// Update runs the read-modify-write inside a transaction, taking the row
// lock so concurrent updates for the same user queue behind each other.
func (s *Store) Update(ctx context.Context, userID string, apply func(*session.Session) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}
	defer tx.Rollback()

	// Seed the row first so SELECT FOR UPDATE always has something to lock;
	// otherwise two first writes for the same user race past each other.
	sess := session.New(userID)
	seed, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres encode %s: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, seed, time.Now().UTC()); err != nil {
		return fmt.Errorf("postgres seed %s: %w", userID, err)
	}

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT state_json FROM sessions WHERE user_id = $1 FOR UPDATE`, userID).Scan(&raw)
	if err != nil {
		return fmt.Errorf("postgres lock %s: %w", userID, err)
	}
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("postgres decode %s: %w", userID, err)
	}

	if err := apply(&sess); err != nil {
		return err
	}

	sess.UserID = userID
	sess.UpdatedAt = time.Now().UTC()
	out, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres encode %s: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			state_json = EXCLUDED.state_json,
			updated_at = EXCLUDED.updated_at`,
		userID, out, sess.UpdatedAt); err != nil {
		return fmt.Errorf("postgres upsert %s: %w", userID, err)
	}
	return tx.Commit()
}
