package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/hvac-survey/database"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadToken is returned when a refresh token is unknown or expired.
var ErrBadToken = errors.New("could not refresh")

// tokenLifetime bounds how long a refresh token can be redeemed.
const tokenLifetime = 8760 * time.Hour

type UserStore struct {
	db *database.DB
}

// Create adds a user, or replaces the password of an existing one.
func (s *UserStore) Create(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO app_user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`),
		username, hash,
	)
	return err
}

// Authenticate checks a username/password pair.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) error {
	var hash []byte
	err := s.db.
		QueryRowContext(ctx, s.db.Rebind(`SELECT password_hash FROM app_user WHERE username = ?`), username).
		Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (s *UserStore) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`),
		username,
		tokenID,
		refreshTokenID,
		time.Now().UTC().Add(tokenLifetime),
	)
	return err
}

// ConsumeToken redeems a refresh token: it can be used once, and only
// before it expires.
func (s *UserStore) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var expiration time.Time
	err = tx.QueryRowContext(ctx, s.db.Rebind(`
		SELECT expiration FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username, tokenID, refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadToken
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username, tokenID, refreshTokenID,
	)
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	if expiration.Before(time.Now()) {
		return ErrBadToken
	}
	return nil
}
