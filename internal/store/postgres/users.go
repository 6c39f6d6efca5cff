package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"magnetix/ticket-service/internal/models"
	"magnetix/ticket-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionTTL = 8 * time.Hour

// SyncUser reconciles an external identity-provider record with the
// local users table: update-in-place when the external id is known,
// insert otherwise. Repeated calls with the same identity converge on a
// single row and always refresh the mutable profile fields. A fresh
// session is issued on every call.
func (s *Store) SyncUser(ctx context.Context, input store.SyncUserInput) (models.User, models.Session, error) {
	name := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
	if name == "" {
		name = strings.TrimSpace(input.Username)
	}
	if name == "" {
		name = "Usuario"
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		if at := strings.Index(input.Email, "@"); at > 0 {
			username = input.Email[:at]
		}
	}
	if username == "" {
		shortID := input.ExternalID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		username = "user_" + shortID
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	user := models.User{
		ExternalID: input.ExternalID,
		Username:   username,
		Email:      input.Email,
		Name:       name,
		ImageURL:   nullIfEmpty(input.ImageURL),
	}

	row := tx.QueryRow(ctx, `SELECT id, created_at FROM users WHERE external_id = $1`, input.ExternalID)
	err = row.Scan(&user.ID, &user.CreatedAt)
	switch {
	case err == nil:
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET username = $2, email = $3, name = $4, image_url = $5
			WHERE external_id = $1
		`, input.ExternalID, user.Username, user.Email, user.Name, user.ImageURL)
		if err != nil {
			return models.User{}, models.Session{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		user.ID = uuid.NewString()
		row = tx.QueryRow(ctx, `
			INSERT INTO users (id, external_id, username, email, name, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, user.ID, user.ExternalID, user.Username, user.Email, user.Name, user.ImageURL)
		if err = row.Scan(&user.CreatedAt); err != nil {
			return models.User{}, models.Session{}, err
		}
	default:
		return models.User{}, models.Session{}, err
	}

	session := models.Session{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(sessionTTL),
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, session.SessionID, session.UserID, session.ExpiresAt); err != nil {
		return models.User{}, models.Session{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.User{}, models.Session{}, err
	}
	return user, session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, models.User, error) {
	var session models.Session
	var user models.User
	var imageNull sql.NullString
	row := s.pool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.expires_at,
		       u.id, u.external_id, u.username, u.email, u.name, u.image_url, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.expires_at > NOW()
	`, sessionID)
	if err := row.Scan(
		&session.SessionID, &session.UserID, &session.ExpiresAt,
		&user.ID, &user.ExternalID, &user.Username, &user.Email, &user.Name, &imageNull, &user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, models.User{}, store.ErrSessionNotFound
		}
		return models.Session{}, models.User{}, err
	}
	user.ImageURL = nullStringPtr(imageNull)
	return session, user, nil
}

// DeleteSession is idempotent; logging out an already-removed session is
// not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
