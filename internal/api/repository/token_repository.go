package repository

//go:generate mockgen -source=token_repository.go -destination=mocks/mock_token_repository.go -package=mocks

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepository stores the revocable handles behind issued bearer tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *models.Token) error
	// GetToken returns nil when the token does not exist or has expired.
	GetToken(ctx context.Context, id string) (*models.Token, error)
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sqlTokenRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewTokenRepository creates a new SQL-backed TokenRepository.
func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &sqlTokenRepository{db: db, now: time.Now}
}

func (r *sqlTokenRepository) CreateToken(ctx context.Context, token *models.Token) error {
	ctx, span := tracer.Start(ctx, "TokenRepository.CreateToken")
	defer span.End()

	query := r.db.Rebind(`INSERT INTO tokens (id, user_id, issued_at, expires_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, token.IssuedAt.UTC(), token.ExpiresAt.UTC()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (r *sqlTokenRepository) GetToken(ctx context.Context, id string) (*models.Token, error) {
	ctx, span := tracer.Start(ctx, "TokenRepository.GetToken")
	defer span.End()

	var token models.Token
	query := r.db.Rebind(`SELECT id, user_id, issued_at, expires_at FROM tokens WHERE id = ?`)
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if token.Expired(r.now()) {
		return nil, nil
	}
	return &token, nil
}

// DeleteUserTokens revokes every token of the user and reports how many were removed.
func (r *sqlTokenRepository) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "TokenRepository.DeleteUserTokens")
	defer span.End()

	query := r.db.Rebind(`DELETE FROM tokens WHERE user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqlTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "TokenRepository.DeleteExpired")
	defer span.End()

	query := r.db.Rebind(`DELETE FROM tokens WHERE expires_at <= ?`)
	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
