package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	"github.com/MikkosUSN/levelup-merch/pkg/database"
	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"
)

// ResetTokenRepository implements repository.ResetTokenRepository using
// PostgreSQL.
type ResetTokenRepository struct {
	pool database.DBTX
}

// NewResetTokenRepository creates a new PostgreSQL-backed reset token
// repository.
func NewResetTokenRepository(pool database.DBTX) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

// Create stores a new reset token.
func (r *ResetTokenRepository) Create(ctx context.Context, t *domain.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// Get retrieves a reset token.
func (r *ResetTokenRepository) Get(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	query := `
		SELECT token, user_id, expires_at, used_at
		FROM password_reset_tokens
		WHERE token = $1`

	var t domain.PasswordResetToken
	err := r.pool.QueryRow(ctx, query, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reset token", token)
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	return &t, nil
}

// MarkUsed consumes a token. Marking an already-used token fails so a token
// can never authorize two password changes.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, token string) error {
	query := `
		UPDATE password_reset_tokens
		SET used_at = $1
		WHERE token = $2 AND used_at IS NULL`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), token)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("reset token", token)
	}
	return nil
}
