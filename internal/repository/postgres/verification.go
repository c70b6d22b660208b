package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/noteboard/internal/model"
)

var _ model.VerificationStore = (*VerificationRepository)(nil)

type VerificationRepository struct {
	db *Connection
}

func NewVerificationRepository(db *Connection) *VerificationRepository {
	return &VerificationRepository{
		db: db,
	}
}

func (r *VerificationRepository) Create(ctx context.Context, pending model.PendingVerification) error {
	query := `INSERT INTO email_verifications (jti, user_id, email, expires_at, consumed)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		pending.JTI, pending.UserID, pending.Email, pending.ExpiresAt, pending.Consumed,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending verification: %w", err)
	}

	return nil
}

func (r *VerificationRepository) GetByJTI(ctx context.Context, jti string) (model.PendingVerification, error) {
	var pending model.PendingVerification
	query := `SELECT jti, user_id, email, expires_at, consumed
			  FROM email_verifications WHERE jti = $1`

	err := r.db.QueryRow(ctx, query, jti).Scan(
		&pending.JTI, &pending.UserID, &pending.Email, &pending.ExpiresAt, &pending.Consumed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PendingVerification{}, model.ErrNotFound
		}
		return model.PendingVerification{}, fmt.Errorf("failed to get pending verification: %w", err)
	}

	return pending, nil
}

func (r *VerificationRepository) Consume(ctx context.Context, jti string) error {
	query := `UPDATE email_verifications SET consumed = TRUE WHERE jti = $1 AND consumed = FALSE`

	cmd, err := r.db.Exec(ctx, query, jti)
	if err != nil {
		return fmt.Errorf("failed to consume verification: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
