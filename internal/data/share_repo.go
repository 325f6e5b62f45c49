package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gradebench/gradebench/internal/domain/model"
)

// ShareTokenRepo provides database operations for share token resolution.
// The token column is the primary key, so lookup is O(1).
type ShareTokenRepo struct {
	DB *sql.DB
}

// NewShareTokenRepo creates a new ShareTokenRepo with the given database connection.
func NewShareTokenRepo(db *sql.DB) *ShareTokenRepo {
	return &ShareTokenRepo{DB: db}
}

// GetByToken returns the share token row. Revoked tokens resolve as not found.
func (r *ShareTokenRepo) GetByToken(ctx context.Context, token string) (*model.ShareToken, error) {
	var st model.ShareToken
	err := r.DB.QueryRowContext(ctx, `
	  SELECT token, project_id, evaluation_id, created_at, revoked_at
	  FROM share_tokens
	  WHERE token = $1 AND revoked_at IS NULL`, token).
		Scan(&st.Token, &st.ProjectID, &st.EvaluationID, &st.CreatedAt, &st.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get share token: %w", err)
	}
	return &st, nil
}

// Create inserts a share token row. Production tokens are minted by an
// external collaborator; this exists for tests and seeding.
func (r *ShareTokenRepo) Create(ctx context.Context, st *model.ShareToken) error {
	if st == nil {
		return errors.New("share token is required")
	}
	if !model.ValidShareToken(st.Token) {
		return errors.New("share token does not satisfy the format precondition")
	}

	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO share_tokens (token, project_id, evaluation_id)
	  VALUES ($1, $2, $3)`, st.Token, st.ProjectID, st.EvaluationID)
	if err != nil {
		return fmt.Errorf("insert share token: %w", err)
	}
	return nil
}
