package data_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/testutil"
)

func TestShareTokenLookup(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewShareTokenRepo(db)
		_, version := testutil.SeedOwnershipChain(t, db, "user-1")
		ev := testutil.SeedEvaluation(t, db, version, model.KindGrade)

		token := "tok_0123456789abcdef"
		require.NoError(t, repo.Create(ctx, &model.ShareToken{
			Token:        token,
			ProjectID:    version.ProjectID,
			EvaluationID: ev.ID,
		}))

		got, err := repo.GetByToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, ev.ID, got.EvaluationID)
		assert.Equal(t, version.ProjectID, got.ProjectID)

		_, err = repo.GetByToken(ctx, "tok_ffffffffffffffff")
		assert.ErrorIs(t, err, data.ErrShareTokenNotFound)
	})
}

func TestRevokedTokenResolvesAsNotFound(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewShareTokenRepo(db)
		_, version := testutil.SeedOwnershipChain(t, db, "user-1")
		ev := testutil.SeedEvaluation(t, db, version, model.KindGrade)

		token := "tok_0123456789abcdef"
		require.NoError(t, repo.Create(ctx, &model.ShareToken{
			Token:        token,
			ProjectID:    version.ProjectID,
			EvaluationID: ev.ID,
		}))

		_, err := db.ExecContext(ctx,
			`UPDATE share_tokens SET revoked_at = now() WHERE token = $1`, token)
		require.NoError(t, err)

		_, err = repo.GetByToken(ctx, token)
		assert.ErrorIs(t, err, data.ErrShareTokenNotFound)
	})
}

func TestCreateEnforcesTokenFormat(t *testing.T) {
	// Format validation runs before any insert, so no database is needed.
	repo := data.NewShareTokenRepo(nil)
	err := repo.Create(context.Background(), &model.ShareToken{Token: "ab"})
	assert.Error(t, err)
}
