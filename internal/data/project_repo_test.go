package data_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/testutil"
)

func TestResolveVersionOwner(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewProjectRepo(db)
		project, version := testutil.SeedOwnershipChain(t, db, "user-1")

		ownership, err := repo.ResolveVersionOwner(ctx, version.ID)
		require.NoError(t, err)
		assert.Equal(t, version.ID, ownership.VersionID)
		assert.Equal(t, project.ID, ownership.ProjectID)
		assert.Equal(t, "user-1", ownership.UserID)

		_, err = repo.ResolveVersionOwner(ctx, uuid.NewString())
		assert.ErrorIs(t, err, data.ErrVersionNotFound)

		// A malformed id resolves like an unknown one.
		_, err = repo.ResolveVersionOwner(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, data.ErrVersionNotFound)
	})
}

func TestResolveProjectOwner(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewProjectRepo(db)
		project, _ := testutil.SeedOwnershipChain(t, db, "user-1")

		owner, err := repo.ResolveProjectOwner(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", owner)

		_, err = repo.ResolveProjectOwner(ctx, uuid.NewString())
		assert.ErrorIs(t, err, data.ErrProjectNotFound)
	})
}

func TestGetProjectAndVersion(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewProjectRepo(db)
		project, version := testutil.SeedOwnershipChain(t, db, "user-1")

		gotProject, err := repo.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, "Checkout Redesign", gotProject.Name)

		gotVersion, err := repo.GetVersion(ctx, version.ID)
		require.NoError(t, err)
		assert.Equal(t, "v1", gotVersion.Label)
		assert.Equal(t, project.ID, gotVersion.ProjectID)

		_, err = repo.GetVersion(ctx, uuid.NewString())
		assert.ErrorIs(t, err, data.ErrVersionNotFound)
	})
}
