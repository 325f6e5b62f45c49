package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
)

// SeedOwnershipChain creates a project and design version owned by the given
// user, returning both. Integration tests use this to satisfy the foreign
// keys on evaluations.
func SeedOwnershipChain(t TestingTB, db *sql.DB, userID string) (*model.Project, *model.DesignVersion) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo := data.NewProjectRepo(db)
	project, err := repo.CreateProject(ctx, &model.CreateProjectRequest{
		UserID: userID,
		Name:   "Checkout Redesign",
	})
	if err != nil {
		t.Fatal("Failed to seed project:", err)
	}

	version, err := repo.CreateVersion(ctx, &model.CreateVersionRequest{
		ProjectID: project.ID,
		Label:     "v1",
	})
	if err != nil {
		t.Fatal("Failed to seed design version:", err)
	}

	return project, version
}

// SeedEvaluation creates a pending evaluation for the given version.
func SeedEvaluation(t TestingTB, db *sql.DB, version *model.DesignVersion, kind model.EvaluationKind) *model.Evaluation {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo := data.NewEvaluationRepo(db, nil)
	ev, err := repo.Create(ctx, &model.CreateEvaluationRequest{
		VersionID: version.ID,
		ProjectID: version.ProjectID,
		Kind:      kind,
	})
	if err != nil {
		t.Fatal("Failed to seed evaluation:", err)
	}
	return ev
}
