package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/gradebench/gradebench/internal/domain/model"
)

// ProjectRepo provides database operations for projects, design versions,
// and transitive ownership resolution.
type ProjectRepo struct {
	DB *sql.DB
}

// NewProjectRepo creates a new ProjectRepo with the given database connection.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

// CreateProject inserts a new project owned by the given user.
func (r *ProjectRepo) CreateProject(
	ctx context.Context,
	req *model.CreateProjectRequest,
) (*model.Project, error) {
	if req == nil {
		return nil, errors.New("create project request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var p model.Project
	err := r.DB.QueryRowContext(ctx, `
	  INSERT INTO projects (id, user_id, name)
	  VALUES ($1, $2, $3)
	  RETURNING id, user_id, name, created_at`,
		uuid.NewString(), req.UserID, req.Name).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

// CreateVersion records a new immutable design version for a project.
func (r *ProjectRepo) CreateVersion(
	ctx context.Context,
	req *model.CreateVersionRequest,
) (*model.DesignVersion, error) {
	if req == nil {
		return nil, errors.New("create version request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var v model.DesignVersion
	err := r.DB.QueryRowContext(ctx, `
	  INSERT INTO design_versions (id, project_id, label)
	  VALUES ($1, $2, $3)
	  RETURNING id, project_id, label, created_at`,
		uuid.NewString(), req.ProjectID, req.Label).
		Scan(&v.ID, &v.ProjectID, &v.Label, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("insert design version: %w", err)
	}
	return &v, nil
}

// GetProject returns a project by its id.
func (r *ProjectRepo) GetProject(ctx context.Context, id string) (*model.Project, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, ErrProjectNotFound
	}

	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// GetVersion returns a design version by its id.
func (r *ProjectRepo) GetVersion(ctx context.Context, id string) (*model.DesignVersion, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, ErrVersionNotFound
	}

	var v model.DesignVersion
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, project_id, label, created_at FROM design_versions WHERE id = $1`, id).
		Scan(&v.ID, &v.ProjectID, &v.Label, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get design version: %w", err)
	}
	return &v, nil
}

// ResolveVersionOwner resolves version→project→owner in a single join.
func (r *ProjectRepo) ResolveVersionOwner(
	ctx context.Context,
	versionID string,
) (*model.VersionOwnership, error) {
	if _, err := uuid.Parse(strings.TrimSpace(versionID)); err != nil {
		return nil, ErrVersionNotFound
	}

	var own model.VersionOwnership
	err := r.DB.QueryRowContext(ctx, `
	  SELECT v.id, v.project_id, p.user_id
	  FROM design_versions v
	  JOIN projects p ON p.id = v.project_id
	  WHERE v.id = $1`, versionID).
		Scan(&own.VersionID, &own.ProjectID, &own.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve version owner: %w", err)
	}
	return &own, nil
}

// ResolveProjectOwner returns the owning user id for a project.
func (r *ProjectRepo) ResolveProjectOwner(ctx context.Context, projectID string) (string, error) {
	if _, err := uuid.Parse(strings.TrimSpace(projectID)); err != nil {
		return "", ErrProjectNotFound
	}

	var userID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM projects WHERE id = $1`, projectID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrProjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve project owner: %w", err)
	}
	return userID, nil
}
