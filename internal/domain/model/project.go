package model

import (
	"errors"
	"strings"
	"time"
)

// Project is the owning resource for design versions and their evaluations.
// Ownership is immutable once the project exists.
type Project struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Name      string    `json:"name"       db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DesignVersion is one immutable version of a project's design artifact.
type DesignVersion struct {
	ID        string    `json:"id"         db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Label     string    `json:"label"      db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// VersionOwnership is the resolved owning chain for a design version.
type VersionOwnership struct {
	VersionID string
	ProjectID string
	UserID    string
}

// CreateProjectRequest represents a request to create a project.
type CreateProjectRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Validate validates the CreateProjectRequest fields.
func (r *CreateProjectRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// CreateVersionRequest represents a request to record a new design version.
type CreateVersionRequest struct {
	ProjectID string `json:"project_id"`
	Label     string `json:"label"`
}

// Validate validates the CreateVersionRequest fields.
func (r *CreateVersionRequest) Validate() error {
	if strings.TrimSpace(r.ProjectID) == "" {
		return errors.New("project id is required")
	}
	if strings.TrimSpace(r.Label) == "" {
		return errors.New("label is required")
	}
	return nil
}
