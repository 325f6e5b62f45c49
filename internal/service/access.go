package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	apperrors "github.com/gradebench/gradebench/internal/errors"
)

// AccessServiceOptions groups dependencies for AccessService.
type AccessServiceOptions struct {
	Projects core.ProjectRepository // Required: ownership chain resolution
	Logger   *slog.Logger           // Optional: structured logger
}

// AccessService resolves the owning resource chain of a version or project
// and enforces single-owner visibility. Absence and foreign ownership map to
// distinct errors: NotFound when the chain cannot be resolved, Forbidden when
// it resolves to a different user.
type AccessService struct {
	projects core.ProjectRepository
	logger   *slog.Logger
}

// NewAccessService constructs a new AccessService.
func NewAccessService(opts AccessServiceOptions) (*AccessService, error) {
	if opts.Projects == nil {
		return nil, errors.New("ProjectRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "access_service")
	}

	return &AccessService{projects: opts.Projects, logger: logger}, nil
}

// MustNewAccessService constructs a new AccessService and panics on error.
func MustNewAccessService(opts AccessServiceOptions) *AccessService {
	svc, err := NewAccessService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast during startup
		panic(fmt.Sprintf("failed to create AccessService: %v", err))
	}
	return svc
}

// AuthorizeVersion resolves version→project→owner and verifies the caller
// owns the chain. Returns the resolved ownership so callers can reuse the
// project id without a second query.
func (s *AccessService) AuthorizeVersion(ctx context.Context, userID, versionID string) (*model.VersionOwnership, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Forbidden("caller identity is required")
	}

	owner, err := s.projects.ResolveVersionOwner(ctx, versionID)
	if err != nil {
		if errors.Is(err, data.ErrVersionNotFound) {
			return nil, apperrors.NotFound("version not found")
		}
		return nil, fmt.Errorf("resolve version owner: %w", err)
	}

	if owner.UserID != userID {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "version access denied",
				"version_id", versionID, "owner_id", owner.UserID, "caller_id", userID)
		}
		return nil, apperrors.Forbidden("version is owned by another user")
	}
	return owner, nil
}

// AuthorizeProject verifies the caller owns the given project.
func (s *AccessService) AuthorizeProject(ctx context.Context, userID, projectID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Forbidden("caller identity is required")
	}

	ownerID, err := s.projects.ResolveProjectOwner(ctx, projectID)
	if err != nil {
		if errors.Is(err, data.ErrProjectNotFound) {
			return apperrors.NotFound("project not found")
		}
		return fmt.Errorf("resolve project owner: %w", err)
	}

	if ownerID != userID {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "project access denied",
				"project_id", projectID, "owner_id", ownerID, "caller_id", userID)
		}
		return apperrors.Forbidden("project is owned by another user")
	}
	return nil
}
