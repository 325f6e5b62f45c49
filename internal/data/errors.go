package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrEvaluationNotFound is returned when an evaluation row does not exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrVersionNotFound is returned when a design version does not resolve.
	ErrVersionNotFound = errors.New("design version not found")
	// ErrProjectNotFound is returned when a project does not resolve.
	ErrProjectNotFound = errors.New("project not found")
	// ErrShareTokenNotFound is returned when a share token is unknown or revoked.
	ErrShareTokenNotFound = errors.New("share token not found")
)
