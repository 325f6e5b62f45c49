package model

import (
	"regexp"
	"time"
)

// Share tokens are opaque URL-safe capability strings: possession grants
// read-only access to exactly one project/report pair without authentication.
const (
	// ShareTokenMinLen is the minimum accepted token length.
	ShareTokenMinLen = 16
	// ShareTokenMaxLen is the maximum accepted token length.
	ShareTokenMaxLen = 128
)

var shareTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// ValidShareToken reports whether the token satisfies the format precondition.
// This is checked before any store lookup; a malformed token is indistinguishable
// from an unknown one to callers.
func ValidShareToken(token string) bool {
	return shareTokenPattern.MatchString(token)
}

// ShareToken maps an opaque token to one project/evaluation pair. Tokens are
// minted by an external collaborator; this core only validates and resolves
// them. Tokens never expire unless explicitly revoked.
type ShareToken struct {
	Token        string     `json:"token"        db:"token"`
	ProjectID    string     `json:"project_id"   db:"project_id"`
	EvaluationID string     `json:"evaluation_id" db:"evaluation_id"`
	CreatedAt    time.Time  `json:"created_at"   db:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
