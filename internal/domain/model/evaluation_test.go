package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationKindUnmarshalText(t *testing.T) {
	t.Run("accepts known kinds case-insensitively", func(t *testing.T) {
		var k EvaluationKind
		require.NoError(t, k.UnmarshalText([]byte(" Grade ")))
		assert.Equal(t, KindGrade, k)

		require.NoError(t, k.UnmarshalText([]byte("simulate")))
		assert.Equal(t, KindSimulate, k)
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		var k EvaluationKind
		assert.Error(t, k.UnmarshalText([]byte("benchmark")))
	})
}

func TestStatusTransitions(t *testing.T) {
	t.Run("forward transitions are allowed", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusRunning))
		assert.True(t, StatusPending.CanTransitionTo(StatusFailed))
		assert.True(t, StatusRunning.CanTransitionTo(StatusCompleted))
		assert.True(t, StatusRunning.CanTransitionTo(StatusFailed))
	})

	t.Run("terminal states never move forward or back", func(t *testing.T) {
		for _, terminal := range []EvaluationStatus{StatusCompleted, StatusFailed} {
			assert.False(t, terminal.CanTransitionTo(StatusPending))
			assert.False(t, terminal.CanTransitionTo(StatusRunning))
		}
		assert.False(t, StatusCompleted.CanTransitionTo(StatusFailed))
		assert.False(t, StatusFailed.CanTransitionTo(StatusCompleted))
	})

	t.Run("repeating the current terminal state is idempotent", func(t *testing.T) {
		assert.True(t, StatusCompleted.CanTransitionTo(StatusCompleted))
		assert.True(t, StatusFailed.CanTransitionTo(StatusFailed))
	})

	t.Run("no transition skips running into completed", func(t *testing.T) {
		assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	})

	t.Run("terminal is only completed or failed", func(t *testing.T) {
		assert.False(t, StatusPending.Terminal())
		assert.False(t, StatusRunning.Terminal())
		assert.True(t, StatusCompleted.Terminal())
		assert.True(t, StatusFailed.Terminal())
	})
}

func TestCreateEvaluationRequestValidate(t *testing.T) {
	valid := CreateEvaluationRequest{
		VersionID: "b9c6d0fe-5c81-4a62-9f0b-000000000001",
		ProjectID: "b9c6d0fe-5c81-4a62-9f0b-000000000002",
		Kind:      KindGrade,
	}

	t.Run("valid request passes", func(t *testing.T) {
		req := valid
		assert.NoError(t, req.Validate())
	})

	t.Run("missing fields fail", func(t *testing.T) {
		req := valid
		req.VersionID = "  "
		assert.Error(t, req.Validate())

		req = valid
		req.ProjectID = ""
		assert.Error(t, req.Validate())

		req = valid
		req.Kind = "unknown"
		assert.Error(t, req.Validate())
	})
}
