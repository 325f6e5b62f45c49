package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Priority
	}{
		{"exact P0", "P0", PriorityP0},
		{"lowercase p1", "p1", PriorityP1},
		{"padded p2", " P2 ", PriorityP2},
		{"unknown clamps to P2", "urgent", PriorityP2},
		{"empty clamps to P2", "", PriorityP2},
		{"numeric clamps to P2", "3", PriorityP2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampPriority(tt.raw))
		})
	}
}
