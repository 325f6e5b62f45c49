package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidShareToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"sixteen url-safe chars", "abcDEF0123456789", true},
		{"with underscore and dash", "abc_DEF-0123456789", true},
		{"maximum length", strings.Repeat("a", 128), true},
		{"too short", "ab", false},
		{"fifteen chars", strings.Repeat("a", 15), false},
		{"over maximum length", strings.Repeat("a", 129), false},
		{"empty", "", false},
		{"illegal characters", "abcDEF0123456789!", false},
		{"whitespace", "abcDEF 123456789", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidShareToken(tt.token))
		})
	}
}
