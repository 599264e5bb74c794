package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"2026/08/30 10:00:00 ERROR: push failed (id: 1): rejected", "ERROR"},
		{"2026/08/30 10:00:00 WARN: slow response", "WARNING"},
		{"2026/08/30 10:00:00 fetched 120 records, preparing push", "INFO"},
		{"no prefix at all", "INFO"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, levelOf(tt.line), tt.line)
	}
}
