// FilePath: internal/firmware/version_test.go
package firmware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"v4.50", "4.50"},
		{"4.50", "4.50"},
		{"v4.50a", "4.50"},
		{"v4.5.2", "4.5.2"},
		{" v4.40 ", "4.40"},
		{"release", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractVersion(tt.tag), "tag %q", tt.tag)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"4.45", "4.50", -1},
		{"4.50", "4.45", 1},
		{"4.50", "4.50", 0},
		{"4.50", "4.50.0", 0},
		{"4.50.1", "4.50", 1},
		{"4.9", "4.10", -1},
		{"v4.50", "4.50", 0},
		{"5.0", "4.99", 1},
		// Unparseable sides fall back to string ordering.
		{"abc", "abd", -1},
		{"abc", "abc", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "compare %q %q", tt.a, tt.b)
	}
}
