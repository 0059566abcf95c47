package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	Version, Commit, BuildDate, GoVersion = "v1.2.3", "abcd123", "2025-08-11T18:42:00Z", "go1.25.5"
	assert.Equal(t, "v1.2.3 (commit=abcd123, built=2025-08-11T18:42:00Z, go=go1.25.5)", String())
}
