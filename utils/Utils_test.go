package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIdGenerator(t *testing.T) {
	gen := &SequenceIdGenerator{Prefix: "scan"}
	assert.Equal(t, "scan-1", gen.Generate())
	assert.Equal(t, "scan-2", gen.Generate())
}

func TestUuidIdGeneratorIsUnique(t *testing.T) {
	gen := UuidIdGenerator{}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"main", "develop"}, "develop"))
	assert.False(t, Contains([]string{"main", "develop"}, "release"))
	assert.False(t, Contains([]string(nil), "main"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "gitlab.example.com_group", Sanitize("https://GitLab.example.com/group"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	expanded, err := ExpandHome("~/.secscanner/history.json")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".secscanner/history.json"), expanded)

	unchanged, err := ExpandHome("/tmp/history.json")
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/history.json", unchanged)
}
