package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoInitialized(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "v1.2.3"
	assert.Equal(t, "docsite v1.2.3 (commit "+GitCommit+", built "+BuildTime+")", String())
}
