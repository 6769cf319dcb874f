package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 10, cfg.MaxPosts)
	assert.Equal(t, 50, cfg.MaxPages)
	assert.True(t, cfg.FollowPagination)
	assert.Equal(t, "anthropic", cfg.AIProvider)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, 2, cfg.AnalysisWorkers)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 7, cfg.CheckpointMaxAgeDays)
	assert.False(t, cfg.EnableClustering)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAX_POSTS", "25")
	t.Setenv("FOLLOW_PAGINATION", "false")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "90")
	t.Setenv("ENABLE_CLUSTERING", "true")

	cfg := Load()

	assert.Equal(t, 25, cfg.MaxPosts)
	assert.False(t, cfg.FollowPagination)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, 90*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.EnableClustering)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_POSTS", "lots")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "soon")

	cfg := Load()
	assert.Equal(t, 10, cfg.MaxPosts)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}
