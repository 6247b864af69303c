package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_CACHE_TTL", "")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Retrieval.ScrollCeiling)
	assert.Equal(t, 5, cfg.Retrieval.VectorLimit)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("VECTOR_LIMIT", "8")
	t.Setenv("VECTOR_SEMANTIC_SEARCH", "true")
	t.Setenv("SESSION_CACHE", "redis")
	t.Setenv("SESSION_CACHE_TTL", "15m")
	t.Setenv("EVENTS_BACKEND", "nats")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8, cfg.Retrieval.VectorLimit)
	assert.True(t, cfg.Retrieval.Semantic)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "nats", cfg.Events.Backend)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("LEAF_TEST_INT", "eight")
	t.Setenv("LEAF_TEST_BOOL", "maybe")
	t.Setenv("LEAF_TEST_DURATION", "soon")

	assert.Equal(t, 3, getEnvAsInt("LEAF_TEST_INT", 3))
	assert.True(t, getEnvAsBool("LEAF_TEST_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("LEAF_TEST_DURATION", time.Second))
}
