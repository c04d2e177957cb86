package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setupEnv(t *testing.T, key, value string) {
	t.Helper()
	old, existed := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestGetEnvDefault(t *testing.T) {
	os.Unsetenv("TEST_GETENV")
	assert.Equal(t, "default", GetEnv("TEST_GETENV", "default"))
}

func TestGetEnvAsInt(t *testing.T) {
	setupEnv(t, "TEST_GETENV_INT", "7")
	assert.Equal(t, 7, GetEnvAsInt("TEST_GETENV_INT", 6))
	os.Unsetenv("TEST_GETENV_INT")
	assert.Equal(t, 6, GetEnvAsInt("TEST_GETENV_INT", 6))
}

func TestGetEnvAsDuration(t *testing.T) {
	setupEnv(t, "TEST_GETENV_DURATION", "1.5")
	assert.Equal(t, 1500*time.Millisecond, GetEnvAsDuration("TEST_GETENV_DURATION", 0))
}

func TestGetEnvAsStringSlice(t *testing.T) {
	setupEnv(t, "TEST_GETENV_SLICE", "http://a/, http://b/,,http://c/")
	assert.Equal(t, []string{"http://a/", "http://b/", "http://c/"}, GetEnvAsStringSlice("TEST_GETENV_SLICE", nil))
}

func TestFromEnvDefaults(t *testing.T) {
	os.Clearenv()
	cfg := FromEnv()
	assert.Equal(t, DefaultMaxPages, cfg.MaxPages)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultDecayPerHour, cfg.DecayPerHour)
}

func TestFromEnvFloorsConcurrencyAndRetries(t *testing.T) {
	setupEnv(t, "CRAWL_CONCURRENCY", "0")
	setupEnv(t, "CRAWL_MAX_RETRIES", "-3")
	cfg := FromEnv()
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 1, cfg.MaxRetries)
}
