package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(200), cfg.LockoutMs)
	assert.Equal(t, 16, cfg.QueueCapacity)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throttle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lockout_ms: 500\nqueue_capacity: 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.LockoutMs)
	assert.Equal(t, 4, cfg.QueueCapacity)
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throttle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lockout_ms: 500\n"), 0o644))

	t.Setenv("THROTTLE_LOCKOUT_MS", "750")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(750), cfg.LockoutMs)
}

func TestHotReloaderPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throttle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lockout_ms: 200\n"), 0o644))

	changes := make(chan Tunable, 1)
	hr, err := NewHotReloader(path, func(tn Tunable) { changes <- tn }, func(error) {})
	require.NoError(t, err)
	defer hr.Close()

	require.NoError(t, os.WriteFile(path, []byte("lockout_ms: 900\n"), 0o644))

	select {
	case tn := <-changes:
		assert.Equal(t, int64(900), tn.LockoutMs)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hot reload")
	}
}
