package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	cfg := Default("/ws")

	assert.Equal(t, "http://127.0.0.1:8188", cfg.Backend.URL)
	assert.Equal(t, 300*time.Second, cfg.Backend.PollTimeout.Std())
	assert.Equal(t, 2*time.Second, cfg.Backend.PollInterval.Std())
	assert.Equal(t, "controlnet", cfg.Batch.Template)
	assert.Equal(t, 500.0, cfg.Batch.ClusterY)
	assert.Equal(t, filepath.Join("/ws", "data", "templates"), cfg.Paths.Templates)
	assert.Equal(t, filepath.Join("/ws", "outputs", "features", "fused_prompts.json"), cfg.Paths.Prompts)
	assert.Equal(t, filepath.Join("/ws", "outputs", "generated_outputs", "final_images"), cfg.Paths.Artifacts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stencil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: http://gpu-box:8188
  poll_timeout: 10m
batch:
  template: ipadapter
  pacing: 250ms
redis:
  addr: localhost:6379
  db: 2
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:8188", cfg.Backend.URL)
	assert.Equal(t, 10*time.Minute, cfg.Backend.PollTimeout.Std())
	assert.Equal(t, "ipadapter", cfg.Batch.Template)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.Pacing.Std())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)

	// Untouched fields keep their defaults, relative to the config's directory.
	assert.Equal(t, 2*time.Second, cfg.Backend.PollInterval.Std())
	assert.Equal(t, filepath.Join(dir, "data", "templates"), cfg.Paths.Templates)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stencil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  poll_timeout: soon\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)

	issues := cfg.Validate()
	assert.Len(t, issues, 2, "template dir and prompt file are both missing")

	require.NoError(t, os.MkdirAll(cfg.Paths.Templates, 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Paths.Prompts), 0755))
	require.NoError(t, os.WriteFile(cfg.Paths.Prompts, []byte("{}"), 0644))

	assert.Empty(t, cfg.Validate())

	cfg.Backend.URL = ""
	assert.Len(t, cfg.Validate(), 1)
}
