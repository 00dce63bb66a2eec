package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langpont/core/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "gemini", cfg.Analysis.DefaultEngine)
	assert.Equal(t, 10, cfg.History.Size)
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Analysis.DefaultEngine = "deepl"
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.History.Size = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: prod
nats:
  url: nats://localhost:4222
providers:
  openai:
    model: gpt-4o-mini
`), 0644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "default preserved")
	assert.Equal(t, 10, cfg.History.Size, "default preserved")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := config.LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := config.DefaultConfig()
	base.Merge(&config.Config{
		Environment: "stage",
		History:     config.HistoryConfig{Size: 20},
		Providers: config.ProvidersConfig{
			Gemini: config.ProviderConfig{BaseURL: "http://localhost:9999"},
		},
	})

	assert.Equal(t, "stage", base.Environment)
	assert.Equal(t, 20, base.History.Size)
	assert.Equal(t, "http://localhost:9999", base.Providers.Gemini.BaseURL)
	assert.Equal(t, ":8080", base.HTTP.Addr)

	base.Merge(nil)
	assert.Equal(t, "stage", base.Environment)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Environment = "stage"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWatchFileReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: dev\n"), 0644))

	var reloaded atomic.Pointer[config.Config]
	w, err := config.WatchFile(path, nil, func(cfg *config.Config) {
		reloaded.Store(cfg)
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("environment: stage\n"), 0644))

	require.Eventually(t, func() bool {
		cfg := reloaded.Load()
		return cfg != nil && cfg.Environment == "stage"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchFileIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: dev\n"), 0644))

	var calls atomic.Int32
	w, err := config.WatchFile(path, nil, func(*config.Config) {
		calls.Add(1)
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("environment: bogus\n"), 0644))

	time.Sleep(1 * time.Second)
	assert.Zero(t, calls.Load())
}
