package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(t.TempDir())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, seedDefaults(v, model.DefaultConfig()))
	return v
}

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(newTestViper(t))
	require.NoError(t, err)

	def := model.DefaultConfig()
	assert.Equal(t, def.HTTP.Timeout, cfg.HTTP.Timeout)
	assert.Equal(t, def.Discovery.PhaseTemplates, cfg.Discovery.PhaseTemplates)
	assert.Equal(t, def.Browser.Selectors.ConsentButtons, cfg.Browser.Selectors.ConsentButtons)
	assert.Equal(t, 4, cfg.Processing.BatchSize)
}

func TestReadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MAPLEADS_HTTP_TIMEOUT", "42s")
	t.Setenv("MAPLEADS_PROCESSING_BATCH_SIZE", "8")
	t.Setenv("MAPLEADS_HTTP_HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("MAPLEADS_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := readConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, 42*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 8, cfg.Processing.BatchSize)
	assert.Equal(t, "http://proxy:3128", cfg.HTTP.HTTPSProxy)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestReadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser:\n  headless: false\nverify:\n  base_url: https://verify.test/check\n"), 0o644))

	v := newTestViper(t)
	v.SetConfigFile(path)

	cfg, err := readConfig(v)
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "https://verify.test/check", cfg.Verify.BaseURL)
	assert.Equal(t, model.DefaultConfig().Browser.Language, cfg.Browser.Language)
}

func TestReadConfig_MissingExplicitFile(t *testing.T) {
	prev := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	t.Cleanup(func() { cfgFile = prev })

	v := newTestViper(t)
	v.SetConfigFile(cfgFile)

	_, err := readConfig(v)
	assert.Error(t, err)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	assert.Error(t, initLogger(model.LogConfig{Level: "loud", Format: "console"}))
	assert.NoError(t, initLogger(model.LogConfig{Level: "warn", Format: "json"}))
}

func TestMasked(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-secret"

	out := masked(cfg)
	assert.Equal(t, "****", out.LLM.APIKey)
	assert.Empty(t, out.Verify.APIKey)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
}
