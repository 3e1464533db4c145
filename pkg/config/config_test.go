package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/agdaup/pkg/auth"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/relocate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultLicenseComponents, cfg.Settings.LicenseComponents)
	assert.False(t, cfg.Settings.BundleLicenses)
	assert.True(t, cfg.Settings.ColorOutput)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `settings:
  root_dir: ~/agdaup
  log_level: debug
  http_timeout: 10s
  bundle_licenses: true
  color_output: false
  relocations:
    macos:
      - from: /Users/runner/work/ghc
        to: /usr/local
  hooks:
    post-set: ~/hooks/post-set.tengo
  platform:
    os: linux
    arch: x64
libraries:
  standard-library: https://github.com/agda/agda-stdlib/archive/v1.7.3.tar.gz
  cubical:
    url: https://github.com/agda/cubical/archive/v0.5.tar.gz
    dir: cubical-0.5
    tag: v0.5
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "agdaup"), cfg.Settings.RootDir)
	assert.Equal(t, filepath.Join(home, "hooks", "post-set.tengo"), cfg.Settings.Hooks["post-set"])
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Settings.HTTPTimeout)
	assert.True(t, cfg.Settings.BundleLicenses)
	assert.False(t, cfg.Settings.ColorOutput)
	assert.Equal(t, "linux", cfg.Platform().OS)
	assert.Equal(t, []relocate.Rewrite{{From: "/Users/runner/work/ghc", To: "/usr/local"}}, cfg.Rewrites("macos"))
	assert.Empty(t, cfg.Rewrites("linux"))

	require.Len(t, cfg.Libraries, 2)
	assert.True(t, cfg.Libraries["standard-library"].Experimental())
	assert.Equal(t, "cubical-0.5", cfg.Libraries["cubical"].Dir)
	assert.Equal(t, "v0.5", cfg.Libraries["cubical"].Tag)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Settings.LogLevel, cfg.Settings.LogLevel)

	_, err = LoadConfig("")
	assert.ErrorIs(t, err, errutils.ErrEmptyConfigPath)
}

func TestLoadConfigFromReader_Errors(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("settings: [unterminated"))
	assert.ErrorIs(t, err, errutils.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  log_level: chatty\n"))
	assert.ErrorIs(t, err, errutils.ErrConfigValidation)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.ProcessTimeout = 90 * time.Minute
	cfg.Settings.Platform.OS = "macos"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))
	assert.NoFileExists(t, configPath+".tmp")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Settings.LogLevel)
	assert.Equal(t, 90*time.Minute, loaded.Settings.ProcessTimeout)
	assert.Equal(t, "macos", loaded.Settings.Platform.OS)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "invalid OS", mutate: func(c *Config) { c.Settings.Platform.OS = "darwin" }, errMsg: "invalid OS"},
		{name: "invalid arch", mutate: func(c *Config) { c.Settings.Platform.Arch = "amd64" }, errMsg: "invalid architecture"},
		{name: "negative timeout", mutate: func(c *Config) { c.Settings.HTTPTimeout = -time.Second }, errMsg: "http_timeout"},
		{name: "template without name", mutate: func(c *Config) { c.Settings.LicenseURLTemplate = "https://x/LICENSE" }, errMsg: "{name}"},
		{name: "unknown hook", mutate: func(c *Config) { c.Settings.Hooks = map[string]string{"pre-remove": "x"} }, errMsg: "unknown hook"},
		{name: "unknown auth type", mutate: func(c *Config) {
			c.Settings.Auth = map[string]auth.Config{"github.com": {Type: "oauth"}}
		}, errMsg: "github.com"},
		{name: "unknown relocation OS", mutate: func(c *Config) {
			c.Settings.Relocations = map[string][]relocate.Rewrite{"plan9": nil}
		}, errMsg: "plan9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, errutils.ErrConfigValidation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv(ConfigEnv, "/etc/agdaup.yaml")
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/agdaup.yaml", path)
	assert.Equal(t, filepath.Join("/etc", "hooks"), HooksDir(path))
}

func TestSetAndGetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("bundle_licenses", "true"))
	require.NoError(t, cfg.SetValue("http_timeout", "5s"))
	require.NoError(t, cfg.SetValue("license_concurrency", "8"))

	v, err := cfg.GetValue("bundle_licenses")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	v, err = cfg.GetValue("http_timeout")
	require.NoError(t, err)
	assert.Equal(t, "5s", v)
	v, err = cfg.GetValue("license_components")
	require.NoError(t, err)
	assert.Equal(t, "exe:agda,exe:agda-mode", v)

	assert.Error(t, cfg.SetValue("log_level", "chatty"))
	assert.Error(t, cfg.SetValue("http_timeout", "soon"))
	assert.Error(t, cfg.SetValue("nope", "x"))
	_, err = cfg.GetValue("nope")
	assert.Error(t, err)

	assert.Contains(t, cfg.Keys(), "root_dir")
}

func TestToMap_HidesCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Auth = map[string]auth.Config{
		"github.com":  {Type: auth.BearerAuthType, Token: "secret"},
		"example.org": {Type: auth.BasicAuthType, Username: "u", Password: "p"},
	}

	m := cfg.ToMap()
	assert.Equal(t, "example.org,github.com", m["auth"])
	for _, v := range m {
		assert.NotContains(t, v, "secret")
	}
}
