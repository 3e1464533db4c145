// Package config provides configuration management for agdaup.
// It handles loading, validating and saving the YAML settings file, and
// provides defaults for every setting so a missing file is a valid
// configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/agdaup/pkg/auth"
	"github.com/cperrin88/agdaup/pkg/cache"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/hooks"
	"github.com/cperrin88/agdaup/pkg/license"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/relocate"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Libraries maps library names to the distribution "library add <name>"
	// installs. A bare URL or a mapping with url, dir and tag is accepted.
	Libraries map[string]dist.Distribution `yaml:"libraries,omitempty"`
}

// PlatformConfig overrides the detected platform.
type PlatformConfig struct {
	// OS is one of linux, macos, windows. Empty means detect.
	OS string `yaml:"os,omitempty"`
	// Arch is one of x64, arm64, x86. Empty means detect.
	Arch string `yaml:"arch,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Layout settings
	RootDir  string `yaml:"root_dir,omitempty"`
	AgdaDir  string `yaml:"agda_dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Timeouts. A zero process timeout disables it.
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`

	// License bundling for source builds
	BundleLicenses     bool     `yaml:"bundle_licenses"`
	LicenseComponents  []string `yaml:"license_components,omitempty"`
	LicenseURLTemplate string   `yaml:"license_url_template,omitempty"`
	LicenseConcurrency int      `yaml:"license_concurrency"`

	// Relocations lists library path rewrites applied to prebuilt binaries,
	// keyed by OS.
	Relocations map[string][]relocate.Rewrite `yaml:"relocations,omitempty"`

	// Auth maps host names to the credentials sent with downloads from
	// them. Secrets may be given as $ENV_VAR.
	Auth map[string]auth.Config `yaml:"auth,omitempty"`

	// Hooks maps hook types to tengo script files.
	Hooks map[string]string `yaml:"hooks,omitempty"`

	// Platform settings
	Platform PlatformConfig `yaml:"platform,omitempty"`

	// Output settings
	LogLevel    string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat   string `yaml:"log_format"` // text, json
	ColorOutput bool   `yaml:"color_output"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultProcessTimeout bounds a single external command. Source builds
	// of Agda are slow.
	DefaultProcessTimeout = 2 * time.Hour

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	// ConfigEnv overrides the default config file location.
	ConfigEnv = "AGDAUP_CONFIG"
)

// DefaultLicenseComponents are the cabal components a source build bundles
// licenses for.
var DefaultLicenseComponents = []string{"exe:agda", "exe:agda-mode"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	rootDir, err := fsutil.GetDataDir()
	if err != nil {
		rootDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}
	agdaDir, err := fsutil.GetAgdaDir()
	if err != nil {
		agdaDir = filepath.Join(rootDir, "agda-dir")
	}
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, "cache")
	}

	return &Config{
		Libraries: map[string]dist.Distribution{},
		Settings: Settings{
			RootDir:            rootDir,
			AgdaDir:            agdaDir,
			CacheDir:           cacheDir,
			HTTPTimeout:        DefaultHTTPTimeout,
			ProcessTimeout:     DefaultProcessTimeout,
			LicenseComponents:  append([]string(nil), DefaultLicenseComponents...),
			LicenseURLTemplate: license.DefaultURLTemplate,
			LicenseConcurrency: license.DefaultConcurrency,
			LogLevel:           "info",
			LogFormat:          "text",
			ColorOutput:        true,
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	// Start from the defaults so omitted booleans keep their default.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errutils.Wrap(errutils.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := validatePlatform(c.Settings.Platform); err != nil {
		return err
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	for name, d := range c.Libraries {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("library %s: %w: %w", name, errutils.ErrConfigValidation, err)
		}
	}
	return nil
}

func validatePlatform(p PlatformConfig) error {
	if p.OS != "" && !contains(platform.ValidOS(), p.OS) {
		return fmt.Errorf("invalid OS value %q, must be one of: %s: %w",
			p.OS, strings.Join(platform.ValidOS(), ", "), errutils.ErrConfigValidation)
	}
	if p.Arch != "" && !contains(platform.ValidArch(), p.Arch) {
		return fmt.Errorf("invalid architecture value %q, must be one of: %s: %w",
			p.Arch, strings.Join(platform.ValidArch(), ", "), errutils.ErrConfigValidation)
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative: %w", errutils.ErrConfigValidation)
	}
	if s.ProcessTimeout < 0 {
		return fmt.Errorf("process_timeout cannot be negative: %w", errutils.ErrConfigValidation)
	}
	if s.LicenseConcurrency < 1 {
		return fmt.Errorf("license_concurrency must be at least 1: %w", errutils.ErrConfigValidation)
	}
	if s.LicenseURLTemplate != "" && !strings.Contains(s.LicenseURLTemplate, "{name}") {
		return fmt.Errorf("license_url_template must contain {name}: %w", errutils.ErrConfigValidation)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.LogFormat] {
		return fmt.Errorf("invalid log format %q: %w", s.LogFormat, errutils.ErrConfigValidation)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return fmt.Errorf("invalid log level %q: %w", s.LogLevel, errutils.ErrConfigValidation)
	}
	for osName := range s.Relocations {
		if !contains(platform.ValidOS(), osName) {
			return fmt.Errorf("relocations for unknown OS %q: %w", osName, errutils.ErrConfigValidation)
		}
	}
	for name := range s.Hooks {
		if !hooks.HookType(name).Valid() {
			return fmt.Errorf("unknown hook %q: %w", name, errutils.ErrConfigValidation)
		}
	}
	if _, err := auth.NewHosts(s.Auth); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// GetDefaultConfigPath returns the default configuration file path,
// $AGDAUP_CONFIG when set.
func GetDefaultConfigPath() (string, error) {
	if path := os.Getenv(ConfigEnv); path != "" {
		return homedir.Expand(path)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// HooksDir returns the directory next to the config file that hook scripts
// are loaded from.
func HooksDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "hooks")
}

// Platform returns the detected platform with the configured overrides.
func (c *Config) Platform() platform.Platform {
	return platform.CurrentPlatform().Override(platform.Platform{
		OS:   c.Settings.Platform.OS,
		Arch: c.Settings.Platform.Arch,
	})
}

// Rewrites returns the relocations configured for os.
func (c *Config) Rewrites(osName string) []relocate.Rewrite {
	return c.Settings.Relocations[osName]
}

// DownloadDir returns the directory downloads are cached in.
func (c *Config) DownloadDir() string {
	return cache.NewManager(c.Settings.CacheDir).DownloadsDir()
}

// BuildDir returns the directory archives are extracted and built in.
func (c *Config) BuildDir() string {
	return cache.NewManager(c.Settings.CacheDir).BuildDir()
}

// applyDefaults fills in missing values with defaults and expands ~ in paths.
func (c *Config) applyDefaults() error {
	defaults := DefaultConfig()

	if c.Settings.RootDir == "" {
		c.Settings.RootDir = defaults.Settings.RootDir
	}
	if c.Settings.AgdaDir == "" {
		c.Settings.AgdaDir = defaults.Settings.AgdaDir
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.LicenseConcurrency == 0 {
		c.Settings.LicenseConcurrency = defaults.Settings.LicenseConcurrency
	}
	if len(c.Settings.LicenseComponents) == 0 {
		c.Settings.LicenseComponents = defaults.Settings.LicenseComponents
	}
	if c.Settings.LicenseURLTemplate == "" {
		c.Settings.LicenseURLTemplate = defaults.Settings.LicenseURLTemplate
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.Libraries == nil {
		c.Libraries = map[string]dist.Distribution{}
	}

	for _, p := range []*string{&c.Settings.RootDir, &c.Settings.AgdaDir, &c.Settings.CacheDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
		}
		*p = expanded
	}
	for name, path := range c.Settings.Hooks {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
		}
		c.Settings.Hooks[name] = expanded
	}
	return nil
}
