package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/auth"
	"github.com/cperrin88/agdaup/pkg/build"
	"github.com/cperrin88/agdaup/pkg/compat"
	"github.com/cperrin88/agdaup/pkg/config"
	"github.com/cperrin88/agdaup/pkg/data"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/download"
	"github.com/cperrin88/agdaup/pkg/hooks"
	"github.com/cperrin88/agdaup/pkg/installer"
	"github.com/cperrin88/agdaup/pkg/license"
	"github.com/cperrin88/agdaup/pkg/orchestrator"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/state"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

func getConfigPath() (string, error) {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath, nil
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get default config path: %w", err)
	}
	return path, nil
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.ColorOutput = false
	}
	if !cfg.Settings.ColorOutput {
		color.NoColor = true
	}
	return cfg, nil
}

// app holds what every command needs.
type app struct {
	cfg        *config.Config
	configPath string
	log        *slog.Logger
	state      *state.Manager
}

func loadApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat), os.Stderr)
	return &app{
		cfg:        cfg,
		configPath: path,
		log:        log,
		state:      state.New(cfg.Settings.RootDir, cfg.Settings.AgdaDir, state.WithLogger(log)),
	}, nil
}

// hookManager loads the scripts of the hooks directory, then the files
// named in the configuration, which take precedence.
func (a *app) hookManager() (hooks.HookManager, error) {
	m := hooks.NewHookManager(a.log)
	if err := hooks.LoadHooksFromDir(m, config.HooksDir(a.configPath)); err != nil {
		return nil, err
	}
	for name, path := range a.cfg.Settings.Hooks {
		if err := hooks.LoadHookFile(m, hooks.HookType(name), path); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// orchestrator wires the full install pipeline and reports progress to out.
func (a *app) orchestrator(out io.Writer) (*orchestrator.Orchestrator, error) {
	s := a.cfg.Settings
	p := a.cfg.Platform()
	runner := process.ExecRunner{DefaultTimeout: s.ProcessTimeout}
	dl := download.NewManager(s.HTTPTimeout, download.DefaultUserAgent, a.log)
	if len(s.Auth) > 0 {
		hosts, err := auth.NewHosts(s.Auth)
		if err != nil {
			return nil, err
		}
		dl.Auth = hosts
	}
	fetcher := download.NewDistFetcher(dl, a.cfg.DownloadDir(), a.cfg.BuildDir(), a.log)

	bundler := license.NewBundler(runner, dl, a.log)
	bundler.URLTemplate = s.LicenseURLTemplate
	bundler.Concurrency = s.LicenseConcurrency

	builder := build.NewBuilder(runner, compat.NewChecker(data.BuiltinTable()), p, a.log)
	builder.Licenses = bundler
	builder.LicenseComponents = s.LicenseComponents
	builder.Timeout = s.ProcessTimeout
	builder.WorkDir = a.cfg.BuildDir()

	hm, err := a.hookManager()
	if err != nil {
		return nil, err
	}

	o := orchestrator.New(
		dist.NewResolver(data.BuiltinIndex(), p),
		fetcher,
		a.state,
		builder,
		installer.New(runner, p, a.cfg.Rewrites(p.OS), a.log),
		orchestrator.Hooks{OnEvent: progress(out)},
		a.log,
	)
	o.HookManager = hm
	o.Runner = runner
	o.Platform = p
	o.WorkDir = a.cfg.BuildDir()
	return o, nil
}

// Commands returns every subcommand of the root command.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		NewInstallCmd(),
		NewSetCmd(),
		NewListCmd(),
		NewLibraryCmd(),
		NewExecutableCmd(),
		NewLicensesCmd(),
		NewCacheCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	}
}
