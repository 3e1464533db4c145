package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/orchestrator"
)

// NewLibraryCmd creates the library command with its subcommands.
func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage Agda libraries",
		Long:  "Install, register and list Agda libraries",
	}

	cmd.AddCommand(
		newLibraryAddCmd(),
		newLibraryRegisterCmd(),
		newLibraryListCmd(),
	)

	return cmd
}

func newLibraryAddCmd() *cobra.Command {
	var (
		tag         string
		dir         string
		ref         string
		makeDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME [URL]",
		Short: "Install a library",
		Long: `Install a library from an archive URL or a local directory and register it.

Without URL the distribution configured under "libraries" for NAME is used.
Without --tag the library is experimental and versioned by --ref and today's
date.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			name := args[0]

			var d dist.Distribution
			if len(args) == 2 {
				d = dist.FromURL(args[1])
			} else {
				configured, ok := a.cfg.Libraries[name]
				if !ok {
					return fmt.Errorf("no URL given and no library %q configured", name)
				}
				d = configured
			}
			if tag != "" {
				d.Tag = tag
			}
			if dir != "" {
				d.Dir = dir
			}
			if err := d.Validate(); err != nil {
				return err
			}

			orch, err := a.orchestrator(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			reg, err := orch.InstallLibrary(cmd.Context(), name, d, orchestrator.LibraryOptions{
				MakeDefault: makeDefault,
				Ref:         ref,
			})
			if err != nil {
				return fmt.Errorf("failed to install library %s: %w", name, err)
			}
			success(cmd.OutOrStdout(), "Library %s %s registered at %s", reg.Name, reg.Version, reg.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Release tag of the library")
	cmd.Flags().StringVar(&dir, "dir", "", "Subdirectory of the archive holding the library")
	cmd.Flags().StringVar(&ref, "ref", "", "Branch or commit an experimental library comes from")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Add the library to the defaults registry")

	return cmd
}

func newLibraryRegisterCmd() *cobra.Command {
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "register PATH",
		Short: "Register an existing .agda-lib file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			reg, err := a.state.RegisterLibrary(args[0], makeDefault)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Library %s registered at %s", reg.Name, reg.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&makeDefault, "default", false, "Add the library to the defaults registry")

	return cmd
}

func newLibraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			libs, err := a.state.Libraries()
			if err != nil {
				return err
			}
			defaults, err := a.state.Defaults()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(libs) == 0 {
				_, _ = fmt.Fprintln(out, "No libraries registered")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tDEFAULT\tPATH")
			for _, lib := range libs {
				version := lib.Version.String()
				if version == "" {
					version = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", lib.Name, version, yesNo(slices.Contains(defaults, lib.Name)), lib.Path)
			}
			return tw.Flush()
		},
	}
}
