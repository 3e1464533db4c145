package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/pkg/data"
	"github.com/cperrin88/agdaup/pkg/version"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed Agda versions",
		Long: `List the installed Agda versions. The active one is marked with *.

With --available, list every version agdaup knows how to install and
whether a prebuilt binary exists for this platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if available {
				return listAvailable(cmd.OutOrStdout(), a)
			}
			return listInstalled(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().BoolVar(&available, "available", false, "List installable versions")

	return cmd
}

func listInstalled(out io.Writer, a *app) error {
	installed, err := a.state.Installed()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		_, _ = fmt.Fprintln(out, "No Agda versions installed")
		return nil
	}
	active, ok, err := a.state.Active()
	if err != nil {
		a.log.Warn("cannot read active version", "error", err)
	}
	for _, iv := range installed {
		if ok && iv.Version == active.Version {
			_, _ = activeColor.Fprintf(out, "* %s\n", iv.Version)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s\n", iv.Version)
	}
	return nil
}

func listAvailable(out io.Writer, a *app) error {
	p := a.cfg.Platform()
	idx := data.BuiltinIndex()
	table := data.BuiltinTable()

	versions := newestFirst(table.Versions("Agda"))
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tGHC\tPREBUILT\tINSTALLED")
	for _, v := range versions {
		ghc, _ := table.Constraint("Agda", v)
		_, prebuilt := idx.Lookup(data.Key("agda", v, p.Arch, p.OS))
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v, ghc, yesNo(prebuilt), yesNo(a.state.IsInstalled(v)))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// newestFirst sorts vs by version, newest first.
func newestFirst(vs []string) []string {
	sort.SliceStable(vs, func(i, j int) bool {
		gt, err := version.GT(vs[i], vs[j])
		return err == nil && gt
	})
	return vs
}
