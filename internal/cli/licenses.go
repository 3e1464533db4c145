package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/pkg/build"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/license"
	"github.com/cperrin88/agdaup/pkg/state"
)

// NewLicensesCmd creates the licenses command.
func NewLicensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "licenses [VERSION]",
		Short: "Show the dependency licenses bundled with a version",
		Long:  "Show the dependency licenses bundled with a source build. Without VERSION the active version is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			var iv state.InstalledVersion
			if len(args) == 1 {
				iv, err = a.state.InstalledVersion(args[0])
			} else {
				var ok bool
				iv, ok, err = a.state.Active()
				if err == nil && !ok {
					err = fmt.Errorf("no active version: %w", errutils.ErrNotInstalled)
				}
			}
			if err != nil {
				return err
			}

			m, err := license.ReadManifest(filepath.Join(iv.Dir, build.LicensesDir))
			if errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No licenses bundled with Agda %s\n", iv.Version)
				return nil
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tw, "DEPENDENCY\tLICENSE")
			for _, name := range m.Names() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, m[name])
			}
			return tw.Flush()
		},
	}
}
