package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/pkg/orchestrator"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		setActive bool
		force     bool
		licenses  bool
	)

	cmd := &cobra.Command{
		Use:   "install VERSION",
		Short: "Install an Agda version",
		Long: `Install an Agda version side by side with the others.

A prebuilt binary for this platform is tried first; when there is none, or
it cannot be installed, Agda is built from its Hackage sources with the GHC
found on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			opts := orchestrator.InstallOptions{
				SetActive:      setActive,
				Force:          force,
				BundleLicenses: a.cfg.Settings.BundleLicenses,
			}
			if cmd.Flags().Changed("licenses") {
				opts.BundleLicenses = licenses
			}

			orch, err := a.orchestrator(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			iv, err := orch.Install(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to install agda %s: %w", args[0], err)
			}
			success(cmd.OutOrStdout(), "Agda %s installed in %s", iv.Version, iv.Dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&setActive, "set", false, "Make the version active after installing it")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall a version that is already installed")
	cmd.Flags().BoolVar(&licenses, "licenses", false, "Bundle dependency licenses when building from source (defaults to config)")

	return cmd
}

// NewSetCmd creates the set command.
func NewSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set VERSION",
		Short: "Set the active Agda version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			iv, err := orch.Set(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Agda %s is now active", iv.Version)
			return nil
		},
	}
}
