package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExecutableCmd creates the executable command.
func NewExecutableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executable",
		Short: "Manage the executables registry",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add PATH",
			Short: "Register an executable Agda may run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				if err := a.state.RegisterExecutable(args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Executable %s registered", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered executables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := loadApp()
				if err != nil {
					return err
				}
				exes, err := a.state.Executables()
				if err != nil {
					return err
				}
				for _, exe := range exes {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), exe)
				}
				return nil
			},
		},
	)

	return cmd
}
