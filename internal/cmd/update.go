package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/lifetest/internal/server"
	"github.com/HendryAvila/lifetest/internal/updater"
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update lifetest to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("finding current executable: %w", err)
			}
			exe, _ = filepath.Abs(exe)

			fmt.Fprintln(out, "Checking for updates...")
			version, err := updater.SelfUpdate(cmd.Context(), server.Version, exe)
			if errors.Is(err, updater.ErrUpToDate) {
				color.New(color.FgGreen).Fprintf(out, "Already at the latest version (%s)\n", server.Version)
				return nil
			}
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			color.New(color.FgGreen).Fprintf(out, "Updated to v%s. Restart lifetest to use it.\n", version)
			return nil
		},
	}
}
