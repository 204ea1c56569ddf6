package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/lifetest/internal/export"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// timeNow is replaced in tests.
var timeNow = time.Now

func newExportCommand(g *globals) *cobra.Command {
	var dir string
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every stored report as CSV",
		Long: `Export every stored report to a dated CSV file readable by spreadsheet
applications (UTF-8 with BOM).

Examples:
  # Write to the configured export directory
  lifetest export

  # Write somewhere else
  lifetest export --dir ./exports

  # Print to stdout
  lifetest export --stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := a.Reports.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing reports: %w", err)
			}
			if stdout {
				return export.WriteCSV(cmd.OutOrStdout(), records)
			}
			if dir == "" {
				dir = a.Config.ExportDir()
			}
			path, err := export.ToFile(dir, records, timeNow())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d reports to %s\n", len(records), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default <data-dir>/exports)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write the CSV to stdout")
	return cmd
}

func newDecodeCommand(g *globals) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "decode <code>",
		Short: "Show the report carried by a transport code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := report.DecodeVerified(strings.TrimSpace(args[0]), a.Catalog, a.Engine)
			if err != nil {
				return err
			}
			view := templates.NewReportData(rec, a.Catalog)
			var out string
			if html {
				out, err = a.Renderer.HTML(view)
			} else {
				out, err = a.Renderer.Markdown(view)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render a printable HTML page instead of Markdown")
	return cmd
}

func newPruneCommand(g *globals) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune-drafts",
		Short: "Delete abandoned in-progress assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := a.Drafts.PruneDrafts(cmd.Context(), timeNow().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d drafts\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age after which a draft is abandoned")
	return cmd
}
