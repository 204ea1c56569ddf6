package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/lifetest/internal/bot"
	"github.com/HendryAvila/lifetest/internal/httpapi"
	"github.com/HendryAvila/lifetest/internal/server"
	"github.com/HendryAvila/lifetest/internal/updater"
)

func newServeCommand(g *globals) *cobra.Command {
	var noUpdateCheck bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server over stdio for AI assistants. Add it to the
assistant's MCP configuration:

  {
    "mcpServers": {
      "lifetest": { "command": "lifetest", "args": ["serve"] }
    }
  }

stdout carries the protocol; logs and notices go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stderr := cmd.ErrOrStderr()
			a, cleanup, err := g.open(cmd.Context(), stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			if !noUpdateCheck {
				go notifyUpdate(cmd.Context(), stderr)
			}
			return mcpserver.ServeStdio(server.New(a))
		},
	}
	cmd.Flags().BoolVar(&noUpdateCheck, "no-update-check", false, "Skip the background release check")
	return cmd
}

// notifyUpdate prints a notice when a newer release exists. Failures are
// ignored.
func notifyUpdate(ctx context.Context, w io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := updater.CheckVersion(ctx, server.Version)
	if err != nil || !res.Available {
		return
	}
	fmt.Fprintf(w, "\n  Update available: v%s -> v%s\n  Run: lifetest update\n  Release: %s\n\n",
		res.Current, res.Latest, res.URL)
}

func newHTTPCommand(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the HTTP API",
		Long: `Serve the questionnaire over HTTP until interrupted.

Endpoints:
  GET  /api/catalog            questionnaire in both languages
  POST /api/assessments        submit a complete assessment
  POST /api/reports            store a scored record
  GET  /api/reports/:id        stored record and its evaluation
  GET  /api/reports/:id/print  printable HTML report
  GET  /api/view?data=CODE     decode a transport code
  GET  /api/export.csv         all records as CSV
  GET  /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			if a.Config.Log.Level != "debug" && a.Config.Log.Level != "trace" {
				gin.SetMode(gin.ReleaseMode)
			}
			if addr == "" {
				addr = a.Config.HTTP.Addr
			}
			return httpapi.New(a).Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newBotCommand(g *globals) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Long: `Run the Telegram bot until interrupted. The token comes from --token,
TELEGRAM_BOT_TOKEN or telegram.token in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			if token == "" {
				token = a.Config.Telegram.Token
			}
			return bot.New(a).Run(cmd.Context(), token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Telegram bot token")
	return cmd
}
