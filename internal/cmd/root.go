// Package cmd wires the lifetest front ends into a cobra command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/lifetest/internal/app"
	"github.com/HendryAvila/lifetest/internal/config"
	"github.com/HendryAvila/lifetest/internal/logging"
	"github.com/HendryAvila/lifetest/internal/server"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	dataDir    string
}

// NewRootCommand creates the root cobra command for lifetest.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "lifetest",
		Short: "Bilingual lifestyle assessment",
		Long: `lifetest walks a respondent through a lifestyle questionnaire covering
personal information, dietary habits, physical activity, general health
habits and medical history, then scores the answers, classifies the result
and gives recommendations in English or Arabic.

The questionnaire can be taken through an AI assistant (MCP over stdio),
an HTTP API, a Telegram bot or directly in the terminal.`,
		Version:      server.Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.lifetest/config.yaml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override the log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "Override the data directory")

	cmd.AddCommand(newServeCommand(g))
	cmd.AddCommand(newHTTPCommand(g))
	cmd.AddCommand(newBotCommand(g))
	cmd.AddCommand(newTakeCommand(g))
	cmd.AddCommand(newExportCommand(g))
	cmd.AddCommand(newDecodeCommand(g))
	cmd.AddCommand(newPruneCommand(g))
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig reads the config file, then the environment, then the flags.
func (g *globals) loadConfig() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
	}
	return cfg, nil
}

// open builds the shared dependencies. Logs go to stderr and, when
// configured, a rotated file. The returned cleanup closes both.
func (g *globals) open(ctx context.Context, stderr io.Writer) (*app.App, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, closeLog, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
		Stderr:  stderr,
	})
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	cleanup := func() {
		if err := errors.Join(a.Close(), closeLog()); err != nil {
			fmt.Fprintf(stderr, "closing: %v\n", err)
		}
	}
	return a, cleanup, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lifetest %s\n", server.Version)
		},
	}
}
