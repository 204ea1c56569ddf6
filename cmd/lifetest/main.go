// lifetest: bilingual lifestyle assessment.
//
// Usage:
//
//	lifetest serve          # MCP server (stdio transport)
//	lifetest http           # HTTP API
//	lifetest bot            # Telegram bot
//	lifetest take           # questionnaire in the terminal
//	lifetest export         # stored reports as CSV
//	lifetest decode CODE    # show a shared result
//	lifetest update         # update to the latest release
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/lifetest/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
