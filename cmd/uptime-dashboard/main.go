// Command uptime-dashboard serves the uptime dashboard API and probes
// registered services on a schedule.
package main

import (
	"log/slog"
	"os"

	"github.com/bissquit/uptime-dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}
