// drive-explorer browses a Microsoft 365 drive through Microsoft Graph,
// either in the browser (serve) or from the terminal (ls, get).
package main

import (
	"os"

	"github.com/rescale/drive-explorer/internal/cli"
	"github.com/rescale/drive-explorer/internal/version"
)

// Set by ldflags: -X main.Version=... -X main.BuildTime=...
var (
	Version   = ""
	BuildTime = ""
)

func main() {
	if Version != "" {
		version.Version = Version
	}
	if BuildTime != "" {
		version.BuildTime = BuildTime
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
