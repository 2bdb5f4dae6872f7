// Videostation - crawler and fuzzy search for an object-storage video library
package main

import (
	"os"

	"github.com/viper373/videostation/internal/cli"
)

// Version information
var (
	Version   = "v1.0.0"
	BuildTime = "2026-08-29"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
