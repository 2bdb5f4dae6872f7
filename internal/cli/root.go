// Package cli provides the command-line interface for videostation.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/viper373/videostation/internal/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global logger
	logger *logging.Logger
)

// Version information - set by the main package at startup.
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "videostation",
		Short: "Browse and search an object-storage video library",
		Long: `Videostation ` + Version + ` - Built: ` + BuildTime + `
Crawls an S3-compatible bucket of videos grouped by author, joins
per-author metadata (duration, view counts), and answers fuzzy
free-text queries over the combined corpus.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newCatalogCmd())

	return rootCmd
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
