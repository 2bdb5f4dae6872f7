package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viper373/videostation/internal/models"
)

func newBrowseCmd() *cobra.Command {
	var withStats bool
	var noMetadata bool

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "List one directory of the video library",
		Long: `List the immediate children of a library path (the empty path is the
configured base prefix). File entries are joined against the metadata
service for duration and view counts unless --no-metadata is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			prefix := a.crawler.ResolvePrefix(path)

			entries, err := a.crawler.Crawl(ctx, prefix)
			if err != nil {
				return fmt.Errorf("browse %q: %w", path, err)
			}
			if !noMetadata {
				a.aggregator.AttachMetadata(ctx, entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tDURATION\tVIEWS\tMODIFIED")
			for _, e := range entries {
				if e.IsDirectory {
					fmt.Fprintf(w, "%s/\tdir\t-\t-\t-\t-\n", e.Name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					e.Name, e.FileType, FormatSize(e.Size), e.Duration(), e.Views(), FormatDate(e.LastModified))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if withStats {
				stats, err := a.stats.Collect(ctx, prefix)
				if err != nil {
					logger.Warnf("directory stats unavailable: %v", err)
				} else {
					fmt.Printf("\n%d videos, last updated %s\n", stats.VideoCount, FormatDate(stats.LastUpdated))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withStats, "stats", false, "Append a recursive video count and newest-upload rollup")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "Skip the metadata service join")

	return cmd
}

// entryLabel renders an entry name with its directory marker.
func entryLabel(e models.Entry) string {
	if e.IsDirectory {
		return e.Name + "/"
	}
	return e.Name
}
