package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [author]",
		Short: "List metadata catalog records",
		Long: `Fetch the metadata catalog, optionally filtered to one author, and
print the records. A missing or failing metadata service yields an empty
listing, not an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			author := ""
			if len(args) == 1 {
				author = args[0]
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AUTHOR\tTITLE\tDURATION\tVIEWS")

			if author != "" {
				records, err := a.aggregator.FetchAuthor(ctx, author)
				if err != nil {
					logger.Warnf("metadata for %q unavailable: %v", author, err)
				}
				for _, rec := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", rec.Author, rec.VideoTitle, rec.Duration, rec.VideoViews)
				}
				return w.Flush()
			}

			idx, err := a.aggregator.LoadCatalog(ctx)
			if err != nil {
				logger.Warnf("metadata catalog unavailable: %v", err)
			}
			authors := idx.Authors()
			sort.Strings(authors)
			for _, name := range authors {
				for _, rec := range idx.ByAuthor(name) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", rec.Author, rec.VideoTitle, rec.Duration, rec.VideoViews)
				}
			}
			return w.Flush()
		},
	}
	return cmd
}
