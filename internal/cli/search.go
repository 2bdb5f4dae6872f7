package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viper373/videostation/internal/models"
	"github.com/viper373/videostation/internal/search"
)

func newSearchCmd() *cobra.Command {
	var deep bool
	var noCatalog bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search the library by title or author",
		Long: `Score every known file, directory, and catalog record against a
free-text query and print the ranked matches. By default only the base
prefix is crawled before searching; --deep crawls the full tree first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			root := a.crawler.BasePrefix()
			if deep {
				if _, err := a.crawler.CrawlRecursive(ctx, root); err != nil {
					return fmt.Errorf("crawl %q: %w", root, err)
				}
			} else if _, err := a.crawler.Crawl(ctx, root); err != nil {
				return fmt.Errorf("crawl %q: %w", root, err)
			}

			var idx *models.MetadataIndex
			if !noCatalog {
				var err error
				if idx, err = a.aggregator.LoadCatalog(ctx); err != nil {
					// Best effort: search still covers everything crawled.
					logger.Warnf("metadata catalog unavailable: %v", err)
				}
			}

			corpus := search.CorpusFromCache(a.cache.All(), idx)
			results := a.engine.Search(query, corpus)
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}

			dirs, files := search.Partition(results)

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			if len(dirs) > 0 {
				fmt.Fprintln(w, "DIRECTORIES\tSCORE\tMATCHED")
				for _, r := range dirs {
					fmt.Fprintf(w, "%s\t%.1f\t%s\n", entryLabel(r.Entry), r.Score, strings.Join(r.MatchedKeywords, ","))
				}
				fmt.Fprintln(w, "\t\t")
			}
			if len(files) > 0 {
				fmt.Fprintln(w, "FILES\tSCORE\tMATCHED")
				for _, r := range files {
					fmt.Fprintf(w, "%s\t%.1f\t%s\n", entryLabel(r.Entry), r.Score, strings.Join(r.MatchedKeywords, ","))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Recursively crawl the whole tree before searching")
	cmd.Flags().BoolVar(&noCatalog, "no-catalog", false, "Search crawled entries only, skipping the metadata catalog")

	return cmd
}
