package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [path]",
		Short: "Recursively enumerate a library subtree",
		Long: `Walk every prefix reachable from a library path, following listing
pagination to exhaustion, and print the discovered directories. Failed
subtrees are skipped; whatever succeeded stays cached for this run.`,
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
			root := a.crawler.ResolvePrefix(path)

			discovered, err := a.crawler.CrawlRecursive(ctx, root)
			if err != nil {
				return fmt.Errorf("crawl %q: %w", path, err)
			}

			for _, prefix := range discovered {
				fmt.Println(prefix)
			}
			fmt.Printf("%d directories under %s\n", len(discovered), root)
			return nil
		},
	}
	return cmd
}
