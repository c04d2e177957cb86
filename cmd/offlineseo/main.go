// Command offlineseo drives the crawler and the search API, wiring
// config, logging and every internal package together. The cobra
// subcommand layout (root + serve + crawl) is grounded in
// rohmanhakim-docs-crawler's internal/cli/root.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "offlineseo",
		Short: "Offline SEO indexer and search service",
		Long: `offlineseo crawls seed sites, extracts SEO fields, indexes them into a
search backend, serves keyword queries, and maintains a click-driven
ranking signal that decays over time.`,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCrawlCmd())
	return root
}
