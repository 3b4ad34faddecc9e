package cli

import (
	"github.com/spf13/cobra"

	"ListingScanner/internal/usecase"
)

type queryFlags struct {
	source   string
	keyword  string
	location string
	url      string
}

func (q *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.source, "source", "s", "", "listing source: maps or justdial")
	cmd.Flags().StringVarP(&q.keyword, "keyword", "k", "", "business keyword, e.g. \"coffee\"")
	cmd.Flags().StringVarP(&q.location, "location", "l", "", "search location, e.g. \"nyc\"")
	cmd.Flags().StringVar(&q.url, "url", "", "direct search URL instead of keyword/location")
}

func (q *queryFlags) query() (usecase.Query, error) {
	source, err := parseSource(q.source)
	if err != nil {
		return usecase.Query{}, err
	}
	return usecase.Query{Source: source, Keyword: q.keyword, Location: q.location, URL: q.url}, nil
}

func newScrapeCmd(rt *runtime) *cobra.Command {
	var (
		q           queryFlags
		maxListings int
		scrolls     int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape a search and ingest the listings",
		Long: `Opens the source search in a browser, extracts listings and merges them
into the namespace of the query. Listings already stored are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}

			application, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			query.MaxListings = application.Config().Scrape.MaxListings
			if cmd.Flags().Changed("max") {
				query.MaxListings = maxListings
			}
			query.Scrolls = application.Config().Scrape.Scrolls
			if cmd.Flags().Changed("scrolls") {
				query.Scrolls = scrolls
			}

			ns, res, err := application.Collector().Collect(cmd.Context(), query)
			if ns.ID != "" {
				printResult(cmd, ns, res)
			}
			return err
		},
	}

	q.bind(cmd)
	cmd.Flags().IntVarP(&maxListings, "max", "m", 30, "maximum listings to extract")
	cmd.Flags().IntVar(&scrolls, "scrolls", 3, "result list scrolls before extraction")
	return cmd
}
