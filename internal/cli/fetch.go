package cli

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/leonardcser/quickscope/internal/fetcher"
)

func newFetchCmd(s *session) *cobra.Command {
	var (
		req     fetcher.Request
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "fetch TICKER",
		Short: "Fetch market data for a ticker and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Ticker = args[0]
			category, err := fetcher.Resolve(req.Category)
			if err != nil {
				return err
			}
			if refresh && s.store != nil {
				s.store.Delete(req.Ticker, category)
			}

			v, err := fetcher.Dispatch(cmd.Context(), s.cached(), req)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&req.Category, "category", "all", "one of all, price, fundamentals, options, analyst_ratings, news")
	cmd.Flags().StringVar(&req.Price.Period, "period", fetcher.DefaultPriceOptions.Period, "price history window")
	cmd.Flags().StringVar(&req.Price.Interval, "interval", fetcher.DefaultPriceOptions.Interval, "price bar size (1d, 1wk, 1mo)")
	cmd.Flags().IntVar(&req.MaxNews, "max-news", fetcher.DefaultBundleNews, "maximum news items")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop the cached entry before fetching")

	return cmd
}
