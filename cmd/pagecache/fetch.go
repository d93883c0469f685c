package main

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/pagecache/internal/config"
	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/Sternrassler/pagecache/pkg/logging"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		params []string
		count  int
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Fetch a page through a fresh cache and print it",
		Long: "Fetch a page from the configured origin through a fresh, process-local cache.\n" +
			"With --count > 1 the page is fetched repeatedly, showing revalidation.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.LoggingConfig())

			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			storeCfg := cfg.StoreConfig()
			storeCfg.AutoPrune = false
			store, err := cache.New(storeCfg)
			if err != nil {
				return err
			}
			defer store.StopAutoPrune()

			transport, err := client.NewHTTPTransport(cfg.TransportConfig())
			if err != nil {
				return err
			}
			fetcher := client.NewFetcher(store, transport)

			var last *client.Result
			for i := 0; i < count; i++ {
				result, err := fetcher.Fetch(cmd.Context(), args[0], client.FetchOptions{Params: parsed})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "attempt=%d status=%d from_cache=%t size=%d\n",
					i+1, result.Status, result.FromCache, len(result.Content))
				last = result
			}

			if !quiet && last != nil {
				_, err = cmd.OutOrStdout().Write(last.Content)
			}
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of fetches")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the page content")

	return cmd
}

// parseParams turns key=value flags into request parameters. Repeated keys
// become a list in flag order.
func parseParams(raw []string) (cache.Params, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	params := make(cache.Params, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q (want key=value)", kv)
		}

		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case []any:
			params[key] = append(existing, value)
		default:
			params[key] = []any{existing, value}
		}
	}
	return params, nil
}
