package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/quebec-market/trends-cli/internal/collector"
	"github.com/quebec-market/trends-cli/internal/config"
	"github.com/quebec-market/trends-cli/internal/store"
	"github.com/quebec-market/trends-cli/pkg/gtrends"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "data/trends.db"
		}
		return store.NewSQLite(path, cfg.Trends.Geo)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Trends.Geo)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCatalogue() (*config.Catalogue, error) {
	return config.LoadCatalogue(cfg.Collection.KeywordsFile)
}

// initCollector wires the store, catalogue, trends client, and pacer into
// a ready Collector. The caller owns closing the returned store.
func initCollector(ctx context.Context, pacer collector.Pacer) (*collector.Collector, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	catalogue, err := initCatalogue()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	client := gtrends.NewClient(
		gtrends.WithLanguage(cfg.Trends.Language),
		gtrends.WithTimezone(cfg.Trends.TimezoneOffset),
	)
	provider := collector.NewRetryingProvider(client, cfg.Collection.RetryAttempts, nil)

	return collector.New(cfg, catalogue, st, provider, pacer, nil), st, nil
}
