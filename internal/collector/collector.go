// Package collector drives keyword-by-keyword acquisition from the trends
// provider into the store, with rate limiting, per-keyword fault isolation,
// and staleness-based incremental refresh.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quebec-market/trends-cli/internal/config"
	"github.com/quebec-market/trends-cli/internal/model"
	"github.com/quebec-market/trends-cli/internal/store"
	"github.com/quebec-market/trends-cli/pkg/gtrends"
)

// Provider is the external fetch capability. The collector requests
// exactly one keyword per call.
type Provider interface {
	InterestOverTime(ctx context.Context, req gtrends.Request) (*gtrends.Table, error)
}

// Collector orchestrates collection runs. It is single-writer and strictly
// sequential; categories and keywords are processed in catalogue order, one
// provider request at a time.
type Collector struct {
	cfg       *config.Config
	catalogue *config.Catalogue
	store     store.Store
	provider  Provider
	pacer     Pacer
	log       *zap.Logger

	now func() time.Time
}

// New creates a Collector. A nil pacer gets the configured fixed delay; a
// nil logger falls back to the global zap logger.
func New(cfg *config.Config, catalogue *config.Catalogue, st store.Store, provider Provider, pacer Pacer, log *zap.Logger) *Collector {
	if pacer == nil {
		pacer = NewFixedPacer(time.Duration(cfg.Collection.DelaySeconds) * time.Second)
	}
	if log == nil {
		log = zap.L()
	}
	return &Collector{
		cfg:       cfg,
		catalogue: catalogue,
		store:     st,
		provider:  provider,
		pacer:     pacer,
		log:       log,
		now:       time.Now,
	}
}

// CollectKeyword fetches one keyword's series from the provider. Empty
// results, a missing keyword column, and transport failures all map to a
// nil series ("absent"); the caller never sees a provider error.
func (c *Collector) CollectKeyword(ctx context.Context, keyword, category, timeframe string) []model.InterestPoint {
	if timeframe == "" {
		timeframe = c.cfg.Trends.Timeframe
	}

	c.log.Info("collecting keyword",
		zap.String("keyword", keyword),
		zap.String("category", category),
		zap.String("timeframe", timeframe),
	)

	table, err := c.provider.InterestOverTime(ctx, gtrends.Request{
		Keywords:  []string{keyword},
		Geo:       c.cfg.Trends.Geo,
		Timeframe: timeframe,
	})
	if err != nil {
		c.log.Error("trends fetch failed",
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		return nil
	}

	column, ok := table.Column(keyword)
	if !ok || len(column) == 0 {
		c.log.Warn("no data returned for keyword", zap.String("keyword", keyword))
		return nil
	}

	series := make([]model.InterestPoint, 0, len(column))
	for _, p := range column {
		series = append(series, model.InterestPoint{Date: p.Date, Value: p.Value})
	}

	c.log.Info("collected keyword",
		zap.String("keyword", keyword),
		zap.Int("records", len(series)),
	)
	return series
}

// CollectCategory collects every keyword in the category, in catalogue
// order, pacing after each one. A single keyword's failure never aborts
// the category; an unknown category is a configuration error and fails
// fast. One run record is written per call.
func (c *Collector) CollectCategory(ctx context.Context, category string) (*model.CategoryStats, error) {
	keywords, ok := c.catalogue.Keywords(category)
	if !ok {
		return nil, eris.Errorf("collector: category %q not found in keyword catalogue", category)
	}

	runID := uuid.New().String()
	log := c.log.With(zap.String("run_id", runID), zap.String("category", category))
	log.Info("starting category collection", zap.Int("keywords", len(keywords)))

	stats := &model.CategoryStats{
		Category:      category,
		TotalKeywords: len(keywords),
	}

	var ctxErr error
	for _, keyword := range keywords {
		series := c.CollectKeyword(ctx, keyword, category, "")
		if series == nil {
			stats.Failed++
			stats.FailedKeywords = append(stats.FailedKeywords, keyword)
		} else {
			up, err := c.store.UpsertPoints(ctx, keyword, category, series)
			if err != nil {
				log.Error("store write failed", zap.String("keyword", keyword), zap.Error(err))
				stats.Failed++
				stats.FailedKeywords = append(stats.FailedKeywords, keyword)
			} else {
				if len(up.Failed) > 0 {
					log.Warn("some rows skipped",
						zap.String("keyword", keyword),
						zap.Int("skipped", len(up.Failed)),
					)
				}
				stats.Successful++
				stats.RecordsInserted += up.Written
			}
		}

		if err := c.pacer.Wait(ctx); err != nil {
			ctxErr = eris.Wrap(err, "collector: pacer wait")
			break
		}
	}

	c.logRun(ctx, log, runID, keywords, stats)

	log.Info("category collection complete",
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Int("records_inserted", stats.RecordsInserted),
	)
	return stats, ctxErr
}

// logRun appends the run record. Run-log failures are logged and swallowed;
// they must not mask the collection outcome.
func (c *Collector) logRun(ctx context.Context, log *zap.Logger, runID string, keywords []string, stats *model.CategoryStats) {
	errMsg := ""
	if len(stats.FailedKeywords) > 0 {
		errMsg = fmt.Sprintf("failed keywords: %s", strings.Join(stats.FailedKeywords, ", "))
	}
	success := stats.Failed == 0

	if err := c.store.LogRun(ctx, runID, keywords, success, stats.RecordsInserted, errMsg); err != nil {
		log.Warn("run log write failed", zap.Error(err))
	}
}

// CollectAll collects every configured category strictly sequentially, in
// catalogue order, and returns aggregate statistics with wall-clock
// duration.
func (c *Collector) CollectAll(ctx context.Context) (*model.OverallStats, error) {
	start := c.now()
	overall := &model.OverallStats{StartTime: start}

	c.log.Info("starting full collection run",
		zap.Int("categories", len(c.catalogue.Categories)),
		zap.Int("keywords", c.catalogue.TotalKeywords()),
	)

	var runErr error
	for _, cat := range c.catalogue.Categories {
		stats, err := c.CollectCategory(ctx, cat.Name)
		if stats != nil {
			overall.CategoryStats = append(overall.CategoryStats, *stats)
			overall.Categories++
			overall.TotalKeywords += stats.TotalKeywords
			overall.TotalSuccessful += stats.Successful
			overall.TotalFailed += stats.Failed
			overall.TotalRecords += stats.RecordsInserted
		}
		if err != nil {
			runErr = err
			break
		}
	}

	overall.EndTime = c.now()
	overall.Duration = overall.EndTime.Sub(start)

	c.log.Info("collection run complete",
		zap.Duration("duration", overall.Duration),
		zap.Int("total_records", overall.TotalRecords),
		zap.Int("total_failed", overall.TotalFailed),
	)
	return overall, runErr
}

// stalePair is a (keyword, category) needing refresh.
type stalePair struct {
	keyword  string
	category string
}

// UpdateStale refreshes only keywords whose last collection is absent or
// older than the threshold. When nothing is stale the provider is never
// contacted.
func (c *Collector) UpdateStale(ctx context.Context, threshold time.Duration) (*model.RefreshStats, error) {
	cutoff := c.now().Add(-threshold)
	stats := &model.RefreshStats{}

	var stale []stalePair
	for _, cat := range c.catalogue.Categories {
		for _, keyword := range cat.Keywords {
			stats.KeywordsChecked++
			last, err := c.store.LatestCollectionTime(ctx, keyword)
			if err != nil {
				return nil, eris.Wrapf(err, "collector: staleness check for %s", keyword)
			}
			if last == nil || last.Before(cutoff) {
				stale = append(stale, stalePair{keyword: keyword, category: cat.Name})
				c.log.Info("keyword needs update",
					zap.String("keyword", keyword),
					zap.Timep("last_collected", last),
				)
			}
		}
	}

	if len(stale) == 0 {
		c.log.Info("all data is up to date", zap.Int("keywords_checked", stats.KeywordsChecked))
		return stats, nil
	}

	runID := uuid.New().String()
	log := c.log.With(zap.String("run_id", runID))
	log.Info("updating stale keywords", zap.Int("count", len(stale)))

	var (
		keywords []string
		failed   []string
	)
	for _, pair := range stale {
		keywords = append(keywords, pair.keyword)

		series := c.CollectKeyword(ctx, pair.keyword, pair.category, "")
		if series == nil {
			stats.Failed++
			failed = append(failed, pair.keyword)
		} else {
			up, err := c.store.UpsertPoints(ctx, pair.keyword, pair.category, series)
			if err != nil {
				log.Error("store write failed", zap.String("keyword", pair.keyword), zap.Error(err))
				stats.Failed++
				failed = append(failed, pair.keyword)
			} else {
				stats.KeywordsUpdated++
				stats.RecordsInserted += up.Written
			}
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return stats, eris.Wrap(err, "collector: pacer wait")
		}
	}

	errMsg := ""
	if len(failed) > 0 {
		errMsg = fmt.Sprintf("failed keywords: %s", strings.Join(failed, ", "))
	}
	if err := c.store.LogRun(ctx, runID, keywords, len(failed) == 0, stats.RecordsInserted, errMsg); err != nil {
		log.Warn("run log write failed", zap.Error(err))
	}

	log.Info("stale refresh complete",
		zap.Int("keywords_updated", stats.KeywordsUpdated),
		zap.Int("records_inserted", stats.RecordsInserted),
	)
	return stats, nil
}
