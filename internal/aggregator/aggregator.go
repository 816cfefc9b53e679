package aggregator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
)

// Aggregator merges NewsAPI results across sources. A headline fetch is
// all-or-nothing: the first failing source cancels its siblings and its
// error is the result.
type Aggregator struct {
	api      newsapi.API
	pageSize int
	logger   *logging.Logger
}

func New(api newsapi.API, logger *logging.Logger) *Aggregator {
	return &Aggregator{
		api:      api,
		pageSize: newsapi.DefaultPageSize,
		logger:   logger,
	}
}

// ListSources returns all sources ordered by name.
func (a *Aggregator) ListSources(ctx context.Context) ([]models.Source, error) {
	sources, err := a.api.FetchSources(ctx)
	if err != nil {
		a.logger.Warn("Failed to fetch sources", logging.WithField("error", err.Error()))
		return nil, err
	}
	sortByName(sources)
	return sources, nil
}

// ListHeadlines fetches headlines for every source id concurrently and
// returns them deduplicated by id, newest first.
func (a *Aggregator) ListHeadlines(ctx context.Context, sourceIDs []string) ([]models.Article, error) {
	ids := normalizeIDs(sourceIDs)
	if len(ids) == 0 {
		return []models.Article{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		mu  sync.Mutex
		all []models.Article
	)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			articles, err := a.api.FetchHeadlines(gctx, id, a.pageSize)
			if err != nil {
				a.logger.Warn("Failed to fetch headlines from source", logging.WithFields(map[string]interface{}{
					"source": id,
					"error":  err.Error(),
				}))
				return err
			}

			a.logger.Debug("Fetched headlines from source", logging.WithFields(map[string]interface{}{
				"source": id,
				"count":  len(articles),
			}))

			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	deduped := deduplicate(all)
	sortByDate(deduped)

	a.logger.Info("Aggregation complete", logging.WithFields(map[string]interface{}{
		"total_items":  len(deduped),
		"sources_used": len(ids),
	}))

	return deduped, nil
}

// normalizeIDs trims ids and drops empties and repeats, keeping first-seen
// order.
func normalizeIDs(sourceIDs []string) []string {
	seen := make(map[string]bool, len(sourceIDs))
	ids := make([]string, 0, len(sourceIDs))
	for _, raw := range sourceIDs {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// deduplicate keeps the first article seen for each id.
func deduplicate(items []models.Article) []models.Article {
	seen := make(map[string]bool, len(items))
	result := make([]models.Article, 0, len(items))

	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		result = append(result, item)
	}

	return result
}

// sortByDate orders newest first; undated articles sort last. Ties keep
// their relative order.
func sortByDate(items []models.Article) {
	sort.SliceStable(items, func(i, j int) bool {
		return newer(items[i], items[j])
	})
}

func newer(a, b models.Article) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	default:
		return a.PublishedAt.After(*b.PublishedAt)
	}
}

func sortByName(sources []models.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
}
