// Package reader is the application service shared by the HTTP API, the
// MCP server and the CLI. It turns aggregator results into load states
// and owns every mutation of the selection and the saved collection.
package reader

import (
	"context"
	"strings"
	"sync"

	"github.com/johnrirwin/newsdesk/internal/cache"
	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
	"github.com/johnrirwin/newsdesk/internal/saved"
	"github.com/johnrirwin/newsdesk/internal/selection"
)

var (
	StateNoSourcesSelected = models.Empty("No Sources Selected", "Go to Sources and select one or more sources.")
	StateNoResults         = models.Empty("No Results", "No articles were returned for the selected sources.")
	StateNoSources         = models.Empty("No Sources", "No news sources are currently available.")
)

const (
	sourcesCacheKey   = "sources"
	headlinesCacheKey = "headlines:"
)

// Aggregator is the fetch side the service depends on.
type Aggregator interface {
	ListSources(ctx context.Context) ([]models.Source, error)
	ListHeadlines(ctx context.Context, sourceIDs []string) ([]models.Article, error)
}

type Service struct {
	agg       Aggregator
	selection selection.Store
	saved     *saved.Collection
	cache     cache.Cache
	logger    *logging.Logger

	// selMu serializes read-modify-write of the selection.
	selMu sync.Mutex
}

// New wires the service. A nil cache disables response caching.
func New(agg Aggregator, sel selection.Store, savedArticles *saved.Collection, c cache.Cache, logger *logging.Logger) *Service {
	return &Service{
		agg:       agg,
		selection: sel,
		saved:     savedArticles,
		cache:     c,
		logger:    logger,
	}
}

// Headlines returns the merged headlines for the current selection. The
// error is also reflected in the returned state.
func (s *Service) Headlines(ctx context.Context, force bool) ([]models.Article, models.LoadState, error) {
	ids := s.selection.Get(ctx).Sorted()
	if len(ids) == 0 {
		return []models.Article{}, StateNoSourcesSelected, nil
	}

	key := headlinesCacheKey + strings.Join(ids, ",")
	articles, hit := s.cachedArticles(key, force)
	if !hit {
		var err error
		articles, err = s.agg.ListHeadlines(ctx, ids)
		if err != nil {
			s.logger.Error("Failed to load headlines", logging.WithFields(map[string]interface{}{
				"sources": len(ids),
				"kind":    newsapi.KindOf(err).String(),
				"error":   err.Error(),
			}))
			return []models.Article{}, models.Failed(err.Error()), err
		}
		s.storeArticles(key, articles)
	}

	if len(articles) == 0 {
		return articles, StateNoResults, nil
	}
	return articles, models.Loaded(), nil
}

// Sources returns every available source, sorted by name.
func (s *Service) Sources(ctx context.Context, force bool) ([]models.Source, models.LoadState, error) {
	sources, hit := s.cachedSources(force)
	if !hit {
		var previous []models.Source
		if force {
			previous, _ = s.cachedSources(false)
		}

		var err error
		sources, err = s.agg.ListSources(ctx)
		if err != nil {
			s.logger.Error("Failed to load sources", logging.WithFields(map[string]interface{}{
				"kind":  newsapi.KindOf(err).String(),
				"error": err.Error(),
			}))
			return []models.Source{}, models.Failed(err.Error()), err
		}
		if previous != nil && !sameSources(previous, sources) {
			s.logger.Info("Source list changed", logging.WithFields(map[string]interface{}{
				"before": len(previous),
				"after":  len(sources),
			}))
		}
		s.storeSources(sources)
	}

	if len(sources) == 0 {
		return sources, StateNoSources, nil
	}
	return sources, models.Loaded(), nil
}

// Selected returns a copy of the current selection.
func (s *Service) Selected(ctx context.Context) models.SelectionSet {
	return s.selection.Get(ctx)
}

func (s *Service) IsSelected(ctx context.Context, id string) bool {
	return s.selection.Get(ctx).Contains(id)
}

func (s *Service) SelectedCount(ctx context.Context) int {
	return len(s.selection.Get(ctx))
}

// ToggleSource flips one source and reports whether it is now selected.
func (s *Service) ToggleSource(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()

	ids := s.selection.Get(ctx)
	_, was := ids[id]
	if was {
		delete(ids, id)
	} else {
		ids[id] = struct{}{}
	}
	s.selection.Set(ctx, ids)
	return !was
}

// SelectSources replaces the selection. Blank ids are dropped.
func (s *Service) SelectSources(ctx context.Context, ids []string) models.SelectionSet {
	next := models.NewSelectionSet()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			next[id] = struct{}{}
		}
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selection.Set(ctx, next)
	return next.Clone()
}

func (s *Service) ClearSelection(ctx context.Context) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selection.Set(ctx, models.NewSelectionSet())
}

// SaveArticle adds the article to the front of the saved collection. An
// already saved article is left alone and reported false.
func (s *Service) SaveArticle(article models.Article) bool {
	return s.saved.Add(article)
}

// ToggleSaved reports whether the article is saved afterwards.
func (s *Service) ToggleSaved(article models.Article) bool {
	return s.saved.Toggle(article)
}

func (s *Service) DeleteSaved(ids ...string) int {
	return s.saved.Remove(ids...)
}

// DeleteSavedAt removes by position in SavedArticles order.
func (s *Service) DeleteSavedAt(offsets ...int) int {
	return s.saved.RemoveAt(offsets...)
}

func (s *Service) SavedArticles() []models.Article {
	return s.saved.List()
}

func (s *Service) SavedIDs() map[string]struct{} {
	return s.saved.IDs()
}

func (s *Service) IsSaved(id string) bool {
	return s.saved.Contains(id)
}

// FindArticle looks an id up in the saved collection, then in the
// headlines of the current selection (cached when possible).
func (s *Service) FindArticle(ctx context.Context, id string) (models.Article, bool) {
	for _, a := range s.saved.List() {
		if a.ID == id {
			return a, true
		}
	}

	articles, _, err := s.Headlines(ctx, false)
	if err != nil {
		return models.Article{}, false
	}
	for _, a := range articles {
		if a.ID == id {
			return a, true
		}
	}
	return models.Article{}, false
}

func (s *Service) cachedArticles(key string, force bool) ([]models.Article, bool) {
	if s.cache == nil || force {
		return nil, false
	}
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	articles, err := codec.DecodeArticles(data)
	if err != nil {
		s.logger.Warn("Discarding unreadable cache entry", logging.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}))
		s.cache.Delete(key)
		return nil, false
	}
	return articles, true
}

func (s *Service) storeArticles(key string, articles []models.Article) {
	if s.cache == nil {
		return
	}
	data, err := codec.EncodeArticles(articles)
	if err != nil {
		s.logger.Warn("Failed to cache headlines", logging.WithField("error", err.Error()))
		return
	}
	s.cache.Set(key, data)
}

func (s *Service) cachedSources(force bool) ([]models.Source, bool) {
	if s.cache == nil || force {
		return nil, false
	}
	data, ok := s.cache.Get(sourcesCacheKey)
	if !ok {
		return nil, false
	}
	sources, err := codec.DecodeSources(data)
	if err != nil {
		s.cache.Delete(sourcesCacheKey)
		return nil, false
	}
	return sources, true
}

func sameSources(a, b []models.Source) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (s *Service) storeSources(sources []models.Source) {
	if s.cache == nil {
		return
	}
	data, err := codec.EncodeSources(sources)
	if err != nil {
		s.logger.Warn("Failed to cache sources", logging.WithField("error", err.Error()))
		return
	}
	s.cache.Set(sourcesCacheKey, data)
}
