package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
)

type fakeAPI struct {
	mu        sync.Mutex
	sources   []models.Source
	headlines map[string][]models.Article
	failures  map[string]error
	block     map[string]bool
	calls     []string
	pageSizes []int
	cancelled atomic.Int32
}

func (f *fakeAPI) FetchSources(ctx context.Context) ([]models.Source, error) {
	if err := f.failures[""]; err != nil {
		return nil, err
	}
	out := make([]models.Source, len(f.sources))
	copy(out, f.sources)
	return out, nil
}

func (f *fakeAPI) FetchHeadlines(ctx context.Context, sourceID string, pageSize int) ([]models.Article, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sourceID)
	f.pageSizes = append(f.pageSizes, pageSize)
	f.mu.Unlock()

	if f.block[sourceID] {
		<-ctx.Done()
		f.cancelled.Add(1)
		return nil, ctx.Err()
	}
	if err := f.failures[sourceID]; err != nil {
		return nil, err
	}
	return f.headlines[sourceID], nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func article(id string, published string) models.Article {
	opts := models.ArticleOptions{ID: id}
	if published != "" {
		opts.PublishedAt = at(published)
	}
	return models.NewArticle("https://example.com/"+id, "Title "+id, opts)
}

func ids(items []models.Article) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListHeadlines_MergesAndSorts(t *testing.T) {
	api := &fakeAPI{headlines: map[string][]models.Article{
		"abc": {article("X", "2024-01-01T10:00:00Z"), article("Y", "2024-01-02T10:00:00Z")},
		"bbc": {article("Z", "2024-01-03T10:00:00Z"), article("X", "2024-01-04T10:00:00Z")},
	}}
	agg := New(api, nil)

	got, err := agg.ListHeadlines(context.Background(), []string{"abc", "bbc"})
	if err != nil {
		t.Fatalf("ListHeadlines() error = %v", err)
	}

	// X is kept once; which copy survives depends on completion order.
	if len(got) != 3 {
		t.Fatalf("got %d articles (%v), want 3", len(got), ids(got))
	}
	seen := map[string]int{}
	for _, a := range got {
		seen[a.ID]++
	}
	for _, id := range []string{"X", "Y", "Z"} {
		if seen[id] != 1 {
			t.Errorf("article %s appears %d times, want 1", id, seen[id])
		}
	}
	for i := 1; i < len(got); i++ {
		if newer(got[i], got[i-1]) {
			t.Errorf("articles not in descending order at %d: %v", i, ids(got))
		}
	}
	if got[0].ID != "X" && got[0].ID != "Z" {
		t.Errorf("newest article should be X or Z, got %v", ids(got))
	}
}

func TestListHeadlines_EmptySelection(t *testing.T) {
	api := &fakeAPI{}
	agg := New(api, nil)

	for _, input := range [][]string{nil, {}, {"", "  "}} {
		got, err := agg.ListHeadlines(context.Background(), input)
		if err != nil {
			t.Fatalf("ListHeadlines(%q) error = %v", input, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("ListHeadlines(%q) = %v, want empty non-nil slice", input, got)
		}
	}
	if len(api.calls) != 0 {
		t.Errorf("expected no requests, got %v", api.calls)
	}
}

func TestListHeadlines_NormalizesIDs(t *testing.T) {
	api := &fakeAPI{headlines: map[string][]models.Article{
		"abc": {article("A", "2024-01-01T00:00:00Z")},
	}}
	agg := New(api, nil)

	if _, err := agg.ListHeadlines(context.Background(), []string{" abc ", "abc", ""}); err != nil {
		t.Fatalf("ListHeadlines() error = %v", err)
	}
	if !equalStrings(api.calls, []string{"abc"}) {
		t.Errorf("calls = %v, want [abc]", api.calls)
	}
	if api.pageSizes[0] != newsapi.DefaultPageSize {
		t.Errorf("pageSize = %d, want %d", api.pageSizes[0], newsapi.DefaultPageSize)
	}
}

func TestListHeadlines_FailFast(t *testing.T) {
	boom := newsapi.APIRejected(401, "apiKeyInvalid", "bad key")
	api := &fakeAPI{
		headlines: map[string][]models.Article{"abc": {article("A", "")}},
		failures:  map[string]error{"bbc": boom},
		block:     map[string]bool{"slow": true},
	}
	agg := New(api, nil)

	done := make(chan struct{})
	var (
		got []models.Article
		err error
	)
	go func() {
		got, err = agg.ListHeadlines(context.Background(), []string{"abc", "bbc", "slow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ListHeadlines did not cancel the remaining fetches")
	}

	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if got != nil {
		t.Errorf("partial results returned: %v", ids(got))
	}
	if api.cancelled.Load() != 1 {
		t.Errorf("blocked fetch was not cancelled")
	}
}

func TestListHeadlines_ContextCancelled(t *testing.T) {
	api := &fakeAPI{block: map[string]bool{"abc": true}}
	agg := New(api, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.ListHeadlines(ctx, []string{"abc"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestListSources_SortedByName(t *testing.T) {
	api := &fakeAPI{sources: []models.Source{
		{ID: "c", Name: "CNN"},
		{ID: "a", Name: "ABC News"},
		{ID: "b2", Name: "BBC"},
		{ID: "b1", Name: "BBC"},
	}}
	agg := New(api, nil)

	got, err := agg.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}

	var gotIDs []string
	for _, s := range got {
		gotIDs = append(gotIDs, s.ID)
	}
	if want := []string{"a", "b2", "b1", "c"}; !equalStrings(gotIDs, want) {
		t.Errorf("order = %v, want %v", gotIDs, want)
	}
}

func TestListSources_Error(t *testing.T) {
	boom := errors.New("down")
	agg := New(&fakeAPI{failures: map[string]error{"": boom}}, nil)

	if _, err := agg.ListSources(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestSortByDate(t *testing.T) {
	items := []models.Article{
		article("old", "2024-01-01T00:00:00Z"),
		article("none1", ""),
		article("new", "2024-03-01T00:00:00Z"),
		article("tieA", "2024-02-01T00:00:00Z"),
		article("none2", ""),
		article("tieB", "2024-02-01T00:00:00Z"),
	}

	sortByDate(items)

	want := []string{"new", "tieA", "tieB", "old", "none1", "none2"}
	if got := ids(items); !equalStrings(got, want) {
		t.Errorf("sortByDate() = %v, want %v", got, want)
	}
}

func TestSortByDate_Empty(t *testing.T) {
	items := []models.Article{}
	sortByDate(items)
}

func TestDeduplicate(t *testing.T) {
	first := article("X", "2024-01-01T00:00:00Z")
	second := article("X", "2024-05-01T00:00:00Z")
	items := []models.Article{first, article("Y", ""), second}

	got := deduplicate(items)

	if want := []string{"X", "Y"}; !equalStrings(ids(got), want) {
		t.Fatalf("deduplicate() = %v, want %v", ids(got), want)
	}
	if !got[0].PublishedAt.Equal(*first.PublishedAt) {
		t.Error("deduplicate should keep the first occurrence")
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := normalizeIDs([]string{" bbc-news", "", "abc-news", "bbc-news ", "\t"})
	if want := []string{"bbc-news", "abc-news"}; !equalStrings(got, want) {
		t.Errorf("normalizeIDs() = %v, want %v", got, want)
	}
}

func TestListHeadlines_SharedURLAcrossSources(t *testing.T) {
	shared := models.NewArticle("https://example.com/shared", "Shared", models.ArticleOptions{
		PublishedAt: at("2026-01-14T10:00:00Z"),
	})
	later := models.NewArticle("https://example.com/later", "Later", models.ArticleOptions{
		PublishedAt: at("2026-01-15T10:00:00Z"),
	})
	api := &fakeAPI{headlines: map[string][]models.Article{
		"abc-news": {shared},
		"bbc-news": {shared, later},
	}}

	got, err := New(api, nil).ListHeadlines(context.Background(), []string{"abc-news", "bbc-news"})
	if err != nil {
		t.Fatalf("ListHeadlines() error = %v", err)
	}
	if want := []string{"https://example.com/later", "https://example.com/shared"}; !equalStrings(ids(got), want) {
		t.Errorf("ListHeadlines() = %v, want %v", ids(got), want)
	}
}
