package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/models"
)

// SourcesKey is the Fail key for the sources endpoint.
const SourcesKey = ""

// Failure is a scripted non-2xx response.
type Failure struct {
	Status int
	Body   string
}

// NewsAPIServer is a scripted stand-in for newsapi.org.
type NewsAPIServer struct {
	*httptest.Server

	mu        sync.Mutex
	sources   []models.Source
	headlines map[string][]models.Article
	failures  map[string]Failure
	requests  []string
}

// NewNewsAPIServer starts a server that is closed when the test ends.
func NewNewsAPIServer(t *testing.T) *NewsAPIServer {
	t.Helper()
	s := &NewsAPIServer{
		headlines: make(map[string][]models.Article),
		failures:  make(map[string]Failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *NewsAPIServer) SetSources(sources ...models.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sources
}

func (s *NewsAPIServer) SetHeadlines(sourceID string, articles ...models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headlines[sourceID] = articles
}

// Fail makes requests for key (a source id, or SourcesKey) answer with
// the given status and body.
func (s *NewsAPIServer) Fail(key string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = Failure{Status: status, Body: body}
}

// Requests lists the keys requested so far, in arrival order.
func (s *NewsAPIServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *NewsAPIServer) handle(w http.ResponseWriter, r *http.Request) {
	key := SourcesKey
	if r.URL.Path == "/v2/top-headlines" {
		key = r.URL.Query().Get("sources")
	} else if r.URL.Path != "/v2/top-headlines/sources" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, key)
	failure, failed := s.failures[key]
	sources := s.sources
	articles := s.headlines[key]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failed {
		w.WriteHeader(failure.Status)
		w.Write([]byte(failure.Body))
		return
	}

	if key == SourcesKey {
		writeSources(w, sources)
		return
	}
	writeHeadlines(w, articles)
}

func writeSources(w http.ResponseWriter, sources []models.Source) {
	encoded, err := codec.EncodeSources(sources)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(encoded)
}

func writeHeadlines(w http.ResponseWriter, articles []models.Article) {
	encoded, err := codec.EncodeArticles(articles)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ok",
		"totalResults": len(articles),
		"articles":     json.RawMessage(encoded),
	})
}
