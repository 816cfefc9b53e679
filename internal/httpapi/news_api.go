package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
	"github.com/johnrirwin/newsdesk/internal/ratelimit"
	"github.com/johnrirwin/newsdesk/internal/reader"
)

// NewsAPI serves sources and headlines.
type NewsAPI struct {
	reader  *reader.Service
	limiter ratelimit.RateLimiter
	logger  *logging.Logger
}

func NewNewsAPI(svc *reader.Service, limiter ratelimit.RateLimiter, logger *logging.Logger) *NewsAPI {
	return &NewsAPI{
		reader:  svc,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRoutes registers news routes on the given mux
func (api *NewsAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/sources", corsMiddleware(api.handleSources))
	mux.HandleFunc("/api/headlines", corsMiddleware(api.handleHeadlines))
}

type sourcesResponse struct {
	State    models.LoadState `json:"state"`
	Sources  json.RawMessage  `json:"sources"`
	Count    int              `json:"count"`
	Selected []string         `json:"selected"`
}

type headlinesResponse struct {
	State    models.LoadState `json:"state"`
	Articles json.RawMessage  `json:"articles"`
	Count    int              `json:"count"`
	SavedIDs []string         `json:"saved_ids"`
}

func (api *NewsAPI) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	force, ok := api.allowRefresh(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	sources, state, err := api.reader.Sources(ctx, force)
	body, encErr := codec.EncodeSourceList(sources)
	if encErr != nil {
		api.logger.Error("Failed to encode sources", logging.WithField("error", encErr.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", encErr.Error())
		return
	}

	writeJSON(w, statusFor(err), sourcesResponse{
		State:    state,
		Sources:  body,
		Count:    len(sources),
		Selected: api.reader.Selected(ctx).Sorted(),
	})
}

func (api *NewsAPI) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	force, ok := api.allowRefresh(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	articles, state, err := api.reader.Headlines(ctx, force)
	body, encErr := codec.EncodeArticles(articles)
	if encErr != nil {
		api.logger.Error("Failed to encode headlines", logging.WithField("error", encErr.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", encErr.Error())
		return
	}

	writeJSON(w, statusFor(err), headlinesResponse{
		State:    state,
		Articles: body,
		Count:    len(articles),
		SavedIDs: sortedIDs(api.reader.SavedIDs()),
	})
}

// allowRefresh reads ?refresh and applies the per-client limit to forced
// refreshes. It writes the 429 itself.
func (api *NewsAPI) allowRefresh(w http.ResponseWriter, r *http.Request) (force bool, ok bool) {
	switch r.URL.Query().Get("refresh") {
	case "1", "true":
		force = true
	default:
		return false, true
	}

	if api.limiter != nil && !api.limiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Refresh requested too soon, try again shortly")
		return false, false
	}
	return true, true
}

// statusFor maps an upstream failure to 502, or 500 when the request could
// not be built; the body still carries the failed state.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case newsapi.IsKind(err, newsapi.KindBadURL):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
