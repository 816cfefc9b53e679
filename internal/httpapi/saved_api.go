package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/reader"
)

const maxArticleBody = 1 << 20

// SavedAPI manages the saved-articles collection.
type SavedAPI struct {
	reader *reader.Service
	logger *logging.Logger
}

func NewSavedAPI(svc *reader.Service, logger *logging.Logger) *SavedAPI {
	return &SavedAPI{reader: svc, logger: logger}
}

// RegisterRoutes registers saved-article routes on the given mux
func (api *SavedAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/saved", corsMiddleware(api.handleSaved))
	mux.HandleFunc("/api/saved/toggle", corsMiddleware(api.handleToggle))
	mux.HandleFunc("/api/saved/", corsMiddleware(api.handleSavedItem))
}

type savedResponse struct {
	Articles json.RawMessage `json:"articles"`
	Count    int             `json:"count"`
}

func (api *SavedAPI) handleSaved(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listSaved(w)
	case http.MethodPost:
		api.saveArticle(w, r)
	case http.MethodDelete:
		api.deleteSaved(w, r, "")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSavedItem serves DELETE /api/saved/{id}. Ids are article URLs, so
// clients that cannot send them in the path use ?id= on /api/saved.
func (api *SavedAPI) handleSavedItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.deleteSaved(w, r, strings.TrimPrefix(r.URL.Path, "/api/saved/"))
}

func (api *SavedAPI) listSaved(w http.ResponseWriter) {
	articles := api.reader.SavedArticles()
	body, err := codec.EncodeArticles(articles)
	if err != nil {
		api.logger.Error("Failed to encode saved articles", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{Articles: body, Count: len(articles)})
}

func (api *SavedAPI) saveArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := api.readArticle(w, r)
	if !ok {
		return
	}

	status := http.StatusOK
	added := api.reader.SaveArticle(article)
	if added {
		status = http.StatusCreated
		api.logger.Info("Saved article", logging.WithField("id", article.ID))
	}

	writeJSON(w, status, map[string]interface{}{
		"id":    article.ID,
		"added": added,
		"count": len(api.reader.SavedIDs()),
	})
}

func (api *SavedAPI) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	article, ok := api.readArticle(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    article.ID,
		"saved": api.reader.ToggleSaved(article),
	})
}

func (api *SavedAPI) deleteSaved(w http.ResponseWriter, r *http.Request, pathID string) {
	query := r.URL.Query()

	var removed int
	switch {
	case query.Get("offsets") != "":
		offsets, err := parseOffsets(query.Get("offsets"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		removed = api.reader.DeleteSavedAt(offsets...)
	case pathID != "" || len(query["id"]) > 0:
		ids := query["id"]
		if pathID != "" {
			ids = append(ids, pathID)
		}
		removed = api.reader.DeleteSaved(ids...)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "id or offsets is required")
		return
	}

	if removed == 0 {
		writeError(w, http.StatusNotFound, "not_found", "Saved article not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
		"count":   len(api.reader.SavedIDs()),
	})
}

// readArticle decodes a request body with the article codec, so saved
// articles obey the same field rules as NewsAPI payloads.
func (api *SavedAPI) readArticle(w http.ResponseWriter, r *http.Request) (models.Article, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxArticleBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return models.Article{}, false
	}

	article, err := codec.DecodeArticle(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_article", err.Error())
		return models.Article{}, false
	}
	return article, true
}

func parseOffsets(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.New("offsets must be comma separated integers")
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

func sortedIDs(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
