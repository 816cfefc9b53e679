package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/reader"
)

// SelectionAPI reads and edits the selected sources.
type SelectionAPI struct {
	reader *reader.Service
	logger *logging.Logger
}

func NewSelectionAPI(svc *reader.Service, logger *logging.Logger) *SelectionAPI {
	return &SelectionAPI{reader: svc, logger: logger}
}

// RegisterRoutes registers selection routes on the given mux
func (api *SelectionAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/selection", corsMiddleware(api.handleSelection))
	mux.HandleFunc("/api/selection/toggle", corsMiddleware(api.handleToggle))
}

type selectionResponse struct {
	Selected []string `json:"selected"`
	Count    int      `json:"count"`
}

type selectRequest struct {
	IDs []string `json:"ids"`
}

type toggleRequest struct {
	ID string `json:"id"`
}

func (api *SelectionAPI) handleSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
		api.reader.SelectSources(ctx, req.IDs)
	case http.MethodDelete:
		api.reader.ClearSelection(ctx)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	selected := api.reader.Selected(ctx).Sorted()
	writeJSON(w, http.StatusOK, selectionResponse{Selected: selected, Count: len(selected)})
}

func (api *SelectionAPI) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	ctx := r.Context()
	now := api.reader.ToggleSource(ctx, req.ID)
	api.logger.Debug("Toggled source", logging.WithFields(map[string]interface{}{
		"source":   req.ID,
		"selected": now,
	}))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       req.ID,
		"selected": now,
		"count":    api.reader.SelectedCount(ctx),
	})
}
