package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/reader"
	"github.com/johnrirwin/newsdesk/internal/textutil"
)

const defaultHeadlineLimit = 20

type Handler struct {
	reader *reader.Service
	logger *logging.Logger
}

func NewHandler(svc *reader.Service, logger *logging.Logger) *Handler {
	return &Handler{
		reader: svc,
		logger: logger,
	}
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type GetHeadlinesParams struct {
	Limit   int  `json:"limit"`
	Refresh bool `json:"refresh"`
}

type SelectSourcesParams struct {
	IDs  []string `json:"ids"`
	Mode string   `json:"mode"`
}

// SaveArticleParams describes a new article, or names a listed headline
// by ID alone.
type SaveArticleParams struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

type RemoveSavedParams struct {
	ID string `json:"id"`
}

// ArticleSummary is the tool-facing view of an article.
type ArticleSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Saved       bool   `json:"saved"`
}

type SourceSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
	Selected bool   `json:"selected"`
}

func (h *Handler) GetTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "list_sources",
			Description: "List every NewsAPI source, sorted by name, with whether it is currently selected.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"refresh": {
						"type": "boolean",
						"description": "Bypass the cache and fetch the source list again"
					}
				}
			}`),
		},
		{
			Name:        "get_headlines",
			Description: "Get the merged top headlines for the selected sources, newest first.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {
						"type": "integer",
						"description": "Maximum number of articles to return (default: 20)"
					},
					"refresh": {
						"type": "boolean",
						"description": "Bypass the cache and fetch headlines again"
					}
				}
			}`),
		},
		{
			Name:        "select_sources",
			Description: "Change which sources headlines are fetched from.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"ids": {
						"type": "array",
						"items": {"type": "string"},
						"description": "Source ids, e.g. 'bbc-news'"
					},
					"mode": {
						"type": "string",
						"enum": ["replace", "toggle", "clear"],
						"description": "replace the selection (default), toggle each id, or clear it"
					}
				}
			}`),
		},
		{
			Name:        "list_saved",
			Description: "List saved articles, most recently saved first.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
		{
			Name:        "save_article",
			Description: "Save an article for later reading. Pass the id of a headline from get_headlines, or describe the article with url and title.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"description": "ID of a listed headline"
					},
					"url": {
						"type": "string",
						"description": "Absolute article URL"
					},
					"title": {
						"type": "string",
						"description": "Article title"
					},
					"author": {
						"type": "string"
					},
					"description": {
						"type": "string"
					}
				}
			}`),
		},
		{
			Name:        "remove_saved_article",
			Description: "Remove a saved article by id (its URL unless it has an explicit id).",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {
						"type": "string"
					}
				},
				"required": ["id"]
			}`),
		},
	}
}

func (h *Handler) HandleToolCall(ctx context.Context, name string, arguments json.RawMessage) (interface{}, error) {
	switch name {
	case "list_sources":
		return h.handleListSources(ctx, arguments)
	case "get_headlines":
		return h.handleGetHeadlines(ctx, arguments)
	case "select_sources":
		return h.handleSelectSources(ctx, arguments)
	case "list_saved":
		return h.handleListSaved()
	case "save_article":
		return h.handleSaveArticle(ctx, arguments)
	case "remove_saved_article":
		return h.handleRemoveSaved(arguments)
	default:
		return nil, &ToolError{Message: "Unknown tool: " + name}
	}
}

func decodeArgs(arguments json.RawMessage, v interface{}) error {
	if len(arguments) == 0 || string(arguments) == "null" {
		return nil
	}
	if err := json.Unmarshal(arguments, v); err != nil {
		return &ToolError{Message: "Invalid arguments: " + err.Error()}
	}
	return nil
}

func (h *Handler) handleListSources(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params struct {
		Refresh bool `json:"refresh"`
	}
	if err := decodeArgs(arguments, &params); err != nil {
		return nil, err
	}

	sources, state, err := h.reader.Sources(ctx, params.Refresh)
	if err != nil {
		return nil, &ToolError{Message: "Failed to load sources: " + state.Message}
	}

	selected := h.reader.Selected(ctx)
	out := make([]SourceSummary, 0, len(sources))
	for _, s := range sources {
		out = append(out, SourceSummary{
			ID:       s.ID,
			Name:     s.Name,
			Category: textutil.Category(models.StringValue(s.Category)),
			Language: models.StringValue(s.Language),
			Country:  models.StringValue(s.Country),
			Selected: selected.Contains(s.ID),
		})
	}

	return map[string]interface{}{
		"state":   state,
		"sources": out,
		"count":   len(out),
	}, nil
}

func (h *Handler) handleGetHeadlines(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params GetHeadlinesParams
	if err := decodeArgs(arguments, &params); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = defaultHeadlineLimit
	}

	articles, state, err := h.reader.Headlines(ctx, params.Refresh)
	if err != nil {
		return nil, &ToolError{Message: "Failed to load headlines: " + state.Message}
	}

	total := len(articles)
	if len(articles) > params.Limit {
		articles = articles[:params.Limit]
	}

	return map[string]interface{}{
		"state":    state,
		"articles": h.summarize(articles),
		"count":    len(articles),
		"total":    total,
	}, nil
}

func (h *Handler) handleSelectSources(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params SelectSourcesParams
	if err := decodeArgs(arguments, &params); err != nil {
		return nil, err
	}

	switch strings.ToLower(params.Mode) {
	case "", "replace":
		h.reader.SelectSources(ctx, params.IDs)
	case "toggle":
		for _, id := range params.IDs {
			h.reader.ToggleSource(ctx, id)
		}
	case "clear":
		h.reader.ClearSelection(ctx)
	default:
		return nil, &ToolError{Message: "Unknown mode: " + params.Mode}
	}

	selected := h.reader.Selected(ctx).Sorted()
	h.logger.Debug("Selection changed via MCP", logging.WithField("count", len(selected)))
	return map[string]interface{}{
		"selected": selected,
		"count":    len(selected),
	}, nil
}

func (h *Handler) handleListSaved() (interface{}, error) {
	articles := h.reader.SavedArticles()
	return map[string]interface{}{
		"articles": h.summarize(articles),
		"count":    len(articles),
	}, nil
}

// handleSaveArticle runs the arguments through the article codec so tool
// input obeys the same URL rules as NewsAPI payloads.
func (h *Handler) handleSaveArticle(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params SaveArticleParams
	if err := decodeArgs(arguments, &params); err != nil {
		return nil, err
	}

	var article models.Article
	if params.URL == "" && params.ID != "" {
		found, ok := h.reader.FindArticle(ctx, params.ID)
		if !ok {
			return nil, &ToolError{Message: "Article not found: " + params.ID}
		}
		article = found
	} else {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, &ToolError{Message: "Invalid arguments: " + err.Error()}
		}
		article, err = codec.DecodeArticle(raw)
		if err != nil {
			return nil, &ToolError{Message: "Invalid article: " + err.Error()}
		}
	}

	added := h.reader.SaveArticle(article)
	return map[string]interface{}{
		"id":    article.ID,
		"added": added,
	}, nil
}

func (h *Handler) handleRemoveSaved(arguments json.RawMessage) (interface{}, error) {
	var params RemoveSavedParams
	if err := decodeArgs(arguments, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.ID) == "" {
		return nil, &ToolError{Message: "id is required"}
	}

	if h.reader.DeleteSaved(params.ID) == 0 {
		return nil, &ToolError{Message: "Saved article not found: " + params.ID}
	}
	return map[string]interface{}{
		"id":      params.ID,
		"removed": true,
	}, nil
}

func (h *Handler) summarize(articles []models.Article) []ArticleSummary {
	savedIDs := h.reader.SavedIDs()
	out := make([]ArticleSummary, 0, len(articles))
	for _, a := range articles {
		s := ArticleSummary{
			ID:      a.ID,
			Title:   textutil.PlainText(a.Title),
			URL:     a.URL,
			Author:  models.StringValue(a.Author),
			Summary: textutil.Summary(a),
		}
		if a.PublishedAt != nil {
			s.PublishedAt = codec.FormatTimestamp(*a.PublishedAt)
		}
		_, s.Saved = savedIDs[a.ID]
		out = append(out, s)
	}
	return out
}

type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}
