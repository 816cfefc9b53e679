package models

import "time"

// Article is a single news item. ID is the dedup key: an explicit
// identifier when one was supplied, otherwise the article URL.
type Article struct {
	ID           string
	URL          string
	Title        string
	Author       *string
	Description  *string
	ThumbnailURL *string
	PublishedAt  *time.Time
	Content      *string
}

// ArticleOptions carries the optional attributes of a caller-built article.
type ArticleOptions struct {
	ID           string
	Author       string
	Description  string
	ThumbnailURL string
	PublishedAt  time.Time
	Content      string
}

// NewArticle builds an article from a URL and title, applying the id rule.
// Zero-valued options are left unset.
func NewArticle(url, title string, opts ArticleOptions) Article {
	a := Article{
		ID:           ResolveArticleID(opts.ID, url),
		URL:          url,
		Title:        title,
		Author:       optString(opts.Author),
		Description:  optString(opts.Description),
		ThumbnailURL: optString(opts.ThumbnailURL),
		Content:      optString(opts.Content),
	}
	if !opts.PublishedAt.IsZero() {
		t := opts.PublishedAt
		a.PublishedAt = &t
	}
	return a
}

// ResolveArticleID returns id when non-empty, otherwise url.
func ResolveArticleID(id, url string) string {
	if id != "" {
		return id
	}
	return url
}

// Published returns the publication instant, or the zero time when unknown.
func (a Article) Published() time.Time {
	if a.PublishedAt == nil {
		return time.Time{}
	}
	return *a.PublishedAt
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ArticleIDs returns the set of ids in articles.
func ArticleIDs(articles []Article) map[string]struct{} {
	ids := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		ids[a.ID] = struct{}{}
	}
	return ids
}
