package testutil

import (
	"time"

	"github.com/johnrirwin/newsdesk/internal/models"
)

const (
	APIKey = "KEY123"

	SourceID1   = "abc-news"
	SourceID2   = "bbc-news"
	SourceName1 = "ABC News"
	SourceName2 = "BBC News"

	ExampleURL   = "https://example.com"
	BaseURL      = ExampleURL + "/test-article"
	SecondaryURL = ExampleURL + "/test-article-2"
)

// MakeArticle builds an article at url; a zero publishedAt leaves it
// undated.
func MakeArticle(url, title string, publishedAt time.Time) models.Article {
	return models.NewArticle(url, title, models.ArticleOptions{PublishedAt: publishedAt})
}

// MakeBaseArticle always has id BaseURL.
func MakeBaseArticle(title string) models.Article {
	return MakeArticle(BaseURL, title, time.Time{})
}

// MakeSecondaryArticle always has id SecondaryURL.
func MakeSecondaryArticle(title string) models.Article {
	return MakeArticle(SecondaryURL, title, time.Time{})
}

func MakeSource(id, name string) models.Source {
	url, language, country := ExampleURL, "en", "au"
	return models.Source{
		ID:       id,
		Name:     name,
		URL:      &url,
		Language: &language,
		Country:  &country,
	}
}

func MakeSource1() models.Source {
	return MakeSource(SourceID1, SourceName1)
}

func MakeSource2() models.Source {
	return MakeSource(SourceID2, SourceName2)
}

// Time parses an RFC 3339 literal and panics on failure.
func Time(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}
