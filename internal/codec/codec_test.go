package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/johnrirwin/newsdesk/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "fractional seconds",
			input: "2025-12-13T12:00:00.123Z",
			want:  time.Date(2025, 12, 13, 12, 0, 0, 123_000_000, time.UTC),
		},
		{
			name:  "no fractional seconds",
			input: "2025-12-13T12:00:00Z",
			want:  time.Date(2025, 12, 13, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset normalised to UTC",
			input: "2025-12-13T22:00:00+10:00",
			want:  time.Date(2025, 12, 13, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "sub-millisecond digits kept",
			input: "2025-12-13T12:00:00.1234567Z",
			want:  time.Date(2025, 12, 13, 12, 0, 0, 123_456_700, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			assert.Equal(t, nil, err)
			assert.Equal(t, true, got.Equal(tt.want))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Malformed(t *testing.T) {
	for _, input := range []string{"2025-12-13", "2025-12-13 12:00:00", "yesterday", ""} {
		_, err := ParseTimestamp(input)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("ParseTimestamp(%q) error = %v, want *DecodeError", input, err)
		}
		assert.Equal(t, KindMalformedTimestamp, de.Kind)
		assert.Equal(t, input, de.Literal)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-15T10:00:00.000Z", FormatTimestamp(ts))

	local := time.Date(2026, 1, 15, 21, 0, 0, 250_000_000, time.FixedZone("AEDT", 11*3600))
	assert.Equal(t, "2026-01-15T10:00:00.250Z", FormatTimestamp(local))

	precise := time.Date(2026, 1, 15, 10, 0, 0, 123_456_789, time.UTC)
	assert.Equal(t, "2026-01-15T10:00:00.123456789Z", FormatTimestamp(precise))
	assert.Equal(t, "2026-01-15T10:00:00.000001000Z", FormatTimestamp(precise.Truncate(time.Second).Add(time.Microsecond)))
}

func TestDecodeHeadlines(t *testing.T) {
	payload := `{
		"status": "ok",
		"totalResults": 2,
		"articles": [
			{
				"source": {"id": "bbc-news", "name": "BBC News"},
				"author": "BBC News",
				"title": "Markets rally",
				"description": "Stocks rose.",
				"url": "https://www.bbc.co.uk/news/1",
				"urlToImage": "https://ichef.bbci.co.uk/1.jpg",
				"publishedAt": "2026-01-15T10:00:00.000Z",
				"content": "Body"
			},
			{
				"title": "Second",
				"url": "https://www.bbc.co.uk/news/2",
				"author": null,
				"publishedAt": null
			}
		]
	}`

	page, err := DecodeHeadlines([]byte(payload))
	assert.Equal(t, nil, err)
	assert.Equal(t, "ok", page.Status)
	assert.Equal(t, 2, *page.TotalResults)
	assert.Equal(t, 2, len(page.Articles))

	first := page.Articles[0]
	assert.Equal(t, "https://www.bbc.co.uk/news/1", first.ID)
	assert.Equal(t, "Markets rally", first.Title)
	assert.Equal(t, "BBC News", *first.Author)
	assert.Equal(t, "https://ichef.bbci.co.uk/1.jpg", *first.ThumbnailURL)
	assert.Equal(t, true, first.PublishedAt.Equal(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)))

	second := page.Articles[1]
	if second.Author != nil || second.Description != nil || second.PublishedAt != nil || second.Content != nil {
		t.Errorf("absent optional fields should stay nil, got %+v", second)
	}
}

func TestDecodeHeadlines_ExplicitID(t *testing.T) {
	page, err := DecodeHeadlines([]byte(`{"status":"ok","articles":[
		{"id":"abc-1","title":"T","url":"https://example.com/a"},
		{"id":"","title":"T","url":"https://example.com/b"}
	]}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, "abc-1", page.Articles[0].ID)
	assert.Equal(t, "https://example.com/b", page.Articles[1].ID)
	assert.Equal(t, true, page.TotalResults == nil)
}

func TestDecodeHeadlines_Errors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind ErrorKind
		wantPath string
	}{
		{
			name:     "invalid json",
			payload:  `{"status":`,
			wantKind: KindDataCorrupted,
			wantPath: "",
		},
		{
			name:     "root is array",
			payload:  `[]`,
			wantKind: KindTypeMismatch,
			wantPath: "",
		},
		{
			name:     "missing articles",
			payload:  `{"status":"ok"}`,
			wantKind: KindKeyNotFound,
			wantPath: "articles",
		},
		{
			name:     "missing title",
			payload:  `{"status":"ok","articles":[{"url":"https://example.com"}]}`,
			wantKind: KindKeyNotFound,
			wantPath: "articles[0].title",
		},
		{
			name:     "null url",
			payload:  `{"status":"ok","articles":[{"title":"T","url":null}]}`,
			wantKind: KindValueNotFound,
			wantPath: "articles[0].url",
		},
		{
			name:     "relative url",
			payload:  `{"status":"ok","articles":[{"title":"T","url":"/news/1"}]}`,
			wantKind: KindDataCorrupted,
			wantPath: "articles[0].url",
		},
		{
			name:     "title wrong type",
			payload:  `{"status":"ok","articles":[{"title":7,"url":"https://example.com"}]}`,
			wantKind: KindTypeMismatch,
			wantPath: "articles[0].title",
		},
		{
			name:     "malformed timestamp",
			payload:  `{"status":"ok","articles":[{"title":"T","url":"https://example.com"},{"title":"T","url":"https://example.com/2","publishedAt":"15/01/2026"}]}`,
			wantKind: KindMalformedTimestamp,
			wantPath: "articles[1].publishedAt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeadlines([]byte(tt.payload))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			assert.Equal(t, tt.wantKind, de.Kind)
			assert.Equal(t, tt.wantPath, de.Path)
		})
	}
}

func TestDecodeHeadlines_MalformedTimestampMessage(t *testing.T) {
	_, err := DecodeHeadlines([]byte(`{"status":"ok","articles":[{"title":"T","url":"https://example.com","publishedAt":"not-a-date"}]}`))
	if err == nil || !strings.Contains(err.Error(), `"not-a-date"`) {
		t.Errorf("error should carry the offending literal, got %v", err)
	}
}

func TestDecodeSources(t *testing.T) {
	payload := `{
		"status": "ok",
		"sources": [
			{"id": "bbc-news", "name": "BBC News", "description": "UK", "url": "https://www.bbc.co.uk/news", "category": "general", "language": "en", "country": "gb"},
			{"id": "abc-news", "name": "ABC News"}
		]
	}`

	sources, err := DecodeSources([]byte(payload))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(sources))
	assert.Equal(t, "bbc-news", sources[0].ID)
	assert.Equal(t, "general", *sources[0].Category)
	assert.Equal(t, true, sources[1].URL == nil)
	assert.Equal(t, true, sources[1].Country == nil)
}

func TestDecodeSources_MissingID(t *testing.T) {
	_, err := DecodeSources([]byte(`{"status":"ok","sources":[{"name":"No ID"}]}`))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	assert.Equal(t, "sources[0].id", de.Path)
}

func TestEncodeArticles_CanonicalForm(t *testing.T) {
	a := models.NewArticle("https://example.com/a", "Title", models.ArticleOptions{
		Author:      "Jane",
		PublishedAt: time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC),
	})

	data, err := EncodeArticles([]models.Article{a})
	assert.Equal(t, nil, err)
	assert.Equal(t,
		`[{"id":"https://example.com/a","url":"https://example.com/a","title":"Title","author":"Jane","publishedAt":"2026-01-14T10:00:00.000Z"}]`,
		string(data))
}

func TestEncodeArticles_Empty(t *testing.T) {
	data, err := EncodeArticles(nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "[]", string(data))
}

func TestRoundTrip(t *testing.T) {
	withFraction := models.NewArticle("https://example.com/1", "Fractional", models.ArticleOptions{
		ID:           "custom-id",
		Author:       "A",
		Description:  "D",
		ThumbnailURL: "https://example.com/1.png",
		PublishedAt:  time.Date(2026, 1, 14, 10, 0, 0, 123_000_000, time.UTC),
		Content:      "C",
	})
	withoutFraction := models.NewArticle("https://example.com/2", "Whole", models.ArticleOptions{
		PublishedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	})
	noTimestamp := models.NewArticle("https://example.com/3", "Undated", models.ArticleOptions{})
	nanos := models.NewArticle("https://example.com/4", "Nanoseconds", models.ArticleOptions{
		PublishedAt: time.Date(2026, 1, 14, 10, 0, 0, 123_456_789, time.UTC),
	})

	for _, x := range []models.Article{withFraction, withoutFraction, noTimestamp, nanos} {
		t.Run(x.Title, func(t *testing.T) {
			data, err := EncodeArticles([]models.Article{x})
			assert.Equal(t, nil, err)

			decoded, err := DecodeArticles(data)
			assert.Equal(t, nil, err)
			assert.Equal(t, 1, len(decoded))
			assert.Equal(t, x, decoded[0])

			again, err := EncodeArticles(decoded)
			assert.Equal(t, nil, err)
			assert.Equal(t, string(data), string(again))
		})
	}
}

func TestEmptyOptionalURL(t *testing.T) {
	empty := ""
	a := models.NewArticle("https://example.com/a", "No image", models.ArticleOptions{})
	a.ThumbnailURL = &empty

	data, err := EncodeArticles([]models.Article{a})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, strings.Contains(string(data), "urlToImage"))

	decoded, err := DecodeArticles([]byte(`[{"url":"https://example.com/a","title":"No image","urlToImage":""}]`))
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(decoded))
	assert.Equal(t, true, decoded[0].ThumbnailURL == nil)

	sources, err := DecodeSources([]byte(`{"status":"ok","sources":[{"id":"x","name":"X","url":""}]}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, sources[0].URL == nil)
}

func TestRoundTrip_FromWire(t *testing.T) {
	page, err := DecodeHeadlines([]byte(`{"status":"ok","articles":[
		{"title":"A","url":"https://example.com/a","publishedAt":"2026-01-14T10:00:00Z"},
		{"title":"B","url":"https://example.com/b","publishedAt":"2026-01-14T10:00:00.5Z"}
	]}`))
	assert.Equal(t, nil, err)

	data, err := EncodeArticles(page.Articles)
	assert.Equal(t, nil, err)
	decoded, err := DecodeArticles(data)
	assert.Equal(t, nil, err)
	assert.Equal(t, page.Articles, decoded)
}

func TestDecodeArticles_Corrupt(t *testing.T) {
	_, err := DecodeArticles([]byte(`[{"title":"x"`))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	assert.Equal(t, KindDataCorrupted, de.Kind)
}

func TestEncodeSources_RoundTrip(t *testing.T) {
	desc, link, lang := "Top stories", "https://www.abc.net.au/news", "en"
	in := []models.Source{
		{ID: "abc-news", Name: "ABC News", Description: &desc, URL: &link, Language: &lang},
		{ID: "bbc-news", Name: "BBC News"},
	}

	data, err := EncodeSources(in)
	assert.Equal(t, err, nil)

	out, err := DecodeSources(data)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(out), 2)
	for i := range in {
		assert.Equal(t, out[i].Equal(in[i]), true)
	}
}

func TestDecodeArticle(t *testing.T) {
	a, err := DecodeArticle([]byte(`{"url":"https://example.com/x","title":"X","publishedAt":"2026-01-14T10:00:00Z"}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, a.ID, "https://example.com/x")
	assert.Equal(t, a.Published().Equal(time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)), true)

	_, err = DecodeArticle([]byte(`{"title":"no url"}`))
	var de *DecodeError
	assert.Equal(t, errors.As(err, &de), true)
	assert.Equal(t, de.Kind, KindKeyNotFound)
	assert.Equal(t, de.Path, "url")
}
