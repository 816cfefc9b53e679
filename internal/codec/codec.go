// Package codec converts NewsAPI payloads and the saved-articles file into
// domain records and back.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/johnrirwin/newsdesk/internal/models"
)

// HeadlinesPage is a decoded /top-headlines response.
type HeadlinesPage struct {
	Status       string
	TotalResults *int
	Articles     []models.Article
}

// DecodeSources decodes a /top-headlines/sources response.
func DecodeSources(data []byte) ([]models.Source, error) {
	root, err := parseObject("", data)
	if err != nil {
		return nil, err
	}
	if _, err := root.requiredString("status"); err != nil {
		return nil, err
	}
	items, err := root.requiredArray("sources")
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(items))
	for i, raw := range items {
		src, err := decodeSource(indexPath("sources", i), raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// DecodeHeadlines decodes a /top-headlines response.
func DecodeHeadlines(data []byte) (HeadlinesPage, error) {
	root, err := parseObject("", data)
	if err != nil {
		return HeadlinesPage{}, err
	}
	status, err := root.requiredString("status")
	if err != nil {
		return HeadlinesPage{}, err
	}
	total, err := root.optionalInt("totalResults")
	if err != nil {
		return HeadlinesPage{}, err
	}
	items, err := root.requiredArray("articles")
	if err != nil {
		return HeadlinesPage{}, err
	}

	articles, err := decodeArticleList("articles", items)
	if err != nil {
		return HeadlinesPage{}, err
	}
	return HeadlinesPage{Status: status, TotalResults: total, Articles: articles}, nil
}

// DecodeArticles decodes a bare JSON array of articles, the saved-articles
// file format.
func DecodeArticles(data []byte) ([]models.Article, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, rootError("", data, "array", err)
	}
	return decodeArticleList("", items)
}

// DecodeArticle decodes one article object in the canonical or wire form.
func DecodeArticle(data []byte) (models.Article, error) {
	return decodeArticle("", data)
}

func decodeArticleList(prefix string, items []json.RawMessage) ([]models.Article, error) {
	articles := make([]models.Article, 0, len(items))
	for i, raw := range items {
		a, err := decodeArticle(indexPath(prefix, i), raw)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func decodeArticle(path string, raw json.RawMessage) (models.Article, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return models.Article{}, err
	}

	var a models.Article
	if a.URL, err = obj.requiredURL("url", true); err != nil {
		return models.Article{}, err
	}
	if a.Title, err = obj.requiredString("title"); err != nil {
		return models.Article{}, err
	}
	if a.Author, err = obj.optionalString("author"); err != nil {
		return models.Article{}, err
	}
	if a.Description, err = obj.optionalString("description"); err != nil {
		return models.Article{}, err
	}
	if a.ThumbnailURL, err = obj.optionalURL("urlToImage"); err != nil {
		return models.Article{}, err
	}
	if a.PublishedAt, err = obj.optionalTime("publishedAt"); err != nil {
		return models.Article{}, err
	}
	if a.Content, err = obj.optionalString("content"); err != nil {
		return models.Article{}, err
	}
	id, err := obj.optionalString("id")
	if err != nil {
		return models.Article{}, err
	}
	a.ID = models.ResolveArticleID(models.StringValue(id), a.URL)
	return a, nil
}

func decodeSource(path string, raw json.RawMessage) (models.Source, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return models.Source{}, err
	}

	var s models.Source
	if s.ID, err = obj.requiredString("id"); err != nil {
		return models.Source{}, err
	}
	if s.Name, err = obj.requiredString("name"); err != nil {
		return models.Source{}, err
	}
	if s.Description, err = obj.optionalString("description"); err != nil {
		return models.Source{}, err
	}
	if s.URL, err = obj.optionalURL("url"); err != nil {
		return models.Source{}, err
	}
	if s.Category, err = obj.optionalString("category"); err != nil {
		return models.Source{}, err
	}
	if s.Language, err = obj.optionalString("language"); err != nil {
		return models.Source{}, err
	}
	if s.Country, err = obj.optionalString("country"); err != nil {
		return models.Source{}, err
	}
	return s, nil
}

// articleRecord fixes the key order and names of the on-disk format.
type articleRecord struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Author      *string `json:"author,omitempty"`
	Description *string `json:"description,omitempty"`
	URLToImage  *string `json:"urlToImage,omitempty"`
	PublishedAt *string `json:"publishedAt,omitempty"`
	Content     *string `json:"content,omitempty"`
}

// EncodeArticles writes articles in the canonical on-disk form.
func EncodeArticles(articles []models.Article) ([]byte, error) {
	records := make([]articleRecord, 0, len(articles))
	for _, a := range articles {
		records = append(records, toRecord(a))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding articles: %w", err)
	}
	return data, nil
}

// EncodeArticle writes a single article object in the canonical form.
func EncodeArticle(a models.Article) ([]byte, error) {
	data, err := json.Marshal(toRecord(a))
	if err != nil {
		return nil, fmt.Errorf("encoding article: %w", err)
	}
	return data, nil
}

type sourceRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Category    *string `json:"category,omitempty"`
	Language    *string `json:"language,omitempty"`
	Country     *string `json:"country,omitempty"`
}

// EncodeSourceList writes sources as a bare JSON array.
func EncodeSourceList(sources []models.Source) ([]byte, error) {
	records := make([]sourceRecord, 0, len(sources))
	for _, s := range sources {
		rec := sourceRecord(s)
		rec.URL = presentURL(rec.URL)
		records = append(records, rec)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding sources: %w", err)
	}
	return data, nil
}

// EncodeSources writes sources as a successful /top-headlines/sources
// response, readable by DecodeSources.
func EncodeSources(sources []models.Source) ([]byte, error) {
	list, err := EncodeSourceList(sources)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(struct {
		Status  string          `json:"status"`
		Sources json.RawMessage `json:"sources"`
	}{Status: "ok", Sources: list})
	if err != nil {
		return nil, fmt.Errorf("encoding sources: %w", err)
	}
	return data, nil
}

func toRecord(a models.Article) articleRecord {
	rec := articleRecord{
		ID:          models.ResolveArticleID(a.ID, a.URL),
		URL:         a.URL,
		Title:       a.Title,
		Author:      a.Author,
		Description: a.Description,
		URLToImage:  presentURL(a.ThumbnailURL),
		Content:     a.Content,
	}
	if a.PublishedAt != nil {
		ts := FormatTimestamp(*a.PublishedAt)
		rec.PublishedAt = &ts
	}
	return rec
}

type object struct {
	path   string
	fields map[string]json.RawMessage
}

func parseObject(path string, data []byte) (object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return object{}, rootError(path, data, "object", err)
	}
	if fields == nil {
		return object{}, valueNotFound(path)
	}
	return object{path: path, fields: fields}, nil
}

// rootError separates invalid JSON from valid JSON of the wrong type.
func rootError(path string, data []byte, want string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || !json.Valid(data) {
		return dataCorrupted(path, "invalid JSON", err)
	}
	return typeMismatch(path, want, err)
}

func (o object) fieldPath(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

// lookup returns the raw value, or nil when the key is absent or null.
func (o object) lookup(key string) (json.RawMessage, bool) {
	raw, ok := o.fields[key]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}
	return raw, true
}

func (o object) requiredString(key string) (string, error) {
	raw, present := o.lookup(key)
	if !present {
		return "", keyNotFound(o.fieldPath(key))
	}
	if raw == nil {
		return "", valueNotFound(o.fieldPath(key))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", typeMismatch(o.fieldPath(key), "string", err)
	}
	return s, nil
}

func (o object) optionalString(key string) (*string, error) {
	raw, _ := o.lookup(key)
	if raw == nil {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, typeMismatch(o.fieldPath(key), "string", err)
	}
	return &s, nil
}

func (o object) optionalInt(key string) (*int, error) {
	raw, _ := o.lookup(key)
	if raw == nil {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, typeMismatch(o.fieldPath(key), "integer", err)
	}
	return &n, nil
}

func (o object) requiredArray(key string) ([]json.RawMessage, error) {
	raw, present := o.lookup(key)
	if !present {
		return nil, keyNotFound(o.fieldPath(key))
	}
	if raw == nil {
		return nil, valueNotFound(o.fieldPath(key))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, typeMismatch(o.fieldPath(key), "array", err)
	}
	return items, nil
}

func (o object) requiredURL(key string, absolute bool) (string, error) {
	s, err := o.requiredString(key)
	if err != nil {
		return "", err
	}
	if err := checkURL(s, absolute); err != nil {
		return "", dataCorrupted(o.fieldPath(key), fmt.Sprintf("invalid URL %q", s), err)
	}
	return s, nil
}

// optionalURL reads an optional URL. An empty string is the same as an
// absent field.
func (o object) optionalURL(key string) (*string, error) {
	s, err := o.optionalString(key)
	if err != nil || s == nil || *s == "" {
		return nil, err
	}
	if err := checkURL(*s, false); err != nil {
		return nil, dataCorrupted(o.fieldPath(key), fmt.Sprintf("invalid URL %q", *s), err)
	}
	return s, nil
}

func (o object) optionalTime(key string) (*time.Time, error) {
	s, err := o.optionalString(key)
	if err != nil || s == nil {
		return nil, err
	}
	t, err := ParseTimestamp(*s)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = o.fieldPath(key)
		}
		return nil, err
	}
	return &t, nil
}

// presentURL drops an optional URL that points at "".
func presentURL(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

var errEmptyURL = errors.New("empty URL")
var errRelativeURL = errors.New("URL is not absolute")

func checkURL(s string, absolute bool) error {
	if s == "" {
		return errEmptyURL
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if absolute && !u.IsAbs() {
		return errRelativeURL
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}
