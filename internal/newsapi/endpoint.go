package newsapi

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultScheme = "https"
	DefaultHost   = "newsapi.org"

	sourcesPath   = "/v2/top-headlines/sources"
	headlinesPath = "/v2/top-headlines"
)

type endpointKind int

const (
	kindSources endpointKind = iota + 1
	kindHeadlines
)

// Endpoint is one of the two logical requests the service understands.
type Endpoint struct {
	kind     endpointKind
	sourceID string
}

func SourcesEndpoint() Endpoint {
	return Endpoint{kind: kindSources}
}

func HeadlinesEndpoint(sourceID string) Endpoint {
	return Endpoint{kind: kindHeadlines, sourceID: sourceID}
}

func (e Endpoint) String() string {
	switch e.kind {
	case kindSources:
		return "sources"
	case kindHeadlines:
		return "top-headlines(" + e.sourceID + ")"
	default:
		return "unknown"
	}
}

// QueryItem is a single name=value query parameter. Order is preserved.
type QueryItem struct {
	Name  string
	Value string
}

// Builder turns endpoints into request URLs against one scheme and host.
type Builder struct {
	Scheme string
	Host   string
}

// DefaultBuilder targets https://newsapi.org.
var DefaultBuilder = Builder{Scheme: DefaultScheme, Host: DefaultHost}

// NewBuilder derives a builder from a base URL such as an httptest server.
// An empty base yields DefaultBuilder.
func NewBuilder(base string) (Builder, error) {
	if strings.TrimSpace(base) == "" {
		return DefaultBuilder, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return Builder{}, BadURL(fmt.Errorf("parsing base URL %q: %w", base, err))
	}
	if u.Scheme == "" || u.Host == "" {
		return Builder{}, BadURL(fmt.Errorf("base URL %q must include scheme and host", base))
	}
	return Builder{Scheme: u.Scheme, Host: u.Host}, nil
}

// Build produces the request URL for ep. Query order is apiKey, the
// endpoint's own parameter, then extra in the order given.
func (b Builder) Build(ep Endpoint, apiKey string, extra []QueryItem) (*url.URL, error) {
	items := []QueryItem{{Name: "apiKey", Value: apiKey}}

	var path string
	switch ep.kind {
	case kindSources:
		path = sourcesPath
		items = append(items, QueryItem{Name: "language", Value: "en"})
	case kindHeadlines:
		path = headlinesPath
		items = append(items, QueryItem{Name: "sources", Value: ep.sourceID})
	default:
		return nil, BadURL(fmt.Errorf("unknown endpoint %v", ep))
	}
	items = append(items, extra...)

	if b.Scheme == "" || b.Host == "" {
		return nil, BadURL(fmt.Errorf("builder has no scheme or host"))
	}

	return &url.URL{
		Scheme:   b.Scheme,
		Host:     b.Host,
		Path:     path,
		RawQuery: encodeQuery(items),
	}, nil
}

// encodeQuery is url.Values.Encode without the key sort.
func encodeQuery(items []QueryItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(item.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(item.Value))
	}
	return b.String()
}
