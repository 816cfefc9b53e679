package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/johnrirwin/newsdesk/internal/aggregator"
	"github.com/johnrirwin/newsdesk/internal/kvstore"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
	"github.com/johnrirwin/newsdesk/internal/reader"
	"github.com/johnrirwin/newsdesk/internal/saved"
	"github.com/johnrirwin/newsdesk/internal/selection"
	"github.com/johnrirwin/newsdesk/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *reader.Service, *testutil.NewsAPIServer) {
	t.Helper()

	upstream := testutil.NewNewsAPIServer(t)
	builder, err := newsapi.NewBuilder(upstream.URL)
	if err != nil {
		t.Fatal(err)
	}
	client := newsapi.NewClient(builder, newsapi.StaticKey(testutil.APIKey), newsapi.DefaultConfig(), testutil.NullLogger())
	svc := reader.New(
		aggregator.New(client, testutil.NullLogger()),
		selection.NewKVStore(kvstore.NewMemory(), testutil.NullLogger()),
		saved.NewCollection(saved.NewMemoryStore()),
		nil,
		testutil.NullLogger(),
	)

	return NewServer(NewHandler(svc, testutil.NullLogger()), "test", testutil.NullLogger()), svc, upstream
}

// roundTrip feeds requests through Serve and returns the decoded responses.
func roundTrip(t *testing.T, s *Server, requests ...string) []Response {
	t.Helper()

	var out strings.Builder
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var responses []Response
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

// toolText extracts the text content of a tools/call result.
func toolText(t *testing.T, resp Response) (string, bool) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	var result CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("content = %+v", result.Content)
	}
	return result.Content[0].Text, result.IsError
}

func call(name, args string) string {
	return `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"` + name + `","arguments":` + args + `}}`
}

func TestServe_Protocol(t *testing.T) {
	s, _, _ := newTestServer(t)

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"bogus"}`,
		`not json`,
		``,
	)

	if len(responses) != 4 {
		t.Fatalf("got %d responses, want 4", len(responses))
	}

	init, _ := json.Marshal(responses[0].Result)
	if !strings.Contains(string(init), `"name":"newsdesk"`) {
		t.Errorf("initialize result = %s", init)
	}

	tools, _ := json.Marshal(responses[1].Result)
	for _, name := range []string{"list_sources", "get_headlines", "select_sources", "list_saved", "save_article", "remove_saved_article"} {
		if !strings.Contains(string(tools), `"`+name+`"`) {
			t.Errorf("tools/list missing %s", name)
		}
	}

	if responses[2].Error == nil || responses[2].Error.Code != -32601 {
		t.Errorf("unknown method error = %+v", responses[2].Error)
	}
	if responses[3].Error == nil || responses[3].Error.Code != -32700 {
		t.Errorf("parse error = %+v", responses[3].Error)
	}
}

func TestTools_SelectAndHeadlines(t *testing.T) {
	s, svc, upstream := newTestServer(t)
	upstream.SetHeadlines(testutil.SourceID1,
		testutil.MakeArticle(testutil.BaseURL, "<b>Bold</b> news", testutil.Time("2026-01-14T10:00:00Z")))

	responses := roundTrip(t, s,
		call("select_sources", `{"ids":["`+testutil.SourceID1+`"]}`),
		call("get_headlines", `{"limit":5}`),
	)

	if !svc.IsSelected(context.Background(), testutil.SourceID1) {
		t.Fatal("source should be selected")
	}

	text, isErr := toolText(t, responses[1])
	if isErr {
		t.Fatalf("get_headlines failed: %s", text)
	}
	var result struct {
		Articles []ArticleSummary `json:"articles"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || result.Articles[0].Title != "Bold news" {
		t.Errorf("headlines = %+v", result)
	}
	if result.Articles[0].PublishedAt != "2026-01-14T10:00:00.000Z" {
		t.Errorf("publishedAt = %s", result.Articles[0].PublishedAt)
	}
}

func TestTools_SelectModes(t *testing.T) {
	s, svc, _ := newTestServer(t)
	ctx := context.Background()

	roundTrip(t, s,
		call("select_sources", `{"ids":["a","b"]}`),
		call("select_sources", `{"ids":["b","c"],"mode":"toggle"}`),
	)
	got := svc.Selected(ctx).Sorted()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("selection after toggle = %v", got)
	}

	responses := roundTrip(t, s,
		call("select_sources", `{"mode":"clear"}`),
		call("select_sources", `{"mode":"sideways"}`),
	)
	if svc.SelectedCount(ctx) != 0 {
		t.Error("selection should be cleared")
	}
	if _, isErr := toolText(t, responses[1]); !isErr {
		t.Error("unknown mode should be a tool error")
	}
}

func TestTools_SavedLifecycle(t *testing.T) {
	s, svc, _ := newTestServer(t)

	responses := roundTrip(t, s,
		call("save_article", `{"url":"`+testutil.BaseURL+`","title":"Keep me"}`),
		call("save_article", `{"url":"/relative","title":"Nope"}`),
		call("list_saved", `{}`),
		call("remove_saved_article", `{"id":"`+testutil.BaseURL+`"}`),
		call("remove_saved_article", `{"id":"`+testutil.BaseURL+`"}`),
	)

	if text, isErr := toolText(t, responses[0]); isErr {
		t.Fatalf("save_article failed: %s", text)
	}
	if _, isErr := toolText(t, responses[1]); !isErr {
		t.Error("relative URL should be rejected")
	}

	text, _ := toolText(t, responses[2])
	if !strings.Contains(text, "Keep me") {
		t.Errorf("list_saved = %s", text)
	}

	if _, isErr := toolText(t, responses[3]); isErr {
		t.Error("first remove should succeed")
	}
	if _, isErr := toolText(t, responses[4]); !isErr {
		t.Error("second remove should report not found")
	}
	if len(svc.SavedArticles()) != 0 {
		t.Error("collection should be empty")
	}
}

func TestTools_SaveHeadlineByID(t *testing.T) {
	s, svc, upstream := newTestServer(t)
	upstream.SetHeadlines(testutil.SourceID1,
		testutil.MakeArticle(testutil.BaseURL, "Listed story", testutil.Time("2026-01-14T10:00:00Z")))

	responses := roundTrip(t, s,
		call("select_sources", `{"ids":["`+testutil.SourceID1+`"]}`),
		call("save_article", `{"id":"`+testutil.BaseURL+`"}`),
		call("save_article", `{"id":"https://example.com/unknown"}`),
	)

	if text, isErr := toolText(t, responses[1]); isErr {
		t.Fatalf("save_article by id failed: %s", text)
	}
	if _, isErr := toolText(t, responses[2]); !isErr {
		t.Error("unknown id should be reported")
	}

	saved := svc.SavedArticles()
	if len(saved) != 1 || saved[0].Title != "Listed story" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestTools_UnknownTool(t *testing.T) {
	h := NewHandler(nil, testutil.NullLogger())
	_, err := h.HandleToolCall(context.Background(), "nope", nil)
	if err == nil || !strings.Contains(err.Error(), "Unknown tool") {
		t.Errorf("err = %v", err)
	}
}
