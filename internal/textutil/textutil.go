// Package textutil prepares NewsAPI text for terminal and tool output.
package textutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/johnrirwin/newsdesk/internal/models"
)

var (
	spaceRegex = regexp.MustCompile(`\s+`)
	// NewsAPI clips content and appends e.g. "… [+2816 chars]".
	contentMarker = regexp.MustCompile(`\s*(…|\.\.\.)?\s*\[\+\d+ chars\]\s*$`)
)

// PlainText strips markup, normalizes to NFC and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}
	text = norm.NFC.String(text)
	return strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))
}

// TrimContentMarker drops NewsAPI's trailing truncation marker.
func TrimContentMarker(s string) string {
	return contentMarker.ReplaceAllString(s, "")
}

// Summary is the article description, or its content when there is no
// description, as plain text.
func Summary(a models.Article) string {
	if d := PlainText(models.StringValue(a.Description)); d != "" {
		return d
	}
	return PlainText(TrimContentMarker(models.StringValue(a.Content)))
}

// Truncate fits s into width terminal cells, marking the cut with an
// ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Category title-cases a NewsAPI category such as "business".
func Category(c string) string {
	return cases.Title(language.English).String(strings.TrimSpace(c))
}
