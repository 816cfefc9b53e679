package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/johnrirwin/newsdesk/internal/models"
	"github.com/johnrirwin/newsdesk/internal/textutil"
)

const (
	lineWidth = 100
	nameWidth = 28
	indent    = "    "
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	savedStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	selectedStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

func renderState(w io.Writer, state models.LoadState) {
	fmt.Fprintln(w, titleStyle.Render(state.Title))
	if state.Message != "" {
		fmt.Fprintln(w, dimStyle.Render(state.Message))
	}
}

func renderSources(w io.Writer, sources []models.Source, selected models.SelectionSet) {
	for _, s := range sources {
		mark := "  "
		name := runewidth.FillRight(textutil.Truncate(s.Name, nameWidth), nameWidth)
		if selected.Contains(s.ID) {
			mark = selectedStyle.Render("* ")
			name = selectedStyle.Render(name)
		}

		meta := []string{s.ID}
		if c := textutil.Category(models.StringValue(s.Category)); c != "" {
			meta = append(meta, c)
		}
		if l := models.StringValue(s.Language); l != "" {
			meta = append(meta, l)
		}
		fmt.Fprintf(w, "%s%s %s\n", mark, name, dimStyle.Render(strings.Join(meta, " · ")))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d sources, %d selected", len(sources), len(selected))))
}

// renderArticles prints a numbered list. savedIDs may be nil.
func renderArticles(w io.Writer, articles []models.Article, savedIDs map[string]struct{}) {
	for i, a := range articles {
		title := textutil.Truncate(textutil.PlainText(a.Title), lineWidth-6)
		fmt.Fprintf(w, "%3d. %s\n", i+1, titleStyle.Render(title))

		meta := []string{formatPublished(a)}
		if author := textutil.PlainText(models.StringValue(a.Author)); author != "" {
			meta = append(meta, textutil.Truncate(author, 40))
		}
		line := dimStyle.Render(strings.Join(meta, " · "))
		if _, ok := savedIDs[a.ID]; ok {
			line += " " + savedStyle.Render("[saved]")
		}
		fmt.Fprintln(w, indent+line)

		if summary := textutil.Summary(a); summary != "" {
			fmt.Fprintln(w, indent+textutil.Truncate(summary, lineWidth-len(indent)))
		}
		fmt.Fprintln(w, indent+dimStyle.Render(a.URL))
	}
}

func renderSelection(w io.Writer, selected models.SelectionSet) {
	if len(selected) == 0 {
		fmt.Fprintln(w, "No sources selected.")
		return
	}
	for _, id := range selected.Sorted() {
		fmt.Fprintln(w, selectedStyle.Render("* ")+id)
	}
}

func formatPublished(a models.Article) string {
	if a.PublishedAt == nil {
		return "undated"
	}
	return a.PublishedAt.Local().Format("Jan 2, 2006 15:04")
}
