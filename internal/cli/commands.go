package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/newsdesk/internal/app"
	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/models"
)

func newSourcesCmd(opts *options) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List NewsAPI sources and mark the selected ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				sources, state, err := a.Reader.Sources(ctx, refresh)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if state.Kind == models.StateEmpty {
					renderState(out, state)
					return nil
				}
				renderSources(out, sources, a.Reader.Selected(ctx))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func newHeadlinesCmd(opts *options) *cobra.Command {
	var (
		refresh bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "headlines",
		Short: "Show merged headlines for the selected sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				articles, state, err := a.Reader.Headlines(ctx, refresh)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if state.Kind == models.StateEmpty {
					renderState(out, state)
					return nil
				}
				if limit > 0 && len(articles) > limit {
					articles = articles[:limit]
				}
				renderArticles(out, articles, a.Reader.SavedIDs())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n headlines")
	return cmd
}

func newSelectCmd(opts *options) *cobra.Command {
	var clear, toggle bool
	cmd := &cobra.Command{
		Use:   "select [source-id...]",
		Short: "Replace, toggle or clear the selected sources",
		Long: `Without arguments, print the current selection.

With source ids, replace the selection, or flip each id with --toggle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear && len(args) > 0 {
				return errors.New("--clear takes no source ids")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				switch {
				case clear:
					a.Reader.ClearSelection(ctx)
				case toggle:
					for _, id := range args {
						a.Reader.ToggleSource(ctx, id)
					}
				case len(args) > 0:
					a.Reader.SelectSources(ctx, args)
				}
				renderSelection(cmd.OutOrStdout(), a.Reader.Selected(ctx))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "deselect every source")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "flip each given source instead of replacing")
	return cmd
}

func newSavedCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved articles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved articles, newest saves first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				articles := a.Reader.SavedArticles()
				if len(articles) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved articles.")
					return nil
				}
				renderArticles(cmd.OutOrStdout(), articles, nil)
				return nil
			})
		},
	}

	var title, description string
	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Save an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := articleFromFlags(args[0], title, description)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if a.Reader.SaveArticle(article) {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", article.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Already saved %s\n", article.ID)
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "article title")
	add.Flags().StringVar(&description, "description", "", "article description")
	add.MarkFlagRequired("title")

	var byIndex bool
	rm := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove saved articles by id, or by list position with --index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var offsets []int
			if byIndex {
				for _, arg := range args {
					n, err := strconv.Atoi(arg)
					if err != nil || n < 1 {
						return fmt.Errorf("invalid index %q", arg)
					}
					offsets = append(offsets, n-1)
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				var removed int
				if byIndex {
					removed = a.Reader.DeleteSavedAt(offsets...)
				} else {
					removed = a.Reader.DeleteSaved(args...)
				}
				if removed == 0 {
					return errors.New("no matching saved articles")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d article(s)\n", removed)
				return nil
			})
		},
	}
	rm.Flags().BoolVar(&byIndex, "index", false, "treat arguments as 1-based positions from 'saved list'")

	cmd.AddCommand(list, add, rm)
	return cmd
}

// articleFromFlags goes through the article codec so the CLI accepts the
// same URLs as the HTTP and MCP surfaces.
func articleFromFlags(url, title, description string) (models.Article, error) {
	fields := map[string]string{"url": url, "title": title}
	if description != "" {
		fields["description"] = description
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return models.Article{}, err
	}
	article, err := codec.DecodeArticle(data)
	if err != nil {
		return models.Article{}, fmt.Errorf("invalid article: %w", err)
	}
	return article, nil
}
