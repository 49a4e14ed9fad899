package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"merchanthaus.com/web/internal/content"
	"merchanthaus.com/web/internal/nav"
)

func (c *cli) newNavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Documentation navigation",
	}

	var dir string
	check := &cobra.Command{
		Use:   "check",
		Short: "Print the docs tree and verify every link has a page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = c.cfg.Paths.Content
			}
			out := cmd.OutOrStdout()
			table := newTable(out, []string{"Key", "Kind", "Href"})
			nav.Docs.Walk(func(key string, n nav.Node, depth int) {
				kind := "link"
				if !n.IsLeaf() {
					kind = "group"
				}
				table.Append([]string{strings.Repeat("  ", depth) + key, kind, n.Href})
			})
			table.Render()

			missing := missingDocs(cmd.Context(), nav.Docs, content.NewStore(dir, content.WithCacheTTL(0)))
			for _, href := range missing {
				fmt.Fprintf(out, "missing page: %s\n", href)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%d docs link(s) have no page", len(missing))
			}
			fmt.Fprintf(out, "%d link(s) ok\n", len(nav.Docs.Links()))
			return nil
		},
	}
	check.Flags().StringVar(&dir, "content", "", "content root (defaults to MH_CONTENT_DIR)")

	cmd.AddCommand(check)
	return cmd
}

// missingDocs returns the tree links under /docs/ whose page cannot be loaded.
func missingDocs(ctx context.Context, tree *nav.Tree, store *content.Store) []string {
	var missing []string
	for _, href := range tree.Links() {
		slug, ok := strings.CutPrefix(href, "/docs/")
		if !ok {
			continue
		}
		if _, err := store.Page(ctx, content.KindDocs, slug, ""); errors.Is(err, content.ErrNotFound) {
			missing = append(missing, href)
		}
	}
	return missing
}

func (c *cli) newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Markdown content",
	}

	var dir string
	check := &cobra.Command{
		Use:   "check",
		Short: "Parse and render every content file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = c.cfg.Paths.Content
			}
			n, err := content.NewStore(dir, content.WithCacheTTL(0)).Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) ok\n", n)
			return nil
		},
	}
	check.Flags().StringVar(&dir, "content", "", "content root (defaults to MH_CONTENT_DIR)")

	cmd.AddCommand(check)
	return cmd
}
