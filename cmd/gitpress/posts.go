package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/frontmatter"
	"github.com/eringen/gitpress/ghcontents"
)

func newPostsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, read, write and delete stored posts",
	}
	cmd.AddCommand(
		newPostsListCmd(c),
		newPostsGetCmd(c),
		newPostsSaveCmd(c),
		newPostsDeleteCmd(c),
	)
	return cmd
}

func newPostsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repository()
			if err != nil {
				return err
			}
			res := repo.ListPosts(cmd.Context())
			if !res.OK() {
				c.log.Warn().Err(res.Degraded).Msg("listing is incomplete")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tDATE\tTITLE")
			for _, p := range res.Value {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Slug, p.Date, p.Title)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(res.Value) == 0 && !res.OK() {
				return res.Degraded
			}
			return nil
		},
	}
}

func newPostsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Print a stored post document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repository()
			if err != nil {
				return err
			}
			res := repo.GetPost(cmd.Context(), args[0])
			if res.Value == nil {
				if !res.OK() {
					return res.Degraded
				}
				return fmt.Errorf("%w: %s", content.ErrNotFound, args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), frontmatter.Encode(res.Value.Metadata, res.Value.Content))
			return err
		},
	}
}

func newPostsSaveCmd(c *cli) *cobra.Command {
	var slug, sha string
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Create or update a post from a local Markdown file",
		Long: `Reads a Markdown file with a frontmatter header and writes it to the
repository. The slug defaults to the file name without its extension. With
--sha the write only succeeds if the stored post still has that blob sha.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if slug == "" {
				slug = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			post := postFromFile(slug, string(data))
			if err := post.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			repo, err := c.repository()
			if err != nil {
				return err
			}
			meta := content.PostMetadata(post)
			save := repo.SavePost
			if sha != "" {
				save = func(ctx context.Context, slug, body string, meta frontmatter.Metadata) (*ghcontents.PutResponse, error) {
					return repo.SavePostAt(ctx, slug, body, meta, sha)
				}
			}
			resp, err := save(cmd.Context(), post.Slug, post.Content, meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", resp.Content.Path, resp.Content.SHA)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "slug to store the post under")
	cmd.Flags().StringVar(&sha, "sha", "", "expected blob sha of the stored post")
	return cmd
}

// postFromFile reads a local post document. The header fields become the
// post's fields; unknown fields are kept as extra metadata.
func postFromFile(slug, data string) content.Post {
	doc := frontmatter.Decode(strings.ReplaceAll(data, "\r\n", "\n"))
	return content.Post{
		Slug:     slug,
		Title:    doc.Metadata.Value(content.KeyTitle),
		Author:   doc.Metadata.Value(content.KeyAuthor),
		Date:     doc.Metadata.Value(content.KeyDate),
		Excerpt:  doc.Metadata.Value(content.KeyExcerpt),
		Content:  strings.TrimSpace(doc.Body),
		Metadata: doc.Metadata,
	}
}

func newPostsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a stored post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repository()
			if err != nil {
				return err
			}
			if err := repo.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", content.PostPath(args[0]))
			return nil
		},
	}
}
