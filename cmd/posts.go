package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trackdesk/config"
	"trackdesk/core/wordpress"
)

var (
	postsTab    string
	postsFirst  int
	postsAll    bool
	postsAlbums bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List the viewer's posts of one dashboard tab",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		tab, err := wordpress.ParseTab(postsTab)
		if err != nil {
			return err
		}
		opts := wordpress.ListOptions{Tab: tab, First: postsFirst}
		if postsAlbums {
			opts.CategoryIn = []int{cfg.AlbumCategoryID}
		}

		client := wordpress.NewClient(cfg.GraphQLEndpoint,
			wordpress.WithToken(cfg.GraphQLToken),
			wordpress.WithRetries(cfg.QueryRetries),
		)
		pager := wordpress.NewPager(client, opts)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		var posts []wordpress.Post
		if postsAll {
			posts, err = pager.All(ctx)
		} else {
			posts, err = pager.More(ctx)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range posts {
			fmt.Fprintf(out, "%-8d %-8s %-20s %s\n", p.DatabaseID, p.Status, p.Date, p.Title)
		}
		if pager.HasMore() {
			fmt.Fprintln(out, "more posts available, use --all to page through them")
		}
		return nil
	},
}

func init() {
	postsCmd.Flags().StringVar(&postsTab, "tab", string(wordpress.TabPublished), "published, draft, pending, trash or schedule")
	postsCmd.Flags().IntVar(&postsFirst, "first", wordpress.DefaultPageSize, "page size")
	postsCmd.Flags().BoolVar(&postsAll, "all", false, "page through the whole listing")
	postsCmd.Flags().BoolVar(&postsAlbums, "albums", false, "list the album category only")
	rootCmd.AddCommand(postsCmd)
}
