package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"trackdesk/config"
	"trackdesk/core/draft"
	"trackdesk/db"
	"trackdesk/repository"
	"trackdesk/server"
)

var (
	draftsMax       int
	draftsOlderThan time.Duration
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and clean editor drafts in the configured backend",
}

func withDrafts(fn func(cfg *config.Config, store *draft.Store) error) error {
	cfg := config.Load()
	kv, closeKV, err := server.OpenDraftKV(cfg)
	if err != nil {
		return err
	}
	defer closeKV()
	return fn(cfg, draft.NewStore(kv))
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List draft keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(_ *config.Config, store *draft.Store) error {
			keys, err := store.Sessions("")
			if err != nil {
				return err
			}
			for _, k := range keys {
				kind := "new"
				if draft.IsEditKey(k) {
					kind = "edit"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", kind, k)
			}
			return nil
		})
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(_ *config.Config, store *draft.Store) error {
			snap := store.Load(args[0])
			if snap == nil {
				return fmt.Errorf("no draft for %q", args[0])
			}
			fields := make([]string, 0, len(snap))
			for f := range snap {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f, snap[f])
			}
			return nil
		})
	},
}

var draftsClearCmd = &cobra.Command{
	Use:   "clear <key>",
	Short: "Delete one draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(_ *config.Config, store *draft.Store) error {
			return store.Clear(args[0])
		})
	},
}

var draftsEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Delete all edit drafts once more than --max are stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDrafts(func(cfg *config.Config, store *draft.Store) error {
			limit := draftsMax
			if limit <= 0 {
				limit = cfg.MaxEditSessions
			}
			n, err := store.EvictStale(draft.EditKeyPrefix, "", limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d draft(s)\n", n)
			return nil
		})
	},
}

var draftsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete MySQL drafts untouched for a while",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.DraftBackend != "mysql" {
			return fmt.Errorf("prune needs DRAFT_BACKEND=mysql, got %q", cfg.DraftBackend)
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		repo := repository.NewGormDraftRepository(db.GormDB)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-draftsOlderThan))
		if err != nil {
			return err
		}
		entries, err := repo.List(ctx)
		if err != nil {
			return err
		}
		out, _ := json.Marshal(map[string]int64{"deleted": n, "remaining": int64(len(entries))})
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	draftsEvictCmd.Flags().IntVar(&draftsMax, "max", 0, "edit drafts to keep (default DRAFT_MAX_EDIT_SESSIONS)")
	draftsPruneCmd.Flags().DurationVar(&draftsOlderThan, "older-than", 30*24*time.Hour, "age of drafts to delete")
	draftsCmd.AddCommand(draftsListCmd, draftsShowCmd, draftsClearCmd, draftsEvictCmd, draftsPruneCmd)
	rootCmd.AddCommand(draftsCmd)
}
