package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile <user-id>",
	Short: "Print a user's profile coverage and next question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadConfig()
		if cfg.DatabaseURL == "" {
			return errNoDatabase
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		p, err := db.GetProfile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		history, err := db.RecentTurns(ctx, args[0], 8)
		if err != nil {
			return fmt.Errorf("load turns: %w", err)
		}
		st := coverage.GetStatus(p)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"user_id":              args[0],
			"state":                p.State,
			"completeness_percent": st.CompletenessPercent(),
			"coverage":             st,
			"next_question":        coverage.SelectNextQuestion(p, history),
		})
	},
}
