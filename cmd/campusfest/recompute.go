package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

const cliActor = "cli"

func newRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [program-id...]",
		Short: "Recompute averaged scores",
		Long: `Rewrite the points of every scored registration with the mean of its judges'
totals. Without arguments every non-cancelled program is recomputed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			app, err := newApplication(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer app.close(ctx)

			scores := app.services.Scores
			if len(args) == 0 {
				n, err := scores.RecomputeAll(ctx, cliActor)
				if err != nil {
					return err
				}
				slog.Info("Recomputed all programs", "programs", n)
				return nil
			}

			for _, id := range args {
				if _, err := app.services.Programs.Get(ctx, id); err != nil {
					return fmt.Errorf("program %s: %w", id, err)
				}
				if err := scores.Recompute(ctx, id, cliActor); err != nil {
					return fmt.Errorf("program %s: %w", id, err)
				}
				slog.Info("Recomputed program", "program_id", id)
			}
			return nil
		},
	}
}
