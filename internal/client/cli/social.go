package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) leaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the ranking for a metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			metric, _ := cmd.Flags().GetString("metric")
			limit, _ := cmd.Flags().GetInt("limit")

			rows, err := a.cache.Leaderboard(cmd.Context(), metric, limit)
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Fprintf(a.out, "%3d. %-30s %d\n", row.Rank, row.Email, row.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringP("metric", "m", "xp", "Ranking metric: xp, lessons or streak")
	cmd.Flags().IntP("limit", "l", 10, "Number of rows")
	return cmd
}

func (a *App) streakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current study streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			s, err := a.cache.StudyStreak(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Current streak: %d days (longest %d)\n", s.CurrentDays, s.LongestDays)
			if !s.LastStudyAt.IsZero() {
				fmt.Fprintf(a.out, "Last study session: %s\n", s.LastStudyAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}
