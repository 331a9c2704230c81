package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show progress, statistics and suggested next steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("refresh")

			progress, err := a.cache.LoadProgress(ctx, force)
			if err != nil {
				return err
			}
			stats, err := a.cache.LoadStatistics(ctx, force)
			if err != nil {
				return err
			}
			steps, err := a.cache.LoadNextSteps(ctx)
			if err != nil {
				return err
			}

			if progress != nil {
				fmt.Fprintf(a.out, "Progress: %d/%d lessons (%.0f%%) on %s\n",
					progress.CompletedLessons, progress.TotalLessons,
					progress.CompletionRatio*100, progress.TrackID)
				if progress.CurrentStep != "" {
					fmt.Fprintf(a.out, "Current step: %s\n", progress.CurrentStep)
				}
			}
			if stats != nil {
				fmt.Fprintf(a.out, "Totals: %d lessons, %d projects, %d XP, active %d days\n",
					stats.LessonsCompleted, stats.ProjectsFinished, stats.TotalXP, stats.ActiveDays)
			}
			if steps != nil && len(steps.Recommendations) > 0 {
				fmt.Fprintln(a.out, "Next steps:")
				for _, r := range steps.Recommendations {
					fmt.Fprintf(a.out, "  - [%s] %s (%s)\n", r.Kind, r.Title, r.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "Bypass the cache and fetch from the server")
	return cmd
}

// requireSession prints a hint and reports false when no one is logged in.
// Data commands are cheap no-ops without a session.
func (a *App) requireSession() bool {
	if a.session.Snapshot().Authenticated() {
		return true
	}
	fmt.Fprintln(a.out, "Not logged in. Run 'questpath login' first.")
	return false
}
