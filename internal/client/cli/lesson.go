package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkravets/questpath/internal/client/models"
	"github.com/dkravets/questpath/internal/client/nav"
)

func (a *App) completeLessonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete-lesson <lesson-id>",
		Short: "Report a finished lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			score, _ := cmd.Flags().GetInt("score")
			duration, _ := cmd.Flags().GetInt("duration")

			res, err := a.cache.CompleteLesson(cmd.Context(), models.LessonCompletion{
				LessonID:  args[0],
				Score:     score,
				DurationS: duration,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Lesson %s completed, +%d XP\n", res.LessonID, res.XPEarned)
			for _, b := range res.NewBadges {
				fmt.Fprintf(a.out, "New badge: %s %s\n", b.Badge, b.Title)
			}

			a.router.Navigate(nav.ViewFeedback, res)
			return nil
		},
	}
	cmd.Flags().Int("score", 0, "Score achieved in the lesson")
	cmd.Flags().Int("duration", 0, "Time spent, in seconds")
	return cmd
}

func (a *App) advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <step-type>",
		Short: "Advance progress past the current step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			p, err := a.cache.AdvanceProgress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Advanced: %d/%d lessons, current step %s\n",
				p.CompletedLessons, p.TotalLessons, p.CurrentStep)
			return nil
		},
	}
}
