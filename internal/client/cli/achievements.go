package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) achievementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List earned badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.requireSession() {
				return nil
			}
			ctx := cmd.Context()
			check, _ := cmd.Flags().GetBool("check")
			force, _ := cmd.Flags().GetBool("refresh")

			if check {
				badges, err := a.cache.CheckNewAchievements(ctx)
				if err != nil {
					return err
				}
				if len(badges) == 0 {
					fmt.Fprintln(a.out, "No new badges.")
				} else {
					for _, b := range badges {
						fmt.Fprintf(a.out, "New badge: %s %s\n", b.Badge, b.Title)
					}
				}
			}

			all, err := a.cache.LoadAchievements(ctx, force)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(a.out, "No badges earned yet.")
				return nil
			}
			for _, b := range all {
				fmt.Fprintf(a.out, "%s %s (earned %s)\n", b.Badge, b.Title, b.EarnedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "Ask the server for newly earned badges first")
	cmd.Flags().Bool("refresh", false, "Bypass the cache and fetch from the server")
	return cmd
}
