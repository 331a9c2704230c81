package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd builds the questpath command tree. Each subcommand renders through
// the App's output writer so tests can capture what the user would see.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "questpath",
		Short:         "QuestPath learning client",
		Long:          "Command-line client for the QuestPath learning platform: track progress, complete lessons, earn badges.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.dashboardCmd(),
		a.achievementsCmd(),
		a.completeLessonCmd(),
		a.advanceCmd(),
		a.leaderboardCmd(),
		a.streakCmd(),
	)
	return root
}
