package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkravets/questpath/internal/client/api"
	"github.com/dkravets/questpath/internal/client/nav"
	"github.com/dkravets/questpath/internal/client/session"
)

func (a *App) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")

			var err error
			if email == "" {
				email, err = getSimpleText(a.in, "Enter email", a.out)
				if err != nil {
					return err
				}
			}
			password, err := getPassword(a.out)
			if err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), api.Registration{
				Email:    email,
				Password: password,
				Name:     name,
			}); err != nil {
				fmt.Fprintf(a.out, "Registration failed: %s\n", api.Reason(err))
				return err
			}

			a.cache.Initialize(cmd.Context())
			a.renderLanding()
			return nil
		},
	}
	cmd.Flags().StringP("email", "e", "", "Account email (prompted when omitted)")
	cmd.Flags().StringP("name", "n", "", "Display name")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to QuestPath",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			var err error
			if email == "" {
				email, err = getSimpleText(a.in, "Enter email", a.out)
				if err != nil {
					return err
				}
			}
			password, err := getPassword(a.out)
			if err != nil {
				return err
			}

			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				fmt.Fprintf(a.out, "Login failed: %s\n", api.Reason(err))
				return err
			}

			a.cache.Initialize(cmd.Context())
			a.renderLanding()
			return nil
		},
	}
	cmd.Flags().StringP("email", "e", "", "Account email (prompted when omitted)")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout(cmd.Context())
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session state and the current view",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.session.Snapshot()
			view, _ := a.router.Current(snap)

			fmt.Fprintf(a.out, "Session: %s\n", snap.Status)
			if snap.Status == session.StatusError && snap.Err != "" {
				fmt.Fprintf(a.out, "Error:   %s\n", snap.Err)
			}
			if snap.Authenticated() {
				fmt.Fprintf(a.out, "User:    %s (level %d, %d XP)\n",
					snap.User.Email, snap.User.ProfileLevel, snap.User.ProfileXP)
				if snap.User.CurrentTrack != nil {
					fmt.Fprintf(a.out, "Track:   %s\n", *snap.User.CurrentTrack)
				}
			}
			fmt.Fprintf(a.out, "View:    %s\n", view)
			return nil
		},
	}
}

// renderLanding reports where a freshly authenticated user lands: the
// dashboard, or a forced onboarding step.
func (a *App) renderLanding() {
	a.router.Navigate(nav.ViewDashboard, nil)
	view, _ := a.router.Current(a.session.Snapshot())

	switch view {
	case nav.ViewMapping:
		fmt.Fprintln(a.out, "Welcome! Complete the skill mapping to get your track recommendation.")
	case nav.ViewAreas:
		fmt.Fprintln(a.out, "You have a track recommendation. Pick your learning area to continue.")
	default:
		snap := a.session.Snapshot()
		fmt.Fprintf(a.out, "Logged in as %s.\n", snap.User.Email)
	}
}
