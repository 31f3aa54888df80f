package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session for the current profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if email == "" {
				if email, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("email and password are required")
			}

			resp, err := a.api.Login(ctx, hoaapi.LoginRequest{Email: email, Password: password})
			if err != nil {
				return errors.New(hoaapi.UserMessage(err, "login failed"))
			}
			role, err := models.ParseRole(resp.Role)
			if err != nil {
				return fmt.Errorf("login rejected: %w %q", err, resp.Role)
			}
			sess, err := a.sessions.Login(ctx, a.profile, resp.Token, role)
			if err != nil {
				return err
			}
			landing, _ := models.LandingRoute(role)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (profile %s, landing %s)\n", sess.Role, a.profile, landing)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session of the current profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Logout(cmd.Context(), a.profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out (profile %s)\n", a.profile)
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the role of the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			landing, _ := models.LandingRoute(sess.Role)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile: %s\nrole:    %s\nlanding: %s\n", a.profile, sess.Role, landing)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires: %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var req hoaapi.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a resident account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Name == "" || req.Email == "" || req.Password == "" {
				return errors.New("name, email and password are required")
			}
			resp, err := a.api.Register(cmd.Context(), req)
			if err != nil {
				return errors.New(hoaapi.UserMessage(err, "registration failed"))
			}
			msg := resp.Message
			if msg == "" {
				msg = "Registration successful"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Run `hoactl login` to continue.\n", msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Full name")
	f.StringVar(&req.Email, "email", "", "Email")
	f.StringVar(&req.Password, "password", "", "Password")
	f.StringVar(&req.Phone, "phone", "", "Phone number")
	f.StringVar(&req.CommunityID, "community", "", "Community id")
	f.StringVar(&req.HouseNumber, "house", "", "House number")
	return cmd
}

func (a *app) changePasswordCmd() *cobra.Command {
	var req hoaapi.ChangePasswordRequest
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password and end the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx)
			if err != nil {
				return err
			}
			if req.OldPassword == "" || req.NewPassword == "" {
				return errors.New("old and new password are required")
			}
			resp, err := a.api.ChangePassword(ctx, sess.Token, req)
			if err != nil {
				return a.upstream(ctx, err, "password change failed")
			}
			if err := a.sessions.Logout(ctx, a.profile); err != nil {
				return err
			}
			msg := resp.Message
			if msg == "" {
				msg = "Password changed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Log in again with the new password.\n", msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.OldPassword, "old", "", "Current password")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "New password")
	return cmd
}
