package service

import (
	"fmt"
	"time"

	"reddish/app/auth"
	"reddish/app/models"

	"github.com/spf13/cobra"
)

// newTokenCommand mints a session token for local development and API scripts.
func newTokenCommand(c *cli) *cobra.Command {
	var profile models.User
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token signed with SESSION_SECRET",
		Example: `  reddish token --sub user_123 --username alice
  curl -H "Authorization: Bearer $(reddish token --sub user_123)" localhost:8080/api/posts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.RequireSessionSecret(); err != nil {
				return err
			}
			if profile.Username == "" {
				profile.Username = profile.ID
			}
			token, err := auth.Mint(c.cfg.SessionSecret, profile, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&profile.ID, "sub", "", "Subject (user id)")
	f.StringVar(&profile.Username, "username", "", "Username claim (defaults to the subject)")
	f.StringVar(&profile.Email, "email", "", "Email claim")
	f.StringVar(&profile.ImageURL, "image-url", "", "Avatar URL claim")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
