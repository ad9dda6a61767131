package cli

import (
	"errors"
	"fmt"

	"github.com/pavel-fokin/files-manager/internal/app"
	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = errors.New("invalid email or password")

func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue and revoke session tokens",
	}

	cmd.AddCommand(newSessionCreateCommand())
	cmd.AddCommand(newSessionDeleteCommand())

	return cmd
}

func newSessionCreateCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Check credentials and print a new X-Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, func(deps *app.Dependencies) error {
				ctx := cmd.Context()

				user, err := deps.Metadata.FindUserByEmail(ctx, email)
				if errors.Is(err, files.ErrNotFound) {
					return errBadCredentials
				}
				if err != nil {
					return err
				}

				if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
					return errBadCredentials
				}

				token, err := deps.Sessions.Create(ctx, user.ID)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newSessionDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete TOKEN",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, func(deps *app.Dependencies) error {
				return deps.Sessions.Delete(cmd.Context(), args[0])
			})
		},
	}

	return cmd
}
