package cli

import (
	"errors"
	"fmt"

	"github.com/pavel-fokin/files-manager/internal/app"
	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(newUserAddCommand())

	return cmd
}

func newUserAddCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, func(deps *app.Dependencies) error {
				ctx := cmd.Context()

				_, err := deps.Metadata.FindUserByEmail(ctx, email)
				if err == nil {
					return fmt.Errorf("user %s already exists", email)
				}
				if !errors.Is(err, files.ErrNotFound) {
					return err
				}

				hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("failed to hash password: %w", err)
				}

				user := &files.User{Email: email, PasswordHash: string(hash)}
				if err := deps.Metadata.CreateUser(ctx, user); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), user.ID.Hex())
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
