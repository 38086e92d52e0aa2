package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"foodgram/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create an administrator from SUPERUSER_* environment variables",
	Long: `Reads SUPERUSER_USERNAME, SUPERUSER_EMAIL and SUPERUSER_PASSWORD.
A .env file in the working directory is loaded first when present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := superuserFromEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.users.CreateSuperuser(ctx, input)
		if err != nil {
			return fmt.Errorf("create superuser: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created with id %d\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createSuperuserCmd)
}

// superuserFromEnv loads .env without overriding variables that are
// already set.
func superuserFromEnv() (*services.SuperuserInput, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	input := &services.SuperuserInput{
		Username: os.Getenv("SUPERUSER_USERNAME"),
		Email:    os.Getenv("SUPERUSER_EMAIL"),
		Password: os.Getenv("SUPERUSER_PASSWORD"),
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, errors.New("SUPERUSER_USERNAME, SUPERUSER_EMAIL and SUPERUSER_PASSWORD must be set")
	}
	return input, nil
}
