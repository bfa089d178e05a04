package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var password string

var useraddCmd = &cobra.Command{
	Use:   "useradd [username]",
	Short: "Create a user, or reset its password",
	Long: `The password is taken from --password, or from the SURVEYCTL_PASSWORD
environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runUseradd,
}

func init() {
	useraddCmd.Flags().StringVar(&password, "password", "", "password of the user")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	pass := password
	if pass == "" {
		pass = os.Getenv("SURVEYCTL_PASSWORD")
	}
	if pass == "" {
		return errors.New("no password given")
	}

	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.Users.Create(cmd.Context(), args[0], pass); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %q saved\n", args[0])
	return nil
}
