/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coopsite/apiserver/internal/loginflow"
	"github.com/spf13/cobra"
)

var (
	loginServerURL string
	loginEmail     string
	loginPassword  string
)

// loginCmd exercises the login flow against a running server, with the
// same advisory lockout and captcha the browser client applies.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in against a running coopsite server",
	RunE: func(cmd *cobra.Command, args []string) error {
		statePath, err := defaultStatePath()
		if err != nil {
			return err
		}

		controller, err := loginflow.NewController(
			loginServerURL,
			loginServerURL+"/",
			loginflow.NewFileStore(statePath),
		)
		if err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)
		captcha := controller.Captcha()
		fmt.Printf("How much is %s? ", captcha.Question())
		answer, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		result := controller.Submit(cmd.Context(), loginEmail, loginPassword, strings.TrimSpace(answer))
		switch result.Status {
		case loginflow.StatusSuccess:
			fmt.Println("login successful")
			if result.RedirectURL != "" {
				fmt.Printf("continue at: %s\n", result.RedirectURL)
			}
			return nil
		case loginflow.StatusLocked:
			return fmt.Errorf("locked: %s", result.Message)
		default:
			return fmt.Errorf("login failed: %s", result.Message)
		}
	},
}

func defaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "coopsite-login.json"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginServerURL, "server", "http://localhost:4000", "base URL of the backend server")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "login email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "login password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
