package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/pkg/clierr"
	"github.com/habedi/apiclient/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd logs in with a username and password, or imports an existing token pair.
func loginCmd(app *appContext) *cobra.Command {
	var username, accessToken, refreshToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token pair",
		Long:  "Log in with your username and password, or import a token pair obtained elsewhere with --access-token and --refresh-token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if accessToken != "" || refreshToken != "" {
				err := app.api.SetTokens(ctx, client.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
				if err != nil {
					return clierr.New(clierr.Validation, "Both --access-token and --refresh-token are required", err)
				}
				cmd.Println("Token pair imported.")
				return nil
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				remembered := rememberedUsername(ctx, app.api.Store())
				input, err := promptForInput(cmd, reader, usernamePrompt(remembered))
				if err != nil {
					return clierr.New(clierr.Internal, "Failed to read username", err)
				}
				username = input
				if username == "" {
					username = remembered
				}
			}

			password, err := promptForPassword(cmd, reader, "Password: ")
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to read password", err)
			}

			if !validateCredentials(username, password) {
				return clierr.New(clierr.Validation, "Username and password cannot be empty", nil)
			}

			if _, err := app.api.Login(ctx, username, password); err != nil {
				return apiError("Login failed", err)
			}
			cmd.Println("Login was successful.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to log in with")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "Import this access token instead of logging in")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Import this refresh token instead of logging in")

	return cmd
}

// logoutCmd drops the stored token pair.
func logoutCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.api.Logout(cmd.Context()); err != nil {
				return clierr.New(clierr.Internal, "Failed to log out", err)
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func rememberedUsername(ctx context.Context, store storage.CredentialStore) string {
	var username string
	if _, err := store.Get(ctx, storage.UsernameKey, &username); err != nil {
		log.Warn().Err(err).Msg("Failed to read the remembered username")
	}
	return username
}

func usernamePrompt(remembered string) string {
	if remembered == "" {
		return "Username: "
	}
	return fmt.Sprintf("Username [%s]: ", remembered)
}

// promptForInput prints prompt and returns the next trimmed line from reader.
func promptForInput(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	cmd.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptForPassword reads a password without echo when stdin is a terminal,
// and from reader otherwise.
func promptForPassword(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		cmd.Print(prompt)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}
	return promptForInput(cmd, reader, prompt)
}

func validateCredentials(username, password string) bool {
	return username != "" && password != ""
}
