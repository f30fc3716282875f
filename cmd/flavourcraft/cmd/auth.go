package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loginCmd represents the command to sign in and persist the bearer token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the API token locally",
	Long: `Signs in with your FlavourCraft account and stores the bearer token for
subsequent commands. Credentials come from flags, the FLAVOURCRAFT_EMAIL and
FLAVOURCRAFT_PASSWORD environment variables (a .env file works), or an
interactive prompt.`,
	Run: runLogin,
}

// registerCmd represents the command to create an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a FlavourCraft account",
	Run:   runRegister,
}

// logoutCmd represents the command to sign out
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored token",
	Run:   runLogout,
}

// whoamiCmd represents the command to show the signed-in user
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently signed-in user",
	Run:   runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email (falls back to FLAVOURCRAFT_EMAIL)")
	loginCmd.Flags().StringP("password", "p", "", "Account password (falls back to FLAVOURCRAFT_PASSWORD)")

	registerCmd.Flags().StringP("username", "u", "", "Username for the new account (falls back to FLAVOURCRAFT_USERNAME)")
	registerCmd.Flags().StringP("email", "e", "", "Email for the new account (falls back to FLAVOURCRAFT_EMAIL)")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account (falls back to FLAVOURCRAFT_PASSWORD)")
}

// resolveCredential returns the first non-empty of flag value, environment
// variable, and an interactive prompt.
func resolveCredential(cmd *cobra.Command, flagName, envName, prompt string) string {
	value, _ := cmd.Flags().GetString(flagName)
	if value != "" {
		return value
	}
	if value = os.Getenv(envName); value != "" {
		log.Debugf("Using %s from environment", envName)
		return value
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func runLogin(cmd *cobra.Command, args []string) {
	email := resolveCredential(cmd, "email", "FLAVOURCRAFT_EMAIL", "Email: ")
	password := resolveCredential(cmd, "password", "FLAVOURCRAFT_PASSWORD", "Password: ")
	if email == "" || password == "" {
		log.Fatal("Both email and password are required to log in.")
	}

	client := newApiClient()
	token, err := client.Login(context.Background(), email, password)
	if err != nil {
		log.WithError(err).Fatal("Login failed")
	}

	if err := newTokenStore().Save(token); err != nil {
		log.WithError(err).Fatal("Login succeeded but the token could not be saved")
	}
	log.Infof("Logged in as %s. Token saved to %s", email, resolveTokenPath())
}

func runRegister(cmd *cobra.Command, args []string) {
	username := resolveCredential(cmd, "username", "FLAVOURCRAFT_USERNAME", "Username: ")
	email := resolveCredential(cmd, "email", "FLAVOURCRAFT_EMAIL", "Email: ")
	password := resolveCredential(cmd, "password", "FLAVOURCRAFT_PASSWORD", "Password: ")
	if username == "" || email == "" || password == "" {
		log.Fatal("Username, email and password are all required to register.")
	}

	client := newApiClient()
	profile, err := client.Register(context.Background(), username, email, password)
	if err != nil {
		log.WithError(err).Fatal("Registration failed")
	}
	log.Infof("Registered account %s (%s)", profile.Username, profile.Email)

	// Sign in right away so the new account is usable
	token, err := client.Login(context.Background(), email, password)
	if err != nil {
		log.WithError(err).Warn("Account created but automatic login failed; run 'flavourcraft login'.")
		return
	}
	if err := newTokenStore().Save(token); err != nil {
		log.WithError(err).Fatal("Login succeeded but the token could not be saved")
	}
	log.Infof("Logged in as %s", email)
}

func runLogout(cmd *cobra.Command, args []string) {
	client := newApiClient()

	// Revoke server-side first; local invalidation happens regardless
	if err := client.Logout(context.Background()); err != nil {
		log.WithError(err).Warn("Server-side logout failed, removing local token anyway")
	}

	if err := newTokenStore().Invalidate(); err != nil {
		log.WithError(err).Fatal("Failed to remove stored token")
	}
	log.Info("Logged out.")
}

func runWhoami(cmd *cobra.Command, args []string) {
	client := newApiClient()
	profile, err := client.Me(context.Background())
	if err != nil {
		log.WithError(err).Fatal("Could not fetch profile. Are you logged in?")
	}

	fmt.Printf("Username: %s\n", profile.Username)
	fmt.Printf("Email:    %s\n", profile.Email)
	if profile.CreatedAt != "" {
		fmt.Printf("Joined:   %s\n", profile.CreatedAt)
	}
}
