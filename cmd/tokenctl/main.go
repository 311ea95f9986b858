package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"adwords-report/auth"
	"adwords-report/config"
	"adwords-report/utils"
)

const minSecretLen = 16

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Manage report gateway tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "configuration file")

	var admin bool
	var minutes int
	mint := &cobra.Command{
		Use:   "mint <subject>",
		Short: "Sign a gateway token for subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, expiry, err := gatewaySecret(cfgFile)
			if err != nil {
				return err
			}
			if minutes <= 0 {
				minutes = expiry
			}
			tok, err := auth.GenerateJWT(secret, strings.TrimSpace(args[0]), admin, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	mint.Flags().BoolVar(&admin, "admin", false, "token may see every report")
	mint.Flags().IntVar(&minutes, "minutes", 0, "validity in minutes (default gateway.jwt_expiration)")

	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a gateway token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _, err := gatewaySecret(cfgFile)
			if err != nil {
				return err
			}
			c, err := auth.ParseJWT(strings.TrimSpace(args[0]), secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subject=%s admin=%t\n", c.Subject, c.Admin)
			return nil
		},
	}

	secret := &cobra.Command{
		Use:   "secret",
		Short: "Print a random secret for gateway.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := utils.RandomHex(32)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	root.AddCommand(mint, verify, secret)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// gatewaySecret returns the configured secret and token lifetime. Without a
// configured secret it is asked for on the terminal.
func gatewaySecret(cfgFile string) (string, int, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return "", 0, err
	}
	if cfg.Gateway.JWTSecret != "" {
		return cfg.Gateway.JWTSecret, cfg.Gateway.JWTExpiration, nil
	}
	s, err := utils.PromptSecretTwice("JWT secret", minSecretLen)
	if err != nil {
		return "", 0, err
	}
	return s, cfg.Gateway.JWTExpiration, nil
}
