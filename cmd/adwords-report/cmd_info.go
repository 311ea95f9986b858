package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adwords-report/utils"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the session: environment, version, account and extension methods",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	cfg := s.Config
	caps := s.Reports.Capabilities()
	methods := make([]string, 0, len(caps.Methods()))
	for _, m := range caps.Methods() {
		methods = append(methods, string(m))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Environment:  %s\n", cfg.Service.Environment)
	fmt.Fprintf(out, "Version:      %s\n", cfg.Service.Version)
	fmt.Fprintf(out, "Endpoint:     %s\n", cfg.Service.Endpoint)
	fmt.Fprintf(out, "Service:      %s\n", caps.Service)
	fmt.Fprintf(out, "Methods:      %s\n", strings.Join(methods, ", "))
	if u := cfg.DownloadURL(); u != "" {
		fmt.Fprintf(out, "Download URL: %s\n", u)
	}
	if cfg.Authentication.ClientEmail != "" {
		fmt.Fprintf(out, "Client email: %s\n", cfg.Authentication.ClientEmail)
	}
	if id := cfg.Authentication.ClientCustomerID; id != "" {
		fmt.Fprintf(out, "Customer id:  %s\n", utils.FormatID(id))
	}
	return nil
}
