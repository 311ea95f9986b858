package main

import (
	"os"

	"github.com/spf13/cobra"

	"adwords-report/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config   string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:           "adwords-report",
	Short:         "Download and convert AdWords API reports",
	Long:          "adwords-report polls report jobs, downloads reports by job or report definition\nand converts them to CSV, spreadsheets or tables.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.config, "config", config.DefaultFile, "configuration file")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error (default log.level)")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(xmlReportCmd)
	rootCmd.AddCommand(csvReportCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(xlsxCmd)
	rootCmd.AddCommand(addDefinitionCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
