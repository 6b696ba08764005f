package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/cmd/analyze"
	"github.com/scan-io-git/vulnsmith/cmd/clean"
	"github.com/scan-io-git/vulnsmith/cmd/fix"
	"github.com/scan-io-git/vulnsmith/cmd/list"
	"github.com/scan-io-git/vulnsmith/cmd/report"
	"github.com/scan-io-git/vulnsmith/cmd/upload"
	"github.com/scan-io-git/vulnsmith/cmd/version"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/logger"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "vulnsmith [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Vulnsmith finds, triages and fixes security vulnerabilities.",
		Long: `Vulnsmith orchestrates CodeQL scanning, AI-assisted triage of the findings
	and automated fix proposals delivered as pull requests.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(analyze.AnalyzeCmd)
	rootCmd.AddCommand(report.ReportCmd)
	rootCmd.AddCommand(fix.FixCmd)
	rootCmd.AddCommand(upload.UploadCmd)
	rootCmd.AddCommand(list.ListCmd)
	rootCmd.AddCommand(clean.CleanCmd)
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	coreLogger := logger.NewLogger(AppConfig, "core")
	version.Init(AppConfig)
	analyze.Init(AppConfig, coreLogger)
	report.Init(AppConfig, coreLogger)
	fix.Init(AppConfig, coreLogger)
	upload.Init(AppConfig, coreLogger)
	list.Init(AppConfig, coreLogger)
	clean.Init(AppConfig, coreLogger)
}
