package clean

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	allFlag       bool
	tempFlag      bool
	databasesFlag bool

	exampleCleanUsage = `  # Remove one run
  vulnsmith clean RUN_ID

  # Remove all runs, cached CodeQL databases and the scratch folder
  vulnsmith clean --all --databases --temp`
)

// CleanCmd represents the clean command.
var CleanCmd = &cobra.Command{
	Use:                   "clean [--all] [--databases] [--temp] [RUN_ID]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleCleanUsage,
	Short:                 "Remove persisted runs and scratch data",
	Args:                  cobra.MaximumNArgs(1),
	RunE:                  runCleanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runCleanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !allFlag && !tempFlag && !databasesFlag {
		return cmd.Help()
	}

	if len(args) == 1 {
		if allFlag {
			return fmt.Errorf("a run id and --all are mutually exclusive")
		}
		if err := analysis.DeleteRun(AppConfig, args[0]); err != nil {
			return err
		}
		fmt.Printf("Run %s removed\n", args[0])
	}

	if allFlag {
		resultsHome := config.GetResultsHome(AppConfig)
		if err := files.RemoveAndRecreate(resultsHome); err != nil {
			return err
		}
		logger.Info("results folder cleaned", "path", resultsHome)
		fmt.Println("All runs removed")
	}

	if databasesFlag {
		databasesHome := config.GetDatabasesHome(AppConfig)
		if err := files.RemoveAndRecreate(databasesHome); err != nil {
			return err
		}
		logger.Info("databases folder cleaned", "path", databasesHome)
		fmt.Println("Cached CodeQL databases removed")
	}

	if tempFlag {
		tempHome := config.GetTempHome(AppConfig)
		if err := files.RemoveAndRecreate(tempHome); err != nil {
			return err
		}
		logger.Info("temp folder cleaned", "path", tempHome)
		fmt.Println("Scratch folder cleaned")
	}

	return nil
}

func init() {
	CleanCmd.Flags().BoolVar(&allFlag, "all", false, "remove all persisted runs")
	CleanCmd.Flags().BoolVar(&databasesFlag, "databases", false, "remove cached CodeQL databases")
	CleanCmd.Flags().BoolVar(&tempFlag, "temp", false, "remove the scratch folder")
}
