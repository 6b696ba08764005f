package report

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/report"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	formatFlag string
	outputFlag string

	exampleReportUsage = `  # Render the markdown report for a run
  vulnsmith report RUN_ID

  # Render an HTML report to a custom path
  vulnsmith report --format html --output /tmp/report.html RUN_ID`
)

// ReportCmd represents the report command.
var ReportCmd = &cobra.Command{
	Use:                   "report [--format FORMAT] [--output PATH] RUN_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleReportUsage,
	Short:                 "Render a report for a persisted analysis run",
	Args:                  cobra.ExactArgs(1),
	RunE:                  runReportCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runReportCommand(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	run, err := analysis.LoadRun(AppConfig, args[0])
	if err != nil {
		return err
	}

	// The output flag may point at a folder; resolve it to a full file path.
	output := outputFlag
	if output != "" {
		output, _, err = files.DetermineFileFullPath(outputFlag, "report."+format.Extension())
		if err != nil {
			return err
		}
	}

	path, err := report.Write(run, format, output)
	if err != nil {
		return err
	}

	logger.Info("report rendered", "run", run.ID, "format", format)
	fmt.Printf("Report saved to %s\n", path)
	return nil
}

func init() {
	ReportCmd.Flags().StringVarP(&formatFlag, "format", "f", "markdown", "report format (markdown, html)")
	ReportCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output path (default: next to the run)")
}
