package list

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	jsonFlag bool

	exampleListUsage = `  # List persisted analysis runs
  vulnsmith list

  # List runs as JSON
  vulnsmith list --json`
)

// ListCmd represents the list command.
var ListCmd = &cobra.Command{
	Use:                   "list [--json]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleListUsage,
	Short:                 "List persisted analysis runs",
	Args:                  cobra.NoArgs,
	RunE:                  runListCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runListCommand(cmd *cobra.Command, args []string) error {
	runs, err := analysis.ListRuns(AppConfig)
	if err != nil {
		return err
	}

	if jsonFlag {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize runs: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tTARGET\tFINDINGS\tACTIONABLE\tFALSE POSITIVES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.TargetPath,
			run.Statistics.TotalFindings,
			run.Statistics.ActionableCount(),
			run.Statistics.FalsePositives)
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().BoolVar(&jsonFlag, "json", false, "print runs as JSON")
}
