package upload

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/artifacts"
	"github.com/scan-io-git/vulnsmith/internal/dojo"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	projectFlag string
	s3Flag      bool
	dojoFlag    bool

	exampleUploadUsage = `  # Upload a run's report to DefectDojo
  vulnsmith upload --dojo --project acme/webapp RUN_ID

  # Archive a run's artifacts to S3
  vulnsmith upload --s3 RUN_ID`
)

// UploadCmd represents the upload command.
var UploadCmd = &cobra.Command{
	Use:                   "upload {--dojo --project PROJECT | --s3} RUN_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleUploadUsage,
	Short:                 "Upload a run's results to DefectDojo or archive them to S3",
	Args:                  cobra.ExactArgs(1),
	RunE:                  runUploadCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runUploadCommand(cmd *cobra.Command, args []string) error {
	if !s3Flag && !dojoFlag {
		return fmt.Errorf("at least one destination is required: --dojo or --s3")
	}
	if dojoFlag && projectFlag == "" {
		return fmt.Errorf("--project is required with --dojo")
	}

	run, err := analysis.LoadRun(AppConfig, args[0])
	if err != nil {
		return err
	}

	if dojoFlag {
		client, err := dojo.NewClient(logger, AppConfig)
		if err != nil {
			return err
		}
		if err := client.Upload(cmd.Context(), projectFlag, run.ID, run.ReportPath); err != nil {
			return err
		}
		fmt.Printf("Run %s uploaded to DefectDojo\n", run.ID)
	}

	if s3Flag {
		uploader, err := artifacts.NewUploader(logger, AppConfig)
		if err != nil {
			return err
		}
		if err := uploader.ArchiveRun(AppConfig, run); err != nil {
			return err
		}
		fmt.Printf("Run %s archived to S3\n", run.ID)
	}

	return nil
}

func init() {
	UploadCmd.Flags().StringVar(&projectFlag, "project", "", "DefectDojo project name (e.g. acme/webapp)")
	UploadCmd.Flags().BoolVar(&dojoFlag, "dojo", false, "upload the report to DefectDojo")
	UploadCmd.Flags().BoolVar(&s3Flag, "s3", false, "archive the run's artifacts to S3")
}
