package analyze

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/claude"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

// Global variables for configuration and command arguments
var (
	AppConfig *config.Config
	logger    hclog.Logger
	options   RunOptions

	exampleAnalyzeUsage = `  # Scan a python project and triage the findings
  vulnsmith analyze --language python /path/to/project

  # Analyze an existing SARIF report without scanning
  vulnsmith analyze --report /path/to/report.sarif

  # Scan without the AI triage passes
  vulnsmith analyze --language go --skip-triage /path/to/project`
)

// RunOptions holds the analyze command arguments.
type RunOptions struct {
	Language     string
	ReportPath   string
	QuerySuite   string
	ReportFormat string
	BuildCommand string
	Threads      int
	SkipTriage   bool
}

// AnalyzeCmd represents the analyze command.
var AnalyzeCmd = &cobra.Command{
	Use:                   "analyze [--language LANGUAGE] [--report PATH] [flags] [TARGET_PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyzeUsage,
	Short:                 "Scan a project, triage the findings and persist the run",
	RunE:                  runAnalyzeCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	targetPath := ""
	if len(args) > 0 {
		targetPath = args[0]
	}

	if err := validateAnalyzeArgs(&options, targetPath); err != nil {
		logger.Error("invalid analyze arguments", "error", err)
		return err
	}

	triager, assessor := buildAgents()

	service := analysis.NewService(AppConfig, logger, triager, assessor)
	run, err := service.Analyze(cmd.Context(), analysis.RunOptions{
		TargetPath:   targetPath,
		Language:     options.Language,
		ReportPath:   options.ReportPath,
		QuerySuite:   options.QuerySuite,
		ReportFormat: options.ReportFormat,
		BuildCommand: options.BuildCommand,
		Threads:      options.Threads,
		SkipTriage:   options.SkipTriage,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run %s finished: %d findings (%d actionable, %d likely false positives)\n",
		run.ID,
		run.Statistics.TotalFindings,
		run.Statistics.ActionableCount(),
		run.Statistics.FalsePositives)
	fmt.Printf("Results saved to %s\n", analysis.RunFolder(AppConfig, run.ID))
	return nil
}

// buildAgents wires the AI passes. A missing API key downgrades the run to
// scan-and-parse instead of failing it.
func buildAgents() (analysis.Triager, analysis.Assessor) {
	if options.SkipTriage {
		return nil, nil
	}

	client, err := claude.NewClient(logger, AppConfig)
	if err != nil {
		logger.Warn("AI triage disabled", "reason", err)
		return nil, nil
	}

	topN := config.SetThen(AppConfig.Claude.TopN, config.DefaultClaudeConfig().TopN)
	return claude.NewTriageAgent(client, logger, topN), claude.NewAssessmentAgent(client, logger)
}

func init() {
	AnalyzeCmd.Flags().StringVarP(&options.Language, "language", "l", "", "language to build the CodeQL database for")
	AnalyzeCmd.Flags().StringVar(&options.ReportPath, "report", "", "analyze an existing SARIF or CSV report instead of scanning")
	AnalyzeCmd.Flags().StringVar(&options.QuerySuite, "suite", "", "CodeQL query suite or pack to run")
	AnalyzeCmd.Flags().StringVar(&options.ReportFormat, "format", "", "scanner report format (sarif-latest, csv)")
	AnalyzeCmd.Flags().StringVar(&options.BuildCommand, "build-command", "", "custom build command for compiled languages")
	AnalyzeCmd.Flags().IntVar(&options.Threads, "threads", 0, "number of analysis threads (0 = auto)")
	AnalyzeCmd.Flags().BoolVar(&options.SkipTriage, "skip-triage", false, "skip the AI triage and assessment passes")
}
