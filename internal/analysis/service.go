package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/csvreport"
	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/sarif"
	"github.com/scan-io-git/vulnsmith/internal/triage"
	"github.com/scan-io-git/vulnsmith/pkg/shared"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

// Triager prioritizes and groups findings.
type Triager interface {
	Triage(ctx context.Context, list []findings.Finding) ([]triage.Result, error)
}

// Assessor performs deep analysis of prioritized findings.
type Assessor interface {
	Assess(ctx context.Context, groups []triage.PrioritizedFinding) (map[string]triage.Assessment, error)
}

// RunOptions describes one analysis request.
type RunOptions struct {
	TargetPath string
	Language   string

	// ReportPath analyzes an existing SARIF or CSV report instead of
	// running a scan.
	ReportPath string

	QuerySuite   string
	ReportFormat string
	BuildCommand string
	Threads      int

	// SkipTriage stops the pipeline after parsing and statistics.
	SkipTriage bool
}

// Service drives the analysis pipeline: scan, parse, triage, assess, persist.
type Service struct {
	cfg      *config.Config
	logger   hclog.Logger
	triager  Triager
	assessor Assessor
}

// NewService builds an analysis service. Triager and assessor may be nil, in
// which case the pipeline stops after parsing and statistics.
func NewService(cfg *config.Config, logger hclog.Logger, triager Triager, assessor Assessor) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{cfg: cfg, logger: logger, triager: triager, assessor: assessor}
}

// Analyze runs the full pipeline and persists the outcome.
func (s *Service) Analyze(ctx context.Context, opts RunOptions) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		TargetPath: opts.TargetPath,
		Language:   opts.Language,
		ReportPath: opts.ReportPath,
	}

	if run.ReportPath == "" {
		reportPath, err := s.scan(run.ID, opts)
		if err != nil {
			return nil, err
		}
		run.ReportPath = reportPath
	}

	parsed, err := ParseReport(run.ReportPath, s.logger)
	if err != nil {
		return nil, err
	}

	store := findings.NewStore(s.logger)
	store.AddAll(parsed)
	store.AssignShortIDs()
	s.logger.Info("report parsed", "run", run.ID, "findings", store.Len())

	if !opts.SkipTriage && s.triager != nil && store.Len() > 0 {
		if err := s.triageAndAssess(ctx, store, run); err != nil {
			return nil, err
		}
	}

	run.Findings = store.All()
	run.Statistics = findings.ComputeStatistics(store)

	if err := SaveRun(s.cfg, run); err != nil {
		return nil, err
	}
	s.logger.Info("analysis finished", "run", run.ID,
		"findings", run.Statistics.TotalFindings,
		"actionable", run.Statistics.ActionableCount(),
		"false_positives", run.Statistics.FalsePositives)
	return run, nil
}

// scan runs the codeql scanner plugin and returns the produced report path.
func (s *Service) scan(runID string, opts RunOptions) (string, error) {
	format := opts.ReportFormat
	if format == "" {
		format = "sarif-latest"
	}
	ext := "sarif"
	if format == "csv" {
		ext = "csv"
	}
	resultsPath := filepath.Join(RunFolder(s.cfg, runID), "report."+ext)

	request := shared.ScannerScanRequest{
		TargetPath:   opts.TargetPath,
		ResultsPath:  resultsPath,
		Language:     opts.Language,
		QuerySuite:   opts.QuerySuite,
		ReportFormat: format,
		BuildCommand: opts.BuildCommand,
		Threads:      opts.Threads,
	}

	s.logger.Info("starting scan", "run", runID, "target", opts.TargetPath, "language", opts.Language)
	err := shared.WithPlugin(s.cfg, "plugin.codeql", shared.PluginTypeScanner, "codeql", func(raw interface{}) error {
		scanner, ok := raw.(shared.Scanner)
		if !ok {
			return fmt.Errorf("dispensed plugin is not a scanner")
		}
		if _, err := scanner.Setup(*s.cfg); err != nil {
			return fmt.Errorf("scanner setup failed: %w", err)
		}
		response, err := scanner.Scan(request)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		resultsPath = response.ResultsPath
		return nil
	})
	if err != nil {
		return "", err
	}
	return resultsPath, nil
}

// triageAndAssess runs the agent passes and folds the outcome into the store.
func (s *Service) triageAndAssess(ctx context.Context, store *findings.Store, run *Run) error {
	results, err := s.triager.Triage(ctx, store.All())
	if err != nil {
		return fmt.Errorf("triage failed: %w", err)
	}

	run.Prioritized = triage.NewReconciler(s.logger).Reconcile(store, results)
	if len(run.Prioritized) == 0 || s.assessor == nil {
		return nil
	}

	assessments, err := s.assessor.Assess(ctx, run.Prioritized)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	run.AssessmentsApplied = triage.ApplyAssessments(store, assessments, s.logger)

	// Reconcile again so prioritized groups carry the enriched findings.
	run.Prioritized = triage.NewReconciler(s.logger).Reconcile(store, results)
	return nil
}

// ParseReport parses a scanner report, dispatching on the file extension.
func ParseReport(path string, logger hclog.Logger) ([]findings.Finding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sarif", ".json":
		return sarif.NewParser(logger).ParseFile(path)
	case ".csv":
		return csvreport.NewParser(logger).ParseFile(path)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", path)
	}
}
