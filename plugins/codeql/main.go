package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/vulnsmith/internal/codeql"
	"github.com/scan-io-git/vulnsmith/pkg/shared"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

const PluginName = "codeql"

// Metadata of the plugin, injected at link time.
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

var supportedLanguages = []string{"cpp", "csharp", "go", "java", "javascript", "python", "ruby", "swift"}
var supportedFormats = []string{"csv", "sarif-latest", "sarifv2.1.0", "graphtext", "dgml", "dot"}

// ScannerCodeQL implements the scanner contract on top of the CodeQL CLI.
type ScannerCodeQL struct {
	logger       hclog.Logger
	globalConfig *config.Config
	cli          *codeql.CLI
	name         string
}

func newScannerCodeQL(logger hclog.Logger) *ScannerCodeQL {
	return &ScannerCodeQL{
		logger: logger,
		name:   PluginName,
	}
}

// Setup stores the global configuration and prepares the CLI adapter.
func (g *ScannerCodeQL) Setup(configData config.Config) (bool, error) {
	g.globalConfig = &configData
	g.cli = codeql.New(&configData.CodeQL, g.logger)

	info, err := g.cli.Version(context.Background())
	if err != nil {
		return false, err
	}
	g.logger.Info("codeql CLI found", "version", info.Version)
	return true, nil
}

// validateScan checks the necessary fields in the request.
func (g *ScannerCodeQL) validateScan(args *shared.ScannerScanRequest) error {
	if g.globalConfig == nil || g.cli == nil {
		return fmt.Errorf("plugin is not set up, call Setup first")
	}
	if args.TargetPath == "" {
		return fmt.Errorf("target path is required")
	}
	if args.ResultsPath == "" {
		return fmt.Errorf("results path is required")
	}
	if !shared.IsInList(args.Language, supportedLanguages) {
		return fmt.Errorf("unsupported language for CodeQL: %s", args.Language)
	}
	return nil
}

// validateFormatSoft warns about formats the known CodeQL versions do not
// support but lets the scan proceed.
func (g *ScannerCodeQL) validateFormatSoft(format string) {
	if !shared.IsInList(format, supportedFormats) {
		g.logger.Warn(
			"the used known version of CodeQL doesn't support the passed format type. Continuing scan...",
			"reportFormat", format,
			"supportedFormats", strings.Join(supportedFormats, ", "),
		)
	}
}

// Scan builds or reuses a database for the target and runs the query suite.
// Databases live under the databases folder, keyed by project and language,
// so repeated scans of the same tree skip extraction.
func (g *ScannerCodeQL) Scan(args shared.ScannerScanRequest) (shared.ScannerScanResponse, error) {
	var result shared.ScannerScanResponse
	g.logger.Info("codeQL scan starting", "project", args.TargetPath)
	g.logger.Debug("debug info", "args", args)

	if err := g.validateScan(&args); err != nil {
		g.logger.Error("validation failed for scan operation", "error", err)
		return result, err
	}

	format := args.ReportFormat
	if format == "" {
		format = "sarif-latest"
	}
	g.validateFormatSoft(format)

	suite := args.QuerySuite
	if suite == "" {
		suite = config.SetThen(g.globalConfig.CodeQL.DefaultSuite, codeql.QuerySuiteForLanguage(args.Language))
	}

	databasesHome := config.GetDatabasesHome(g.globalConfig)
	if err := os.MkdirAll(databasesHome, os.ModePerm); err != nil {
		return result, fmt.Errorf("failed to prepare databases folder: %w", err)
	}
	databaseDir := filepath.Join(databasesHome, codeql.DatabaseFolderName(args.TargetPath, args.Language))

	ctx := context.Background()
	err := g.cli.CreateDatabase(ctx, codeql.DatabaseOptions{
		SourceRoot:   args.TargetPath,
		DatabasePath: databaseDir,
		Language:     args.Language,
		Threads:      args.Threads,
		BuildCommand: args.BuildCommand,
		Overwrite:    false,
	})
	if err != nil {
		return result, err
	}

	err = g.cli.Analyze(ctx, codeql.AnalyzeOptions{
		DatabasePath: databaseDir,
		QuerySuite:   suite,
		Format:       format,
		OutputPath:   args.ResultsPath,
		Threads:      args.Threads,
		Download:     true,
	})
	if err != nil {
		return result, err
	}

	result.ResultsPath = args.ResultsPath
	g.logger.Info("scan finished", "project", args.TargetPath)
	g.logger.Info("result saved", "path", args.ResultsPath)
	return result, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	codeQLInstance := newScannerCodeQL(logger)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeScanner: &shared.ScannerPlugin{Impl: codeQLInstance},
		},
		Logger: logger,
	})
}
