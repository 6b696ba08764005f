package codeql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/errors"
)

// CLI wraps the CodeQL command line: it builds argument lists, enforces a
// wall-clock timeout per command and translates failures into CommandError
// with the captured output attached.
type CLI struct {
	path            string
	timeout         time.Duration
	databaseTimeout time.Duration
	logger          hclog.Logger
}

// VersionInfo is the parsed output of `codeql version --format=json`.
type VersionInfo struct {
	Version string `json:"version"`
}

// New creates a CLI adapter from the codeql configuration section.
func New(cfg *config.CodeQL, logger hclog.Logger) *CLI {
	defaults := config.DefaultCodeQLConfig()
	cli := &CLI{
		path:            defaults.Path,
		timeout:         defaults.Timeout,
		databaseTimeout: defaults.DatabaseTimeout,
		logger:          logger,
	}
	if cfg != nil {
		cli.path = config.SetThen(cfg.Path, cli.path)
		cli.timeout = config.SetThen(cfg.Timeout, cli.timeout)
		cli.databaseTimeout = config.SetThen(cfg.DatabaseTimeout, cli.databaseTimeout)
	}
	if cli.logger == nil {
		cli.logger = hclog.NewNullLogger()
	}
	return cli
}

// run executes a codeql command, streaming output to the logger while
// capturing it for error reporting.
func (c *CLI) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.path, args...)

	var stdBuffer bytes.Buffer
	mw := io.MultiWriter(c.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true}), &stdBuffer)
	cmd.Stdout = mw
	cmd.Stderr = mw

	c.logger.Debug("running codeql command", "args", args)
	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewCommandError(c.path, -1, stdBuffer.String(),
				fmt.Errorf("command timed out after %v", timeout))
		}
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", errors.NewCommandError(c.path, exitCode, stdBuffer.String(), err)
	}

	return stdBuffer.String(), nil
}

// Version verifies that the CodeQL CLI is installed and returns its version.
func (c *CLI) Version(ctx context.Context) (*VersionInfo, error) {
	output, err := c.run(ctx, c.timeout, "version", "--format=json")
	if err != nil {
		return nil, fmt.Errorf("codeql CLI not usable at %q: %w", c.path, err)
	}

	var info VersionInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		return nil, fmt.Errorf("failed to parse codeql version info: %w", err)
	}
	return &info, nil
}

// DatabaseOptions describes a `codeql database create` invocation.
type DatabaseOptions struct {
	SourceRoot   string
	DatabasePath string
	Language     string
	Threads      int
	Overwrite    bool
	BuildCommand string
}

// buildDatabaseArgs builds the argument list for database creation.
func buildDatabaseArgs(opts DatabaseOptions) []string {
	args := []string{
		"database", "create", opts.DatabasePath,
		"--language=" + opts.Language,
		"--source-root=" + opts.SourceRoot,
	}
	if opts.BuildCommand != "" {
		args = append(args, "--command="+opts.BuildCommand)
	}
	if opts.Threads > 0 {
		args = append(args, "--threads="+strconv.Itoa(opts.Threads))
	}
	if opts.Overwrite {
		args = append(args, "--overwrite")
	}
	return args
}

// CreateDatabase builds a CodeQL database for the given source tree. An
// existing database is reused unless Overwrite is set.
func (c *CLI) CreateDatabase(ctx context.Context, opts DatabaseOptions) error {
	info, err := os.Stat(opts.SourceRoot)
	if err != nil {
		return fmt.Errorf("source root %q is not accessible: %w", opts.SourceRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %q is not a directory", opts.SourceRoot)
	}

	if DatabaseExists(opts.DatabasePath) {
		if !opts.Overwrite && databaseMatches(opts.DatabasePath, opts.Language, c.logger) {
			c.logger.Info("codeql database already exists, reusing", "path", opts.DatabasePath)
			return nil
		}
		// A stale or mismatched database occupies the target path, so the
		// create command has to be allowed to replace it.
		opts.Overwrite = true
	}

	if err := os.MkdirAll(filepath.Dir(opts.DatabasePath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to prepare database folder: %w", err)
	}

	c.logger.Info("creating codeql database", "language", opts.Language, "source", opts.SourceRoot)
	if _, err := c.run(ctx, c.databaseTimeout, buildDatabaseArgs(opts)...); err != nil {
		return fmt.Errorf("database creation failed for %q: %w", opts.Language, err)
	}
	c.logger.Info("codeql database created", "path", opts.DatabasePath)
	return nil
}

// AnalyzeOptions describes a `codeql database analyze` invocation.
type AnalyzeOptions struct {
	DatabasePath string
	QuerySuite   string
	Format       string
	OutputPath   string
	Threads      int
	Download     bool
}

// buildAnalyzeArgs builds the argument list for database analysis. Queries
// always rerun; cached results from an earlier suite would be misleading.
func buildAnalyzeArgs(opts AnalyzeOptions) []string {
	args := []string{
		"database", "analyze", opts.DatabasePath, opts.QuerySuite,
		"--format=" + opts.Format,
		"--output=" + opts.OutputPath,
		"--rerun",
	}
	if opts.Download {
		args = append(args, "--download")
	}
	if opts.Threads > 0 {
		args = append(args, "--threads="+strconv.Itoa(opts.Threads))
	}
	return args
}

// Analyze runs a query suite against a database and writes the report.
func (c *CLI) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	if !DatabaseExists(opts.DatabasePath) {
		return fmt.Errorf("database does not exist: %s", opts.DatabasePath)
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to prepare output folder: %w", err)
	}

	c.logger.Info("analyzing codeql database", "database", opts.DatabasePath, "suite", opts.QuerySuite)
	if _, err := c.run(ctx, c.timeout, buildAnalyzeArgs(opts)...); err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	c.logger.Info("codeql analysis finished", "output", opts.OutputPath)
	return nil
}

// querySuites maps scan languages to their standard query suites.
var querySuites = map[string]string{
	"python":     "codeql/python-queries:codeql-suites/python-security-and-quality.qls",
	"javascript": "codeql/javascript-queries:codeql-suites/javascript-security-and-quality.qls",
	"java":       "codeql/java-queries:codeql-suites/java-security-and-quality.qls",
	"go":         "codeql/go-queries:codeql-suites/go-security-and-quality.qls",
	"cpp":        "codeql/cpp-queries:codeql-suites/cpp-security-and-quality.qls",
	"csharp":     "codeql/csharp-queries:codeql-suites/csharp-security-and-quality.qls",
	"ruby":       "codeql/ruby-queries:codeql-suites/ruby-security-and-quality.qls",
}

// QuerySuiteForLanguage returns the query suite to run for a language. For
// languages without a curated suite the default query pack is used.
func QuerySuiteForLanguage(language string) string {
	if suite, ok := querySuites[language]; ok {
		return suite
	}
	return fmt.Sprintf("codeql/%s-queries", language)
}

// ReportExtension returns the file extension for an output format.
func ReportExtension(format string) string {
	switch format {
	case "sarif-latest", "sarifv2.1.0":
		return "sarif"
	case "csv":
		return "csv"
	case "text":
		return "txt"
	default:
		return format
	}
}
