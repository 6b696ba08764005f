package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/findings"
)

// Format selects the report output flavor.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(value) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (markdown, html)", value)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "md"
}

// data is the view handed to the templates.
type data struct {
	Run         *analysis.Run
	GeneratedAt time.Time
	Severities  []severityRow
	TopCWEs     []cweRow
}

type severityRow struct {
	Severity findings.Severity
	Count    int
}

type cweRow struct {
	CWE   string
	Count int
}

func buildData(run *analysis.Run) data {
	d := data{
		Run:         run,
		GeneratedAt: time.Now().UTC(),
	}

	order := []findings.Severity{
		findings.SeverityCritical,
		findings.SeverityHigh,
		findings.SeverityMedium,
		findings.SeverityLow,
		findings.SeverityInfo,
	}
	for _, severity := range order {
		if count := run.Statistics.BySeverity[severity]; count > 0 {
			d.Severities = append(d.Severities, severityRow{Severity: severity, Count: count})
		}
	}

	for cwe, count := range run.Statistics.ByCWE {
		d.TopCWEs = append(d.TopCWEs, cweRow{CWE: cwe, Count: count})
	}
	sortCWEs(d.TopCWEs)

	return d
}

// sortCWEs orders rows by count descending, then by id for determinism.
func sortCWEs(rows []cweRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].CWE < rows[j].CWE
	})
}

// Render produces the report in the requested format.
func Render(run *analysis.Run, format Format) (string, error) {
	switch format {
	case FormatHTML:
		return renderHTML(buildData(run))
	case FormatMarkdown:
		return renderMarkdown(buildData(run))
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
}

// Write renders the report and saves it next to the run, or to outputPath
// when one is given. Returns the written path.
func Write(run *analysis.Run, format Format, outputPath string) (string, error) {
	content, err := Render(run, format)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(run.ReportPath), "report."+format.Extension())
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outputPath, nil
}
