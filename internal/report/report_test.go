package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/triage"
)

func sampleRun(t *testing.T) *analysis.Run {
	t.Helper()

	cwe := findings.NewCWE("89", "SQL Injection")
	first, err := findings.New("F-1", "py/sql-injection", findings.SeverityHigh, &cwe,
		"app.py", 42, 45, "SQL query built from user input.", "cursor.execute(query)")
	require.NoError(t, err)

	second, err := findings.New("F-2", "py/clear-text-logging", findings.SeverityMedium, nil,
		"logger.py", 7, 7, "Sensitive data is logged.", "")
	require.NoError(t, err)
	fp, err := findings.NewFalsePositiveScore(0.9, "debug-only logger", nil)
	require.NoError(t, err)
	second = second.WithFalsePositiveScore(fp)

	store := findings.NewStore(nil)
	store.AddAll([]findings.Finding{first, second})

	return &analysis.Run{
		ID:         "run-123",
		CreatedAt:  time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		TargetPath: "/src/app",
		Language:   "python",
		ReportPath: filepath.Join(t.TempDir(), "report.sarif"),
		Findings:   store.All(),
		Prioritized: []triage.PrioritizedFinding{
			{
				Finding:           first,
				PriorityScore:     0.9,
				Reasoning:         "reachable from the search endpoint",
				GroupPattern:      "user input reaches SQL",
				RelatedFindingIDs: []string{"F-2"},
			},
		},
		Statistics: findings.ComputeStatistics(store),
	}
}

func TestParseFormat(t *testing.T) {
	for _, value := range []string{"markdown", "md", "MD", ""} {
		format, err := ParseFormat(value)
		require.NoError(t, err)
		assert.Equal(t, FormatMarkdown, format)
	}

	format, err := ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, format)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	content, err := Render(sampleRun(t), FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, content, "# Security Analysis Report")
	assert.Contains(t, content, "run-123")
	assert.Contains(t, content, "| Total findings | 2 |")
	assert.Contains(t, content, "| high | 1 |")
	assert.Contains(t, content, "| CWE-89 | 1 |")
	assert.Contains(t, content, "py/sql-injection (F-1)")
	assert.Contains(t, content, "reachable from the search endpoint")
	assert.Contains(t, content, "**Instances:** 2")
	// The false positive row is marked.
	assert.Contains(t, content, "| F-2 | py/clear-text-logging | medium | logger.py:7 | yes |")
}

func TestRenderHTML(t *testing.T) {
	content, err := Render(sampleRun(t), FormatHTML)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "<!DOCTYPE html>"))
	assert.Contains(t, content, "run-123")
	assert.Contains(t, content, `class="severity-high"`)
	assert.Contains(t, content, "CWE-89 (SQL Injection)")
	assert.Contains(t, content, "cursor.execute(query)")
}

func TestWriteReportDefaultsNextToRun(t *testing.T) {
	run := sampleRun(t)

	path, err := Write(run, FormatMarkdown, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(run.ReportPath), "report.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "run-123")
}

func TestWriteReportExplicitPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "custom.html")
	_, err := Write(sampleRun(t), FormatHTML, out)
	require.NoError(t, err)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}
