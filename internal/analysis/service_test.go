package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/triage"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

const sarifFixture = `{
	"version": "2.1.0",
	"runs": [
		{
			"tool": {
				"driver": {
					"name": "CodeQL",
					"rules": [
						{
							"id": "py/sql-injection",
							"properties": {"tags": ["security", "external/cwe/cwe-089"]},
							"defaultConfiguration": {"level": "error"}
						},
						{
							"id": "py/clear-text-logging",
							"defaultConfiguration": {"level": "warning"}
						}
					]
				}
			},
			"results": [
				{
					"ruleId": "py/sql-injection",
					"level": "error",
					"message": {"text": "SQL query built from user input."},
					"locations": [
						{
							"physicalLocation": {
								"artifactLocation": {"uri": "app.py"},
								"region": {"startLine": 42, "endLine": 45}
							}
						}
					]
				},
				{
					"ruleId": "py/clear-text-logging",
					"level": "warning",
					"message": {"text": "Sensitive data is logged."},
					"locations": [
						{
							"physicalLocation": {
								"artifactLocation": {"uri": "logger.py"},
								"region": {"startLine": 7}
							}
						}
					]
				}
			]
		}
	]
}`

type fakeTriager struct {
	results []triage.Result
	seen    []findings.Finding
}

func (f *fakeTriager) Triage(_ context.Context, list []findings.Finding) ([]triage.Result, error) {
	f.seen = list
	return f.results, nil
}

type fakeAssessor struct {
	assessments map[string]triage.Assessment
}

func (f *fakeAssessor) Assess(_ context.Context, _ []triage.PrioritizedFinding) (map[string]triage.Assessment, error) {
	return f.assessments, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Vulnsmith.HomeFolder = t.TempDir()
	require.NoError(t, config.ValidateVulnsmithConfig(cfg))
	return cfg
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(path, []byte(sarifFixture), 0644))
	return path
}

func TestAnalyzeExistingReport(t *testing.T) {
	cfg := testConfig(t)
	reportPath := writeFixture(t)

	triager := &fakeTriager{
		results: []triage.Result{
			{FindingID: "F-1", PriorityScore: 0.9, Reasoning: "reachable from the search endpoint"},
		},
	}
	assessor := &fakeAssessor{
		assessments: map[string]triage.Assessment{
			"F-2": {FindingID: "F-2", IsFalsePositive: true, FalsePositiveScore: 0.9, FalsePositiveReasoning: "debug-only logger"},
		},
	}

	service := NewService(cfg, nil, triager, assessor)
	run, err := service.Analyze(context.Background(), RunOptions{
		TargetPath: "/src/app",
		Language:   "python",
		ReportPath: reportPath,
	})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	// Agents see short ids, not the long parser-generated ones.
	require.Len(t, triager.seen, 2)
	assert.Equal(t, "F-1", triager.seen[0].ID)
	assert.Equal(t, "F-2", triager.seen[1].ID)

	require.Len(t, run.Prioritized, 1)
	assert.Equal(t, "F-1", run.Prioritized[0].Finding.ID)
	assert.Equal(t, 0.9, run.Prioritized[0].PriorityScore)

	assert.Equal(t, 1, run.AssessmentsApplied)
	assert.Equal(t, 2, run.Statistics.TotalFindings)
	assert.Equal(t, 1, run.Statistics.FalsePositives)
	assert.Equal(t, 1, run.Statistics.HighCount())

	// The run is persisted and loadable.
	loaded, err := LoadRun(cfg, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Len(t, loaded.Findings, 2)
}

func TestAnalyzeWithoutAgents(t *testing.T) {
	cfg := testConfig(t)

	service := NewService(cfg, nil, nil, nil)
	run, err := service.Analyze(context.Background(), RunOptions{
		ReportPath: writeFixture(t),
	})
	require.NoError(t, err)

	assert.Empty(t, run.Prioritized)
	assert.Equal(t, 2, run.Statistics.TotalFindings)
}

func TestAnalyzeUnsupportedFormat(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "report.xml")
	require.NoError(t, os.WriteFile(path, []byte("<report/>"), 0644))

	service := NewService(cfg, nil, nil, nil)
	_, err := service.Analyze(context.Background(), RunOptions{ReportPath: path})
	assert.Error(t, err)
}

func TestListAndDeleteRuns(t *testing.T) {
	cfg := testConfig(t)
	service := NewService(cfg, nil, nil, nil)

	first, err := service.Analyze(context.Background(), RunOptions{ReportPath: writeFixture(t)})
	require.NoError(t, err)
	second, err := service.Analyze(context.Background(), RunOptions{ReportPath: writeFixture(t)})
	require.NoError(t, err)

	runs, err := ListRuns(cfg)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.NoError(t, DeleteRun(cfg, first.ID))
	runs, err = ListRuns(cfg)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)

	assert.Error(t, DeleteRun(cfg, first.ID), "deleting an unknown run fails")
}

func TestListRunsEmptyHome(t *testing.T) {
	cfg := testConfig(t)
	runs, err := ListRuns(cfg)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
