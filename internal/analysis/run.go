package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/triage"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

const runFileName = "run.json"

// Run is the persisted outcome of one analysis, written under
// <results>/<run-id>/run.json so later commands can render reports, propose
// fixes or upload without re-scanning.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	TargetPath string    `json:"target_path"`
	Language   string    `json:"language"`
	ReportPath string    `json:"report_path"`

	Findings    []findings.Finding          `json:"findings"`
	Prioritized []triage.PrioritizedFinding `json:"prioritized,omitempty"`
	Statistics  findings.Statistics         `json:"statistics"`

	AssessmentsApplied int `json:"assessments_applied"`
}

// RunFolder returns the folder holding one run's artifacts.
func RunFolder(cfg *config.Config, runID string) string {
	return filepath.Join(config.GetResultsHome(cfg), runID)
}

// SaveRun persists a run under the results home.
func SaveRun(cfg *config.Config, run *Run) error {
	folder := RunFolder(cfg, run.ID)
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run %q: %w", run.ID, err)
	}
	return files.WriteJsonFile(filepath.Join(folder, runFileName), data)
}

// LoadRun reads a persisted run by id.
func LoadRun(cfg *config.Config, runID string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(RunFolder(cfg, runID), runFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read run %q: %w", runID, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("run %q is corrupted: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns all persisted runs, newest first. Folders without a
// readable run file are skipped.
func ListRuns(cfg *config.Config) ([]*Run, error) {
	resultsHome := config.GetResultsHome(cfg)
	entries, err := os.ReadDir(resultsHome)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list results folder: %w", err)
	}

	var runs []*Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := LoadRun(cfg, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// DeleteRun removes one run folder and all its artifacts.
func DeleteRun(cfg *config.Config, runID string) error {
	folder := RunFolder(cfg, runID)
	if _, err := os.Stat(folder); err != nil {
		return fmt.Errorf("run %q not found: %w", runID, err)
	}
	return os.RemoveAll(folder)
}
