package fix

import (
	"fmt"
	"os"
)

// validateFixArgs checks the necessary fields for the fix command.
func validateFixArgs(options *RunOptions) error {
	if options.RunID == "" {
		return fmt.Errorf("--run is required")
	}
	if options.FindingID == "" {
		return fmt.Errorf("--finding is required")
	}
	if options.RepoPath == "" {
		return fmt.Errorf("--repo is required")
	}

	info, err := os.Stat(options.RepoPath)
	if err != nil {
		return fmt.Errorf("repo path %q is not accessible: %w", options.RepoPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repo path %q is not a directory", options.RepoPath)
	}
	return nil
}
