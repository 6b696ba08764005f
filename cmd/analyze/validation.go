package analyze

import (
	"fmt"
	"os"

	"github.com/scan-io-git/vulnsmith/pkg/shared"
)

var supportedLanguages = []string{"cpp", "csharp", "go", "java", "javascript", "python", "ruby", "swift"}

// validateAnalyzeArgs checks the necessary fields for the analyze command.
func validateAnalyzeArgs(options *RunOptions, targetPath string) error {
	if options.ReportPath != "" {
		if _, err := os.Stat(options.ReportPath); err != nil {
			return fmt.Errorf("report %q is not accessible: %w", options.ReportPath, err)
		}
		return nil
	}

	if targetPath == "" {
		return fmt.Errorf("either a target path or --report is required")
	}
	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("target %q is not accessible: %w", targetPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("target %q is not a directory", targetPath)
	}

	if options.Language == "" {
		return fmt.Errorf("--language is required when scanning")
	}
	if !shared.IsInList(options.Language, supportedLanguages) {
		return fmt.Errorf("unsupported language %q for CodeQL", options.Language)
	}
	if options.Threads < 0 {
		return fmt.Errorf("--threads cannot be negative")
	}
	return nil
}
