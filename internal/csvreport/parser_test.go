package csvreport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	sharederrors "github.com/scan-io-git/vulnsmith/pkg/shared/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestParseFileResolvesAliases(t *testing.T) {
	content := "name,severity,message,path,start line,end line\n" +
		"py/sql-injection,error,SQL injection,src/app.py,42,45\n" +
		"py/weak-hash,note,Weak hash,src/crypto.py,7,\n"
	path := writeCSV(t, content)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(parsed))
	}

	first := parsed[0]
	if first.ID != "py/sql-injection_app.py_42" {
		t.Fatalf("unexpected id %q", first.ID)
	}
	if first.Severity != findings.SeverityHigh {
		t.Fatalf("expected error to map to high, got %q", first.Severity)
	}
	if first.EndLine != 45 {
		t.Fatalf("unexpected end line %d", first.EndLine)
	}

	second := parsed[1]
	if second.Severity != findings.SeverityLow {
		t.Fatalf("expected note to map to low, got %q", second.Severity)
	}
	if second.EndLine != 7 {
		t.Fatalf("expected end line to default to start line, got %d", second.EndLine)
	}
}

func TestParseFileSkipsRowsWithoutPath(t *testing.T) {
	content := "name,severity,message,path\n" +
		"py/orphan,error,No path here,\n" +
		"py/kept,warning,Valid row,src/ok.py\n"
	path := writeCSV(t, content)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected only the row with a path, got %d findings", len(parsed))
	}
	if parsed[0].RuleID != "py/kept" {
		t.Fatalf("unexpected rule %q", parsed[0].RuleID)
	}
}

func TestParseFileAlternativeColumnNames(t *testing.T) {
	content := "query,level,Description,file,Line\n" +
		"js/xss,warning,Cross-site scripting,web/index.js,12\n"
	path := writeCSV(t, content)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(parsed))
	}

	f := parsed[0]
	if f.RuleID != "js/xss" {
		t.Fatalf("expected query alias to resolve rule id, got %q", f.RuleID)
	}
	if f.StartLine != 12 || f.EndLine != 12 {
		t.Fatalf("expected Line alias to resolve both lines, got %d-%d", f.StartLine, f.EndLine)
	}
	if f.Message != "Cross-site scripting" {
		t.Fatalf("unexpected message %q", f.Message)
	}
	if f.Severity != findings.SeverityMedium {
		t.Fatalf("expected warning to map to medium, got %q", f.Severity)
	}
}

func TestParseFileDefaultsForMissingColumns(t *testing.T) {
	content := "path\n" +
		"src/app.py\n"
	path := writeCSV(t, content)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(parsed))
	}

	f := parsed[0]
	if f.RuleID != "unknown-rule-0" {
		t.Fatalf("expected deterministic fallback rule id, got %q", f.RuleID)
	}
	if f.StartLine != 1 || f.EndLine != 1 {
		t.Fatalf("expected line numbers to default to 1, got %d-%d", f.StartLine, f.EndLine)
	}
	if f.Severity != findings.SeverityMedium {
		t.Fatalf("expected default severity medium, got %q", f.Severity)
	}
}

func TestParseFileInvalidLineNumbers(t *testing.T) {
	content := "name,path,start line\n" +
		"py/bad-lines,src/app.py,forty-two\n"
	path := writeCSV(t, content)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(parsed))
	}
	if parsed[0].StartLine != 1 || parsed[0].EndLine != 1 {
		t.Fatalf("expected invalid line numbers to default to 1, got %d-%d", parsed[0].StartLine, parsed[0].EndLine)
	}
}

func TestParseFileMissingFile(t *testing.T) {
	_, err := NewParser(nil).ParseFile(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, ok := err.(*sharederrors.ParserError); !ok {
		t.Fatalf("expected ParserError, got %T", err)
	}
}
