package sarif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	sharederrors "github.com/scan-io-git/vulnsmith/pkg/shared/errors"
)

const sampleReport = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {
        "driver": {
          "name": "CodeQL",
          "rules": [
            {
              "id": "py/sql-injection",
              "properties": {
                "tags": ["security", "external/cwe/cwe-89"],
                "problem.severity": "error"
              }
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
          "message": {"text": "SQL query built from user input"},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "src/app.py"},
                "region": {"startLine": 42, "endLine": 45, "snippet": {"text": "cursor.execute(q)"}}
              }
            }
          ]
        },
        {
          "ruleId": "py/clear-text-logging",
          "message": {"text": "Sensitive data logged"},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "src/log.py"},
                "region": {"startLine": 7}
              }
            }
          ]
        },
        {
          "message": {"text": "no rule id, must be skipped"},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "src/app.py"},
                "region": {"startLine": 1}
              }
            }
          ]
        },
        {
          "ruleId": "py/no-location",
          "message": {"text": "no locations, must be skipped"}
        }
      ]
    }
  ]
}`

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.sarif")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestParseFileExtractsWellFormedResults(t *testing.T) {
	path := writeReport(t, sampleReport)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two malformed results are skipped without affecting the rest.
	if len(parsed) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(parsed))
	}

	sqli := parsed[0]
	if sqli.ID != "py/sql-injection_app.py_42" {
		t.Fatalf("unexpected finding id %q", sqli.ID)
	}
	if sqli.Severity != findings.SeverityHigh {
		t.Fatalf("expected error level to map to high, got %q", sqli.Severity)
	}
	if sqli.CWE == nil || sqli.CWE.ID != "CWE-89" {
		t.Fatalf("expected CWE-89, got %+v", sqli.CWE)
	}
	if sqli.StartLine != 42 || sqli.EndLine != 45 {
		t.Fatalf("unexpected location %d-%d", sqli.StartLine, sqli.EndLine)
	}
	if sqli.Snippet != "cursor.execute(q)" {
		t.Fatalf("unexpected snippet %q", sqli.Snippet)
	}

	logging := parsed[1]
	if logging.Severity != findings.SeverityMedium {
		t.Fatalf("expected defaultConfiguration warning to map to medium, got %q", logging.Severity)
	}
	if logging.EndLine != 7 {
		t.Fatalf("expected end line to default to start line, got %d", logging.EndLine)
	}
	if logging.CWE != nil {
		t.Fatalf("expected no CWE without cwe tags, got %+v", logging.CWE)
	}
}

func TestParseFileIsDeterministic(t *testing.T) {
	path := writeReport(t, sampleReport)
	parser := NewParser(nil)

	first, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("expected identical ids in identical order, got %q and %q at %d", first[i].ID, second[i].ID, i)
		}
	}
}

func TestParseFileMissingFile(t *testing.T) {
	_, err := NewParser(nil).ParseFile(filepath.Join(t.TempDir(), "absent.sarif"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, ok := err.(*sharederrors.ParserError); !ok {
		t.Fatalf("expected ParserError, got %T", err)
	}
}

func TestParseFileInvalidJSON(t *testing.T) {
	path := writeReport(t, "{not json")
	_, err := NewParser(nil).ParseFile(path)
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestParseFileSkipsSuppressedResults(t *testing.T) {
	report := `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {"driver": {"name": "CodeQL", "rules": []}},
      "results": [
        {
          "ruleId": "py/suppressed",
          "level": "warning",
          "message": {"text": "suppressed"},
          "suppressions": [{"kind": "inSource"}],
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "a.py"},
                "region": {"startLine": 3}
              }
            }
          ]
        }
      ]
    }
  ]
}`
	path := writeReport(t, report)

	withSuppressed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(withSuppressed) != 1 {
		t.Fatalf("expected suppressed result to be kept by default, got %d findings", len(withSuppressed))
	}

	without, err := NewParser(nil).WithoutSuppressed().ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(without) != 0 {
		t.Fatalf("expected suppressed result to be dropped, got %d findings", len(without))
	}
}

func TestExtractSeverityFallsBackToProblemSeverity(t *testing.T) {
	report := `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {
        "driver": {
          "name": "CodeQL",
          "rules": [
            {"id": "py/recommendation", "properties": {"problem.severity": "recommendation"}},
            {"id": "py/no-metadata"}
          ]
        }
      },
      "results": [
        {
          "ruleId": "py/recommendation",
          "message": {"text": "m"},
          "locations": [{"physicalLocation": {"artifactLocation": {"uri": "a.py"}, "region": {"startLine": 1}}}]
        },
        {
          "ruleId": "py/no-metadata",
          "message": {"text": "m"},
          "locations": [{"physicalLocation": {"artifactLocation": {"uri": "a.py"}, "region": {"startLine": 2}}}]
        }
      ]
    }
  ]
}`
	path := writeReport(t, report)

	parsed, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(parsed))
	}
	if parsed[0].Severity != findings.SeverityLow {
		t.Fatalf("expected problem.severity recommendation to map to low, got %q", parsed[0].Severity)
	}
	if parsed[1].Severity != findings.SeverityMedium {
		t.Fatalf("expected default severity medium, got %q", parsed[1].Severity)
	}
}
