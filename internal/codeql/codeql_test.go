package codeql

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

// databaseMetadata mirrors what recent CodeQL versions write next to an
// extracted database.
const databaseMetadata = `---
sourceLocationPrefix: /src/app
baselineLinesOfCode: 12345
unicodeNewlines: true
columnKind: utf16
primaryLanguage: python
creationMetadata:
  sha: 9f0c1e2d3b4a5968778695a4b3c2d1e0f9e8d7c6
  cliVersion: 2.15.3
  creationTime: 2024-03-14T09:21:11.123456789Z
finalised: true
`

func TestBuildDatabaseArgs(t *testing.T) {
	args := buildDatabaseArgs(DatabaseOptions{
		SourceRoot:   "/src/app",
		DatabasePath: "/db/app-python",
		Language:     "python",
		Threads:      4,
		Overwrite:    true,
	})

	want := []string{
		"database", "create", "/db/app-python",
		"--language=python",
		"--source-root=/src/app",
		"--threads=4",
		"--overwrite",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildDatabaseArgsWithBuildCommand(t *testing.T) {
	args := buildDatabaseArgs(DatabaseOptions{
		SourceRoot:   "/src/app",
		DatabasePath: "/db/app-java",
		Language:     "java",
		BuildCommand: "mvn package",
	})

	found := false
	for _, arg := range args {
		if arg == "--command=mvn package" {
			found = true
		}
		if arg == "--overwrite" || arg == "--threads=0" {
			t.Fatalf("unexpected arg present: %v", args)
		}
	}
	if !found {
		t.Fatalf("build command missing from args: %v", args)
	}
}

func TestBuildAnalyzeArgs(t *testing.T) {
	args := buildAnalyzeArgs(AnalyzeOptions{
		DatabasePath: "/db/app-python",
		QuerySuite:   "python-security-extended.qls",
		Format:       "sarif-latest",
		OutputPath:   "/out/report.sarif",
		Threads:      2,
		Download:     true,
	})

	want := []string{
		"database", "analyze", "/db/app-python", "python-security-extended.qls",
		"--format=sarif-latest",
		"--output=/out/report.sarif",
		"--rerun",
		"--download",
		"--threads=2",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestDatabaseExists(t *testing.T) {
	dir := t.TempDir()
	if DatabaseExists(dir) {
		t.Fatalf("empty folder must not count as a database")
	}

	metadata := filepath.Join(dir, databaseMetadataFile)
	if err := os.WriteFile(metadata, []byte("sourceLocationPrefix: /src/app\nprimaryLanguage: python\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !DatabaseExists(dir) {
		t.Fatalf("folder with metadata file must count as a database")
	}
}

func writeDatabaseMetadata(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, databaseMetadataFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestReadDatabaseInfo(t *testing.T) {
	dir := writeDatabaseMetadata(t, databaseMetadata)

	info, err := ReadDatabaseInfo(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.PrimaryLanguage != "python" {
		t.Fatalf("unexpected language: %q", info.PrimaryLanguage)
	}
	if info.SourceLocationPrefix != "/src/app" {
		t.Fatalf("unexpected source prefix: %q", info.SourceLocationPrefix)
	}
	if !info.Finalized {
		t.Fatalf("expected a finalised database")
	}
	if info.CreationMetadata.CLIVersion != "2.15.3" {
		t.Fatalf("unexpected cli version: %q", info.CreationMetadata.CLIVersion)
	}
	if info.CreationMetadata.SHA != "9f0c1e2d3b4a5968778695a4b3c2d1e0f9e8d7c6" {
		t.Fatalf("unexpected sha: %q", info.CreationMetadata.SHA)
	}
}

func TestReadDatabaseInfoMissing(t *testing.T) {
	if _, err := ReadDatabaseInfo(t.TempDir()); err == nil {
		t.Fatalf("expected an error for a folder without metadata")
	}
}

func TestDatabaseMatches(t *testing.T) {
	logger := hclog.NewNullLogger()
	dir := writeDatabaseMetadata(t, databaseMetadata)

	if !databaseMatches(dir, "python", logger) {
		t.Fatalf("database built for python must match a python scan")
	}
	if databaseMatches(dir, "go", logger) {
		t.Fatalf("database built for python must not match a go scan")
	}
	if databaseMatches(writeDatabaseMetadata(t, "{invalid"), "python", logger) {
		t.Fatalf("unreadable metadata must not count as a match")
	}
}

func TestQuerySuiteForLanguage(t *testing.T) {
	cases := map[string]string{
		"python": "codeql/python-queries:codeql-suites/python-security-and-quality.qls",
		"go":     "codeql/go-queries:codeql-suites/go-security-and-quality.qls",
		"swift":  "codeql/swift-queries",
	}
	for language, want := range cases {
		if got := QuerySuiteForLanguage(language); got != want {
			t.Fatalf("QuerySuiteForLanguage(%q) = %q, want %q", language, got, want)
		}
	}
}

func TestDatabaseFolderName(t *testing.T) {
	name := DatabaseFolderName("/srv/checkouts/a/webapp", "python")
	if !strings.HasPrefix(name, "webapp_python_") {
		t.Fatalf("unexpected folder name: %q", name)
	}
	if name != DatabaseFolderName("/srv/checkouts/a/webapp", "python") {
		t.Fatalf("folder name must be stable for the same project")
	}
	if name == DatabaseFolderName("/srv/checkouts/b/webapp", "python") {
		t.Fatalf("projects with the same basename must get distinct folders")
	}
}

func TestReportExtension(t *testing.T) {
	cases := map[string]string{
		"sarif-latest": "sarif",
		"csv":          "csv",
		"text":         "txt",
		"graphtext":    "graphtext",
	}
	for format, want := range cases {
		if got := ReportExtension(format); got != want {
			t.Fatalf("ReportExtension(%q) = %q, want %q", format, got, want)
		}
	}
}
