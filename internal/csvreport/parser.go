package csvreport

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/pkg/shared/errors"
)

// Column aliases tried in priority order for each logical field. CodeQL CSV
// exports are header-driven but the conventions vary between versions.
var (
	ruleAliases      = []string{"name", "Rule", "rule", "query"}
	pathAliases      = []string{"path", "file", "File"}
	startLineAliases = []string{"start line", "startLine", "line", "Line"}
	endLineAliases   = []string{"end line", "endLine", "start line", "startLine", "line", "Line"}
	messageAliases   = []string{"message", "description", "Description", "Message"}
	severityAliases  = []string{"severity", "Severity", "level"}
)

// Parser extracts normalized findings from a CodeQL CSV report. Field
// resolution falls back through column aliases; a row without any resolvable
// path column is skipped since a finding needs a location.
type Parser struct {
	logger hclog.Logger
}

// NewParser creates a CSV parser.
func NewParser(logger hclog.Logger) *Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Parser{logger: logger}
}

// ParseFile reads and parses a CSV report file.
func (p *Parser) ParseFile(path string) ([]findings.Finding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewParserError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewParserError(path, err)
	}

	var out []findings.Finding
	for index := 0; ; index++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.Warn("skipping unreadable CSV row", "row", index, "error", err)
			continue
		}

		row := zipRow(header, record)
		finding, ok := p.parseRow(row, index)
		if !ok {
			continue
		}
		out = append(out, finding)
	}

	p.logger.Info("CSV report parsed", "path", path, "findings", len(out))
	return out, nil
}

// zipRow pairs header names with row values, ignoring extra cells.
func zipRow(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i >= len(record) {
			break
		}
		row[name] = record[i]
	}
	return row
}

// firstPresent returns the first non-empty value among the aliases.
func firstPresent(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := row[alias]; ok && value != "" {
			return value
		}
	}
	return ""
}

func (p *Parser) parseRow(row map[string]string, index int) (findings.Finding, bool) {
	ruleID := firstPresent(row, ruleAliases)
	if ruleID == "" {
		ruleID = "unknown-rule-" + strconv.Itoa(index)
	}

	filePath := firstPresent(row, pathAliases)
	if filePath == "" {
		p.logger.Warn("skipping CSV row without a file path", "row", index, "rule", ruleID)
		return findings.Finding{}, false
	}

	startLine, endLine := p.parseLines(row, index, ruleID)

	message := firstPresent(row, messageAliases)
	if message == "" {
		message = "No description available"
	}

	severity := parseSeverity(firstPresent(row, severityAliases))

	id := findings.GenerateID(ruleID, filePath, startLine)
	finding, err := findings.New(id, ruleID, severity, nil, filePath, startLine, endLine, message, "")
	if err != nil {
		p.logger.Warn("skipping malformed CSV row", "row", index, "error", err)
		return findings.Finding{}, false
	}
	return finding, true
}

// parseLines resolves the line range, defaulting to 1 when the columns are
// absent or not numeric.
func (p *Parser) parseLines(row map[string]string, index int, ruleID string) (int, int) {
	startRaw := firstPresent(row, startLineAliases)
	endRaw := firstPresent(row, endLineAliases)

	startLine, err := strconv.Atoi(defaultString(startRaw, "1"))
	if err != nil {
		p.logger.Warn("invalid line numbers in CSV row, defaulting to 1", "row", index, "rule", ruleID)
		return 1, 1
	}
	endLine, err := strconv.Atoi(defaultString(endRaw, strconv.Itoa(startLine)))
	if err != nil {
		p.logger.Warn("invalid line numbers in CSV row, defaulting to 1", "row", index, "rule", ruleID)
		return 1, 1
	}
	if endLine < startLine {
		endLine = startLine
	}
	return startLine, endLine
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// parseSeverity maps free-form CSV severity strings to the severity enum.
func parseSeverity(value string) findings.Severity {
	switch strings.ToLower(value) {
	case "error", "high", "critical":
		return findings.SeverityHigh
	case "warning", "medium", "moderate":
		return findings.SeverityMedium
	case "note", "low", "recommendation":
		return findings.SeverityLow
	case "info", "information":
		return findings.SeverityInfo
	default:
		return findings.SeverityMedium
	}
}
