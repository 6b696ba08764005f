package sarif

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	gosarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/pkg/shared/errors"
)

// severityMap translates SARIF result levels to finding severities.
var severityMap = map[string]findings.Severity{
	"error":   findings.SeverityHigh,
	"warning": findings.SeverityMedium,
	"note":    findings.SeverityLow,
	"none":    findings.SeverityInfo,
}

const cweTagPrefix = "external/cwe/cwe-"

// Parser extracts normalized findings from a SARIF 2.1.0 report. A malformed
// individual result is logged and skipped; only a missing or undecodable
// report file fails the batch.
type Parser struct {
	logger hclog.Logger

	// skipSuppressed drops results carrying SARIF suppressions.
	skipSuppressed bool
}

// NewParser creates a SARIF parser.
func NewParser(logger hclog.Logger) *Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Parser{logger: logger}
}

// WithoutSuppressed makes the parser drop suppressed results.
func (p *Parser) WithoutSuppressed() *Parser {
	p.skipSuppressed = true
	return p
}

// ParseFile reads and parses a SARIF report file.
func (p *Parser) ParseFile(path string) ([]findings.Finding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewParserError(path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewParserError(path, err)
	}

	var report gosarif.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.NewParserError(path, fmt.Errorf("invalid SARIF JSON: %w", err))
	}

	parsed := p.Parse(&report)
	p.logger.Info("SARIF report parsed", "path", path, "findings", len(parsed))
	return parsed, nil
}

// Parse extracts findings from an in-memory SARIF report, in report order.
func (p *Parser) Parse(report *gosarif.Report) []findings.Finding {
	var out []findings.Finding
	for _, run := range report.Runs {
		out = append(out, p.parseRun(run)...)
	}
	return out
}

func (p *Parser) parseRun(run *gosarif.Run) []findings.Finding {
	rules := extractRules(run)

	var out []findings.Finding
	for idx, result := range run.Results {
		if p.skipSuppressed && len(result.Suppressions) > 0 {
			p.logger.Debug("skipping suppressed result", "index", idx)
			continue
		}
		finding, err := p.parseResult(result, rules)
		if err != nil {
			p.logger.Warn("skipping malformed SARIF result", "index", idx, "error", err)
			continue
		}
		out = append(out, finding)
	}
	return out
}

// extractRules builds a rule id -> rule metadata map from the run driver.
func extractRules(run *gosarif.Run) map[string]*gosarif.ReportingDescriptor {
	rules := map[string]*gosarif.ReportingDescriptor{}
	if run.Tool.Driver == nil {
		return rules
	}
	for _, rule := range run.Tool.Driver.Rules {
		rules[rule.ID] = rule
	}
	return rules
}

func (p *Parser) parseResult(result *gosarif.Result, rules map[string]*gosarif.ReportingDescriptor) (findings.Finding, error) {
	if result.RuleID == nil || *result.RuleID == "" {
		return findings.Finding{}, fmt.Errorf("result has no ruleId")
	}
	ruleID := *result.RuleID

	if len(result.Locations) == 0 {
		return findings.Finding{}, fmt.Errorf("result %q has no locations", ruleID)
	}

	location := result.Locations[0]
	if location.PhysicalLocation == nil ||
		location.PhysicalLocation.ArtifactLocation == nil ||
		location.PhysicalLocation.ArtifactLocation.URI == nil {
		return findings.Finding{}, fmt.Errorf("result %q has no artifact location", ruleID)
	}
	filePath := *location.PhysicalLocation.ArtifactLocation.URI
	if filePath == "" {
		return findings.Finding{}, fmt.Errorf("result %q has an empty artifact URI", ruleID)
	}

	startLine, endLine, snippet := parseRegion(location.PhysicalLocation.Region)

	message := "No description available"
	if result.Message.Text != nil && *result.Message.Text != "" {
		message = *result.Message.Text
	}

	rule := rules[ruleID]
	severity := extractSeverity(result, rule)
	cwe := extractCWE(rule)

	id := findings.GenerateID(ruleID, filePath, startLine)
	return findings.New(id, ruleID, severity, cwe, filePath, startLine, endLine, message, snippet)
}

func parseRegion(region *gosarif.Region) (startLine, endLine int, snippet string) {
	startLine = 1
	if region != nil && region.StartLine != nil {
		startLine = *region.StartLine
	}
	endLine = startLine
	if region != nil && region.EndLine != nil {
		endLine = *region.EndLine
	}
	if region != nil && region.Snippet != nil && region.Snippet.Text != nil {
		snippet = *region.Snippet.Text
	}
	return startLine, endLine, snippet
}

// extractSeverity resolves the severity in fallback order: result level,
// rule default configuration level, rule "problem.severity" property,
// then medium.
func extractSeverity(result *gosarif.Result, rule *gosarif.ReportingDescriptor) findings.Severity {
	if result.Level != nil {
		if severity, ok := severityMap[*result.Level]; ok {
			return severity
		}
		return findings.SeverityMedium
	}

	if rule != nil && rule.DefaultConfiguration != nil && rule.DefaultConfiguration.Level != "" {
		if severity, ok := severityMap[rule.DefaultConfiguration.Level]; ok {
			return severity
		}
		return findings.SeverityMedium
	}

	if rule != nil && rule.Properties != nil {
		if problemSeverity, ok := rule.Properties["problem.severity"].(string); ok {
			switch strings.ToLower(problemSeverity) {
			case "error", "high":
				return findings.SeverityHigh
			case "warning", "medium":
				return findings.SeverityMedium
			case "recommendation", "low":
				return findings.SeverityLow
			}
		}
	}

	return findings.SeverityMedium
}

// extractCWE scans the rule tags for the first external/cwe/cwe-<n> entry.
func extractCWE(rule *gosarif.ReportingDescriptor) *findings.CWE {
	if rule == nil || rule.Properties == nil {
		return nil
	}
	tags, ok := rule.Properties["tags"].([]interface{})
	if !ok {
		return nil
	}
	for _, raw := range tags {
		tag, ok := raw.(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(tag, cweTagPrefix) {
			cwe := findings.NewCWE(strings.TrimPrefix(tag, cweTagPrefix), "")
			return &cwe
		}
	}
	return nil
}
