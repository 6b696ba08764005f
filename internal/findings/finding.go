package findings

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Severity is a security finding severity level.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityRanks defines the total order used for filtering and sorting.
// Higher means more severe.
var severityRanks = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// ParseSeverity creates a Severity from a string, case-insensitive.
func ParseSeverity(value string) (Severity, error) {
	sev := Severity(strings.ToLower(value))
	if _, ok := severityRanks[sev]; !ok {
		return "", fmt.Errorf("invalid severity %q, must be one of: critical, high, medium, low, info", value)
	}
	return sev, nil
}

// Rank returns the numeric rank for the severity (4=critical .. 0=info).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	rank, ok := severityRanks[s]
	if !ok {
		return -1
	}
	return rank
}

func (s Severity) String() string {
	return string(s)
}

// CWE is a Common Weakness Enumeration identifier.
type CWE struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (c CWE) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s (%s)", c.ID, c.Name)
	}
	return c.ID
}

// NewCWE normalizes the id to the CWE-<number> form.
func NewCWE(id, name string) CWE {
	id = strings.ToUpper(id)
	if !strings.HasPrefix(id, "CWE-") {
		id = "CWE-" + id
	}
	return CWE{ID: id, Name: name}
}

// falsePositiveThreshold is the score above which a finding is classified as
// a false positive when no explicit classification is supplied.
const falsePositiveThreshold = 0.7

// FalsePositiveScore is a false positive analysis result attached to a finding.
type FalsePositiveScore struct {
	Score           float64 `json:"score"`
	IsFalsePositive bool    `json:"is_false_positive"`
	Reasoning       string  `json:"reasoning"`
}

// NewFalsePositiveScore builds a FalsePositiveScore. When explicit is nil the
// classification is derived from the score.
func NewFalsePositiveScore(score float64, reasoning string, explicit *bool) (FalsePositiveScore, error) {
	if score < 0 || score > 1 {
		return FalsePositiveScore{}, fmt.Errorf("false positive score %v out of range [0,1]", score)
	}
	isFP := score > falsePositiveThreshold
	if explicit != nil {
		isFP = *explicit
	}
	return FalsePositiveScore{
		Score:           score,
		IsFalsePositive: isFP,
		Reasoning:       reasoning,
	}, nil
}

// Finding is one normalized static-analysis result. Findings are immutable
// once created; enrichment produces a copy via WithFalsePositiveScore.
type Finding struct {
	ID       string   `json:"id"`
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	CWE      *CWE     `json:"cwe,omitempty"`

	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`

	Message string `json:"message"`
	Snippet string `json:"snippet,omitempty"`

	FalsePositiveScore *FalsePositiveScore `json:"false_positive_score,omitempty"`
}

// New validates and constructs a Finding.
func New(id, ruleID string, severity Severity, cwe *CWE, filePath string, startLine, endLine int, message, snippet string) (Finding, error) {
	if filePath == "" {
		return Finding{}, fmt.Errorf("finding %q has no file path", id)
	}
	if startLine < 1 {
		return Finding{}, fmt.Errorf("finding %q start line %d must be >= 1", id, startLine)
	}
	if endLine < startLine {
		return Finding{}, fmt.Errorf("finding %q end line %d must be >= start line %d", id, endLine, startLine)
	}
	if severity.Rank() < 0 {
		return Finding{}, fmt.Errorf("finding %q has invalid severity %q", id, severity)
	}
	return Finding{
		ID:        id,
		RuleID:    ruleID,
		Severity:  severity,
		CWE:       cwe,
		FilePath:  filePath,
		StartLine: startLine,
		EndLine:   endLine,
		Message:   message,
		Snippet:   snippet,
	}, nil
}

// GenerateID derives the stable finding identifier from the rule, the file
// base name and the start line. The scheme is deterministic but not
// namespaced by directory; the store logs collisions and keeps the last one.
func GenerateID(ruleID, filePath string, startLine int) string {
	return fmt.Sprintf("%s_%s_%d", ruleID, filepath.Base(filePath), startLine)
}

// Location returns a formatted location string, e.g. "src/main.py:42-45".
func (f Finding) Location() string {
	if f.StartLine == f.EndLine {
		return fmt.Sprintf("%s:%d", f.FilePath, f.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", f.FilePath, f.StartLine, f.EndLine)
}

// IsLikelyFalsePositive reports whether the attached false positive analysis
// classified this finding as a false positive.
func (f Finding) IsLikelyFalsePositive() bool {
	if f.FalsePositiveScore == nil {
		return false
	}
	return f.FalsePositiveScore.IsFalsePositive
}

// WithFalsePositiveScore returns a copy of the finding with the false
// positive analysis attached.
func (f Finding) WithFalsePositiveScore(score FalsePositiveScore) Finding {
	f.FalsePositiveScore = &score
	return f
}

// Language guesses the source language from the file extension. Used only for
// per-language statistics; unknown extensions map to "other".
func (f Finding) Language() string {
	switch strings.ToLower(filepath.Ext(f.FilePath)) {
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".go":
		return "go"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	case ".cs":
		return "csharp"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".hpp":
		return "cpp"
	case ".swift":
		return "swift"
	case ".kt":
		return "kotlin"
	default:
		return "other"
	}
}
