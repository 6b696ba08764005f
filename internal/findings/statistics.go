package findings

// Statistics is a pure aggregate over a finding store. It is recomputed in a
// single pass and never mutated in place.
type Statistics struct {
	TotalFindings  int              `json:"total_findings"`
	BySeverity     map[Severity]int `json:"by_severity"`
	ByCWE          map[string]int   `json:"by_cwe"`
	ByLanguage     map[string]int   `json:"by_language"`
	FalsePositives int              `json:"false_positives"`
}

// ComputeStatistics makes a single pass over the store. Only severities,
// CWEs and languages that actually occur appear as keys. Calling it twice
// over an unchanged store yields identical output.
func ComputeStatistics(store *Store) Statistics {
	stats := Statistics{
		TotalFindings: store.Len(),
		BySeverity:    make(map[Severity]int),
		ByCWE:         make(map[string]int),
		ByLanguage:    make(map[string]int),
	}

	for _, f := range store.All() {
		stats.BySeverity[f.Severity]++
		stats.ByLanguage[f.Language()]++
		if f.CWE != nil {
			stats.ByCWE[f.CWE.ID]++
		}
		if f.IsLikelyFalsePositive() {
			stats.FalsePositives++
		}
	}

	return stats
}

// CriticalCount returns the count of critical findings.
func (s Statistics) CriticalCount() int {
	return s.BySeverity[SeverityCritical]
}

// HighCount returns the count of high severity findings.
func (s Statistics) HighCount() int {
	return s.BySeverity[SeverityHigh]
}

// ActionableCount returns the count of critical and high severity findings.
func (s Statistics) ActionableCount() int {
	return s.CriticalCount() + s.HighCount()
}
