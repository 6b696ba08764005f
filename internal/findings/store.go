package findings

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// Store is an ordered collection of findings scoped to one analysis run.
// Insertion order is preserved; id lookup is O(1). The store is not safe for
// concurrent use — a run owns its store exclusively.
type Store struct {
	findings []Finding
	byID     map[string]int
	logger   hclog.Logger
}

// NewStore creates an empty store.
func NewStore(logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{
		byID:   make(map[string]int),
		logger: logger,
	}
}

// Add appends a finding. A duplicate id is not an error: the id index keeps
// the last finding (last-wins), with a warning, but both stay in the ordered
// view.
func (s *Store) Add(f Finding) {
	if _, exists := s.byID[f.ID]; exists {
		s.logger.Warn("finding id collision, index keeps the last one", "id", f.ID, "file", f.FilePath)
	}
	s.findings = append(s.findings, f)
	s.byID[f.ID] = len(s.findings) - 1
}

// AddAll appends all findings in order.
func (s *Store) AddAll(fs []Finding) {
	for _, f := range fs {
		s.Add(f)
	}
}

// Get returns the finding with the given id.
func (s *Store) Get(id string) (Finding, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Finding{}, false
	}
	return s.findings[idx], true
}

// Len returns the number of findings.
func (s *Store) Len() int {
	return len(s.findings)
}

// All returns the findings in insertion order. The slice is a copy; the
// findings themselves are immutable values.
func (s *Store) All() []Finding {
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// GetBySeverity returns findings with exactly the given severity.
func (s *Store) GetBySeverity(severity Severity) []Finding {
	var out []Finding
	for _, f := range s.findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// GetByFile returns all findings located in the given file.
func (s *Store) GetByFile(filePath string) []Finding {
	var out []Finding
	for _, f := range s.findings {
		if f.FilePath == filePath {
			out = append(out, f)
		}
	}
	return out
}

// FilterBySeverity returns findings whose severity rank is >= the rank of
// minSeverity, inclusive.
func (s *Store) FilterBySeverity(minSeverity Severity) []Finding {
	minRank := minSeverity.Rank()
	var out []Finding
	for _, f := range s.findings {
		if f.Severity.Rank() >= minRank {
			out = append(out, f)
		}
	}
	return out
}

// FilterOutFalsePositives returns findings not classified as false positives.
func (s *Store) FilterOutFalsePositives() []Finding {
	var out []Finding
	for _, f := range s.findings {
		if !f.IsLikelyFalsePositive() {
			out = append(out, f)
		}
	}
	return out
}

// SortBySeverity returns the findings sorted most severe first. The sort is
// stable, so findings of equal severity keep insertion order.
func (s *Store) SortBySeverity() []Finding {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}

// ApplyFalsePositive replaces the finding with a copy carrying the false
// positive analysis. Unknown ids are skipped with a warning: assessments are
// weak references and may be stale.
func (s *Store) ApplyFalsePositive(id string, score FalsePositiveScore) bool {
	idx, ok := s.byID[id]
	if !ok {
		s.logger.Warn("false positive assessment references unknown finding, skipping", "id", id)
		return false
	}
	s.findings[idx] = s.findings[idx].WithFalsePositiveScore(score)
	return true
}

// AssignShortIDs replaces finding ids with short sequential ones (F-1, F-2,
// ...) in insertion order. Parser-generated ids are long and repetitive,
// which wastes agent context and invites transcription mistakes; rule ids
// stay available on each finding.
func (s *Store) AssignShortIDs() {
	s.byID = make(map[string]int, len(s.findings))
	for i := range s.findings {
		s.findings[i].ID = fmt.Sprintf("F-%d", i+1)
		s.byID[s.findings[i].ID] = i
	}
}
