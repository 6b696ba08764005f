package triage

import (
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
)

// PrioritizedFinding is a presentation-ready triage group: the representative
// finding, its triage decision and the related findings resolved against the
// store. RelatedFindingIDs carries the triage payload's list unmodified so
// downstream consumers can report "N related instances" even when some ids
// did not resolve.
type PrioritizedFinding struct {
	Finding                findings.Finding   `json:"finding"`
	PriorityScore          float64            `json:"priority_score"`
	Reasoning              string             `json:"reasoning"`
	RecommendedForAnalysis bool               `json:"recommended_for_analysis"`
	GroupPattern           string             `json:"group_pattern,omitempty"`
	RelatedFindingIDs      []string           `json:"related_finding_ids,omitempty"`
	Related                []findings.Finding `json:"related,omitempty"`
}

// Reconciler merges externally produced triage decisions with the finding
// store without losing findings: decisions referencing unknown representatives
// are skipped, unresolved related ids are dropped silently from the resolved
// view but preserved in RelatedFindingIDs.
type Reconciler struct {
	logger hclog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(logger hclog.Logger) *Reconciler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reconciler{logger: logger}
}

// Reconcile builds the prioritized view, sorted by priority score descending.
// The sort is stable, so entries with equal scores keep payload order. When a
// finding appears as a representative after already being folded into an
// earlier group, the first occurrence wins and the later entry is skipped.
func (r *Reconciler) Reconcile(store *findings.Store, results []Result) []PrioritizedFinding {
	grouped := make(map[string]bool)

	var out []PrioritizedFinding
	for _, result := range results {
		if grouped[result.FindingID] {
			r.logger.Warn("triage entry conflicts with an earlier group, first representative wins",
				"id", result.FindingID)
			continue
		}

		representative, ok := store.Get(result.FindingID)
		if !ok {
			r.logger.Warn("triage entry references unknown finding, skipping", "id", result.FindingID)
			continue
		}
		grouped[result.FindingID] = true

		var related []findings.Finding
		for _, relatedID := range result.RelatedFindingIDs {
			relatedFinding, ok := store.Get(relatedID)
			if !ok {
				continue
			}
			related = append(related, relatedFinding)
			grouped[relatedID] = true
		}

		out = append(out, PrioritizedFinding{
			Finding:                representative,
			PriorityScore:          result.PriorityScore,
			Reasoning:              result.Reasoning,
			RecommendedForAnalysis: result.RecommendedForAnalysis,
			GroupPattern:           result.GroupPattern,
			RelatedFindingIDs:      result.RelatedFindingIDs,
			Related:                related,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})

	return out
}

// InstanceCount returns the group size including the representative, counting
// the payload's related list even when some ids did not resolve.
func (p PrioritizedFinding) InstanceCount() int {
	return 1 + len(p.RelatedFindingIDs)
}
