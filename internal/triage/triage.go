package triage

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Result is one externally produced triage decision: a representative finding
// with its priority and the related findings folded under it.
type Result struct {
	FindingID              string   `json:"finding_id"`
	PriorityScore          float64  `json:"priority_score"`
	Reasoning              string   `json:"reasoning"`
	RecommendedForAnalysis bool     `json:"recommended_for_analysis"`
	RelatedFindingIDs      []string `json:"related_finding_ids,omitempty"`
	GroupPattern           string   `json:"group_pattern,omitempty"`
}

// resultPayload mirrors Result with pointer fields so that required-field
// presence can be checked during decoding.
type resultPayload struct {
	FindingID              *string  `json:"finding_id"`
	PriorityScore          *float64 `json:"priority_score"`
	Reasoning              string   `json:"reasoning"`
	RecommendedForAnalysis *bool    `json:"recommended_for_analysis"`
	RelatedFindingIDs      []string `json:"related_finding_ids"`
	GroupPattern           string   `json:"group_pattern"`
}

// DecodeResults validates and decodes a triage payload exactly once, at the
// boundary. The payload must be a JSON array; that failing is batch-level.
// Individual entries are validated independently: a malformed entry is logged
// and dropped, the rest of the batch survives.
func DecodeResults(raw []byte, logger hclog.Logger) ([]Result, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("triage payload is not a list: %w", err)
	}

	results := make([]Result, 0, len(entries))
	for idx, entry := range entries {
		var payload resultPayload
		if err := json.Unmarshal(entry, &payload); err != nil {
			logger.Warn("dropping malformed triage entry", "index", idx, "error", err)
			continue
		}
		result, err := payload.validate()
		if err != nil {
			logger.Warn("dropping invalid triage entry", "index", idx, "error", err)
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (p resultPayload) validate() (Result, error) {
	if p.FindingID == nil || *p.FindingID == "" {
		return Result{}, fmt.Errorf("missing finding_id")
	}
	if p.PriorityScore == nil {
		return Result{}, fmt.Errorf("missing priority_score")
	}
	if *p.PriorityScore < 0 || *p.PriorityScore > 1 {
		return Result{}, fmt.Errorf("priority_score %v out of range [0,1]", *p.PriorityScore)
	}

	recommended := false
	if p.RecommendedForAnalysis != nil {
		recommended = *p.RecommendedForAnalysis
	}

	return Result{
		FindingID:              *p.FindingID,
		PriorityScore:          *p.PriorityScore,
		Reasoning:              p.Reasoning,
		RecommendedForAnalysis: recommended,
		RelatedFindingIDs:      p.RelatedFindingIDs,
		GroupPattern:           p.GroupPattern,
	}, nil
}
