package triage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
)

// RiskType classifies the security risk of a finding.
type RiskType string

const (
	RiskExternalPentest RiskType = "external_pentest"
	RiskInternalAbuse   RiskType = "internal_abuse"
	RiskSupplyChain     RiskType = "supply_chain"
	RiskConfiguration   RiskType = "configuration"
	RiskDataExposure    RiskType = "data_exposure"
	RiskOther           RiskType = "other"
)

var validRiskTypes = map[RiskType]bool{
	RiskExternalPentest: true,
	RiskInternalAbuse:   true,
	RiskSupplyChain:     true,
	RiskConfiguration:   true,
	RiskDataExposure:    true,
	RiskOther:           true,
}

var validRemediationPriorities = map[string]bool{
	"immediate": true,
	"high":      true,
	"medium":    true,
	"low":       true,
}

// Assessment is the detailed security assessment of one finding, produced by
// an external analysis step and keyed by finding id.
type Assessment struct {
	FindingID string `json:"finding_id"`

	IsFalsePositive        bool    `json:"is_false_positive"`
	FalsePositiveScore     float64 `json:"false_positive_score"`
	FalsePositiveReasoning string  `json:"false_positive_reasoning"`

	AttackScenario      string   `json:"attack_scenario"`
	RiskType            RiskType `json:"risk_type"`
	ExploitabilityScore float64  `json:"exploitability_score"`
	ImpactDescription   string   `json:"impact_description"`
	RemediationPriority string   `json:"remediation_priority"`
}

type assessmentPayload struct {
	FindingID *string `json:"finding_id"`

	IsFalsePositive        *bool    `json:"is_false_positive"`
	FalsePositiveScore     *float64 `json:"false_positive_score"`
	FalsePositiveReasoning string   `json:"false_positive_reasoning"`

	AttackScenario      string   `json:"attack_scenario"`
	RiskType            string   `json:"risk_type"`
	ExploitabilityScore *float64 `json:"exploitability_score"`
	ImpactDescription   string   `json:"impact_description"`
	RemediationPriority string   `json:"remediation_priority"`
}

// DecodeAssessments validates and decodes an assessment payload. The payload
// must be a JSON array; malformed entries are logged and dropped.
func DecodeAssessments(raw []byte, logger hclog.Logger) (map[string]Assessment, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("assessment payload is not a list: %w", err)
	}

	out := make(map[string]Assessment, len(entries))
	for idx, entry := range entries {
		var payload assessmentPayload
		if err := json.Unmarshal(entry, &payload); err != nil {
			logger.Warn("dropping malformed assessment entry", "index", idx, "error", err)
			continue
		}
		assessment, err := payload.validate()
		if err != nil {
			logger.Warn("dropping invalid assessment entry", "index", idx, "error", err)
			continue
		}
		out[assessment.FindingID] = assessment
	}

	return out, nil
}

func (p assessmentPayload) validate() (Assessment, error) {
	if p.FindingID == nil || *p.FindingID == "" {
		return Assessment{}, fmt.Errorf("missing finding_id")
	}
	if p.FalsePositiveScore == nil {
		return Assessment{}, fmt.Errorf("missing false_positive_score")
	}
	if *p.FalsePositiveScore < 0 || *p.FalsePositiveScore > 1 {
		return Assessment{}, fmt.Errorf("false_positive_score %v out of range [0,1]", *p.FalsePositiveScore)
	}

	riskType := RiskType(strings.ToLower(p.RiskType))
	if !validRiskTypes[riskType] {
		riskType = RiskOther
	}

	remediation := strings.ToLower(p.RemediationPriority)
	if !validRemediationPriorities[remediation] {
		return Assessment{}, fmt.Errorf("remediation_priority %q must be one of: immediate, high, medium, low", p.RemediationPriority)
	}

	isFP := *p.FalsePositiveScore > 0.7
	if p.IsFalsePositive != nil {
		isFP = *p.IsFalsePositive
	}

	exploitability := 0.0
	if p.ExploitabilityScore != nil {
		exploitability = *p.ExploitabilityScore
	}

	return Assessment{
		FindingID:              *p.FindingID,
		IsFalsePositive:        isFP,
		FalsePositiveScore:     *p.FalsePositiveScore,
		FalsePositiveReasoning: p.FalsePositiveReasoning,
		AttackScenario:         p.AttackScenario,
		RiskType:               riskType,
		ExploitabilityScore:    exploitability,
		ImpactDescription:      p.ImpactDescription,
		RemediationPriority:    remediation,
	}, nil
}

// ApplyAssessments folds the false positive determinations back into the
// store. Assessments referencing unknown ids are skipped inside the store.
func ApplyAssessments(store *findings.Store, assessments map[string]Assessment, logger hclog.Logger) int {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	applied := 0
	for id, assessment := range assessments {
		explicit := assessment.IsFalsePositive
		score, err := findings.NewFalsePositiveScore(assessment.FalsePositiveScore, assessment.FalsePositiveReasoning, &explicit)
		if err != nil {
			logger.Warn("assessment carries an invalid false positive score, skipping", "id", id, "error", err)
			continue
		}
		if store.ApplyFalsePositive(id, score) {
			applied++
		}
	}
	return applied
}
