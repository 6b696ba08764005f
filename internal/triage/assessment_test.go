package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/vulnsmith/internal/findings"
)

func TestDecodeAssessments(t *testing.T) {
	payload := `[
		{
			"finding_id": "F-1",
			"is_false_positive": false,
			"false_positive_score": 0.1,
			"false_positive_reasoning": "input reaches the sink unsanitized",
			"attack_scenario": "attacker controls the search parameter",
			"risk_type": "external_pentest",
			"exploitability_score": 0.8,
			"impact_description": "full database read",
			"remediation_priority": "immediate"
		},
		{
			"finding_id": "F-2",
			"false_positive_score": 0.9,
			"false_positive_reasoning": "test-only helper",
			"risk_type": "made_up_type",
			"remediation_priority": "LOW"
		}
	]`

	assessments, err := DecodeAssessments([]byte(payload), nil)
	require.NoError(t, err)
	require.Len(t, assessments, 2)

	first := assessments["F-1"]
	assert.False(t, first.IsFalsePositive)
	assert.Equal(t, RiskExternalPentest, first.RiskType)
	assert.Equal(t, "immediate", first.RemediationPriority)

	second := assessments["F-2"]
	assert.True(t, second.IsFalsePositive, "classification derived from score when absent")
	assert.Equal(t, RiskOther, second.RiskType, "unknown risk types fall back to other")
	assert.Equal(t, "low", second.RemediationPriority, "priority is normalized to lowercase")
}

func TestDecodeAssessmentsDropsInvalidEntries(t *testing.T) {
	payload := `[
		{"finding_id": "F-1", "false_positive_score": 0.2, "remediation_priority": "soon"},
		{"false_positive_score": 0.2, "remediation_priority": "high"},
		{"finding_id": "F-3", "false_positive_score": 0.3, "remediation_priority": "high"}
	]`

	assessments, err := DecodeAssessments([]byte(payload), nil)
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	_, ok := assessments["F-3"]
	assert.True(t, ok)
}

func TestDecodeAssessmentsNotAList(t *testing.T) {
	_, err := DecodeAssessments([]byte(`"nope"`), nil)
	assert.Error(t, err)
}

func TestApplyAssessments(t *testing.T) {
	store := findings.NewStore(nil)
	f, err := findings.New("F-1", "rule", findings.SeverityHigh, nil, "app.py", 1, 1, "msg", "")
	require.NoError(t, err)
	store.Add(f)

	assessments := map[string]Assessment{
		"F-1":   {FindingID: "F-1", IsFalsePositive: true, FalsePositiveScore: 0.85, FalsePositiveReasoning: "dead code"},
		"F-404": {FindingID: "F-404", FalsePositiveScore: 0.2},
	}

	applied := ApplyAssessments(store, assessments, nil)
	assert.Equal(t, 1, applied, "unknown ids are tolerated")

	enriched, ok := store.Get("F-1")
	require.True(t, ok)
	assert.True(t, enriched.IsLikelyFalsePositive())
}
