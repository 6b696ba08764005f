package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResults(t *testing.T) {
	payload := `[
		{"finding_id": "F-1", "priority_score": 0.9, "reasoning": "injection on auth path", "recommended_for_analysis": true, "related_finding_ids": ["F-2"], "group_pattern": "user input reaches SQL"},
		{"finding_id": "F-3", "priority_score": 0.4}
	]`

	results, err := DecodeResults([]byte(payload), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "F-1", results[0].FindingID)
	assert.Equal(t, 0.9, results[0].PriorityScore)
	assert.True(t, results[0].RecommendedForAnalysis)
	assert.Equal(t, []string{"F-2"}, results[0].RelatedFindingIDs)
	assert.Equal(t, "user input reaches SQL", results[0].GroupPattern)

	assert.False(t, results[1].RecommendedForAnalysis)
	assert.Empty(t, results[1].RelatedFindingIDs)
}

func TestDecodeResultsNotAList(t *testing.T) {
	_, err := DecodeResults([]byte(`{"finding_id": "F-1"}`), nil)
	assert.Error(t, err)
}

func TestDecodeResultsDropsInvalidEntries(t *testing.T) {
	payload := `[
		{"finding_id": "F-1", "priority_score": 0.8},
		{"finding_id": "F-2"},
		{"priority_score": 0.5},
		{"finding_id": "F-3", "priority_score": 1.5},
		{"finding_id": "F-4", "priority_score": 0.2}
	]`

	results, err := DecodeResults([]byte(payload), nil)
	require.NoError(t, err, "invalid entries are dropped, not fatal")
	require.Len(t, results, 2)
	assert.Equal(t, "F-1", results[0].FindingID)
	assert.Equal(t, "F-4", results[1].FindingID)
}
