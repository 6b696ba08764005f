package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	store := NewStore(nil)

	sqli, err := New("f1", "py/sql-injection", SeverityCritical, &CWE{ID: "CWE-89"}, "app.py", 10, 12, "injection", "")
	require.NoError(t, err)
	store.Add(sqli)

	xss, err := New("f2", "js/xss", SeverityHigh, &CWE{ID: "CWE-79"}, "web.js", 5, 5, "xss", "")
	require.NoError(t, err)
	store.Add(xss)

	xss2, err := New("f3", "js/xss", SeverityHigh, &CWE{ID: "CWE-79"}, "admin.js", 8, 8, "xss", "")
	require.NoError(t, err)
	fp, err := NewFalsePositiveScore(0.9, "escaped by framework", nil)
	require.NoError(t, err)
	store.Add(xss2.WithFalsePositiveScore(fp))

	stats := ComputeStatistics(store)

	assert.Equal(t, store.Len(), stats.TotalFindings)

	sum := 0
	for _, count := range stats.BySeverity {
		sum += count
	}
	assert.Equal(t, stats.TotalFindings, sum, "per-severity counts must add up to the total")

	assert.Equal(t, 1, stats.BySeverity[SeverityCritical])
	assert.Equal(t, 2, stats.BySeverity[SeverityHigh])
	_, hasMedium := stats.BySeverity[SeverityMedium]
	assert.False(t, hasMedium, "only present severities appear as keys")

	assert.Equal(t, 2, stats.ByCWE["CWE-79"])
	assert.Equal(t, 1, stats.ByCWE["CWE-89"])
	assert.Equal(t, 1, stats.ByLanguage["python"])
	assert.Equal(t, 2, stats.ByLanguage["javascript"])
	assert.Equal(t, 1, stats.FalsePositives)

	assert.Equal(t, 1, stats.CriticalCount())
	assert.Equal(t, 2, stats.HighCount())
	assert.Equal(t, 3, stats.ActionableCount())
}

func TestComputeStatisticsIsIdempotent(t *testing.T) {
	store := NewStore(nil)
	f, err := New("f1", "rule", SeverityLow, nil, "a.go", 1, 1, "msg", "")
	require.NoError(t, err)
	store.Add(f)

	first := ComputeStatistics(store)
	second := ComputeStatistics(store)
	assert.Equal(t, first, second)
}

func TestComputeStatisticsEmptyStore(t *testing.T) {
	stats := ComputeStatistics(NewStore(nil))
	assert.Equal(t, 0, stats.TotalFindings)
	assert.Empty(t, stats.BySeverity)
	assert.Equal(t, 0, stats.ActionableCount())
}
