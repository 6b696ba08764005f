package pr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/vulnsmith/internal/claude"
	"github.com/scan-io-git/vulnsmith/internal/findings"
)

func TestParseRemote(t *testing.T) {
	cases := []struct {
		remote string
		owner  string
		repo   string
	}{
		{"https://github.com/acme/webapp.git", "acme", "webapp"},
		{"git@github.com:acme/webapp.git", "acme", "webapp"},
		{"https://github.com/acme/webapp", "acme", "webapp"},
	}

	for _, tc := range cases {
		owner, repo, err := ParseRemote(tc.remote)
		require.NoError(t, err, tc.remote)
		assert.Equal(t, tc.owner, owner, tc.remote)
		assert.Equal(t, tc.repo, repo, tc.remote)
	}
}

func TestParseRemoteInvalid(t *testing.T) {
	_, _, err := ParseRemote("not a remote")
	assert.Error(t, err)
}

func sampleFinding(t *testing.T) findings.Finding {
	t.Helper()
	cwe := findings.NewCWE("89", "SQL Injection")
	f, err := findings.New("F-1", "py/sql-injection", findings.SeverityHigh, &cwe,
		"app.py", 42, 45, "SQL query built from user input.", "")
	require.NoError(t, err)
	return f
}

func TestBuildTitle(t *testing.T) {
	assert.Equal(t, "Fix py/sql-injection in app.py", BuildTitle(sampleFinding(t)))
}

func TestBuildBody(t *testing.T) {
	proposal := &claude.FixProposal{
		FindingID:   "F-1",
		FilePath:    "app.py",
		Explanation: "Use a parameterized query instead of string concatenation.",
	}

	body := BuildBody(sampleFinding(t), proposal)
	assert.Contains(t, body, "`py/sql-injection`")
	assert.Contains(t, body, "CWE-89")
	assert.Contains(t, body, "`app.py:42-45`")
	assert.Contains(t, body, "SQL query built from user input.")
	assert.Contains(t, body, "parameterized query")
}

func TestBuildBodyWithoutProposal(t *testing.T) {
	body := BuildBody(sampleFinding(t), nil)
	assert.Contains(t, body, "## Security Fix")
	assert.NotContains(t, body, "### Fix")
}
