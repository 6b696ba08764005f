package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
)

const fixToolName = "submit_fix"

const fixSystemPrompt = `You are a senior software engineer fixing security vulnerabilities found by static
analysis. Produce the complete corrected content of the affected file. Preserve the existing code style,
change only what is needed to remove the vulnerability, and never alter unrelated behavior.
Always respond by calling the submit_fix tool.`

var fixTool = Tool{
	Name:        fixToolName,
	Description: "Submit the complete corrected file content that removes the vulnerability.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path":     map[string]interface{}{"type": "string"},
			"fixed_content": map[string]interface{}{"type": "string"},
			"explanation":   map[string]interface{}{"type": "string"},
		},
		"required": []string{"file_path", "fixed_content", "explanation"},
	},
}

// FixProposal is a model-generated replacement for one vulnerable file.
type FixProposal struct {
	FindingID    string `json:"finding_id"`
	FilePath     string `json:"file_path"`
	FixedContent string `json:"fixed_content"`
	Explanation  string `json:"explanation"`
}

// FixAgent asks the model to rewrite a vulnerable file.
type FixAgent struct {
	client *Client
	logger hclog.Logger
}

func NewFixAgent(client *Client, logger hclog.Logger) *FixAgent {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FixAgent{client: client, logger: logger}
}

// ProposeFix submits a finding together with the current file content and
// returns the proposed replacement. The proposal is rejected if the model
// answers for a different file or with empty content.
func (a *FixAgent) ProposeFix(ctx context.Context, finding findings.Finding, fileContent string) (*FixProposal, error) {
	cwe := ""
	if finding.CWE != nil {
		cwe = finding.CWE.String()
	}

	prompt := fmt.Sprintf(
		"Fix the following vulnerability.\n\nRule: %s\nSeverity: %s\nCWE: %s\nLocation: %s\nDescription: %s\n\nCurrent content of %s:\n```\n%s\n```",
		finding.RuleID, finding.Severity, cwe, finding.Location(), finding.Message, finding.FilePath, fileContent)

	a.logger.Info("requesting fix", "finding", finding.ID, "file", finding.FilePath)
	raw, err := a.client.RunTool(ctx, fixSystemPrompt, prompt, fixTool)
	if err != nil {
		return nil, fmt.Errorf("fix call failed for %s: %w", finding.ID, err)
	}

	var proposal FixProposal
	if err := json.Unmarshal(raw, &proposal); err != nil {
		return nil, fmt.Errorf("fix tool payload is malformed: %w", err)
	}
	if proposal.FixedContent == "" {
		return nil, fmt.Errorf("fix for %s came back empty", finding.ID)
	}
	if proposal.FilePath != finding.FilePath {
		a.logger.Warn("fix targets a different path, keeping the finding's path",
			"finding", finding.ID, "proposed", proposal.FilePath)
		proposal.FilePath = finding.FilePath
	}
	proposal.FindingID = finding.ID

	return &proposal, nil
}
