package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/triage"
)

const triageToolName = "submit_triage_results"

const triageSystemPrompt = `You are a senior application security engineer triaging static analysis findings.
Prioritize findings by real-world exploitability and impact. Group findings that share a root cause:
pick one representative per group and list the other instances as related findings.
Always respond by calling the submit_triage_results tool.`

// triageTool is the schema the model must fill in when prioritizing findings.
var triageTool = Tool{
	Name:        triageToolName,
	Description: "Submit the prioritized list of findings, one entry per distinct root cause.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"results": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"finding_id":               map[string]interface{}{"type": "string"},
						"priority_score":           map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
						"reasoning":                map[string]interface{}{"type": "string"},
						"recommended_for_analysis": map[string]interface{}{"type": "boolean"},
						"related_finding_ids":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"group_pattern":            map[string]interface{}{"type": "string"},
					},
					"required": []string{"finding_id", "priority_score"},
				},
			},
		},
		"required": []string{"results"},
	},
}

// findingSummary is the compact view of a finding sent to the model.
type findingSummary struct {
	ID       string `json:"id"`
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	CWE      string `json:"cwe,omitempty"`
	Location string `json:"location"`
	Message  string `json:"message"`
	Snippet  string `json:"snippet,omitempty"`
}

func summarize(list []findings.Finding) []findingSummary {
	out := make([]findingSummary, 0, len(list))
	for _, f := range list {
		summary := findingSummary{
			ID:       f.ID,
			RuleID:   f.RuleID,
			Severity: string(f.Severity),
			Location: f.Location(),
			Message:  f.Message,
			Snippet:  f.Snippet,
		}
		if f.CWE != nil {
			summary.CWE = f.CWE.String()
		}
		out = append(out, summary)
	}
	return out
}

// TriageAgent asks the model to prioritize and group a batch of findings.
type TriageAgent struct {
	client *Client
	logger hclog.Logger
	topN   int
}

// NewTriageAgent builds a triage agent. topN bounds how many prioritized
// groups the model is asked to return.
func NewTriageAgent(client *Client, logger hclog.Logger, topN int) *TriageAgent {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if topN <= 0 {
		topN = 20
	}
	return &TriageAgent{client: client, logger: logger, topN: topN}
}

// Triage submits the findings for prioritization and decodes the response
// payload into validated triage results.
func (a *TriageAgent) Triage(ctx context.Context, list []findings.Finding) ([]triage.Result, error) {
	if len(list) == 0 {
		return nil, nil
	}

	summaries, err := json.MarshalIndent(summarize(list), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize findings for triage: %w", err)
	}

	prompt := fmt.Sprintf(
		"Triage the following %d static analysis findings. Return at most %d prioritized groups.\n\nFindings:\n%s",
		len(list), a.topN, summaries)

	a.logger.Info("requesting triage", "findings", len(list), "top_n", a.topN)
	raw, err := a.client.RunTool(ctx, triageSystemPrompt, prompt, triageTool)
	if err != nil {
		return nil, fmt.Errorf("triage call failed: %w", err)
	}

	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("triage tool payload is malformed: %w", err)
	}

	results, err := triage.DecodeResults(payload.Results, a.logger)
	if err != nil {
		return nil, err
	}
	if len(results) > a.topN {
		results = results[:a.topN]
	}
	a.logger.Info("triage finished", "groups", len(results))
	return results, nil
}
