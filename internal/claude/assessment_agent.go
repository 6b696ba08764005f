package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/findings"
	"github.com/scan-io-git/vulnsmith/internal/triage"
)

const assessmentToolName = "submit_security_assessment"

const assessmentSystemPrompt = `You are a senior application security engineer performing deep analysis of
prioritized static analysis findings. For each finding decide whether it is a false positive, describe a
concrete attack scenario if it is real, and rate its exploitability.
Always respond by calling the submit_security_assessment tool.`

var assessmentTool = Tool{
	Name:        assessmentToolName,
	Description: "Submit the detailed security assessment, one entry per analyzed finding.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"assessments": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"finding_id":               map[string]interface{}{"type": "string"},
						"is_false_positive":        map[string]interface{}{"type": "boolean"},
						"false_positive_score":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
						"false_positive_reasoning": map[string]interface{}{"type": "string"},
						"attack_scenario":          map[string]interface{}{"type": "string"},
						"risk_type": map[string]interface{}{
							"type": "string",
							"enum": []string{"external_pentest", "internal_abuse", "supply_chain", "configuration", "data_exposure", "other"},
						},
						"exploitability_score": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
						"impact_description":   map[string]interface{}{"type": "string"},
						"remediation_priority": map[string]interface{}{
							"type": "string",
							"enum": []string{"immediate", "high", "medium", "low"},
						},
					},
					"required": []string{"finding_id", "false_positive_score", "remediation_priority"},
				},
			},
		},
		"required": []string{"assessments"},
	},
}

// assessmentSubject is one prioritized group as presented to the model,
// including the context the triage pass attached to it.
type assessmentSubject struct {
	findingSummary
	PriorityScore   float64  `json:"priority_score"`
	TriageReasoning string   `json:"triage_reasoning,omitempty"`
	GroupPattern    string   `json:"group_pattern,omitempty"`
	RelatedIDs      []string `json:"related_finding_ids,omitempty"`
}

// AssessmentAgent asks the model for a detailed assessment of prioritized
// findings.
type AssessmentAgent struct {
	client *Client
	logger hclog.Logger
}

func NewAssessmentAgent(client *Client, logger hclog.Logger) *AssessmentAgent {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AssessmentAgent{client: client, logger: logger}
}

// Assess submits the prioritized groups for deep analysis and decodes the
// assessments keyed by finding id.
func (a *AssessmentAgent) Assess(ctx context.Context, groups []triage.PrioritizedFinding) (map[string]triage.Assessment, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	subjects := make([]assessmentSubject, 0, len(groups))
	for _, g := range groups {
		subjects = append(subjects, assessmentSubject{
			findingSummary:  summarize([]findings.Finding{g.Finding})[0],
			PriorityScore:   g.PriorityScore,
			TriageReasoning: g.Reasoning,
			GroupPattern:    g.GroupPattern,
			RelatedIDs:      g.RelatedFindingIDs,
		})
	}

	serialized, err := json.MarshalIndent(subjects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize findings for assessment: %w", err)
	}

	prompt := fmt.Sprintf(
		"Perform a detailed security assessment of the following %d prioritized findings.\n\nFindings:\n%s",
		len(groups), serialized)

	a.logger.Info("requesting security assessment", "findings", len(groups))
	raw, err := a.client.RunTool(ctx, assessmentSystemPrompt, prompt, assessmentTool)
	if err != nil {
		return nil, fmt.Errorf("assessment call failed: %w", err)
	}

	var payload struct {
		Assessments json.RawMessage `json:"assessments"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("assessment tool payload is malformed: %w", err)
	}

	assessments, err := triage.DecodeAssessments(payload.Assessments, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("assessment finished", "assessed", len(assessments))
	return assessments, nil
}
