package report

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

const markdownTemplate = `# Security Analysis Report

- **Run:** {{ .Run.ID }}
- **Target:** {{ .Run.TargetPath }}{{ if .Run.Language }}
- **Language:** {{ .Run.Language }}{{ end }}
- **Analyzed:** {{ formatDateTime .Run.CreatedAt }}
- **Generated:** {{ formatDateTime .GeneratedAt }}

## Summary

| Metric | Value |
| --- | --- |
| Total findings | {{ .Run.Statistics.TotalFindings }} |
| Actionable (critical + high) | {{ .Run.Statistics.ActionableCount }} |
| Likely false positives | {{ .Run.Statistics.FalsePositives }} |
{{ if .Severities }}
### Findings by severity

| Severity | Count |
| --- | --- |
{{ range .Severities }}| {{ .Severity }} | {{ .Count }} |
{{ end }}{{ end }}{{ if .TopCWEs }}
### Findings by CWE

| CWE | Count |
| --- | --- |
{{ range .TopCWEs }}| {{ .CWE }} | {{ .Count }} |
{{ end }}{{ end }}{{ if .Run.Prioritized }}
## Prioritized Findings
{{ range $i, $group := .Run.Prioritized }}
### {{ add $i 1 }}. {{ $group.Finding.RuleID }} ({{ $group.Finding.ID }})

- **Severity:** {{ $group.Finding.Severity }}{{ if $group.Finding.CWE }}
- **CWE:** {{ $group.Finding.CWE }}{{ end }}
- **Location:** {{ $group.Finding.Location }}
- **Priority score:** {{ printf "%.2f" $group.PriorityScore }}
- **Instances:** {{ $group.InstanceCount }}
{{ if $group.GroupPattern }}- **Pattern:** {{ $group.GroupPattern }}
{{ end }}{{ if $group.Reasoning }}
{{ $group.Reasoning }}
{{ end }}{{ if $group.Finding.Message }}
> {{ $group.Finding.Message }}
{{ end }}{{ if $group.Finding.Snippet }}
` + "```" + `
{{ $group.Finding.Snippet }}
` + "```" + `
{{ end }}{{ end }}{{ end }}
## All Findings

| ID | Rule | Severity | Location | False positive |
| --- | --- | --- | --- | --- |
{{ range .Run.Findings }}| {{ .ID }} | {{ .RuleID }} | {{ .Severity }} | {{ .Location }} | {{ if .IsLikelyFalsePositive }}yes{{ else }}no{{ end }} |
{{ end }}`

var markdownFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"formatDateTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
}

func renderMarkdown(d data) (string, error) {
	tmpl, err := template.New("markdown").Funcs(markdownFuncs).Parse(markdownTemplate)
	if err != nil {
		return "", fmt.Errorf("markdown template is broken: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render markdown report: %w", err)
	}
	return buf.String(), nil
}
