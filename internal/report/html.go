package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Security Analysis Report {{ .Run.ID }}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2328; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f6f8fa; }
pre { background: #f6f8fa; padding: 0.8rem; overflow-x: auto; }
.severity-critical { color: #a40e26; font-weight: bold; }
.severity-high { color: #cf222e; font-weight: bold; }
.severity-medium { color: #bc4c00; }
.severity-low { color: #4d2d00; }
.severity-info { color: #57606a; }
.fp { color: #57606a; text-decoration: line-through; }
</style>
</head>
<body>
<h1>Security Analysis Report</h1>
<ul>
<li><strong>Run:</strong> {{ .Run.ID }}</li>
<li><strong>Target:</strong> {{ .Run.TargetPath }}</li>
{{ if .Run.Language }}<li><strong>Language:</strong> {{ .Run.Language }}</li>{{ end }}
<li><strong>Analyzed:</strong> {{ formatDateTime .Run.CreatedAt }}</li>
<li><strong>Generated:</strong> {{ formatDateTime .GeneratedAt }}</li>
</ul>

<h2>Summary</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
<tr><td>Total findings</td><td>{{ .Run.Statistics.TotalFindings }}</td></tr>
<tr><td>Actionable (critical + high)</td><td>{{ .Run.Statistics.ActionableCount }}</td></tr>
<tr><td>Likely false positives</td><td>{{ .Run.Statistics.FalsePositives }}</td></tr>
</table>

{{ if .Severities }}
<h3>Findings by severity</h3>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{ range .Severities }}<tr><td class="severity-{{ .Severity }}">{{ .Severity }}</td><td>{{ .Count }}</td></tr>
{{ end }}</table>
{{ end }}

{{ if .TopCWEs }}
<h3>Findings by CWE</h3>
<table>
<tr><th>CWE</th><th>Count</th></tr>
{{ range .TopCWEs }}<tr><td>{{ .CWE }}</td><td>{{ .Count }}</td></tr>
{{ end }}</table>
{{ end }}

{{ if .Run.Prioritized }}
<h2>Prioritized Findings</h2>
{{ range $i, $group := .Run.Prioritized }}
<h3>{{ add $i 1 }}. {{ $group.Finding.RuleID }} ({{ $group.Finding.ID }})</h3>
<ul>
<li><strong>Severity:</strong> <span class="severity-{{ $group.Finding.Severity }}">{{ $group.Finding.Severity }}</span></li>
{{ if $group.Finding.CWE }}<li><strong>CWE:</strong> {{ $group.Finding.CWE }}</li>{{ end }}
<li><strong>Location:</strong> {{ $group.Finding.Location }}</li>
<li><strong>Priority score:</strong> {{ printf "%.2f" $group.PriorityScore }}</li>
<li><strong>Instances:</strong> {{ $group.InstanceCount }}</li>
{{ if $group.GroupPattern }}<li><strong>Pattern:</strong> {{ $group.GroupPattern }}</li>{{ end }}
</ul>
{{ if $group.Reasoning }}<p>{{ $group.Reasoning }}</p>{{ end }}
{{ if $group.Finding.Message }}<blockquote>{{ $group.Finding.Message }}</blockquote>{{ end }}
{{ if $group.Finding.Snippet }}<pre>{{ $group.Finding.Snippet }}</pre>{{ end }}
{{ end }}
{{ end }}

<h2>All Findings</h2>
<table>
<tr><th>ID</th><th>Rule</th><th>Severity</th><th>Location</th><th>False positive</th></tr>
{{ range .Run.Findings }}<tr{{ if .IsLikelyFalsePositive }} class="fp"{{ end }}><td>{{ .ID }}</td><td>{{ .RuleID }}</td><td class="severity-{{ .Severity }}">{{ .Severity }}</td><td>{{ .Location }}</td><td>{{ if .IsLikelyFalsePositive }}yes{{ else }}no{{ end }}</td></tr>
{{ end }}</table>
</body>
</html>
`

var htmlFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"formatDateTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
}

func renderHTML(d data) (string, error) {
	tmpl, err := template.New("html").Funcs(htmlFuncs).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("html template is broken: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.String(), nil
}
