package pr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/scan-io-git/vulnsmith/internal/claude"
	"github.com/scan-io-git/vulnsmith/internal/findings"
)

const tokenEnv = "GITHUB_TOKEN"

// Client opens pull requests for proposed fixes.
type Client struct {
	gh     *github.Client
	logger hclog.Logger
}

// NewClient builds a GitHub client authenticated with GITHUB_TOKEN.
func NewClient(ctx context.Context, logger hclog.Logger) (*Client, error) {
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s environment variable is not set", tokenEnv)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		gh:     github.NewClient(oauth2.NewClient(ctx, tokenSource)),
		logger: logger,
	}, nil
}

// ParseRemote extracts owner and repository name from a git remote URL,
// accepting both SSH and HTTPS forms.
func ParseRemote(remote string) (owner, repo string, err error) {
	info, err := vcsurl.Parse(remote)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse remote %q: %w", remote, err)
	}
	if info.Username == "" || info.Name == "" {
		return "", "", fmt.Errorf("remote %q has no owner/repository", remote)
	}
	return info.Username, info.Name, nil
}

// Options describes one pull request.
type Options struct {
	Owner string
	Repo  string
	Title string
	Body  string
	Head  string
	// Base defaults to the repository's default branch when empty.
	Base string
}

// Create opens the pull request and returns its URL.
func (c *Client) Create(ctx context.Context, opts Options) (string, error) {
	base := opts.Base
	if base == "" {
		repository, _, err := c.gh.Repositories.Get(ctx, opts.Owner, opts.Repo)
		if err != nil {
			return "", fmt.Errorf("failed to resolve default branch of %s/%s: %w", opts.Owner, opts.Repo, err)
		}
		base = repository.GetDefaultBranch()
	}

	request := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Head:  github.String(opts.Head),
		Base:  github.String(base),
	}

	c.logger.Info("creating pull request", "repo", opts.Owner+"/"+opts.Repo, "head", opts.Head, "base", base)
	pullRequest, _, err := c.gh.PullRequests.Create(ctx, opts.Owner, opts.Repo, request)
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}
	return pullRequest.GetHTMLURL(), nil
}

// BuildTitle derives a pull request title from the finding.
func BuildTitle(finding findings.Finding) string {
	return fmt.Sprintf("Fix %s in %s", finding.RuleID, finding.FilePath)
}

// BuildBody renders the pull request description for a proposed fix.
func BuildBody(finding findings.Finding, proposal *claude.FixProposal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Security Fix\n\n")
	fmt.Fprintf(&b, "| | |\n| --- | --- |\n")
	fmt.Fprintf(&b, "| Rule | `%s` |\n", finding.RuleID)
	fmt.Fprintf(&b, "| Severity | %s |\n", finding.Severity)
	if finding.CWE != nil {
		fmt.Fprintf(&b, "| CWE | %s |\n", finding.CWE)
	}
	fmt.Fprintf(&b, "| Location | `%s` |\n", finding.Location())

	if finding.Message != "" {
		fmt.Fprintf(&b, "\n### Finding\n\n%s\n", finding.Message)
	}
	if proposal != nil && proposal.Explanation != "" {
		fmt.Fprintf(&b, "\n### Fix\n\n%s\n", proposal.Explanation)
	}

	b.WriteString("\nPlease review carefully before merging: the change was generated from static analysis results.\n")
	return b.String()
}
