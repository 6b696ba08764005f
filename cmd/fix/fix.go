package fix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/internal/claude"
	"github.com/scan-io-git/vulnsmith/internal/findings"
	gitclient "github.com/scan-io-git/vulnsmith/internal/git"
	"github.com/scan-io-git/vulnsmith/internal/pr"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger
	options   RunOptions

	exampleFixUsage = `  # Propose a fix for one finding and commit it to a branch
  vulnsmith fix --run RUN_ID --finding F-1 --repo /path/to/checkout

  # Also push the branch and open a pull request
  vulnsmith fix --run RUN_ID --finding F-1 --repo /path/to/checkout --push --pr`
)

// RunOptions holds the fix command arguments.
type RunOptions struct {
	RunID     string
	FindingID string
	RepoPath  string
	Branch    string
	Push      bool
	OpenPR    bool
}

// FixCmd represents the fix command.
var FixCmd = &cobra.Command{
	Use:                   "fix --run RUN_ID --finding FINDING_ID --repo PATH [--push] [--pr]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleFixUsage,
	Short:                 "Generate a fix for a finding and commit it to a branch",
	RunE:                  runFixCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runFixCommand(cmd *cobra.Command, args []string) error {
	if err := validateFixArgs(&options); err != nil {
		logger.Error("invalid fix arguments", "error", err)
		return err
	}

	run, err := analysis.LoadRun(AppConfig, options.RunID)
	if err != nil {
		return err
	}

	finding, err := findFinding(run, options.FindingID)
	if err != nil {
		return err
	}

	proposal, err := proposeFix(cmd, finding)
	if err != nil {
		return err
	}

	branch := options.Branch
	if branch == "" {
		branch = defaultBranchName(finding)
	}

	client := gitclient.NewClient(logger, &AppConfig.GitClient)
	repo, err := client.CheckoutBranch(options.RepoPath, branch)
	if err != nil {
		return err
	}

	commit, err := client.CommitFiles(repo, options.RepoPath, map[string]string{
		proposal.FilePath: proposal.FixedContent,
	}, fmt.Sprintf("Fix %s in %s", finding.RuleID, finding.FilePath))
	if err != nil {
		return err
	}
	fmt.Printf("Fix committed to branch %s (%s)\n", branch, commit[:12])

	if options.Push || options.OpenPR {
		if err := client.Push(cmd.Context(), repo, branch); err != nil {
			return err
		}
		fmt.Printf("Branch %s pushed\n", branch)
	}

	if options.OpenPR {
		url, err := openPullRequest(cmd, repo, finding, proposal, branch)
		if err != nil {
			return err
		}
		fmt.Printf("Pull request created: %s\n", url)
	}

	return nil
}

// findFinding resolves a finding by id within a persisted run.
func findFinding(run *analysis.Run, id string) (findings.Finding, error) {
	for _, f := range run.Findings {
		if f.ID == id {
			return f, nil
		}
	}
	return findings.Finding{}, fmt.Errorf("finding %q not found in run %q", id, run.ID)
}

// proposeFix reads the vulnerable file from the checkout and asks the model
// for a replacement.
func proposeFix(cmd *cobra.Command, finding findings.Finding) (*claude.FixProposal, error) {
	fullPath, err := files.EnsureWithinRoot(options.RepoPath, filepath.Join(options.RepoPath, finding.FilePath))
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q from the checkout: %w", finding.FilePath, err)
	}

	client, err := claude.NewClient(logger, AppConfig)
	if err != nil {
		return nil, err
	}
	return claude.NewFixAgent(client, logger).ProposeFix(cmd.Context(), finding, string(content))
}

// openPullRequest opens a pull request for the pushed fix branch.
func openPullRequest(cmd *cobra.Command, repo *gogit.Repository, finding findings.Finding, proposal *claude.FixProposal, branch string) (string, error) {
	remoteURL, err := gitclient.RemoteURL(repo)
	if err != nil {
		return "", err
	}
	owner, repoName, err := pr.ParseRemote(remoteURL)
	if err != nil {
		return "", err
	}

	client, err := pr.NewClient(cmd.Context(), logger)
	if err != nil {
		return "", err
	}
	return client.Create(cmd.Context(), pr.Options{
		Owner: owner,
		Repo:  repoName,
		Title: pr.BuildTitle(finding),
		Body:  pr.BuildBody(finding, proposal),
		Head:  branch,
	})
}

// defaultBranchName derives a branch name from the finding.
func defaultBranchName(finding findings.Finding) string {
	rule := strings.NewReplacer("/", "-", "_", "-", " ", "-").Replace(finding.RuleID)
	return fmt.Sprintf("vulnsmith/fix-%s-%s", strings.ToLower(rule), strings.ToLower(finding.ID))
}

func init() {
	FixCmd.Flags().StringVar(&options.RunID, "run", "", "analysis run id")
	FixCmd.Flags().StringVar(&options.FindingID, "finding", "", "finding id to fix (e.g. F-1)")
	FixCmd.Flags().StringVar(&options.RepoPath, "repo", "", "path to the repository checkout to fix")
	FixCmd.Flags().StringVar(&options.Branch, "branch", "", "branch name for the fix (default: derived from the finding)")
	FixCmd.Flags().BoolVar(&options.Push, "push", false, "push the fix branch to origin")
	FixCmd.Flags().BoolVar(&options.OpenPR, "pr", false, "open a pull request for the fix (implies --push)")
}
