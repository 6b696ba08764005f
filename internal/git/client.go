package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gogitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/hashicorp/go-hclog"
	cryptossh "golang.org/x/crypto/ssh"

	sharedconfig "github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

const (
	defaultCommitterName  = "vulnsmith"
	defaultCommitterEmail = "vulnsmith@localhost"
)

// Client drives the local git operations of the fix workflow: branch,
// commit, push.
type Client struct {
	logger     hclog.Logger
	sshKeyPath string
}

// NewClient builds a git client from the git_client configuration section.
func NewClient(logger hclog.Logger, cfg *sharedconfig.GitClient) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := &Client{logger: logger}
	if cfg != nil {
		client.sshKeyPath = cfg.SSHKeyPath
	}
	return client
}

// CheckoutBranch creates (or re-checks-out) a branch in the repository at
// repoPath and returns the repository handle.
func (c *Client) CheckoutBranch(repoPath, branchName string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", repoPath, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branchName)
	checkout := &gogit.CheckoutOptions{Branch: branchRef, Create: true}
	if _, err := repo.Reference(branchRef, true); err == nil {
		checkout.Create = false
	}
	if err := worktree.Checkout(checkout); err != nil {
		return nil, fmt.Errorf("failed to checkout branch %q: %w", branchName, err)
	}

	c.logger.Info("checked out branch", "repo", repoPath, "branch", branchName)
	return repo, nil
}

// CommitFiles writes the given file contents into the worktree, stages them
// and commits. Paths are relative to the repository root; writes outside the
// repository are rejected.
func (c *Client) CommitFiles(repo *gogit.Repository, repoPath string, contents map[string]string, message string) (string, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	for relPath, content := range contents {
		fullPath, err := files.EnsureWithinRoot(repoPath, filepath.Join(repoPath, relPath))
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to prepare folder for %q: %w", relPath, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("failed to write %q: %w", relPath, err)
		}
		if _, err := worktree.Add(relPath); err != nil {
			return "", fmt.Errorf("failed to stage %q: %w", relPath, err)
		}
	}

	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  defaultCommitterName,
			Email: defaultCommitterEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	c.logger.Info("committed fix", "commit", hash.String(), "files", len(contents))
	return hash.String(), nil
}

// Push pushes the branch to origin.
func (c *Client) Push(ctx context.Context, repo *gogit.Repository, branchName string) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branchName, branchName))
	options := &gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
	}

	auth, err := c.sshAuth()
	if err != nil {
		return err
	}
	if auth != nil {
		options.Auth = auth
	}

	c.logger.Info("pushing branch", "branch", branchName)
	if err := repo.PushContext(ctx, options); err != nil {
		if err == gogit.NoErrAlreadyUpToDate {
			c.logger.Info("remote already up to date", "branch", branchName)
			return nil
		}
		return fmt.Errorf("failed to push branch %q: %w", branchName, err)
	}
	return nil
}

// sshAuth builds SSH authentication from the configured key, falling back to
// the SSH agent. HTTPS remotes work without auth here and use the
// credential helpers of the environment.
func (c *Client) sshAuth() (transport.AuthMethod, error) {
	if c.sshKeyPath != "" {
		keyPath, err := files.ExpandPath(c.sshKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ssh key path: %w", err)
		}
		publicKeys, err := gogitssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key %q: %w", keyPath, err)
		}
		publicKeys.HostKeyCallback = cryptossh.InsecureIgnoreHostKey()
		return publicKeys, nil
	}

	if os.Getenv("SSH_AUTH_SOCK") != "" {
		agentAuth, err := gogitssh.NewSSHAgentAuth("git")
		if err != nil {
			return nil, fmt.Errorf("failed to use ssh agent: %w", err)
		}
		agentAuth.HostKeyCallback = cryptossh.InsecureIgnoreHostKey()
		return agentAuth, nil
	}

	return nil, nil
}

// RemoteURL returns the first URL of the origin remote.
func RemoteURL(repo *gogit.Repository) (string, error) {
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("repository has no origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no url")
	}
	return urls[0], nil
}
