package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type gitManager struct {
	repoPath string
}

func NewGitManager(repoPath string) GitManager {
	return &gitManager{repoPath: repoPath}
}

func (g *gitManager) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %v, output: %s", args[0], err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

func (g *gitManager) IsGitRepo(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(path, ".git"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *gitManager) GetCurrentBranch(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

func (g *gitManager) GetCommitHash(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "HEAD")
}

func (g *gitManager) GetStatus(ctx context.Context) (*GitStatus, error) {
	branch, err := g.GetCurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	output, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	status := &GitStatus{
		Branch:         branch,
		Clean:          output == "",
		StagedFiles:    []string{},
		ModifiedFiles:  []string{},
		UntrackedFiles: []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 {
			continue
		}
		index, worktree := line[0], line[1]
		file := strings.TrimSpace(line[2:])

		if index == '?' {
			status.UntrackedFiles = append(status.UntrackedFiles, file)
			continue
		}
		if index != ' ' {
			status.StagedFiles = append(status.StagedFiles, file)
		}
		if worktree != ' ' {
			status.ModifiedFiles = append(status.ModifiedFiles, file)
		}
	}

	return status, nil
}

func (g *gitManager) BranchExists(ctx context.Context, branch string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = g.repoPath
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("git show-ref failed: %w", err)
	}
	return true, nil
}

// DiffPaths keeps stdout separate from stderr: the output is a patch and must
// be preserved byte for byte, trailing newline included.
func (g *gitManager) DiffPaths(ctx context.Context, base string, paths []string) (string, error) {
	args := append([]string{"diff", base, "HEAD", "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git diff failed: %v, output: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

func (g *gitManager) CreateBranch(ctx context.Context, name, startPoint string) error {
	_, err := g.run(ctx, "checkout", "-b", name, startPoint)
	return err
}

func (g *gitManager) CheckoutBranch(ctx context.Context, name string) error {
	_, err := g.run(ctx, "checkout", name)
	return err
}

func (g *gitManager) ApplyPatch(ctx context.Context, patchFile string) error {
	_, err := g.run(ctx, "apply", "--index", "--3way", patchFile)
	return err
}

func (g *gitManager) HasStagedChanges(ctx context.Context) (bool, error) {
	output, err := g.run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return output != "", nil
}

func (g *gitManager) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

func (g *gitManager) Rebase(ctx context.Context, onto, strategyOption string) error {
	args := []string{"rebase"}
	if strategyOption != "" {
		args = append(args, "--strategy-option="+strategyOption)
	}
	args = append(args, onto)

	_, err := g.run(ctx, args...)
	if err != nil && g.rebaseInProgress() {
		return fmt.Errorf("%w: %v", ErrRebaseConflict, err)
	}
	return err
}

// rebaseInProgress reports whether git left a rebase state directory behind,
// which distinguishes a conflict stop from an outright rebase failure.
func (g *gitManager) rebaseInProgress() bool {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(g.repoPath, ".git", dir)); err == nil {
			return true
		}
	}
	return false
}

func (g *gitManager) DeleteBranch(ctx context.Context, name string) error {
	_, err := g.run(ctx, "branch", "-D", name)
	return err
}
