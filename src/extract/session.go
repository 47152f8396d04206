package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carvekit/carve/src/git"
	"github.com/carvekit/carve/src/logger"
)

type Options struct {
	// BaseBranch is the branch the diff is computed against and the rebase
	// target is built from.
	BaseBranch string
	// Paths restricts the extracted diff. Comma-splitting happens in the
	// command layer; these are individual paths.
	Paths []string
	// Message overrides the auto-generated commit message when non-empty.
	Message string
	// BranchPrefix names the temporary branch; defaults to "carve".
	BranchPrefix string
	// DryRun stops after the diff step and prints the patch.
	DryRun bool
}

// Session runs the extraction pipeline: diff the current branch against the
// base restricted to the given paths, commit that diff on a throwaway branch
// built from the base, then rebase the original branch onto it. The pre-run
// branch and HEAD are captured up front so every failure path can restore
// them.
type Session struct {
	git      git.GitManager
	repoPath string
	opts     Options
	now      func() time.Time

	originalBranch string
	originalCommit string
	tempBranch     string
	patchFile      string
}

func NewSession(gitMgr git.GitManager, repoPath string, opts Options) *Session {
	if opts.BranchPrefix == "" {
		opts.BranchPrefix = "carve"
	}
	return &Session{
		git:      gitMgr,
		repoPath: repoPath,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *Session) Run(ctx context.Context) error {
	if err := s.checkPreconditions(ctx); err != nil {
		return err
	}

	patch, err := s.diff(ctx)
	if err != nil {
		return err
	}

	if s.opts.DryRun {
		fmt.Print(patch)
		logger.Info("Dry run: repository untouched")
		return nil
	}

	stamp := s.now().Format("20060102150405")
	s.tempBranch = fmt.Sprintf("%s-%s", s.opts.BranchPrefix, stamp)
	s.patchFile = filepath.Join(s.repoPath, fmt.Sprintf("carve-%s.patch", stamp))

	if err := os.WriteFile(s.patchFile, []byte(patch), 0644); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	logger.Info("Wrote patch for %d path(s) to %s", len(s.opts.Paths), filepath.Base(s.patchFile))

	if err := s.git.CreateBranch(ctx, s.tempBranch, s.opts.BaseBranch); err != nil {
		s.removePatch()
		return fmt.Errorf("failed to create branch %s from %s: %w", s.tempBranch, s.opts.BaseBranch, err)
	}
	logger.Info("Created branch %s from %s", s.tempBranch, s.opts.BaseBranch)

	if err := s.applyAndCommit(ctx); err != nil {
		return s.rollback(ctx, err)
	}

	rebaseErr := s.rebase(ctx)
	s.cleanup(ctx)
	return rebaseErr
}

func (s *Session) checkPreconditions(ctx context.Context) error {
	isRepo, err := s.git.IsGitRepo(ctx, s.repoPath)
	if err != nil {
		return fmt.Errorf("failed to check repository: %w", err)
	}
	if !isRepo {
		return fmt.Errorf("not a git repository: %s", s.repoPath)
	}

	status, err := s.git.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get git status: %w", err)
	}
	if !status.Clean {
		return fmt.Errorf("working tree has uncommitted changes; commit or stash them before extracting")
	}
	s.originalBranch = status.Branch

	exists, err := s.git.BranchExists(ctx, s.opts.BaseBranch)
	if err != nil {
		return fmt.Errorf("failed to check base branch: %w", err)
	}
	if !exists {
		return fmt.Errorf("base branch %q does not exist", s.opts.BaseBranch)
	}

	commit, err := s.git.GetCommitHash(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	s.originalCommit = commit

	logger.Info("Extracting from %s against %s", s.originalBranch, s.opts.BaseBranch)
	return nil
}

func (s *Session) diff(ctx context.Context) (string, error) {
	patch, err := s.git.DiffPaths(ctx, s.opts.BaseBranch, s.opts.Paths)
	if err != nil {
		return "", fmt.Errorf("failed to diff against %s: %w", s.opts.BaseBranch, err)
	}
	if strings.TrimSpace(patch) == "" {
		return "", fmt.Errorf("no changes found in specified paths")
	}
	return patch, nil
}

func (s *Session) applyAndCommit(ctx context.Context) error {
	if err := s.git.ApplyPatch(ctx, s.patchFile); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}

	staged, err := s.git.HasStagedChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect index: %w", err)
	}
	if !staged {
		return fmt.Errorf("patch applied but left nothing staged; nothing to commit")
	}

	message := s.opts.Message
	if message == "" {
		message = CommitMessage(s.opts.Paths, s.originalBranch)
	}
	if err := s.git.Commit(ctx, message); err != nil {
		return fmt.Errorf("failed to commit extracted changes: %w", err)
	}
	logger.Info("Committed extracted changes: %s", message)
	return nil
}

// rebase switches back to the original branch and rebases it onto the
// extracted commit. A conflict stop is reported with remediation guidance and
// is not an error; git keeps the mid-rebase state for the user.
func (s *Session) rebase(ctx context.Context) error {
	if err := s.git.CheckoutBranch(ctx, s.originalBranch); err != nil {
		return fmt.Errorf("failed to switch back to %s: %w", s.originalBranch, err)
	}

	// During a rebase the upstream side is "ours", so favoring the extracted
	// commit on conflicting hunks means passing ours, not theirs.
	err := s.git.Rebase(ctx, s.tempBranch, "ours")
	if err == nil {
		logger.Info("Rebased %s onto %s", s.originalBranch, s.tempBranch)
		return nil
	}
	if errors.Is(err, git.ErrRebaseConflict) {
		logger.Warn("Rebase stopped on conflicts: %v", err)
		logger.Warn("Hunks in the extracted paths resolve in favor of the extracted commit; resolve the rest and run: git rebase --continue")
		logger.Warn("Or abandon it with: git rebase --abort")
		logger.Warn("To fully revert: git rebase --abort && git reset --hard %s", s.originalCommit)
		return nil
	}
	return fmt.Errorf("rebase onto %s failed: %w", s.tempBranch, err)
}

// rollback restores the original branch and removes everything the session
// created. It returns cause so callers can hand the failure straight up.
func (s *Session) rollback(ctx context.Context, cause error) error {
	logger.Warn("Rolling back: %v", cause)

	if err := s.git.CheckoutBranch(ctx, s.originalBranch); err != nil {
		logger.Error("Failed to switch back to %s: %v", s.originalBranch, err)
		logger.Error("Recover manually with: git checkout %s && git reset --hard %s", s.originalBranch, s.originalCommit)
	}
	if err := s.git.DeleteBranch(ctx, s.tempBranch); err != nil {
		logger.Error("Failed to delete branch %s: %v", s.tempBranch, err)
		logger.Error("Remove it manually with: git branch -D %s", s.tempBranch)
	}
	s.removePatch()
	return cause
}

// cleanup runs after the rebase whatever its outcome.
func (s *Session) cleanup(ctx context.Context) {
	if err := s.git.DeleteBranch(ctx, s.tempBranch); err != nil {
		logger.Warn("Failed to delete branch %s: %v", s.tempBranch, err)
		logger.Warn("Remove it manually with: git branch -D %s", s.tempBranch)
	} else {
		logger.Info("Deleted branch %s", s.tempBranch)
	}
	s.removePatch()

	logger.Info("Current branch: %s", s.originalBranch)
	logger.Info("To fully revert: git reset --hard %s", s.originalCommit)
}

func (s *Session) removePatch() {
	if s.patchFile == "" {
		return
	}
	if err := os.Remove(s.patchFile); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove patch file %s: %v", s.patchFile, err)
	}
}
