package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo initializes a real git repository with a.txt and b.txt
// committed, and returns its path, the manager, and the initial branch name.
func setupTestRepo(t *testing.T) (string, *gitManager, string) {
	t.Helper()

	tmpDir := t.TempDir()
	mgr := NewGitManager(tmpDir).(*gitManager)
	ctx := context.Background()

	_, err := mgr.run(ctx, "init")
	require.NoError(t, err)

	// Configure git for testing
	_, err = mgr.run(ctx, "config", "user.email", "test@example.com")
	require.NoError(t, err)
	_, err = mgr.run(ctx, "config", "user.name", "Test User")
	require.NoError(t, err)

	writeFile(t, tmpDir, "a.txt", "alpha\n")
	writeFile(t, tmpDir, "b.txt", "beta\n")
	_, err = mgr.run(ctx, "add", "a.txt", "b.txt")
	require.NoError(t, err)
	_, err = mgr.run(ctx, "commit", "-m", "Initial commit")
	require.NoError(t, err)

	branch, err := mgr.GetCurrentBranch(ctx)
	require.NoError(t, err)

	return tmpDir, mgr, branch
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestGitManager_IsGitRepo(t *testing.T) {
	ctx := context.Background()

	emptyDir := t.TempDir()
	mgr := NewGitManager(emptyDir)
	isRepo, err := mgr.IsGitRepo(ctx, emptyDir)
	require.NoError(t, err)
	assert.False(t, isRepo)

	tmpDir, mgr2, _ := setupTestRepo(t)
	isRepo, err = mgr2.IsGitRepo(ctx, tmpDir)
	require.NoError(t, err)
	assert.True(t, isRepo)
}

func TestGitManager_GetStatus(t *testing.T) {
	ctx := context.Background()
	tmpDir, mgr, branch := setupTestRepo(t)

	status, err := mgr.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, branch, status.Branch)
	assert.True(t, status.Clean)
	assert.Empty(t, status.StagedFiles)
	assert.Empty(t, status.ModifiedFiles)
	assert.Empty(t, status.UntrackedFiles)

	// Unstaged modification
	writeFile(t, tmpDir, "a.txt", "alpha changed\n")
	status, err = mgr.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Clean)
	assert.Contains(t, status.ModifiedFiles, "a.txt")

	// Staged modification
	_, err = mgr.run(ctx, "add", "a.txt")
	require.NoError(t, err)
	status, err = mgr.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Clean)
	assert.Contains(t, status.StagedFiles, "a.txt")

	// Untracked file
	writeFile(t, tmpDir, "new.txt", "new\n")
	status, err = mgr.GetStatus(ctx)
	require.NoError(t, err)
	assert.Contains(t, status.UntrackedFiles, "new.txt")
}

func TestGitManager_BranchExists(t *testing.T) {
	ctx := context.Background()
	_, mgr, branch := setupTestRepo(t)

	exists, err := mgr.BranchExists(ctx, branch)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = mgr.BranchExists(ctx, "no-such-branch")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGitManager_DiffPaths(t *testing.T) {
	ctx := context.Background()
	tmpDir, mgr, base := setupTestRepo(t)

	require.NoError(t, mgr.CreateBranch(ctx, "feature", base))
	writeFile(t, tmpDir, "a.txt", "alpha on feature\n")
	writeFile(t, tmpDir, "b.txt", "beta on feature\n")
	_, err := mgr.run(ctx, "commit", "-am", "Change both files")
	require.NoError(t, err)

	diff, err := mgr.DiffPaths(ctx, base, []string{"a.txt"})
	require.NoError(t, err)
	assert.Contains(t, diff, "a.txt")
	assert.NotContains(t, diff, "b.txt")
	assert.Contains(t, diff, "+alpha on feature")

	// Paths with no divergence yield an empty diff
	diff, err = mgr.DiffPaths(ctx, base, []string{"c.txt"})
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestGitManager_ApplyCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	tmpDir, mgr, base := setupTestRepo(t)

	require.NoError(t, mgr.CreateBranch(ctx, "feature", base))
	writeFile(t, tmpDir, "a.txt", "alpha on feature\n")
	_, err := mgr.run(ctx, "commit", "-am", "Change a.txt")
	require.NoError(t, err)

	diff, err := mgr.DiffPaths(ctx, base, []string{"a.txt"})
	require.NoError(t, err)
	require.NotEmpty(t, diff)

	patchFile := filepath.Join(t.TempDir(), "test.patch")
	require.NoError(t, os.WriteFile(patchFile, []byte(diff), 0644))

	require.NoError(t, mgr.CreateBranch(ctx, "staging", base))

	staged, err := mgr.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, staged)

	require.NoError(t, mgr.ApplyPatch(ctx, patchFile))

	staged, err = mgr.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, mgr.Commit(ctx, "Extracted change"))

	status, err := mgr.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Clean)
	assert.Equal(t, "staging", status.Branch)

	content, err := os.ReadFile(filepath.Join(tmpDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha on feature\n", string(content))
}

func TestGitManager_Rebase(t *testing.T) {
	ctx := context.Background()
	tmpDir, mgr, base := setupTestRepo(t)

	// Feature branch changes b.txt
	require.NoError(t, mgr.CreateBranch(ctx, "feature", base))
	writeFile(t, tmpDir, "b.txt", "beta on feature\n")
	_, err := mgr.run(ctx, "commit", "-am", "Change b.txt")
	require.NoError(t, err)

	// Base branch gains a commit touching a.txt
	require.NoError(t, mgr.CheckoutBranch(ctx, base))
	writeFile(t, tmpDir, "a.txt", "alpha on base\n")
	_, err = mgr.run(ctx, "commit", "-am", "Change a.txt on base")
	require.NoError(t, err)

	require.NoError(t, mgr.CheckoutBranch(ctx, "feature"))
	require.NoError(t, mgr.Rebase(ctx, base, "ours"))

	// Both changes are present after the rebase
	content, err := os.ReadFile(filepath.Join(tmpDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha on base\n", string(content))
	content, err = os.ReadFile(filepath.Join(tmpDir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta on feature\n", string(content))
}

func TestGitManager_DeleteBranch(t *testing.T) {
	ctx := context.Background()
	_, mgr, base := setupTestRepo(t)

	require.NoError(t, mgr.CreateBranch(ctx, "doomed", base))
	require.NoError(t, mgr.CheckoutBranch(ctx, base))
	require.NoError(t, mgr.DeleteBranch(ctx, "doomed"))

	exists, err := mgr.BranchExists(ctx, "doomed")
	require.NoError(t, err)
	assert.False(t, exists)
}
