package git

import (
	"context"
	"errors"
)

// ErrRebaseConflict marks a rebase that stopped on conflicts. The repository
// is left mid-rebase for the user to continue or abort; this is not a failure
// of the calling tool.
var ErrRebaseConflict = errors.New("rebase stopped on conflicts")

// GitManager is the capability set the extraction pipeline needs from the
// version-control tool. The production implementation shells out to git; tests
// substitute a mock.
type GitManager interface {
	IsGitRepo(ctx context.Context, path string) (bool, error)
	GetCurrentBranch(ctx context.Context) (string, error)
	GetCommitHash(ctx context.Context) (string, error)
	GetStatus(ctx context.Context) (*GitStatus, error)
	BranchExists(ctx context.Context, branch string) (bool, error)

	// DiffPaths returns the unified diff of HEAD against base, restricted to
	// the given paths. Empty string means no divergence under those paths.
	DiffPaths(ctx context.Context, base string, paths []string) (string, error)

	CreateBranch(ctx context.Context, name, startPoint string) error
	CheckoutBranch(ctx context.Context, name string) error

	// ApplyPatch applies a patch file to the working tree and index using a
	// three-way merge against the blobs recorded in the patch.
	ApplyPatch(ctx context.Context, patchFile string) error

	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error

	// Rebase rebases the current branch onto the given ref, passing
	// strategyOption through to the merge machinery. Returns a
	// ErrRebaseConflict-wrapped error when the rebase stops on conflicts.
	Rebase(ctx context.Context, onto, strategyOption string) error

	DeleteBranch(ctx context.Context, name string) error
}

type GitStatus struct {
	Branch         string
	Clean          bool
	StagedFiles    []string
	ModifiedFiles  []string
	UntrackedFiles []string
}
