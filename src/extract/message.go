package extract

import (
	"fmt"
	"strings"
)

// CommitMessage builds the default message for the extracted commit, naming
// the extracted paths and the branch they came from.
func CommitMessage(paths []string, sourceBranch string) string {
	return fmt.Sprintf("Extract: Apply changes from %s (from %s)", strings.Join(paths, ", "), sourceBranch)
}
