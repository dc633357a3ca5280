package snap

import "sort"

// ChangeSet holds the three file lists enumerated from a repository.
// Each entry is a path relative to the repository root. The lists are kept
// separate because the manifest reports them separately; deduplication
// happens only when the union is computed for copying.
type ChangeSet struct {
	Modified  []string // tracked files differing from the index
	Untracked []string // files not under version control
	Staged    []string // files differing between the index and HEAD
}

// Empty reports whether there is nothing to back up.
func (c ChangeSet) Empty() bool {
	return len(c.Modified) == 0 && len(c.Untracked) == 0 && len(c.Staged) == 0
}

// Union returns the deduplicated union of all three lists, sorted so that
// the staging layout and archive contents are stable across runs.
func (c ChangeSet) Union() []string {
	seen := make(map[string]struct{})
	var union []string
	for _, list := range [][]string{c.Modified, c.Untracked, c.Staged} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			union = append(union, p)
		}
	}
	sort.Strings(union)
	return union
}

// Summary describes the repository state at enumeration time. RemoteURL is
// empty when the repository has no configured remote; the manifest renders
// a placeholder in that case.
type Summary struct {
	RemoteURL   string
	Branch      string
	HeadID      string
	HeadMessage string
}

// Repository is the version-control binding the service depends on.
// Implementations open a working tree and answer questions about its
// uncommitted state. The order of the returned lists follows the
// underlying library and is not guaranteed stable.
type Repository interface {
	// Root returns the absolute path of the working tree root.
	Root() string

	// ChangeSet enumerates modified, untracked, and staged files.
	ChangeSet() (ChangeSet, error)

	// Summary returns branch, HEAD, and remote information.
	Summary() (Summary, error)
}
