// Package git binds the tool to go-git. It is the only package that knows
// how change sets and repository metadata are actually enumerated.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gitlib "github.com/go-git/go-git/v5"

	"gitsnap/internal/snap"
)

// Repository wraps an opened go-git repository and implements
// snap.Repository.
type Repository struct {
	repo *gitlib.Repository
	root string
}

var _ snap.Repository = (*Repository)(nil)

// Open validates path and opens the repository rooted there. It returns
// snap.ErrSourceNotFound when the path does not exist and
// snap.ErrNotARepository when it exists but carries no git metadata, in
// both cases naming the path.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving source path: %w", err)
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", snap.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}

	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gitlib.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", snap.ErrNotARepository, path)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolving working tree: %w", err)
	}

	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the working tree root. With a nested
// source path this may be above the path passed to Open.
func (r *Repository) Root() string { return r.root }

// ChangeSet enumerates modified, untracked, and staged files from the
// worktree status. The lists are sorted so the manifest is stable; a file
// may appear in more than one list.
func (r *Repository) ChangeSet() (snap.ChangeSet, error) {
	var cs snap.ChangeSet

	wt, err := r.repo.Worktree()
	if err != nil {
		return cs, fmt.Errorf("resolving working tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return cs, fmt.Errorf("reading worktree status: %w", err)
	}

	for path, st := range status {
		if st.Worktree == gitlib.Untracked {
			cs.Untracked = append(cs.Untracked, path)
			continue
		}
		if st.Worktree != gitlib.Unmodified {
			cs.Modified = append(cs.Modified, path)
		}
		if st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked {
			cs.Staged = append(cs.Staged, path)
		}
	}

	sort.Strings(cs.Modified)
	sort.Strings(cs.Untracked)
	sort.Strings(cs.Staged)
	return cs, nil
}

// Summary returns branch, HEAD, and remote information. A missing origin
// remote leaves RemoteURL empty; the manifest renders a placeholder.
func (r *Repository) Summary() (snap.Summary, error) {
	var sum snap.Summary

	head, err := r.repo.Head()
	if err != nil {
		return sum, fmt.Errorf("resolving HEAD: %w", err)
	}
	sum.HeadID = head.Hash().String()
	if head.Name().IsBranch() {
		sum.Branch = head.Name().Short()
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return sum, fmt.Errorf("reading HEAD commit: %w", err)
	}
	sum.HeadMessage = commit.Message

	if remote, err := r.repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			sum.RemoteURL = urls[0]
		}
	}

	return sum, nil
}
