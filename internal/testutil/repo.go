package testutil

import (
	"gitsnap/internal/snap"
)

// FakeRepository is a canned snap.Repository for service tests.
type FakeRepository struct {
	RootDir    string
	Changes    snap.ChangeSet
	Sum        snap.Summary
	ChangesErr error
	SumErr     error
}

var _ snap.Repository = (*FakeRepository)(nil)

func (r *FakeRepository) Root() string { return r.RootDir }

func (r *FakeRepository) ChangeSet() (snap.ChangeSet, error) {
	return r.Changes, r.ChangesErr
}

func (r *FakeRepository) Summary() (snap.Summary, error) {
	return r.Sum, r.SumErr
}
