// Package backendtest provides a configurable in-memory backend.Repository
// for tests.
package backendtest

import (
	"slices"
	"sync"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
)

// Fake implements backend.Repository. Unset funcs return zero values. Every
// call is recorded by method name.
type Fake struct {
	Dir string

	CurrentBranchFunc      func() (string, error)
	UpstreamDivergenceFunc func() (*backend.UpstreamDivergence, error)
	ListBranchesFunc       func() ([]backend.Branch, error)
	ListTagsFunc           func() ([]backend.Tag, error)
	ListRemotesFunc        func() ([]backend.Remote, error)
	ListRemoteBranchesFunc func() ([]backend.RemoteBranch, error)
	StatusFunc             func() (backend.RepoStatus, error)
	LogPageFunc            func(scope backend.HistoryScope, limit int, cursor *backend.LogCursor) (backend.LogPage, error)
	CommitDetailsFunc      func(id backend.CommitID) (backend.CommitDetails, error)
	ReflogHeadFunc         func(limit int) ([]backend.ReflogEntry, error)
	StashListFunc          func() ([]backend.StashEntry, error)
	DiffUnifiedFunc        func(target backend.DiffTarget) (string, error)
	DiffFileTextFunc       func(target backend.DiffTarget) (*backend.FileText, error)

	// MutateFunc handles every mutating call, named as in backend.Repository.
	MutateFunc func(method string, args ...any) (backend.CommandOutput, error)

	mu    sync.Mutex
	calls []string
}

var _ backend.Repository = (*Fake)(nil)

func (f *Fake) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

// Calls returns the recorded method names in call order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *Fake) Workdir() string { return f.Dir }

func (f *Fake) CurrentBranch() (string, error) {
	f.record("CurrentBranch")
	if f.CurrentBranchFunc != nil {
		return f.CurrentBranchFunc()
	}
	return "main", nil
}

func (f *Fake) UpstreamDivergence() (*backend.UpstreamDivergence, error) {
	f.record("UpstreamDivergence")
	if f.UpstreamDivergenceFunc != nil {
		return f.UpstreamDivergenceFunc()
	}
	return nil, nil
}

func (f *Fake) ListBranches() ([]backend.Branch, error) {
	f.record("ListBranches")
	if f.ListBranchesFunc != nil {
		return f.ListBranchesFunc()
	}
	return nil, nil
}

func (f *Fake) ListTags() ([]backend.Tag, error) {
	f.record("ListTags")
	if f.ListTagsFunc != nil {
		return f.ListTagsFunc()
	}
	return nil, nil
}

func (f *Fake) ListRemotes() ([]backend.Remote, error) {
	f.record("ListRemotes")
	if f.ListRemotesFunc != nil {
		return f.ListRemotesFunc()
	}
	return nil, nil
}

func (f *Fake) ListRemoteBranches() ([]backend.RemoteBranch, error) {
	f.record("ListRemoteBranches")
	if f.ListRemoteBranchesFunc != nil {
		return f.ListRemoteBranchesFunc()
	}
	return nil, nil
}

func (f *Fake) Status() (backend.RepoStatus, error) {
	f.record("Status")
	if f.StatusFunc != nil {
		return f.StatusFunc()
	}
	return backend.RepoStatus{}, nil
}

func (f *Fake) LogPage(scope backend.HistoryScope, limit int, cursor *backend.LogCursor) (backend.LogPage, error) {
	f.record("LogPage")
	if f.LogPageFunc != nil {
		return f.LogPageFunc(scope, limit, cursor)
	}
	return backend.LogPage{}, nil
}

func (f *Fake) CommitDetails(id backend.CommitID) (backend.CommitDetails, error) {
	f.record("CommitDetails")
	if f.CommitDetailsFunc != nil {
		return f.CommitDetailsFunc(id)
	}
	return backend.CommitDetails{ID: id}, nil
}

func (f *Fake) ReflogHead(limit int) ([]backend.ReflogEntry, error) {
	f.record("ReflogHead")
	if f.ReflogHeadFunc != nil {
		return f.ReflogHeadFunc(limit)
	}
	return nil, nil
}

func (f *Fake) StashList() ([]backend.StashEntry, error) {
	f.record("StashList")
	if f.StashListFunc != nil {
		return f.StashListFunc()
	}
	return nil, nil
}

func (f *Fake) DiffUnified(target backend.DiffTarget) (string, error) {
	f.record("DiffUnified")
	if f.DiffUnifiedFunc != nil {
		return f.DiffUnifiedFunc(target)
	}
	return "", nil
}

func (f *Fake) DiffFileText(target backend.DiffTarget) (*backend.FileText, error) {
	f.record("DiffFileText")
	if f.DiffFileTextFunc != nil {
		return f.DiffFileTextFunc(target)
	}
	return &backend.FileText{Path: target.Path}, nil
}

func (f *Fake) mutate(method string, args ...any) (backend.CommandOutput, error) {
	f.record(method)
	if f.MutateFunc != nil {
		return f.MutateFunc(method, args...)
	}
	return backend.CommandOutput{Command: method}, nil
}

func (f *Fake) Stage(paths []string) (backend.CommandOutput, error) {
	return f.mutate("Stage", paths)
}

func (f *Fake) Unstage(paths []string) (backend.CommandOutput, error) {
	return f.mutate("Unstage", paths)
}

func (f *Fake) DiscardWorktreeChanges(paths []string) (backend.CommandOutput, error) {
	return f.mutate("DiscardWorktreeChanges", paths)
}

func (f *Fake) ApplyPatch(patch string, target backend.PatchTarget, reverse bool) (backend.CommandOutput, error) {
	return f.mutate("ApplyPatch", patch, target, reverse)
}

func (f *Fake) Commit(message string) (backend.CommandOutput, error) {
	return f.mutate("Commit", message)
}

func (f *Fake) FetchAll() (backend.CommandOutput, error) { return f.mutate("FetchAll") }

func (f *Fake) Pull(mode backend.PullMode) (backend.CommandOutput, error) {
	return f.mutate("Pull", mode)
}

func (f *Fake) Push() (backend.CommandOutput, error) { return f.mutate("Push") }

func (f *Fake) StashCreate(message string, includeUntracked bool) (backend.CommandOutput, error) {
	return f.mutate("StashCreate", message, includeUntracked)
}

func (f *Fake) StashApply(index int) (backend.CommandOutput, error) {
	return f.mutate("StashApply", index)
}

func (f *Fake) StashDrop(index int) (backend.CommandOutput, error) {
	return f.mutate("StashDrop", index)
}

func (f *Fake) CheckoutBranch(name string) (backend.CommandOutput, error) {
	return f.mutate("CheckoutBranch", name)
}

func (f *Fake) CheckoutCommit(id backend.CommitID) (backend.CommandOutput, error) {
	return f.mutate("CheckoutCommit", id)
}

func (f *Fake) CreateBranch(name string, target backend.CommitID) (backend.CommandOutput, error) {
	return f.mutate("CreateBranch", name, target)
}

func (f *Fake) DeleteBranch(name string) (backend.CommandOutput, error) {
	return f.mutate("DeleteBranch", name)
}

func (f *Fake) CherryPick(id backend.CommitID) (backend.CommandOutput, error) {
	return f.mutate("CherryPick", id)
}

func (f *Fake) Revert(id backend.CommitID) (backend.CommandOutput, error) {
	return f.mutate("Revert", id)
}
