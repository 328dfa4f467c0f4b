// Package state holds the application state owned by the store. Only the
// store's reducer goroutine mutates it; everyone else reads snapshots made
// with AppState.Clone.
package state

import (
	"slices"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
)

// RepoID identifies an open repository. IDs are never reused.
type RepoID uint64

type RepoState struct {
	ID RepoID
	// Path is the canonical path the repository was opened with.
	Path string
	// Open holds the backend's workdir once the repository is open.
	Open Loadable[string]

	HeadBranch         Loadable[string]
	UpstreamDivergence Loadable[*backend.UpstreamDivergence]
	Branches           Loadable[[]backend.Branch]
	Tags               Loadable[[]backend.Tag]
	Remotes            Loadable[[]backend.Remote]
	RemoteBranches     Loadable[[]backend.RemoteBranch]
	Status             Loadable[backend.RepoStatus]
	Stashes            Loadable[[]backend.StashEntry]
	Reflog             Loadable[[]backend.ReflogEntry]

	HistoryScope   backend.HistoryScope
	Log            Loadable[backend.LogPage]
	LogLoadingMore bool

	// SelectedCommit is empty when no commit is selected.
	SelectedCommit backend.CommitID
	CommitDetails  Loadable[backend.CommitDetails]

	DiffTarget *backend.DiffTarget
	Diff       Loadable[backend.Diff]
	DiffFile   Loadable[*backend.FileText]

	LastError   string
	Diagnostics BoundedLog[Diagnostic]
	CommandLog  BoundedLog[CommandLogEntry]
}

// NewRepoState returns a repository that is being opened.
func NewRepoState(id RepoID, path string) *RepoState {
	return &RepoState{ID: id, Path: path, Open: LoadingOf[string]()}
}

// Settled reports whether no load for the repository is in flight.
func (r *RepoState) Settled() bool {
	return !r.Open.IsLoading() &&
		!r.HeadBranch.IsLoading() &&
		!r.UpstreamDivergence.IsLoading() &&
		!r.Branches.IsLoading() &&
		!r.Tags.IsLoading() &&
		!r.Remotes.IsLoading() &&
		!r.RemoteBranches.IsLoading() &&
		!r.Status.IsLoading() &&
		!r.Stashes.IsLoading() &&
		!r.Reflog.IsLoading() &&
		!r.Log.IsLoading() &&
		!r.LogLoadingMore &&
		!r.CommitDetails.IsLoading() &&
		!r.Diff.IsLoading() &&
		!r.DiffFile.IsLoading()
}

func (r *RepoState) Clone() *RepoState {
	c := *r
	c.UpstreamDivergence = cloneLoadable(r.UpstreamDivergence, clonePtr)
	c.Branches = cloneLoadable(r.Branches, slices.Clone)
	c.Tags = cloneLoadable(r.Tags, slices.Clone)
	c.Remotes = cloneLoadable(r.Remotes, slices.Clone)
	c.RemoteBranches = cloneLoadable(r.RemoteBranches, slices.Clone)
	c.Status = cloneLoadable(r.Status, func(s backend.RepoStatus) backend.RepoStatus {
		return backend.RepoStatus{Staged: slices.Clone(s.Staged), Unstaged: slices.Clone(s.Unstaged)}
	})
	c.Stashes = cloneLoadable(r.Stashes, slices.Clone)
	c.Reflog = cloneLoadable(r.Reflog, slices.Clone)
	c.Log = cloneLoadable(r.Log, func(p backend.LogPage) backend.LogPage {
		return backend.LogPage{Commits: slices.Clone(p.Commits), NextCursor: clonePtr(p.NextCursor)}
	})
	c.CommitDetails = cloneLoadable(r.CommitDetails, func(d backend.CommitDetails) backend.CommitDetails {
		d.ParentIDs = slices.Clone(d.ParentIDs)
		d.Files = slices.Clone(d.Files)
		return d
	})
	c.DiffTarget = clonePtr(r.DiffTarget)
	c.DiffFile = cloneLoadable(r.DiffFile, clonePtr)
	c.Diagnostics = r.Diagnostics.clone()
	c.CommandLog = r.CommandLog.clone()
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type AppState struct {
	Repos []*RepoState
	// ActiveRepo is nil when no repository is open.
	ActiveRepo *RepoID
}

func (s *AppState) Repo(id RepoID) *RepoState {
	for _, r := range s.Repos {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RepoByPath finds an open repository by canonical path.
func (s *AppState) RepoByPath(path string) *RepoState {
	for _, r := range s.Repos {
		if r.Path == path {
			return r
		}
	}
	return nil
}

// Active returns the active repository, or nil.
func (s *AppState) Active() *RepoState {
	if s.ActiveRepo == nil {
		return nil
	}
	return s.Repo(*s.ActiveRepo)
}

func (s *AppState) SetActive(id RepoID) {
	s.ActiveRepo = &id
}

// Remove deletes the repository and reports whether it existed.
func (s *AppState) Remove(id RepoID) bool {
	i := slices.IndexFunc(s.Repos, func(r *RepoState) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	s.Repos = slices.Delete(s.Repos, i, i+1)
	return true
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s *AppState) Clone() AppState {
	c := AppState{ActiveRepo: clonePtr(s.ActiveRepo)}
	if s.Repos != nil {
		c.Repos = make([]*RepoState, len(s.Repos))
		for i, r := range s.Repos {
			c.Repos[i] = r.Clone()
		}
	}
	return c
}
