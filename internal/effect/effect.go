// Package effect describes the asynchronous work the reducer asks for. Each
// effect maps to one backend call, except OpenRepo and PersistSession.
package effect

import (
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// Effect is implemented only by the types in this package.
type Effect interface {
	isEffect()
}

// RepoEffect runs against an open repository handle.
type RepoEffect interface {
	Effect
	RepoID() state.RepoID
}

// Mutation is a RepoEffect that changes the repository. Its completion is
// msg.RepoActionFinished.
type Mutation interface {
	RepoEffect
	Action() string
}

type (
	OpenRepo struct {
		Repo state.RepoID
		Path string
	}
	// PersistSession saves the open repository paths, in order.
	PersistSession struct {
		Paths      []string
		ActivePath string
	}
)

type (
	LoadHeadBranch         struct{ Repo state.RepoID }
	LoadUpstreamDivergence struct{ Repo state.RepoID }
	LoadBranches           struct{ Repo state.RepoID }
	LoadTags               struct{ Repo state.RepoID }
	LoadRemotes            struct{ Repo state.RepoID }
	LoadRemoteBranches     struct{ Repo state.RepoID }
	LoadStatus             struct{ Repo state.RepoID }
	LoadStashes            struct{ Repo state.RepoID }
	LoadReflog             struct {
		Repo  state.RepoID
		Limit int
	}
	// LoadLog loads one page; a nil Cursor requests the first page.
	LoadLog struct {
		Repo   state.RepoID
		Scope  backend.HistoryScope
		Limit  int
		Cursor *backend.LogCursor
	}
	LoadCommitDetails struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	LoadDiff struct {
		Repo   state.RepoID
		Target backend.DiffTarget
	}
	LoadDiffFile struct {
		Repo   state.RepoID
		Target backend.DiffTarget
	}
)

type (
	Stage struct {
		Repo  state.RepoID
		Paths []string
	}
	Unstage struct {
		Repo  state.RepoID
		Paths []string
	}
	DiscardWorktreeChanges struct {
		Repo  state.RepoID
		Paths []string
	}
	ApplyPatch struct {
		Repo    state.RepoID
		Patch   string
		Target  backend.PatchTarget
		Reverse bool
	}
	Commit struct {
		Repo    state.RepoID
		Message string
	}
	FetchAll struct{ Repo state.RepoID }
	Pull     struct {
		Repo state.RepoID
		Mode backend.PullMode
	}
	Push        struct{ Repo state.RepoID }
	StashCreate struct {
		Repo             state.RepoID
		Message          string
		IncludeUntracked bool
	}
	StashApply struct {
		Repo  state.RepoID
		Index int
	}
	StashDrop struct {
		Repo  state.RepoID
		Index int
	}
	CheckoutBranch struct {
		Repo state.RepoID
		Name string
	}
	CheckoutCommit struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	CreateBranch struct {
		Repo   state.RepoID
		Name   string
		Target backend.CommitID
	}
	DeleteBranch struct {
		Repo state.RepoID
		Name string
	}
	CherryPick struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	Revert struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
)

func (OpenRepo) isEffect()               {}
func (PersistSession) isEffect()         {}
func (LoadHeadBranch) isEffect()         {}
func (LoadUpstreamDivergence) isEffect() {}
func (LoadBranches) isEffect()           {}
func (LoadTags) isEffect()               {}
func (LoadRemotes) isEffect()            {}
func (LoadRemoteBranches) isEffect()     {}
func (LoadStatus) isEffect()             {}
func (LoadStashes) isEffect()            {}
func (LoadReflog) isEffect()             {}
func (LoadLog) isEffect()                {}
func (LoadCommitDetails) isEffect()      {}
func (LoadDiff) isEffect()               {}
func (LoadDiffFile) isEffect()           {}
func (Stage) isEffect()                  {}
func (Unstage) isEffect()                {}
func (DiscardWorktreeChanges) isEffect() {}
func (ApplyPatch) isEffect()             {}
func (Commit) isEffect()                 {}
func (FetchAll) isEffect()               {}
func (Pull) isEffect()                   {}
func (Push) isEffect()                   {}
func (StashCreate) isEffect()            {}
func (StashApply) isEffect()             {}
func (StashDrop) isEffect()              {}
func (CheckoutBranch) isEffect()         {}
func (CheckoutCommit) isEffect()         {}
func (CreateBranch) isEffect()           {}
func (DeleteBranch) isEffect()           {}
func (CherryPick) isEffect()             {}
func (Revert) isEffect()                 {}

func (e LoadHeadBranch) RepoID() state.RepoID         { return e.Repo }
func (e LoadUpstreamDivergence) RepoID() state.RepoID { return e.Repo }
func (e LoadBranches) RepoID() state.RepoID           { return e.Repo }
func (e LoadTags) RepoID() state.RepoID               { return e.Repo }
func (e LoadRemotes) RepoID() state.RepoID            { return e.Repo }
func (e LoadRemoteBranches) RepoID() state.RepoID     { return e.Repo }
func (e LoadStatus) RepoID() state.RepoID             { return e.Repo }
func (e LoadStashes) RepoID() state.RepoID            { return e.Repo }
func (e LoadReflog) RepoID() state.RepoID             { return e.Repo }
func (e LoadLog) RepoID() state.RepoID                { return e.Repo }
func (e LoadCommitDetails) RepoID() state.RepoID      { return e.Repo }
func (e LoadDiff) RepoID() state.RepoID               { return e.Repo }
func (e LoadDiffFile) RepoID() state.RepoID           { return e.Repo }
func (e Stage) RepoID() state.RepoID                  { return e.Repo }
func (e Unstage) RepoID() state.RepoID                { return e.Repo }
func (e DiscardWorktreeChanges) RepoID() state.RepoID { return e.Repo }
func (e ApplyPatch) RepoID() state.RepoID             { return e.Repo }
func (e Commit) RepoID() state.RepoID                 { return e.Repo }
func (e FetchAll) RepoID() state.RepoID               { return e.Repo }
func (e Pull) RepoID() state.RepoID                   { return e.Repo }
func (e Push) RepoID() state.RepoID                   { return e.Repo }
func (e StashCreate) RepoID() state.RepoID            { return e.Repo }
func (e StashApply) RepoID() state.RepoID             { return e.Repo }
func (e StashDrop) RepoID() state.RepoID              { return e.Repo }
func (e CheckoutBranch) RepoID() state.RepoID         { return e.Repo }
func (e CheckoutCommit) RepoID() state.RepoID         { return e.Repo }
func (e CreateBranch) RepoID() state.RepoID           { return e.Repo }
func (e DeleteBranch) RepoID() state.RepoID           { return e.Repo }
func (e CherryPick) RepoID() state.RepoID             { return e.Repo }
func (e Revert) RepoID() state.RepoID                 { return e.Repo }

func (Stage) Action() string                  { return "stage" }
func (Unstage) Action() string                { return "unstage" }
func (DiscardWorktreeChanges) Action() string { return "discard" }
func (CheckoutBranch) Action() string         { return "checkout branch" }
func (CheckoutCommit) Action() string         { return "checkout commit" }
func (CreateBranch) Action() string           { return "create branch" }
func (DeleteBranch) Action() string           { return "delete branch" }
func (CherryPick) Action() string             { return "cherry-pick" }
func (Revert) Action() string                 { return "revert" }
func (Commit) Action() string                 { return "commit" }
func (FetchAll) Action() string               { return "fetch" }
func (Pull) Action() string                   { return "pull" }
func (Push) Action() string                   { return "push" }
func (StashCreate) Action() string            { return "stash" }
func (StashApply) Action() string             { return "stash apply" }
func (StashDrop) Action() string              { return "stash drop" }

func (e ApplyPatch) Action() string {
	switch {
	case e.Target == backend.PatchWorktree:
		return "discard hunk"
	case e.Reverse:
		return "unstage hunk"
	default:
		return "stage hunk"
	}
}
