// Package msg defines the messages accepted by the store: user intents and
// the completions of effects.
package msg

import (
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// Msg is implemented only by the types in this package.
type Msg interface {
	isMsg()
}

type (
	OpenRepo struct {
		Path string
	}
	// RestoreSession replaces every open repository with Paths.
	RestoreSession struct {
		Paths      []string
		ActivePath string
	}
	CloseRepo struct {
		Repo state.RepoID
	}
	SetActiveRepo struct {
		Repo state.RepoID
	}
	ReloadRepo struct {
		Repo state.RepoID
	}
	// RepoExternallyChanged reports that files under the repository changed
	// outside the application.
	RepoExternallyChanged struct {
		Repo state.RepoID
	}
	SetHistoryScope struct {
		Repo  state.RepoID
		Scope backend.HistoryScope
	}
	LoadMoreHistory struct {
		Repo state.RepoID
	}
	SelectCommit struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	ClearCommitSelection struct {
		Repo state.RepoID
	}
	SelectDiff struct {
		Repo   state.RepoID
		Target backend.DiffTarget
	}
	ClearDiffSelection struct {
		Repo state.RepoID
	}
)

// Mutating commands.
type (
	StagePath struct {
		Repo state.RepoID
		Path string
	}
	StagePaths struct {
		Repo  state.RepoID
		Paths []string
	}
	UnstagePath struct {
		Repo state.RepoID
		Path string
	}
	UnstagePaths struct {
		Repo  state.RepoID
		Paths []string
	}
	DiscardWorktreeChangesPath struct {
		Repo state.RepoID
		Path string
	}
	DiscardWorktreeChangesPaths struct {
		Repo  state.RepoID
		Paths []string
	}
	// StageHunk applies Patch to the index.
	StageHunk struct {
		Repo  state.RepoID
		Patch string
	}
	// UnstageHunk applies Patch to the index in reverse.
	UnstageHunk struct {
		Repo  state.RepoID
		Patch string
	}
	// ApplyWorktreePatch applies Patch to the worktree in reverse, discarding
	// the changes it contains.
	ApplyWorktreePatch struct {
		Repo  state.RepoID
		Patch string
	}
	Commit struct {
		Repo    state.RepoID
		Message string
	}
	FetchAll struct {
		Repo state.RepoID
	}
	Pull struct {
		Repo state.RepoID
		Mode backend.PullMode
	}
	Push struct {
		Repo state.RepoID
	}
	CheckoutBranch struct {
		Repo state.RepoID
		Name string
	}
	CheckoutCommit struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	// CreateBranch creates Name at Target, or at HEAD when Target is empty.
	CreateBranch struct {
		Repo   state.RepoID
		Name   string
		Target backend.CommitID
	}
	DeleteBranch struct {
		Repo state.RepoID
		Name string
	}
	CherryPickCommit struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	RevertCommit struct {
		Repo state.RepoID
		ID   backend.CommitID
	}
	StashChanges struct {
		Repo             state.RepoID
		Message          string
		IncludeUntracked bool
	}
	ApplyStash struct {
		Repo  state.RepoID
		Index int
	}
	DropStash struct {
		Repo  state.RepoID
		Index int
	}
)

// Completions. Each carries the identity of its request so the reducer can
// drop results that are no longer relevant.
type (
	RepoOpened struct {
		Repo   state.RepoID
		Handle backend.Repository
		Err    error
	}
	HeadBranchLoaded struct {
		Repo   state.RepoID
		Branch string
		Err    error
	}
	UpstreamDivergenceLoaded struct {
		Repo       state.RepoID
		Divergence *backend.UpstreamDivergence
		Err        error
	}
	BranchesLoaded struct {
		Repo     state.RepoID
		Branches []backend.Branch
		Err      error
	}
	TagsLoaded struct {
		Repo state.RepoID
		Tags []backend.Tag
		Err  error
	}
	RemotesLoaded struct {
		Repo    state.RepoID
		Remotes []backend.Remote
		Err     error
	}
	RemoteBranchesLoaded struct {
		Repo     state.RepoID
		Branches []backend.RemoteBranch
		Err      error
	}
	StatusLoaded struct {
		Repo   state.RepoID
		Status backend.RepoStatus
		Err    error
	}
	LogLoaded struct {
		Repo   state.RepoID
		Scope  backend.HistoryScope
		Cursor *backend.LogCursor
		Page   backend.LogPage
		Err    error
	}
	StashesLoaded struct {
		Repo    state.RepoID
		Stashes []backend.StashEntry
		Err     error
	}
	ReflogLoaded struct {
		Repo    state.RepoID
		Entries []backend.ReflogEntry
		Err     error
	}
	CommitDetailsLoaded struct {
		Repo    state.RepoID
		ID      backend.CommitID
		Details backend.CommitDetails
		Err     error
	}
	DiffLoaded struct {
		Repo   state.RepoID
		Target backend.DiffTarget
		Text   string
		Err    error
	}
	DiffFileLoaded struct {
		Repo   state.RepoID
		Target backend.DiffTarget
		File   *backend.FileText
		Err    error
	}
	// RepoActionFinished completes every mutating command.
	RepoActionFinished struct {
		Repo   state.RepoID
		Action string
		Output backend.CommandOutput
		Err    error
	}
)

func (OpenRepo) isMsg()                    {}
func (RestoreSession) isMsg()              {}
func (CloseRepo) isMsg()                   {}
func (SetActiveRepo) isMsg()               {}
func (ReloadRepo) isMsg()                  {}
func (RepoExternallyChanged) isMsg()       {}
func (SetHistoryScope) isMsg()             {}
func (LoadMoreHistory) isMsg()             {}
func (SelectCommit) isMsg()                {}
func (ClearCommitSelection) isMsg()        {}
func (SelectDiff) isMsg()                  {}
func (ClearDiffSelection) isMsg()          {}
func (StagePath) isMsg()                   {}
func (StagePaths) isMsg()                  {}
func (UnstagePath) isMsg()                 {}
func (UnstagePaths) isMsg()                {}
func (DiscardWorktreeChangesPath) isMsg()  {}
func (DiscardWorktreeChangesPaths) isMsg() {}
func (StageHunk) isMsg()                   {}
func (UnstageHunk) isMsg()                 {}
func (ApplyWorktreePatch) isMsg()          {}
func (Commit) isMsg()                      {}
func (FetchAll) isMsg()                    {}
func (Pull) isMsg()                        {}
func (Push) isMsg()                        {}
func (CheckoutBranch) isMsg()              {}
func (CheckoutCommit) isMsg()              {}
func (CreateBranch) isMsg()                {}
func (DeleteBranch) isMsg()                {}
func (CherryPickCommit) isMsg()            {}
func (RevertCommit) isMsg()                {}
func (StashChanges) isMsg()                {}
func (ApplyStash) isMsg()                  {}
func (DropStash) isMsg()                   {}
func (RepoOpened) isMsg()                  {}
func (HeadBranchLoaded) isMsg()            {}
func (UpstreamDivergenceLoaded) isMsg()    {}
func (BranchesLoaded) isMsg()              {}
func (TagsLoaded) isMsg()                  {}
func (RemotesLoaded) isMsg()               {}
func (RemoteBranchesLoaded) isMsg()        {}
func (StatusLoaded) isMsg()                {}
func (LogLoaded) isMsg()                   {}
func (StashesLoaded) isMsg()               {}
func (ReflogLoaded) isMsg()                {}
func (CommitDetailsLoaded) isMsg()         {}
func (DiffLoaded) isMsg()                  {}
func (DiffFileLoaded) isMsg()              {}
func (RepoActionFinished) isMsg()          {}
