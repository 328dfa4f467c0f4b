package backend

import "fmt"

// Repository is an opened repository handle.
//
// Every method maps to exactly one effect scheduled by the store. Handles are
// shared between the registry and in-flight effects, so implementations must be
// safe for concurrent use.
type Repository interface {
	Workdir() string

	CurrentBranch() (string, error)
	UpstreamDivergence() (*UpstreamDivergence, error)
	ListBranches() ([]Branch, error)
	ListTags() ([]Tag, error)
	ListRemotes() ([]Remote, error)
	ListRemoteBranches() ([]RemoteBranch, error)
	Status() (RepoStatus, error)
	LogPage(scope HistoryScope, limit int, cursor *LogCursor) (LogPage, error)
	CommitDetails(id CommitID) (CommitDetails, error)
	ReflogHead(limit int) ([]ReflogEntry, error)
	StashList() ([]StashEntry, error)
	DiffUnified(target DiffTarget) (string, error)
	DiffFileText(target DiffTarget) (*FileText, error)

	Stage(paths []string) (CommandOutput, error)
	Unstage(paths []string) (CommandOutput, error)
	DiscardWorktreeChanges(paths []string) (CommandOutput, error)
	ApplyPatch(patch string, target PatchTarget, reverse bool) (CommandOutput, error)
	Commit(message string) (CommandOutput, error)
	FetchAll() (CommandOutput, error)
	Pull(mode PullMode) (CommandOutput, error)
	Push() (CommandOutput, error)
	StashCreate(message string, includeUntracked bool) (CommandOutput, error)
	StashApply(index int) (CommandOutput, error)
	StashDrop(index int) (CommandOutput, error)
	CheckoutBranch(name string) (CommandOutput, error)
	CheckoutCommit(id CommitID) (CommandOutput, error)
	CreateBranch(name string, target CommitID) (CommandOutput, error)
	DeleteBranch(name string) (CommandOutput, error)
	CherryPick(id CommitID) (CommandOutput, error)
	Revert(id CommitID) (CommandOutput, error)
}

// Factory opens a repository rooted at (or containing) path.
type Factory func(path string) (Repository, error)

type Kind string

const (
	KindCLI    Kind = "cli"
	KindNative Kind = "native"
)

// FactoryFor returns the opener for the named backend implementation.
func FactoryFor(kind Kind) (Factory, error) {
	switch kind {
	case "", KindCLI:
		return OpenCLI, nil
	case KindNative:
		return OpenNative, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}
