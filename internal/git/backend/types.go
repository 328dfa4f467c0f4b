package backend

import (
	"strings"
	"time"
)

type CommitID string

// Short returns the abbreviated form used in summaries and logs.
func (id CommitID) Short() string {
	if len(id) > 7 {
		return string(id[:7])
	}
	return string(id)
}

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a log entry. Only the subject line of the message is kept.
type Commit struct {
	ID        CommitID
	ParentIDs []CommitID
	Author    Signature
	Committer Signature
	Summary   string
}

type CommitDetails struct {
	ID        CommitID
	ParentIDs []CommitID
	Author    Signature
	Committer Signature
	Message   string
	Files     []CommitFileChange
}

type CommitFileChange struct {
	Path string
	Kind FileStatusKind
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

type Ref struct {
	Hash string
	Kind RefKind
	Name string // short name: main, origin/main, v1
}

type Branch struct {
	Name     string
	Target   CommitID
	Upstream string // short upstream name, e.g. origin/main
}

type Tag struct {
	Name   string
	Target CommitID
}

type Remote struct {
	Name string
	URL  string
}

type RemoteBranch struct {
	Remote string
	Name   string
	Target CommitID
}

type FileStatusKind uint8

const (
	FileModified FileStatusKind = iota
	FileAdded
	FileDeleted
	FileRenamed
	FileUntracked
	FileConflicted
)

func (k FileStatusKind) String() string {
	switch k {
	case FileAdded:
		return "added"
	case FileDeleted:
		return "deleted"
	case FileRenamed:
		return "renamed"
	case FileUntracked:
		return "untracked"
	case FileConflicted:
		return "conflicted"
	default:
		return "modified"
	}
}

type FileStatus struct {
	Path     string
	OrigPath string // set for renames
	Kind     FileStatusKind
}

type RepoStatus struct {
	Staged   []FileStatus
	Unstaged []FileStatus
}

func (s RepoStatus) HasStaged() bool   { return len(s.Staged) > 0 }
func (s RepoStatus) HasWorktree() bool { return len(s.Unstaged) > 0 }

type UpstreamDivergence struct {
	Ahead  int
	Behind int
}

type HistoryScope uint8

const (
	ScopeCurrentBranch HistoryScope = iota
	ScopeAllBranches
)

func (s HistoryScope) String() string {
	if s == ScopeAllBranches {
		return "all"
	}
	return "head"
}

// LogCursor marks where the next page of a log starts.
type LogCursor struct {
	Offset int
}

type LogPage struct {
	Commits    []Commit
	NextCursor *LogCursor
}

type ReflogEntry struct {
	Index    int
	NewID    CommitID
	Selector string // HEAD@{n}
	Message  string
}

type StashEntry struct {
	Index   int
	ID      CommitID
	Message string
}

type DiffTargetKind uint8

const (
	DiffWorkingTree DiffTargetKind = iota
	DiffCommit
)

type DiffArea uint8

const (
	AreaUnstaged DiffArea = iota
	AreaStaged
)

// DiffTarget names what a diff is computed for. It is comparable so that
// completions can be checked against the current selection with ==.
type DiffTarget struct {
	Kind   DiffTargetKind
	Path   string // empty means the whole tree
	Area   DiffArea
	Commit CommitID
}

func WorkingTreeTarget(path string, area DiffArea) DiffTarget {
	return DiffTarget{Kind: DiffWorkingTree, Path: path, Area: area}
}

func CommitTarget(id CommitID, path string) DiffTarget {
	return DiffTarget{Kind: DiffCommit, Commit: id, Path: path}
}

// SupportsFilePreview reports whether old/new file contents can be loaded
// for the target.
func (t DiffTarget) SupportsFilePreview() bool {
	return t.Path != ""
}

func (t DiffTarget) String() string {
	var b strings.Builder
	if t.Kind == DiffCommit {
		b.WriteString("commit ")
		b.WriteString(t.Commit.Short())
	} else if t.Area == AreaStaged {
		b.WriteString("staged")
	} else {
		b.WriteString("unstaged")
	}
	if t.Path != "" {
		b.WriteString(": ")
		b.WriteString(t.Path)
	}
	return b.String()
}

// Diff is unified diff text for a target.
type Diff struct {
	Target DiffTarget
	Text   string
}

// FileText holds both sides of a single-file diff target.
type FileText struct {
	Path      string
	Old       string
	New       string
	OldExists bool
	NewExists bool
	Binary    bool
	Language  string
}

type PullMode uint8

const (
	PullDefault PullMode = iota
	PullFastForwardOnly
	PullRebase
	PullMerge
)

type PatchTarget uint8

const (
	PatchIndex PatchTarget = iota
	PatchWorktree
)

// CommandOutput is what a mutating backend call reported.
type CommandOutput struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr, trimmed.
func (o CommandOutput) Combined() string {
	out := strings.TrimSpace(o.Stdout)
	errOut := strings.TrimSpace(o.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}
