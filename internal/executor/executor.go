package executor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/thiagokokada/gitdeck/internal/effect"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/session"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// Handles resolves repository ids to backend handles.
type Handles interface {
	Handle(id state.RepoID) (backend.Repository, bool)
}

type Options struct {
	// Workers is the pool size; zero means DefaultWorkers.
	Workers int
	// Open opens repositories. Defaults to the git CLI backend.
	Open backend.Factory
	// Persister saves sessions. Defaults to session.Discard.
	Persister session.Persister
}

// Executor turns effects into pool jobs. Each job makes one backend call
// and sends one message with its result.
type Executor struct {
	pool      *Pool
	// Session writes run one at a time, in schedule order, so the last
	// write is always the latest session.
	persist   *Pool
	handles   Handles
	send      func(msg.Msg)
	open      backend.Factory
	persister session.Persister
}

func New(handles Handles, send func(msg.Msg), opts Options) *Executor {
	if opts.Open == nil {
		opts.Open = backend.OpenCLI
	}
	if opts.Persister == nil {
		opts.Persister = session.Discard{}
	}
	return &Executor{
		pool:      NewPool(opts.Workers),
		persist:   NewPool(1),
		handles:   handles,
		send:      send,
		open:      opts.Open,
		persister: opts.Persister,
	}
}

// Schedule queues effects in order. It must be called from the goroutine
// that owns the handle registry: repository handles are resolved here and
// captured by the job.
func (e *Executor) Schedule(effects []effect.Effect) {
	for _, eff := range effects {
		pool := e.pool
		if _, ok := eff.(effect.PersistSession); ok {
			pool = e.persist
		}
		if job := e.job(eff); job != nil && !pool.Submit(job) {
			slog.Debug("executor closed, dropping effect", slog.String("effect", effectName(eff)))
		}
	}
}

// Close waits for queued jobs and stops the workers.
func (e *Executor) Close() {
	e.pool.Close()
	e.persist.Close()
}

func (e *Executor) job(eff effect.Effect) func() {
	switch eff := eff.(type) {
	case effect.OpenRepo:
		return func() {
			h, err := e.open(eff.Path)
			e.send(msg.RepoOpened{Repo: eff.Repo, Handle: h, Err: err})
		}
	case effect.PersistSession:
		s := session.Session{Repos: eff.Paths, Active: eff.ActivePath}
		return func() {
			if err := e.persister.Persist(s); err != nil {
				slog.Error("persist session", slog.Any("error", err))
			}
		}
	case effect.RepoEffect:
		h, ok := e.handles.Handle(eff.RepoID())
		if !ok {
			slog.Debug("no handle for effect",
				slog.Uint64("repo", uint64(eff.RepoID())),
				slog.String("effect", effectName(eff)),
			)
			return nil
		}
		return func() { e.send(run(h, eff)) }
	default:
		slog.Error("unknown effect", slog.String("effect", effectName(eff)))
		return nil
	}
}

// run performs the backend call for eff and returns its completion.
func run(h backend.Repository, eff effect.RepoEffect) msg.Msg {
	id := eff.RepoID()
	switch eff := eff.(type) {
	case effect.LoadHeadBranch:
		v, err := h.CurrentBranch()
		return msg.HeadBranchLoaded{Repo: id, Branch: v, Err: err}
	case effect.LoadUpstreamDivergence:
		v, err := h.UpstreamDivergence()
		return msg.UpstreamDivergenceLoaded{Repo: id, Divergence: v, Err: err}
	case effect.LoadBranches:
		v, err := h.ListBranches()
		return msg.BranchesLoaded{Repo: id, Branches: v, Err: err}
	case effect.LoadTags:
		v, err := h.ListTags()
		return msg.TagsLoaded{Repo: id, Tags: v, Err: err}
	case effect.LoadRemotes:
		v, err := h.ListRemotes()
		return msg.RemotesLoaded{Repo: id, Remotes: v, Err: err}
	case effect.LoadRemoteBranches:
		v, err := h.ListRemoteBranches()
		return msg.RemoteBranchesLoaded{Repo: id, Branches: v, Err: err}
	case effect.LoadStatus:
		v, err := h.Status()
		return msg.StatusLoaded{Repo: id, Status: v, Err: err}
	case effect.LoadStashes:
		v, err := h.StashList()
		return msg.StashesLoaded{Repo: id, Stashes: v, Err: err}
	case effect.LoadReflog:
		v, err := h.ReflogHead(eff.Limit)
		return msg.ReflogLoaded{Repo: id, Entries: v, Err: err}
	case effect.LoadLog:
		v, err := h.LogPage(eff.Scope, eff.Limit, eff.Cursor)
		return msg.LogLoaded{Repo: id, Scope: eff.Scope, Cursor: eff.Cursor, Page: v, Err: err}
	case effect.LoadCommitDetails:
		v, err := h.CommitDetails(eff.ID)
		return msg.CommitDetailsLoaded{Repo: id, ID: eff.ID, Details: v, Err: err}
	case effect.LoadDiff:
		v, err := h.DiffUnified(eff.Target)
		return msg.DiffLoaded{Repo: id, Target: eff.Target, Text: v, Err: err}
	case effect.LoadDiffFile:
		v, err := h.DiffFileText(eff.Target)
		return msg.DiffFileLoaded{Repo: id, Target: eff.Target, File: v, Err: err}
	case effect.Mutation:
		out, err := mutate(h, eff)
		return msg.RepoActionFinished{Repo: id, Action: eff.Action(), Output: out, Err: err}
	default:
		return msg.RepoActionFinished{Repo: id, Action: effectName(eff), Err: backend.Unsupported(effectName(eff), "effect")}
	}
}

func mutate(h backend.Repository, eff effect.Mutation) (backend.CommandOutput, error) {
	switch eff := eff.(type) {
	case effect.Stage:
		return h.Stage(eff.Paths)
	case effect.Unstage:
		return h.Unstage(eff.Paths)
	case effect.DiscardWorktreeChanges:
		return h.DiscardWorktreeChanges(eff.Paths)
	case effect.ApplyPatch:
		return h.ApplyPatch(eff.Patch, eff.Target, eff.Reverse)
	case effect.Commit:
		return h.Commit(eff.Message)
	case effect.FetchAll:
		return h.FetchAll()
	case effect.Pull:
		return h.Pull(eff.Mode)
	case effect.Push:
		return h.Push()
	case effect.StashCreate:
		return h.StashCreate(eff.Message, eff.IncludeUntracked)
	case effect.StashApply:
		return h.StashApply(eff.Index)
	case effect.StashDrop:
		return h.StashDrop(eff.Index)
	case effect.CheckoutBranch:
		return h.CheckoutBranch(eff.Name)
	case effect.CheckoutCommit:
		return h.CheckoutCommit(eff.ID)
	case effect.CreateBranch:
		return h.CreateBranch(eff.Name, eff.Target)
	case effect.DeleteBranch:
		return h.DeleteBranch(eff.Name)
	case effect.CherryPick:
		return h.CherryPick(eff.ID)
	case effect.Revert:
		return h.Revert(eff.ID)
	default:
		return backend.CommandOutput{}, backend.Unsupported(eff.Action(), "mutation")
	}
}

func effectName(eff effect.Effect) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", eff), "effect.")
}
