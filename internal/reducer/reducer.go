// Package reducer applies messages to the application state. It performs no
// I/O: work that touches a repository is returned as effects.
package reducer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/thiagokokada/gitdeck/internal/effect"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/state"
)

const (
	DefaultLogPageSize = 200
	DefaultReflogLimit = 100
)

type Options struct {
	LogPageSize int
	ReflogLimit int
	// Now defaults to time.Now.
	Now func() time.Time
	// Normalize canonicalizes repository paths. Defaults to NormalizePath.
	Normalize func(string) string
}

type Reducer struct {
	registry *Registry
	ids      *IDAllocator
	opts     Options
}

func New(registry *Registry, ids *IDAllocator, opts Options) *Reducer {
	if opts.LogPageSize <= 0 {
		opts.LogPageSize = DefaultLogPageSize
	}
	if opts.ReflogLimit <= 0 {
		opts.ReflogLimit = DefaultReflogLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Normalize == nil {
		opts.Normalize = NormalizePath
	}
	return &Reducer{registry: registry, ids: ids, opts: opts}
}

// Reduce applies m to st and returns the effects to run.
func (r *Reducer) Reduce(st *state.AppState, m msg.Msg) []effect.Effect {
	switch m := m.(type) {
	case msg.OpenRepo:
		return r.openRepo(st, m.Path)
	case msg.RestoreSession:
		return r.restoreSession(st, m)
	case msg.CloseRepo:
		return r.closeRepo(st, m.Repo)
	case msg.SetActiveRepo:
		if st.Repo(m.Repo) == nil {
			return nil
		}
		st.SetActive(m.Repo)
		return []effect.Effect{persist(st)}
	case msg.ReloadRepo:
		if repo := r.openRepoState(st, m.Repo); repo != nil {
			return r.refresh(repo, true)
		}
	case msg.RepoExternallyChanged:
		if repo := r.openRepoState(st, m.Repo); repo != nil {
			return r.refresh(repo, false)
		}
	case msg.SetHistoryScope:
		return r.setHistoryScope(st, m)
	case msg.LoadMoreHistory:
		return r.loadMoreHistory(st, m.Repo)
	case msg.SelectCommit:
		return r.selectCommit(st, m)
	case msg.ClearCommitSelection:
		if repo := st.Repo(m.Repo); repo != nil {
			repo.SelectedCommit = ""
			repo.CommitDetails = state.Loadable[backend.CommitDetails]{}
		}
	case msg.SelectDiff:
		return r.selectDiff(st, m)
	case msg.ClearDiffSelection:
		if repo := st.Repo(m.Repo); repo != nil {
			repo.DiffTarget = nil
			repo.Diff = state.Loadable[backend.Diff]{}
			repo.DiffFile = state.Loadable[*backend.FileText]{}
		}
	case msg.RepoOpened:
		return r.repoOpened(st, m)
	case msg.RepoActionFinished:
		return r.actionFinished(st, m)
	default:
		if e := r.mutation(st, m); e != nil {
			return []effect.Effect{e}
		}
		r.completion(st, m)
	}
	return nil
}

func (r *Reducer) openRepo(st *state.AppState, path string) []effect.Effect {
	path = r.opts.Normalize(path)
	if existing := st.RepoByPath(path); existing != nil {
		if active := st.Active(); active != nil && active.ID == existing.ID {
			return nil
		}
		st.SetActive(existing.ID)
		return []effect.Effect{persist(st)}
	}
	id := r.ids.Next()
	st.Repos = append(st.Repos, state.NewRepoState(id, path))
	st.SetActive(id)
	slog.Debug("opening repository", slog.Uint64("repo", uint64(id)), slog.String("path", path))
	return []effect.Effect{effect.OpenRepo{Repo: id, Path: path}, persist(st)}
}

func (r *Reducer) restoreSession(st *state.AppState, m msg.RestoreSession) []effect.Effect {
	r.registry.clear()
	st.Repos = nil
	st.ActiveRepo = nil
	var effects []effect.Effect
	seen := map[string]bool{}
	for _, p := range m.Paths {
		path := r.opts.Normalize(p)
		if seen[path] {
			continue
		}
		seen[path] = true
		id := r.ids.Next()
		st.Repos = append(st.Repos, state.NewRepoState(id, path))
		effects = append(effects, effect.OpenRepo{Repo: id, Path: path})
	}
	if len(st.Repos) > 0 {
		st.SetActive(st.Repos[0].ID)
		if m.ActivePath != "" {
			if repo := st.RepoByPath(r.opts.Normalize(m.ActivePath)); repo != nil {
				st.SetActive(repo.ID)
			}
		}
	}
	return append(effects, persist(st))
}

func (r *Reducer) closeRepo(st *state.AppState, id state.RepoID) []effect.Effect {
	if !st.Remove(id) {
		return nil
	}
	r.registry.remove(id)
	if st.ActiveRepo != nil && *st.ActiveRepo == id {
		st.ActiveRepo = nil
		if len(st.Repos) > 0 {
			st.SetActive(st.Repos[0].ID)
		}
	}
	return []effect.Effect{persist(st)}
}

func persist(st *state.AppState) effect.PersistSession {
	e := effect.PersistSession{Paths: make([]string, 0, len(st.Repos))}
	for _, repo := range st.Repos {
		e.Paths = append(e.Paths, repo.Path)
	}
	if active := st.Active(); active != nil {
		e.ActivePath = active.Path
	}
	return e
}

// openRepoState returns the repository if it has a backend handle.
func (r *Reducer) openRepoState(st *state.AppState, id state.RepoID) *state.RepoState {
	repo := st.Repo(id)
	if repo == nil || !repo.Open.IsReady() {
		return nil
	}
	if _, ok := r.registry.Handle(id); !ok {
		return nil
	}
	return repo
}

func (r *Reducer) repoOpened(st *state.AppState, m msg.RepoOpened) []effect.Effect {
	repo := st.Repo(m.Repo)
	if repo == nil {
		return nil
	}
	if m.Err != nil {
		repo.Open = state.FailedOf[string](m.Err.Error())
		r.diagnose(repo, fmt.Errorf("open %s: %w", repo.Path, m.Err))
		return nil
	}
	r.registry.set(m.Repo, m.Handle)
	repo.Open = state.ReadyOf(m.Handle.Workdir())
	return r.refresh(repo, true)
}

// refresh reloads everything derived from the repository. With markLoading
// the current values are replaced by Loading; otherwise they stay visible
// until the new ones arrive.
func (r *Reducer) refresh(repo *state.RepoState, markLoading bool) []effect.Effect {
	id := repo.ID
	if markLoading {
		repo.HeadBranch = state.LoadingOf[string]()
		repo.UpstreamDivergence = state.LoadingOf[*backend.UpstreamDivergence]()
		repo.Branches = state.LoadingOf[[]backend.Branch]()
		repo.Tags = state.LoadingOf[[]backend.Tag]()
		repo.Remotes = state.LoadingOf[[]backend.Remote]()
		repo.RemoteBranches = state.LoadingOf[[]backend.RemoteBranch]()
		repo.Status = state.LoadingOf[backend.RepoStatus]()
		repo.Stashes = state.LoadingOf[[]backend.StashEntry]()
		repo.Reflog = state.LoadingOf[[]backend.ReflogEntry]()
		repo.Log = state.LoadingOf[backend.LogPage]()
	}
	repo.LogLoadingMore = false
	effects := []effect.Effect{
		effect.LoadHeadBranch{Repo: id},
		effect.LoadUpstreamDivergence{Repo: id},
		effect.LoadBranches{Repo: id},
		effect.LoadTags{Repo: id},
		effect.LoadRemotes{Repo: id},
		effect.LoadRemoteBranches{Repo: id},
		effect.LoadStatus{Repo: id},
		effect.LoadStashes{Repo: id},
		effect.LoadReflog{Repo: id, Limit: r.opts.ReflogLimit},
		effect.LoadLog{Repo: id, Scope: repo.HistoryScope, Limit: r.opts.LogPageSize},
	}
	// A selected working tree diff goes stale whenever the worktree changes.
	if t := repo.DiffTarget; t != nil && t.Kind == backend.DiffWorkingTree && !markLoading {
		effects = append(effects, effect.LoadDiff{Repo: id, Target: *t})
		if t.SupportsFilePreview() {
			effects = append(effects, effect.LoadDiffFile{Repo: id, Target: *t})
		}
	}
	return effects
}

func (r *Reducer) setHistoryScope(st *state.AppState, m msg.SetHistoryScope) []effect.Effect {
	repo := r.openRepoState(st, m.Repo)
	if repo == nil {
		return nil
	}
	repo.HistoryScope = m.Scope
	repo.LogLoadingMore = false
	repo.Log = state.LoadingOf[backend.LogPage]()
	return []effect.Effect{effect.LoadLog{Repo: m.Repo, Scope: m.Scope, Limit: r.opts.LogPageSize}}
}

func (r *Reducer) loadMoreHistory(st *state.AppState, id state.RepoID) []effect.Effect {
	repo := r.openRepoState(st, id)
	if repo == nil || repo.LogLoadingMore {
		return nil
	}
	page, ok := repo.Log.Get()
	if !ok || page.NextCursor == nil {
		return nil
	}
	repo.LogLoadingMore = true
	cursor := *page.NextCursor
	return []effect.Effect{effect.LoadLog{Repo: id, Scope: repo.HistoryScope, Limit: r.opts.LogPageSize, Cursor: &cursor}}
}

func (r *Reducer) logLoaded(repo *state.RepoState, m msg.LogLoaded) {
	// SetHistoryScope already cleared LogLoadingMore; a page for another
	// scope must not touch the flag of a load-more issued since.
	if m.Scope != repo.HistoryScope {
		return
	}
	if m.Cursor == nil {
		if m.Err != nil {
			repo.Log = state.FailedOf[backend.LogPage](m.Err.Error())
			r.diagnose(repo, fmt.Errorf("load history: %w", m.Err))
			return
		}
		repo.Log = state.ReadyOf(m.Page)
		return
	}
	if !repo.LogLoadingMore {
		return
	}
	repo.LogLoadingMore = false
	page, ok := repo.Log.Get()
	if !ok || page.NextCursor == nil || *page.NextCursor != *m.Cursor {
		return
	}
	if m.Err != nil {
		r.diagnose(repo, fmt.Errorf("load more history: %w", m.Err))
		return
	}
	page.Commits = append(page.Commits, m.Page.Commits...)
	page.NextCursor = m.Page.NextCursor
	repo.Log = state.ReadyOf(page)
}

func (r *Reducer) selectCommit(st *state.AppState, m msg.SelectCommit) []effect.Effect {
	repo := r.openRepoState(st, m.Repo)
	if repo == nil {
		return nil
	}
	if repo.SelectedCommit == m.ID && (repo.CommitDetails.IsReady() || repo.CommitDetails.IsLoading()) {
		return nil
	}
	repo.SelectedCommit = m.ID
	repo.CommitDetails = state.LoadingOf[backend.CommitDetails]()
	return []effect.Effect{effect.LoadCommitDetails{Repo: m.Repo, ID: m.ID}}
}

func (r *Reducer) selectDiff(st *state.AppState, m msg.SelectDiff) []effect.Effect {
	repo := r.openRepoState(st, m.Repo)
	if repo == nil {
		return nil
	}
	if repo.DiffTarget != nil && *repo.DiffTarget == m.Target && (repo.Diff.IsReady() || repo.Diff.IsLoading()) {
		return nil
	}
	target := m.Target
	repo.DiffTarget = &target
	repo.Diff = state.LoadingOf[backend.Diff]()
	effects := []effect.Effect{effect.LoadDiff{Repo: m.Repo, Target: target}}
	if target.SupportsFilePreview() {
		repo.DiffFile = state.LoadingOf[*backend.FileText]()
		effects = append(effects, effect.LoadDiffFile{Repo: m.Repo, Target: target})
	} else {
		repo.DiffFile = state.Loadable[*backend.FileText]{}
	}
	return effects
}

func (r *Reducer) actionFinished(st *state.AppState, m msg.RepoActionFinished) []effect.Effect {
	repo := st.Repo(m.Repo)
	if repo == nil {
		return nil
	}
	repo.CommandLog.Append(state.CommandLogEntry{
		Time:    r.opts.Now(),
		Action:  m.Action,
		Command: m.Output.Command,
		OK:      m.Err == nil,
		Summary: summarize(m.Action, m.Output, m.Err),
		Stdout:  m.Output.Stdout,
		Stderr:  m.Output.Stderr,
	})
	if m.Err != nil {
		repo.LastError = fmt.Sprintf("%s: %v", m.Action, m.Err)
		r.diagnose(repo, fmt.Errorf("%s: %w", m.Action, m.Err))
	} else {
		repo.LastError = ""
	}
	if _, ok := r.registry.Handle(m.Repo); !ok {
		return nil
	}
	return r.refresh(repo, false)
}

func (r *Reducer) diagnose(repo *state.RepoState, err error) {
	slog.Debug("repository error", slog.Uint64("repo", uint64(repo.ID)), slog.Any("error", err))
	repo.Diagnostics.Append(state.Diagnostic{Time: r.opts.Now(), Kind: state.DiagnosticError, Message: err.Error()})
}
