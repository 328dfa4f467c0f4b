package reducer

import (
	"fmt"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// completion applies read results. Results for repositories that are no
// longer open are dropped.
func (r *Reducer) completion(st *state.AppState, m msg.Msg) {
	switch m := m.(type) {
	case msg.HeadBranchLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.HeadBranch, m.Branch, m.Err, "load head branch", false)
		}
	case msg.UpstreamDivergenceLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.UpstreamDivergence, m.Divergence, m.Err, "load upstream divergence", true)
		}
	case msg.BranchesLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Branches, m.Branches, m.Err, "load branches", false)
		}
	case msg.TagsLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Tags, m.Tags, m.Err, "load tags", true)
		}
	case msg.RemotesLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Remotes, m.Remotes, m.Err, "load remotes", false)
		}
	case msg.RemoteBranchesLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.RemoteBranches, m.Branches, m.Err, "load remote branches", false)
		}
	case msg.StatusLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Status, m.Status, m.Err, "load status", false)
		}
	case msg.StashesLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Stashes, m.Stashes, m.Err, "load stashes", true)
		}
	case msg.ReflogLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			load(r, repo, &repo.Reflog, m.Entries, m.Err, "load reflog", true)
		}
	case msg.LogLoaded:
		if repo := st.Repo(m.Repo); repo != nil {
			r.logLoaded(repo, m)
		}
	case msg.CommitDetailsLoaded:
		repo := st.Repo(m.Repo)
		if repo == nil || repo.SelectedCommit != m.ID {
			return
		}
		load(r, repo, &repo.CommitDetails, m.Details, m.Err, "load commit "+m.ID.Short(), false)
	case msg.DiffLoaded:
		repo := st.Repo(m.Repo)
		if repo == nil || repo.DiffTarget == nil || *repo.DiffTarget != m.Target {
			return
		}
		load(r, repo, &repo.Diff, backend.Diff{Target: m.Target, Text: m.Text}, m.Err, "load diff", false)
	case msg.DiffFileLoaded:
		repo := st.Repo(m.Repo)
		if repo == nil || repo.DiffTarget == nil || *repo.DiffTarget != m.Target {
			return
		}
		load(r, repo, &repo.DiffFile, m.File, m.Err, "load file preview", false)
	}
}

// load stores a read result. With emptyOnUnsupported, a backend that lacks
// the capability yields an empty value instead of a failure.
func load[T any](r *Reducer, repo *state.RepoState, field *state.Loadable[T], v T, err error, what string, emptyOnUnsupported bool) {
	if err == nil {
		*field = state.ReadyOf(v)
		return
	}
	if emptyOnUnsupported && backend.IsUnsupported(err) {
		var empty T
		*field = state.ReadyOf(empty)
		return
	}
	*field = state.FailedOf[T](err.Error())
	r.diagnose(repo, fmt.Errorf("%s: %w", what, err))
}
