package reducer

import (
	"strings"

	"github.com/thiagokokada/gitdeck/internal/effect"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// mutation turns a mutating command into its effect. It returns nil for
// messages that are not mutating commands, for repositories that are not
// open and for commands with nothing to do.
func (r *Reducer) mutation(st *state.AppState, m msg.Msg) effect.Effect {
	var e effect.Mutation
	switch m := m.(type) {
	case msg.StagePath:
		e = pathsEffect([]string{m.Path}, func(p []string) effect.Mutation { return effect.Stage{Repo: m.Repo, Paths: p} })
	case msg.StagePaths:
		e = pathsEffect(m.Paths, func(p []string) effect.Mutation { return effect.Stage{Repo: m.Repo, Paths: p} })
	case msg.UnstagePath:
		e = pathsEffect([]string{m.Path}, func(p []string) effect.Mutation { return effect.Unstage{Repo: m.Repo, Paths: p} })
	case msg.UnstagePaths:
		e = pathsEffect(m.Paths, func(p []string) effect.Mutation { return effect.Unstage{Repo: m.Repo, Paths: p} })
	case msg.DiscardWorktreeChangesPath:
		e = pathsEffect([]string{m.Path}, func(p []string) effect.Mutation {
			return effect.DiscardWorktreeChanges{Repo: m.Repo, Paths: p}
		})
	case msg.DiscardWorktreeChangesPaths:
		e = pathsEffect(m.Paths, func(p []string) effect.Mutation {
			return effect.DiscardWorktreeChanges{Repo: m.Repo, Paths: p}
		})
	case msg.StageHunk:
		e = patchEffect(m.Repo, m.Patch, backend.PatchIndex, false)
	case msg.UnstageHunk:
		e = patchEffect(m.Repo, m.Patch, backend.PatchIndex, true)
	case msg.ApplyWorktreePatch:
		e = patchEffect(m.Repo, m.Patch, backend.PatchWorktree, true)
	case msg.Commit:
		if strings.TrimSpace(m.Message) != "" {
			e = effect.Commit{Repo: m.Repo, Message: m.Message}
		}
	case msg.FetchAll:
		e = effect.FetchAll{Repo: m.Repo}
	case msg.Pull:
		e = effect.Pull{Repo: m.Repo, Mode: m.Mode}
	case msg.Push:
		e = effect.Push{Repo: m.Repo}
	case msg.CheckoutBranch:
		e = effect.CheckoutBranch{Repo: m.Repo, Name: m.Name}
	case msg.CheckoutCommit:
		e = effect.CheckoutCommit{Repo: m.Repo, ID: m.ID}
	case msg.CreateBranch:
		e = effect.CreateBranch{Repo: m.Repo, Name: m.Name, Target: m.Target}
	case msg.DeleteBranch:
		e = effect.DeleteBranch{Repo: m.Repo, Name: m.Name}
	case msg.CherryPickCommit:
		e = effect.CherryPick{Repo: m.Repo, ID: m.ID}
	case msg.RevertCommit:
		e = effect.Revert{Repo: m.Repo, ID: m.ID}
	case msg.StashChanges:
		e = effect.StashCreate{Repo: m.Repo, Message: m.Message, IncludeUntracked: m.IncludeUntracked}
	case msg.ApplyStash:
		e = effect.StashApply{Repo: m.Repo, Index: m.Index}
	case msg.DropStash:
		e = effect.StashDrop{Repo: m.Repo, Index: m.Index}
	default:
		return nil
	}
	if e == nil || r.openRepoState(st, e.RepoID()) == nil {
		return nil
	}
	return e
}

func pathsEffect(paths []string, build func([]string) effect.Mutation) effect.Mutation {
	var kept []string
	for _, p := range paths {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return build(kept)
}

func patchEffect(id state.RepoID, patch string, target backend.PatchTarget, reverse bool) effect.Mutation {
	if strings.TrimSpace(patch) == "" {
		return nil
	}
	return effect.ApplyPatch{Repo: id, Patch: patch, Target: target, Reverse: reverse}
}
