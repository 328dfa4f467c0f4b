package backend

import (
	"errors"
	"fmt"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

func (n *nativeRepo) Stage(paths []string) (CommandOutput, error) {
	if err := requirePaths("stage", paths); err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("stage", err)
	}
	for _, path := range paths {
		if _, err := wt.Add(path); err != nil {
			return CommandOutput{}, nativeError("stage", fmt.Errorf("%s: %w", path, err))
		}
	}
	return nativeOutput("add "+strings.Join(paths, " "), ""), nil
}

func (n *nativeRepo) Unstage(paths []string) (CommandOutput, error) {
	if err := requirePaths("unstage", paths); err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("unstage", err)
	}
	if err := wt.Restore(&gitlib.RestoreOptions{Staged: true, Files: paths}); err != nil {
		return CommandOutput{}, nativeError("unstage", err)
	}
	return nativeOutput("restore --staged "+strings.Join(paths, " "), ""), nil
}

func (n *nativeRepo) DiscardWorktreeChanges([]string) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("discard changes", "worktree-only restore")
}

func (n *nativeRepo) ApplyPatch(string, PatchTarget, bool) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("apply patch", "patch application")
}

func (n *nativeRepo) Commit(message string) (CommandOutput, error) {
	if strings.TrimSpace(message) == "" {
		return CommandOutput{}, &Error{Op: "commit", Message: "empty commit message"}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("commit", err)
	}
	hash, err := wt.Commit(message, &gitlib.CommitOptions{})
	if err != nil {
		return CommandOutput{}, nativeError("commit", err)
	}
	return nativeOutput("commit", fmt.Sprintf("[%s] %s", hash.String()[:7], summaryLine(message))), nil
}

func (n *nativeRepo) FetchAll() (CommandOutput, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	remotes, err := n.repo.Remotes()
	if err != nil {
		return CommandOutput{}, nativeError("fetch", err)
	}
	var lines []string
	for _, r := range remotes {
		name := r.Config().Name
		err := n.repo.Fetch(&gitlib.FetchOptions{RemoteName: name, Prune: true})
		switch {
		case errors.Is(err, gitlib.NoErrAlreadyUpToDate):
			lines = append(lines, name+": already up to date")
		case err != nil:
			return nativeOutput("fetch --all", strings.Join(lines, "\n")), nativeError("fetch "+name, err)
		default:
			lines = append(lines, name+": fetched")
		}
	}
	return nativeOutput("fetch --all", strings.Join(lines, "\n")), nil
}

func (n *nativeRepo) Pull(mode PullMode) (CommandOutput, error) {
	if mode == PullRebase {
		return CommandOutput{}, Unsupported("pull", "rebase")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("pull", err)
	}
	// go-git only fast-forwards; a diverged branch fails with ErrNonFastForwardUpdate.
	err = wt.Pull(&gitlib.PullOptions{})
	if errors.Is(err, gitlib.NoErrAlreadyUpToDate) {
		return nativeOutput("pull", "Already up to date."), nil
	}
	if err != nil {
		return CommandOutput{}, nativeError("pull", err)
	}
	return nativeOutput("pull", "Fast-forward"), nil
}

func (n *nativeRepo) Push() (CommandOutput, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.repo.Push(&gitlib.PushOptions{})
	if errors.Is(err, gitlib.NoErrAlreadyUpToDate) {
		return nativeOutput("push", "Everything up-to-date"), nil
	}
	if err != nil {
		return CommandOutput{}, nativeError("push", err)
	}
	return nativeOutput("push", ""), nil
}

func (n *nativeRepo) StashCreate(string, bool) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("stash push", "stash")
}

func (n *nativeRepo) StashApply(int) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("stash apply", "stash")
}

func (n *nativeRepo) StashDrop(int) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("stash drop", "stash")
}

func (n *nativeRepo) CheckoutBranch(name string) (CommandOutput, error) {
	branch, err := requireName("checkout", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("checkout", err)
	}
	if err := wt.Checkout(&gitlib.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch), Keep: true}); err != nil {
		return CommandOutput{}, nativeError("checkout", err)
	}
	return nativeOutput("switch "+branch, "Switched to branch '"+branch+"'"), nil
}

func (n *nativeRepo) CheckoutCommit(id CommitID) (CommandOutput, error) {
	if _, err := requireName("checkout", "commit", string(id)); err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	c, err := n.resolveCommit(id)
	if err != nil {
		return CommandOutput{}, nativeError("checkout", err)
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return CommandOutput{}, nativeError("checkout", err)
	}
	if err := wt.Checkout(&gitlib.CheckoutOptions{Hash: c.Hash, Keep: true}); err != nil {
		return CommandOutput{}, nativeError("checkout", err)
	}
	return nativeOutput("switch --detach "+string(id), "HEAD is now at "+c.Hash.String()[:7]), nil
}

func (n *nativeRepo) CreateBranch(name string, target CommitID) (CommandOutput, error) {
	branch, err := requireName("create branch", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	refName := plumbing.NewBranchReferenceName(branch)
	if _, err := n.repo.Reference(refName, false); err == nil {
		return CommandOutput{}, &Error{Op: "create branch", Message: fmt.Sprintf("a branch named '%s' already exists", branch)}
	}
	var hash plumbing.Hash
	if strings.TrimSpace(string(target)) == "" {
		head, err := n.repo.Head()
		if err != nil {
			return CommandOutput{}, nativeError("create branch", err)
		}
		hash = head.Hash()
	} else {
		c, err := n.resolveCommit(target)
		if err != nil {
			return CommandOutput{}, nativeError("create branch", err)
		}
		hash = c.Hash
	}
	if err := n.repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return CommandOutput{}, nativeError("create branch", err)
	}
	return nativeOutput("branch "+branch, ""), nil
}

func (n *nativeRepo) DeleteBranch(name string) (CommandOutput, error) {
	branch, err := requireName("delete branch", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	refName := plumbing.NewBranchReferenceName(branch)
	if head, err := n.repo.Reference(plumbing.HEAD, false); err == nil && head.Target() == refName {
		return CommandOutput{}, &Error{Op: "delete branch", Message: fmt.Sprintf("cannot delete branch '%s' checked out", branch)}
	}
	ref, err := n.repo.Reference(refName, false)
	if err != nil {
		return CommandOutput{}, nativeError("delete branch", err)
	}
	if err := n.repo.Storer.RemoveReference(refName); err != nil {
		return CommandOutput{}, nativeError("delete branch", err)
	}
	// The branch may have no config section.
	if err := n.repo.DeleteBranch(branch); err != nil && !errors.Is(err, gitlib.ErrBranchNotFound) {
		return CommandOutput{}, nativeError("delete branch", err)
	}
	return nativeOutput("branch -d "+branch, fmt.Sprintf("Deleted branch %s (was %s).", branch, ref.Hash().String()[:7])), nil
}

func (n *nativeRepo) CherryPick(CommitID) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("cherry-pick", "cherry-pick")
}

func (n *nativeRepo) Revert(CommitID) (CommandOutput, error) {
	return CommandOutput{}, Unsupported("revert", "revert")
}
