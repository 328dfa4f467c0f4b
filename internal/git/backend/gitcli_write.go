package backend

import (
	"strconv"
	"strings"
)

func (g *gitCLI) Stage(paths []string) (CommandOutput, error) {
	if err := requirePaths("git add", paths); err != nil {
		return CommandOutput{}, err
	}
	return g.runGit(pathArgs([]string{"add", "-A"}, paths), "", false, "git add")
}

func (g *gitCLI) Unstage(paths []string) (CommandOutput, error) {
	if err := requirePaths("git restore", paths); err != nil {
		return CommandOutput{}, err
	}
	ok, err := g.hasHead()
	if err != nil {
		return CommandOutput{}, err
	}
	if !ok {
		// Nothing to restore from before the first commit.
		return g.runGit(pathArgs([]string{"rm", "--cached", "-r", "-q"}, paths), "", false, "git rm")
	}
	return g.runGit(pathArgs([]string{"restore", "--staged"}, paths), "", false, "git restore")
}

func (g *gitCLI) DiscardWorktreeChanges(paths []string) (CommandOutput, error) {
	if err := requirePaths("git restore", paths); err != nil {
		return CommandOutput{}, err
	}
	return g.runGit(pathArgs([]string{"restore", "--worktree"}, paths), "", false, "git restore")
}

func (g *gitCLI) ApplyPatch(patch string, target PatchTarget, reverse bool) (CommandOutput, error) {
	if strings.TrimSpace(patch) == "" {
		return CommandOutput{}, &Error{Op: "git apply", Message: "empty patch"}
	}
	args := []string{"apply"}
	if target == PatchIndex {
		args = append(args, "--cached")
	}
	args = append(args, "--recount", "--whitespace=nowarn")
	if reverse {
		args = append(args, "-R")
	}
	args = append(args, "-")
	return g.runGit(args, patch, false, "git apply")
}

func (g *gitCLI) Commit(message string) (CommandOutput, error) {
	if strings.TrimSpace(message) == "" {
		return CommandOutput{}, &Error{Op: "git commit", Message: "empty commit message"}
	}
	return g.runGit([]string{"commit", "-F", "-"}, message, false, "git commit")
}

func (g *gitCLI) FetchAll() (CommandOutput, error) {
	return g.runGit([]string{"fetch", "--all", "--prune"}, "", false, "git fetch")
}

func (g *gitCLI) Pull(mode PullMode) (CommandOutput, error) {
	args := []string{"pull"}
	switch mode {
	case PullFastForwardOnly:
		args = append(args, "--ff-only")
	case PullRebase:
		args = append(args, "--rebase")
	case PullMerge:
		args = append(args, "--no-rebase")
	}
	return g.runGit(args, "", false, "git pull")
}

func (g *gitCLI) Push() (CommandOutput, error) {
	return g.runGit([]string{"push"}, "", false, "git push")
}

func (g *gitCLI) StashCreate(message string, includeUntracked bool) (CommandOutput, error) {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	if msg := strings.TrimSpace(message); msg != "" {
		args = append(args, "-m", msg)
	}
	return g.runGit(args, "", false, "git stash push")
}

func (g *gitCLI) StashApply(index int) (CommandOutput, error) {
	return g.runGit([]string{"stash", "apply", stashRef(index)}, "", false, "git stash apply")
}

func (g *gitCLI) StashDrop(index int) (CommandOutput, error) {
	return g.runGit([]string{"stash", "drop", stashRef(index)}, "", false, "git stash drop")
}

func (g *gitCLI) CheckoutBranch(name string) (CommandOutput, error) {
	branch, err := requireName("git switch", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	return g.runGit([]string{"switch", "--", branch}, "", false, "git switch")
}

func (g *gitCLI) CheckoutCommit(id CommitID) (CommandOutput, error) {
	rev, err := requireName("git switch", "commit", string(id))
	if err != nil {
		return CommandOutput{}, err
	}
	return g.runGit([]string{"switch", "--detach", rev}, "", false, "git switch")
}

func (g *gitCLI) CreateBranch(name string, target CommitID) (CommandOutput, error) {
	branch, err := requireName("git branch", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	args := []string{"branch", "--", branch}
	if rev := strings.TrimSpace(string(target)); rev != "" {
		args = append(args, rev)
	}
	return g.runGit(args, "", false, "git branch")
}

func (g *gitCLI) DeleteBranch(name string) (CommandOutput, error) {
	branch, err := requireName("git branch", "branch", name)
	if err != nil {
		return CommandOutput{}, err
	}
	return g.runGit([]string{"branch", "-d", "--", branch}, "", false, "git branch")
}

func (g *gitCLI) CherryPick(id CommitID) (CommandOutput, error) {
	rev, err := requireName("git cherry-pick", "commit", string(id))
	if err != nil {
		return CommandOutput{}, err
	}
	return g.runGit([]string{"cherry-pick", rev}, "", false, "git cherry-pick")
}

func (g *gitCLI) Revert(id CommitID) (CommandOutput, error) {
	rev, err := requireName("git revert", "commit", string(id))
	if err != nil {
		return CommandOutput{}, err
	}
	return g.runGit([]string{"revert", "--no-edit", rev}, "", false, "git revert")
}

func stashRef(index int) string {
	return "stash@{" + strconv.Itoa(index) + "}"
}
