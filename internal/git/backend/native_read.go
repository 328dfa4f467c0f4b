package backend

import (
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

func (n *nativeRepo) CurrentBranch() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ref, err := n.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", nativeError("read HEAD", err)
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "HEAD", nil
}

func (n *nativeRepo) UpstreamDivergence() (*UpstreamDivergence, error) {
	return nil, Unsupported("upstream divergence", "ahead/behind counts")
}

func (n *nativeRepo) ListBranches() ([]Branch, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	iter, err := n.repo.Branches()
	if err != nil {
		return nil, nativeError("list branches", err)
	}
	defer iter.Close()
	cfg, err := n.repo.Config()
	if err != nil {
		return nil, nativeError("list branches", err)
	}
	var branches []Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		b := Branch{Name: name, Target: CommitID(ref.Hash().String())}
		if bc, ok := cfg.Branches[name]; ok && bc.Remote != "" && bc.Merge != "" {
			b.Upstream = bc.Remote + "/" + bc.Merge.Short()
		}
		branches = append(branches, b)
		return nil
	})
	if err != nil {
		return nil, nativeError("list branches", err)
	}
	return branches, nil
}

func (n *nativeRepo) ListTags() ([]Tag, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	iter, err := n.repo.Tags()
	if err != nil {
		return nil, nativeError("list tags", err)
	}
	defer iter.Close()
	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if peeled, ok := n.peelTagCommitHash(hash); ok {
			hash = peeled
		}
		tags = append(tags, Tag{Name: ref.Name().Short(), Target: CommitID(hash.String())})
		return nil
	})
	if err != nil {
		return nil, nativeError("list tags", err)
	}
	return tags, nil
}

func (n *nativeRepo) ListRemotes() ([]Remote, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	remotes, err := n.repo.Remotes()
	if err != nil {
		return nil, nativeError("list remotes", err)
	}
	out := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		url := ""
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		out = append(out, Remote{Name: cfg.Name, URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (n *nativeRepo) ListRemoteBranches() ([]RemoteBranch, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	iter, err := n.repo.References()
	if err != nil {
		return nil, nativeError("list remote branches", err)
	}
	defer iter.Close()
	var branches []RemoteBranch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if strings.HasSuffix(short, "/HEAD") {
			return nil
		}
		remote, name := splitRemoteBranch(short)
		branches = append(branches, RemoteBranch{Remote: remote, Name: name, Target: CommitID(ref.Hash().String())})
		return nil
	})
	if err != nil {
		return nil, nativeError("list remote branches", err)
	}
	return branches, nil
}

func (n *nativeRepo) Status() (RepoStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	wt, err := n.repo.Worktree()
	if err != nil {
		return RepoStatus{}, nativeError("status", err)
	}
	st, err := wt.Status()
	if err != nil {
		return RepoStatus{}, nativeError("status", err)
	}
	paths := make([]string, 0, len(st))
	for path := range st {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	var res RepoStatus
	for _, path := range paths {
		fs := st[path]
		if fs.Staging == gitlib.Untracked {
			res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Kind: FileUntracked})
			continue
		}
		if fs.Staging != gitlib.Unmodified {
			res.Staged = append(res.Staged, FileStatus{Path: path, OrigPath: fs.Extra, Kind: statusKindFromCode(byte(fs.Staging))})
		}
		if fs.Worktree != gitlib.Unmodified {
			res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Kind: statusKindFromCode(byte(fs.Worktree))})
		}
	}
	return res, nil
}

func (n *nativeRepo) LogPage(scope HistoryScope, limit int, cursor *LogCursor) (LogPage, error) {
	if limit <= 0 {
		return LogPage{}, &Error{Op: "log", Message: "invalid page size"}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	opts := &gitlib.LogOptions{Order: gitlib.LogOrderCommitterTime, All: scope == ScopeAllBranches}
	if !opts.All {
		head, err := n.headCommit()
		if err != nil {
			return LogPage{}, nativeError("log", err)
		}
		if head == nil {
			return LogPage{}, nil
		}
		opts.From = head.Hash
	}
	iter, err := n.repo.Log(opts)
	if err != nil {
		return LogPage{}, nativeError("log", err)
	}
	defer iter.Close()
	offset := 0
	if cursor != nil {
		offset = cursor.Offset
	}
	page := LogPage{}
	seen := 0
	err = iter.ForEach(func(c *object.Commit) error {
		seen++
		if seen <= offset {
			return nil
		}
		if len(page.Commits) == limit {
			page.NextCursor = &LogCursor{Offset: offset + limit}
			return storer.ErrStop
		}
		page.Commits = append(page.Commits, commitFromObject(c))
		return nil
	})
	if err != nil {
		return LogPage{}, nativeError("log", err)
	}
	return page, nil
}

func commitFromObject(c *object.Commit) Commit {
	return Commit{
		ID:        CommitID(c.Hash.String()),
		ParentIDs: parentIDs(c),
		Author:    Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Summary:   summaryLine(c.Message),
	}
}

func parentIDs(c *object.Commit) []CommitID {
	if len(c.ParentHashes) == 0 {
		return nil
	}
	ids := make([]CommitID, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		ids[i] = CommitID(h.String())
	}
	return ids
}

func (n *nativeRepo) CommitDetails(id CommitID) (CommitDetails, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, err := n.resolveCommit(id)
	if err != nil {
		return CommitDetails{}, nativeError("commit details", err)
	}
	changes, err := n.commitChanges(c)
	if err != nil {
		return CommitDetails{}, nativeError("commit details", err)
	}
	files := make([]CommitFileChange, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return CommitDetails{}, nativeError("commit details", err)
		}
		files = append(files, CommitFileChange{Path: changePath(ch), Kind: kindFromAction(action)})
	}
	base := commitFromObject(c)
	return CommitDetails{
		ID:        base.ID,
		ParentIDs: base.ParentIDs,
		Author:    base.Author,
		Committer: base.Committer,
		Message:   strings.TrimRight(c.Message, "\n"),
		Files:     files,
	}, nil
}

// commitChanges diffs c against its first parent, or the empty tree for a root commit.
func (n *nativeRepo) commitChanges(c *object.Commit) (object.Changes, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}
	return object.DiffTree(parentTree, tree)
}

func changePath(ch *object.Change) string {
	if ch.To.Name != "" {
		return ch.To.Name
	}
	return ch.From.Name
}

func kindFromAction(action merkletrie.Action) FileStatusKind {
	switch action {
	case merkletrie.Insert:
		return FileAdded
	case merkletrie.Delete:
		return FileDeleted
	default:
		return FileModified
	}
}

func (n *nativeRepo) ReflogHead(int) ([]ReflogEntry, error) {
	return nil, Unsupported("reflog", "reflog")
}

func (n *nativeRepo) StashList() ([]StashEntry, error) {
	return nil, Unsupported("stash list", "stash")
}
