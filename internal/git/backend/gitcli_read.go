package backend

import (
	"fmt"
	"strconv"
	"strings"
)

func (g *gitCLI) CurrentBranch() (string, error) {
	ref, err := g.runGitCommand([]string{"symbolic-ref", "-q", "--short", "HEAD"}, true, "git symbolic-ref")
	if err != nil {
		return "", err
	}
	headName := strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return headName, nil
}

func (g *gitCLI) UpstreamDivergence() (*UpstreamDivergence, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if branch == "HEAD" {
		// Detached HEAD has no upstream.
		return nil, nil
	}
	upstream, err := g.runGitCommand(
		[]string{"for-each-ref", "--format=%(upstream:short)", "refs/heads/" + branch},
		false,
		"git for-each-ref",
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(upstream) == "" {
		return nil, nil
	}
	out, err := g.runGitCommand([]string{"rev-list", "--left-right", "--count", "HEAD...@{upstream}"}, false, "git rev-list")
	if err != nil {
		return nil, err
	}
	div, err := parseLeftRightCount(out)
	if err != nil {
		return nil, backendError("git rev-list", err)
	}
	return &div, nil
}

func (g *gitCLI) ListRefs() ([]Ref, error) {
	out, err := g.runGitCommand([]string{"--no-pager", "show-ref", "--dereference"}, true, "git show-ref")
	if err != nil {
		return nil, err
	}
	refs, err := parseRefsFromShowRef(out)
	if err != nil {
		return nil, backendError("git show-ref", err)
	}
	return refs, nil
}

func (g *gitCLI) ListBranches() ([]Branch, error) {
	refs, err := g.ListRefs()
	if err != nil {
		return nil, err
	}
	out, err := g.runGitCommand(
		[]string{"for-each-ref", "--format=%(refname:short)" + fieldSep + "%(upstream:short)", "refs/heads"},
		false,
		"git for-each-ref",
	)
	if err != nil {
		return nil, err
	}
	upstreams := parseBranchUpstreams(out)
	var branches []Branch
	for _, ref := range refs {
		if ref.Kind != RefKindBranch {
			continue
		}
		branches = append(branches, Branch{Name: ref.Name, Target: CommitID(ref.Hash), Upstream: upstreams[ref.Name]})
	}
	return branches, nil
}

func (g *gitCLI) ListTags() ([]Tag, error) {
	refs, err := g.ListRefs()
	if err != nil {
		return nil, err
	}
	var tags []Tag
	for _, ref := range refs {
		if ref.Kind == RefKindTag {
			tags = append(tags, Tag{Name: ref.Name, Target: CommitID(ref.Hash)})
		}
	}
	return tags, nil
}

func (g *gitCLI) ListRemoteBranches() ([]RemoteBranch, error) {
	refs, err := g.ListRefs()
	if err != nil {
		return nil, err
	}
	var branches []RemoteBranch
	for _, ref := range refs {
		if ref.Kind != RefKindRemoteBranch || strings.HasSuffix(ref.Name, "/HEAD") {
			continue
		}
		remote, name := splitRemoteBranch(ref.Name)
		branches = append(branches, RemoteBranch{Remote: remote, Name: name, Target: CommitID(ref.Hash)})
	}
	return branches, nil
}

func (g *gitCLI) ListRemotes() ([]Remote, error) {
	out, err := g.runGitCommand([]string{"remote", "-v"}, false, "git remote")
	if err != nil {
		return nil, err
	}
	return parseRemotes(out), nil
}

func (g *gitCLI) Status() (RepoStatus, error) {
	out, err := g.runGitCommand([]string{"status", "--porcelain=v2", "--untracked-files=all"}, false, "git status")
	if err != nil {
		return RepoStatus{}, err
	}
	res, err := parseStatusPorcelainV2(strings.NewReader(out))
	if err != nil {
		return RepoStatus{}, backendError("parse git status", err)
	}
	return res, nil
}

func (g *gitCLI) LogPage(scope HistoryScope, limit int, cursor *LogCursor) (LogPage, error) {
	if limit <= 0 {
		return LogPage{}, &Error{Op: "git log", Message: fmt.Sprintf("invalid page size %d", limit)}
	}
	offset := 0
	if cursor != nil {
		offset = cursor.Offset
	}
	args := []string{
		"--no-pager", "log", "--no-color", "--no-decorate", "--date-order", "--no-patch",
		// Use tformat to avoid git log adding an extra newline after each record.
		"--pretty=tformat:" + logRecordFormat,
		"--skip=" + strconv.Itoa(offset),
		// Read one extra commit to learn whether another page exists.
		"-n", strconv.Itoa(limit + 1),
	}
	if scope == ScopeAllBranches {
		args = append(args, "--all")
	} else {
		ok, err := g.hasHead()
		if err != nil {
			return LogPage{}, err
		}
		if !ok {
			return LogPage{}, nil
		}
		args = append(args, "HEAD")
	}
	out, err := g.runGitCommand(args, false, "git log")
	if err != nil {
		return LogPage{}, err
	}
	records, err := parseGitLogRecords([]byte(out))
	if err != nil {
		return LogPage{}, backendError("git log", err)
	}
	page := LogPage{}
	if len(records) > limit {
		records = records[:limit]
		page.NextCursor = &LogCursor{Offset: offset + limit}
	}
	page.Commits = make([]Commit, 0, len(records))
	for _, rec := range records {
		page.Commits = append(page.Commits, rec.commit())
	}
	return page, nil
}

func (g *gitCLI) CommitDetails(id CommitID) (CommitDetails, error) {
	rev, err := requireName("git show", "commit", string(id))
	if err != nil {
		return CommitDetails{}, err
	}
	out, err := g.runGitCommand(
		[]string{"--no-pager", "show", "-s", "--no-color", "--pretty=tformat:" + logRecordFormat, rev},
		false,
		"git show",
	)
	if err != nil {
		return CommitDetails{}, err
	}
	records, err := parseGitLogRecords([]byte(out))
	if err != nil {
		return CommitDetails{}, backendError("git show", err)
	}
	if len(records) != 1 {
		return CommitDetails{}, &Error{Op: "git show", Message: fmt.Sprintf("expected one commit, got %d", len(records))}
	}
	rec := records[0]
	files, err := g.runGitCommand(
		[]string{"diff-tree", "--no-commit-id", "--name-status", "-r", "--root", "-M", "-m", "--first-parent", rev},
		false,
		"git diff-tree",
	)
	if err != nil {
		return CommitDetails{}, err
	}
	return CommitDetails{
		ID:        CommitID(rec.hash),
		ParentIDs: commitIDs(rec.parents),
		Author:    rec.author,
		Committer: rec.committer,
		Message:   strings.TrimRight(rec.message, "\n"),
		Files:     parseNameStatus(files),
	}, nil
}

func (g *gitCLI) ReflogHead(limit int) ([]ReflogEntry, error) {
	ok, err := g.hasHead()
	if err != nil || !ok {
		return nil, err
	}
	args := []string{"reflog", "show", "--no-color", "--format=%H" + fieldSep + "%gd" + fieldSep + "%gs"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, "HEAD")
	out, err := g.runGitCommand(args, false, "git reflog")
	if err != nil {
		return nil, err
	}
	return parseReflog(out), nil
}

func (g *gitCLI) StashList() ([]StashEntry, error) {
	out, err := g.runGitCommand(
		[]string{"stash", "list", "--format=%gd" + fieldSep + "%H" + fieldSep + "%gs"},
		false,
		"git stash list",
	)
	if err != nil {
		return nil, err
	}
	return parseStashList(out), nil
}
