package backend

import (
	"fmt"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

type localChange struct {
	path string
	from []byte
	to   []byte
}

func (n *nativeRepo) DiffUnified(target DiffTarget) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var (
		out string
		err error
	)
	if target.Kind == DiffCommit {
		out, err = n.commitDiff(target)
	} else {
		out, err = n.worktreeDiff(target)
	}
	return out, nativeError("diff", err)
}

func (n *nativeRepo) commitDiff(target DiffTarget) (string, error) {
	c, err := n.resolveCommit(target.Commit)
	if err != nil {
		return "", err
	}
	changes, err := n.commitChanges(c)
	if err != nil {
		return "", err
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", err
	}
	var filePatches []fdiff.FilePatch
	for _, fp := range patch.FilePatches() {
		if target.Path == "" || filePatchPath(fp) == target.Path {
			filePatches = append(filePatches, fp)
		}
	}
	if len(filePatches) == 0 {
		return "", nil
	}
	return encodeUnifiedPatch(filePatches)
}

func (n *nativeRepo) worktreeDiff(target DiffTarget) (string, error) {
	wt, err := n.repo.Worktree()
	if err != nil {
		return "", err
	}
	status, err := wt.Status()
	if err != nil {
		return "", err
	}
	staged := target.Area == AreaStaged
	var paths []string
	for path, st := range status {
		if target.Path != "" && path != target.Path {
			continue
		}
		include := false
		if staged {
			include = st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked
		} else {
			// Untracked files only show up when asked for by name.
			include = st.Worktree != gitlib.Unmodified && (st.Worktree != gitlib.Untracked || target.Path != "")
		}
		if include {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	idx, err := n.repo.Storer.Index()
	if err != nil {
		return "", err
	}
	headTree, err := n.headTree()
	if err != nil {
		return "", err
	}
	var diffs []localChange
	for _, path := range paths {
		from, to, err := n.worktreeSides(headTree, idx, path, staged)
		if err != nil {
			return "", err
		}
		diffs = append(diffs, localChange{path: path, from: from, to: to})
	}
	return renderLocalDiff(diffs)
}

// worktreeSides returns HEAD and index content for staged changes, index and
// disk content otherwise. A nil side does not exist.
func (n *nativeRepo) worktreeSides(headTree *object.Tree, idx *gitindex.Index, path string, staged bool) (from, to []byte, err error) {
	indexFile, err := n.fileFromIndex(idx, path)
	if err != nil {
		return nil, nil, err
	}
	indexData, err := fileContents(indexFile)
	if err != nil {
		return nil, nil, err
	}
	if indexFile != nil && indexData == nil {
		indexData = []byte{}
	}
	if staged {
		headFile, err := fileFromTree(headTree, path)
		if err != nil {
			return nil, nil, err
		}
		headData, err := fileContents(headFile)
		if err != nil {
			return nil, nil, err
		}
		if headFile != nil && headData == nil {
			headData = []byte{}
		}
		return headData, indexData, nil
	}
	diskData, ok, err := n.readDisk(path)
	if err != nil {
		return nil, nil, err
	}
	if ok && diskData == nil {
		diskData = []byte{}
	}
	return indexData, diskData, nil
}

func renderLocalDiff(diffs []localChange) (string, error) {
	var b strings.Builder
	for _, d := range diffs {
		fromName, toName := "a/"+d.path, "b/"+d.path
		fmt.Fprintf(&b, "diff --git %s %s\n", fromName, toName)
		switch {
		case d.from == nil:
			b.WriteString("new file mode 100644\n")
			fromName = "/dev/null"
		case d.to == nil:
			b.WriteString("deleted file mode 100644\n")
			toName = "/dev/null"
		}
		if isBinary(d.from) || isBinary(d.to) {
			fmt.Fprintf(&b, "Binary files %s and %s differ\n", fromName, toName)
			continue
		}
		writeHunks(&b, fromName, toName, diffLines(d.from), diffLines(d.to))
	}
	return b.String(), nil
}

// diffLines splits data after each newline. A last line without a newline
// keeps no terminator, so it never matches the same text with one.
func diffLines(data []byte) []string {
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// writeHunks renders git-style hunks with 3 lines of context.
func writeHunks(b *strings.Builder, fromName, toName string, a, c []string) {
	groups := difflib.NewMatcher(a, c).GetGroupedOpCodes(3)
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(b, "--- %s\n+++ %s\n", fromName, toName)
	for _, g := range groups {
		first, last := g[0], g[len(g)-1]
		fmt.Fprintf(b, "@@ -%s +%s @@\n", hunkRange(first.I1, last.I2), hunkRange(first.J1, last.J2))
		for _, op := range g {
			switch op.Tag {
			case 'e':
				writeDiffLines(b, ' ', a[op.I1:op.I2])
			case 'd':
				writeDiffLines(b, '-', a[op.I1:op.I2])
			case 'i':
				writeDiffLines(b, '+', c[op.J1:op.J2])
			case 'r':
				writeDiffLines(b, '-', a[op.I1:op.I2])
				writeDiffLines(b, '+', c[op.J1:op.J2])
			}
		}
	}
}

func writeDiffLines(b *strings.Builder, prefix byte, lines []string) {
	for _, line := range lines {
		b.WriteByte(prefix)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// hunkRange formats a 0-based half-open range the way git does.
func hunkRange(start, stop int) string {
	n := stop - start
	switch n {
	case 0:
		return fmt.Sprintf("%d,0", start)
	case 1:
		return fmt.Sprintf("%d", start+1)
	default:
		return fmt.Sprintf("%d,%d", start+1, n)
	}
}

func (n *nativeRepo) DiffFileText(target DiffTarget) (*FileText, error) {
	if !target.SupportsFilePreview() {
		return nil, &Error{Op: "file preview", Message: "target has no path"}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if target.Kind == DiffCommit {
		ft, err := n.commitFileText(target)
		return ft, nativeError("file preview", err)
	}
	idx, err := n.repo.Storer.Index()
	if err != nil {
		return nil, nativeError("file preview", err)
	}
	headTree, err := n.headTree()
	if err != nil {
		return nil, nativeError("file preview", err)
	}
	from, to, err := n.worktreeSides(headTree, idx, target.Path, target.Area == AreaStaged)
	if err != nil {
		return nil, nativeError("file preview", err)
	}
	return newFileText(target.Path, from, to, from != nil, to != nil), nil
}

func (n *nativeRepo) commitFileText(target DiffTarget) (*FileText, error) {
	c, err := n.resolveCommit(target.Commit)
	if err != nil {
		return nil, err
	}
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
	oldFile, err := fileFromTree(parentTree, target.Path)
	if err != nil {
		return nil, err
	}
	newFile, err := fileFromTree(tree, target.Path)
	if err != nil {
		return nil, err
	}
	oldData, err := fileContents(oldFile)
	if err != nil {
		return nil, err
	}
	newData, err := fileContents(newFile)
	if err != nil {
		return nil, err
	}
	return newFileText(target.Path, oldData, newData, oldFile != nil, newFile != nil), nil
}
