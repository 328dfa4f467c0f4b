package backend

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func (g *gitCLI) DiffUnified(target DiffTarget) (string, error) {
	switch target.Kind {
	case DiffCommit:
		return g.commitDiffText(target.Commit, target.Path)
	case DiffWorkingTree:
		if target.Area == AreaStaged {
			return g.runGitCommand(pathArgs([]string{"diff", "--no-color", "--cached"}, optionalPath(target.Path)), true, "git diff")
		}
		out, err := g.runGitCommand(pathArgs([]string{"diff", "--no-color"}, optionalPath(target.Path)), true, "git diff")
		if err != nil || out != "" || target.Path == "" {
			return out, err
		}
		untracked, err := g.isUntracked(target.Path)
		if err != nil || !untracked {
			return out, err
		}
		// Untracked files have no index entry to diff against.
		return g.runGitCommand(
			[]string{"diff", "--no-color", "--no-index", "--", os.DevNull, target.Path},
			true,
			"git diff",
		)
	default:
		return "", &Error{Op: "diff", Message: "unknown diff target"}
	}
}

func (g *gitCLI) commitDiffText(id CommitID, path string) (string, error) {
	rev, err := requireName("git diff", "commit", string(id))
	if err != nil {
		return "", err
	}
	parent, err := g.resolve(rev + "^")
	if err != nil {
		return "", err
	}
	if parent == "" {
		return g.runGitCommand(
			pathArgs([]string{"show", "--no-color", "--pretty=format:", rev}, optionalPath(path)),
			false,
			"git show",
		)
	}
	return g.runGitCommand(
		pathArgs([]string{"diff", "--no-color", parent, rev}, optionalPath(path)),
		true,
		"git diff",
	)
}

func (g *gitCLI) DiffFileText(target DiffTarget) (*FileText, error) {
	if !target.SupportsFilePreview() {
		return nil, &Error{Op: "file preview", Message: "target has no path"}
	}
	path := target.Path
	var oldSpec, newSpec string
	switch {
	case target.Kind == DiffCommit:
		rev, err := requireName("file preview", "commit", string(target.Commit))
		if err != nil {
			return nil, err
		}
		oldSpec, newSpec = rev+"^:"+path, rev+":"+path
	case target.Area == AreaStaged:
		oldSpec, newSpec = "HEAD:"+path, ":"+path
	default:
		oldSpec = ":" + path
	}
	oldData, oldOK, err := g.blob(oldSpec)
	if err != nil {
		return nil, err
	}
	var newData []byte
	var newOK bool
	if newSpec != "" {
		newData, newOK, err = g.blob(newSpec)
	} else {
		newData, newOK, err = g.readWorktreeFile(path)
	}
	if err != nil {
		return nil, err
	}
	return newFileText(path, oldData, newData, oldOK, newOK), nil
}

// blob returns the content named by rev, reporting false when it does not exist.
func (g *gitCLI) blob(rev string) ([]byte, bool, error) {
	hash, err := g.resolve(rev)
	if err != nil || hash == "" {
		return nil, false, err
	}
	out, err := g.runGitCommand([]string{"cat-file", "blob", hash}, false, "git cat-file")
	if err != nil {
		return nil, false, err
	}
	return []byte(out), true, nil
}

// resolve returns the object id for rev, or "" when it does not exist.
func (g *gitCLI) resolve(rev string) (string, error) {
	out, err := g.runGitCommand([]string{"rev-parse", "-q", "--verify", rev}, true, "git rev-parse")
	if err != nil {
		var be *Error
		// rev-parse exits 128 for paths missing from an existing tree.
		if errors.As(err, &be) && be.Kind == KindBackend && strings.Contains(rev, ":") {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *gitCLI) readWorktreeFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(g.path, path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ioError("read worktree file", err)
	}
	return data, true, nil
}

func (g *gitCLI) isUntracked(path string) (bool, error) {
	out, err := g.runGitCommand([]string{"ls-files", "--others", "--exclude-standard", "--", path}, false, "git ls-files")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func optionalPath(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
