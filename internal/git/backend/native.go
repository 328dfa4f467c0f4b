package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// nativeRepo implements Repository in process with go-git. Capabilities go-git
// lacks are reported with Unsupported errors.
type nativeRepo struct {
	mu   sync.Mutex
	repo *gitlib.Repository
	path string
}

// OpenNative opens the repository containing repoPath with go-git.
func OpenNative(repoPath string) (Repository, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, ioError("open repository", err)
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, backendError("open repository", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, backendError("open repository", err)
	}
	return &nativeRepo{repo: repo, path: wt.Filesystem.Root()}, nil
}

func (n *nativeRepo) Workdir() string {
	if n == nil {
		return ""
	}
	return n.path
}

// headCommit returns the commit HEAD points at, or nil for an unborn branch.
func (n *nativeRepo) headCommit() (*object.Commit, error) {
	ref, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n.repo.CommitObject(ref.Hash())
}

func (n *nativeRepo) headTree() (*object.Tree, error) {
	commit, err := n.headCommit()
	if err != nil || commit == nil {
		return nil, err
	}
	return commit.Tree()
}

func (n *nativeRepo) resolveCommit(id CommitID) (*object.Commit, error) {
	hash, err := n.repo.ResolveRevision(plumbing.Revision(id))
	if err != nil {
		return nil, err
	}
	return n.repo.CommitObject(*hash)
}

func (n *nativeRepo) peelTagCommitHash(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := n.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		if tag.TargetType == plumbing.CommitObject {
			return tag.Target, true
		}
		if tag.TargetType != plumbing.TagObject {
			return plumbing.ZeroHash, false
		}
		cur = tag.Target
	}
	return plumbing.ZeroHash, false
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (n *nativeRepo) fileFromIndex(idx *gitindex.Index, path string) (*object.File, error) {
	if idx == nil {
		return nil, nil
	}
	entry, err := idx.Entry(path)
	if errors.Is(err, gitindex.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := object.GetBlob(n.repo.Storer, entry.Hash)
	if err != nil {
		return nil, err
	}
	return object.NewFile(entry.Name, entry.Mode, blob), nil
}

func fileContents(f *object.File) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (n *nativeRepo) readDisk(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(n.path, path))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func encodeUnifiedPatch(filePatches []fdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := enc.Encode(filePatchSet{patches: filePatches}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type filePatchSet struct {
	patches []fdiff.FilePatch
}

func (f filePatchSet) FilePatches() []fdiff.FilePatch { return f.patches }
func (filePatchSet) Message() string                  { return "" }

func filePatchPath(fp fdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil && to.Path() != "" {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

func nativeOutput(command, stdout string) CommandOutput {
	return CommandOutput{Command: command, Stdout: stdout}
}

func nativeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return backendError(op, fmt.Errorf("go-git: %w", err))
}
