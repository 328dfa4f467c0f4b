package backend

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// backendsUnderTest returns every backend that can run here. The CLI backend
// needs a git executable on PATH.
func backendsUnderTest(t *testing.T) map[Kind]Factory {
	t.Helper()
	factories := map[Kind]Factory{KindNative: OpenNative}
	if _, err := exec.LookPath("git"); err == nil {
		factories[KindCLI] = OpenCLI
	}
	return factories
}

func newTestRepo(t *testing.T) (string, *gitlib.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	writeFile(t, dir, "main.go", "package main\n")
	commitAll(t, repo, "initial commit")
	return dir, repo
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func commitAll(t *testing.T, repo *gitlib.Repository, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := wt.AddGlob("."); err != nil {
		t.Fatalf("AddGlob: %v", err)
	}
	sig := &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}
	if _, err := wt.Commit(msg, &gitlib.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func hasStatus(files []FileStatus, path string, kind FileStatusKind) bool {
	for _, f := range files {
		if f.Path == path && f.Kind == kind {
			return true
		}
	}
	return false
}

func TestRepositoryStatusAndStaging(t *testing.T) {
	t.Parallel()

	for kind, open := range backendsUnderTest(t) {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			dir, _ := newTestRepo(t)
			r, err := open(dir)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
			writeFile(t, dir, "notes.txt", "new content\n")

			st, err := r.Status()
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if !hasStatus(st.Unstaged, "main.go", FileModified) || !hasStatus(st.Unstaged, "notes.txt", FileUntracked) {
				t.Fatalf("unexpected unstaged status: %+v", st.Unstaged)
			}
			if st.HasStaged() {
				t.Fatalf("unexpected staged changes: %+v", st.Staged)
			}

			if _, err := r.Stage([]string{"notes.txt"}); err != nil {
				t.Fatalf("Stage: %v", err)
			}
			st, err = r.Status()
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if !hasStatus(st.Staged, "notes.txt", FileAdded) {
				t.Fatalf("notes.txt not staged: %+v", st)
			}

			diff, err := r.DiffUnified(WorkingTreeTarget("notes.txt", AreaStaged))
			if err != nil {
				t.Fatalf("DiffUnified: %v", err)
			}
			if !strings.Contains(diff, "+new content") {
				t.Fatalf("staged diff missing added line:\n%s", diff)
			}

			if _, err := r.Unstage([]string{"notes.txt"}); err != nil {
				t.Fatalf("Unstage: %v", err)
			}
			st, err = r.Status()
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if st.HasStaged() {
				t.Fatalf("expected nothing staged after unstage: %+v", st.Staged)
			}
		})
	}
}

func TestRepositoryFileText(t *testing.T) {
	t.Parallel()

	for kind, open := range backendsUnderTest(t) {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			dir, _ := newTestRepo(t)
			r, err := open(dir)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

			ft, err := r.DiffFileText(WorkingTreeTarget("main.go", AreaUnstaged))
			if err != nil {
				t.Fatalf("DiffFileText: %v", err)
			}
			if ft.Old != "package main\n" || ft.New != "package main\n\nfunc main() {}\n" {
				t.Fatalf("unexpected sides: old=%q new=%q", ft.Old, ft.New)
			}
			if !ft.OldExists || !ft.NewExists || ft.Binary {
				t.Fatalf("unexpected flags: %+v", ft)
			}
			if ft.Language != "Go" {
				t.Fatalf("Language = %q, want Go", ft.Language)
			}

			if _, err := r.DiffFileText(WorkingTreeTarget("", AreaUnstaged)); err == nil {
				t.Fatal("expected error for target without path")
			}
		})
	}
}

func TestRepositoryCommitAndLog(t *testing.T) {
	t.Parallel()

	for kind, open := range backendsUnderTest(t) {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			dir, _ := newTestRepo(t)
			r, err := open(dir)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			writeFile(t, dir, "lib.go", "package main\n")
			if _, err := r.Stage([]string{"lib.go"}); err != nil {
				t.Fatalf("Stage: %v", err)
			}
			if _, err := r.Commit("add lib\n\nbody"); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			first, err := r.LogPage(ScopeCurrentBranch, 1, nil)
			if err != nil {
				t.Fatalf("LogPage: %v", err)
			}
			if len(first.Commits) != 1 || first.Commits[0].Summary != "add lib" {
				t.Fatalf("unexpected first page: %+v", first.Commits)
			}
			if first.NextCursor == nil {
				t.Fatal("expected a next cursor")
			}
			second, err := r.LogPage(ScopeCurrentBranch, 1, first.NextCursor)
			if err != nil {
				t.Fatalf("LogPage: %v", err)
			}
			if len(second.Commits) != 1 || second.Commits[0].Summary != "initial commit" {
				t.Fatalf("unexpected second page: %+v", second.Commits)
			}
			if second.NextCursor != nil {
				t.Fatalf("expected last page, got cursor %+v", second.NextCursor)
			}

			details, err := r.CommitDetails(first.Commits[0].ID)
			if err != nil {
				t.Fatalf("CommitDetails: %v", err)
			}
			if details.Message != "add lib\n\nbody" {
				t.Fatalf("Message = %q", details.Message)
			}
			if len(details.Files) != 1 || details.Files[0].Path != "lib.go" || details.Files[0].Kind != FileAdded {
				t.Fatalf("unexpected files: %+v", details.Files)
			}

			diff, err := r.DiffUnified(CommitTarget(first.Commits[0].ID, ""))
			if err != nil {
				t.Fatalf("DiffUnified: %v", err)
			}
			if !strings.Contains(diff, "lib.go") {
				t.Fatalf("commit diff missing file:\n%s", diff)
			}
			root, err := r.DiffUnified(CommitTarget(second.Commits[0].ID, ""))
			if err != nil {
				t.Fatalf("DiffUnified root: %v", err)
			}
			if !strings.Contains(root, "+package main") {
				t.Fatalf("root diff missing content:\n%s", root)
			}
		})
	}
}

func TestRepositoryBranches(t *testing.T) {
	t.Parallel()

	for kind, open := range backendsUnderTest(t) {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			dir, _ := newTestRepo(t)
			r, err := open(dir)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			start, err := r.CurrentBranch()
			if err != nil {
				t.Fatalf("CurrentBranch: %v", err)
			}
			if _, err := r.CreateBranch("feature", ""); err != nil {
				t.Fatalf("CreateBranch: %v", err)
			}
			if _, err := r.CreateBranch("feature", ""); err == nil {
				t.Fatal("expected error creating duplicate branch")
			}
			branches, err := r.ListBranches()
			if err != nil {
				t.Fatalf("ListBranches: %v", err)
			}
			if len(branches) != 2 {
				t.Fatalf("got %d branches, want 2: %+v", len(branches), branches)
			}
			if _, err := r.CheckoutBranch("feature"); err != nil {
				t.Fatalf("CheckoutBranch: %v", err)
			}
			if cur, _ := r.CurrentBranch(); cur != "feature" {
				t.Fatalf("CurrentBranch = %q, want feature", cur)
			}
			if _, err := r.DeleteBranch("feature"); err == nil {
				t.Fatal("expected error deleting the checked out branch")
			}
			if _, err := r.CheckoutBranch(start); err != nil {
				t.Fatalf("CheckoutBranch: %v", err)
			}
			if _, err := r.DeleteBranch("feature"); err != nil {
				t.Fatalf("DeleteBranch: %v", err)
			}
			branches, err = r.ListBranches()
			if err != nil {
				t.Fatalf("ListBranches: %v", err)
			}
			if len(branches) != 1 || branches[0].Name != start {
				t.Fatalf("unexpected branches: %+v", branches)
			}
		})
	}
}

func TestNativeUnsupported(t *testing.T) {
	t.Parallel()

	dir, _ := newTestRepo(t)
	r, err := OpenNative(dir)
	if err != nil {
		t.Fatalf("OpenNative: %v", err)
	}
	if _, err := r.StashList(); !IsUnsupported(err) {
		t.Fatalf("StashList error = %v, want unsupported", err)
	}
	if _, err := r.ReflogHead(10); !IsUnsupported(err) {
		t.Fatalf("ReflogHead error = %v, want unsupported", err)
	}
	if _, err := r.ApplyPatch("diff", PatchIndex, false); !IsUnsupported(err) {
		t.Fatalf("ApplyPatch error = %v, want unsupported", err)
	}
	if _, err := r.Pull(PullRebase); !IsUnsupported(err) {
		t.Fatalf("Pull error = %v, want unsupported", err)
	}
	if _, err := r.UpstreamDivergence(); !IsUnsupported(err) {
		t.Fatalf("UpstreamDivergence error = %v, want unsupported", err)
	}
}

func TestCLIStashAndApplyPatch(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir, _ := newTestRepo(t)
	r, err := OpenCLI(dir)
	if err != nil {
		t.Fatalf("OpenCLI: %v", err)
	}

	writeFile(t, dir, "main.go", "package main\n// wip\n")
	if _, err := r.StashCreate("wip", false); err != nil {
		t.Fatalf("StashCreate: %v", err)
	}
	stashes, err := r.StashList()
	if err != nil {
		t.Fatalf("StashList: %v", err)
	}
	if len(stashes) != 1 || stashes[0].Index != 0 || !strings.Contains(stashes[0].Message, "wip") {
		t.Fatalf("unexpected stashes: %+v", stashes)
	}
	if _, err := r.StashApply(0); err != nil {
		t.Fatalf("StashApply: %v", err)
	}
	if _, err := r.StashDrop(0); err != nil {
		t.Fatalf("StashDrop: %v", err)
	}

	diff, err := r.DiffUnified(WorkingTreeTarget("main.go", AreaUnstaged))
	if err != nil {
		t.Fatalf("DiffUnified: %v", err)
	}
	if _, err := r.ApplyPatch(diff, PatchIndex, false); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !hasStatus(st.Staged, "main.go", FileModified) || st.HasWorktree() {
		t.Fatalf("unexpected status after apply: %+v", st)
	}

	if _, err := r.Commit("wip commit"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	reflog, err := r.ReflogHead(5)
	if err != nil {
		t.Fatalf("ReflogHead: %v", err)
	}
	if len(reflog) == 0 || reflog[0].Message != "commit: wip commit" {
		t.Fatalf("unexpected reflog: %+v", reflog)
	}
}

func TestCLIRejectsNonRepository(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, err := OpenCLI(t.TempDir())
	if err == nil {
		t.Fatal("expected error opening a plain directory")
	}
	if KindOf(err) != KindBackend {
		t.Fatalf("KindOf = %v, want backend", KindOf(err))
	}
}
