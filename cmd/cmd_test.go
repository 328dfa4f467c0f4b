package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/reducer"
	"github.com/thiagokokada/gitdeck/internal/session"
	"github.com/thiagokokada/gitdeck/internal/state"
)

func newRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("main.go"); err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}
	if _, err := wt.Commit("initial commit", &gitlib.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return reducer.NormalizePath(dir)
}

func writeTestConfig(t *testing.T) (configPath, sessionPath string) {
	t.Helper()
	dir := t.TempDir()
	sessionPath = filepath.Join(dir, "session.toml")
	configPath = filepath.Join(dir, "config.toml")
	content := "backend = \"native\"\nworkers = 2\n\n[session]\npath = \"" + filepath.ToSlash(sessionPath) + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, sessionPath
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "gitdeck ") {
		t.Fatalf("got %q, want version line", stdout.String())
	}
}

func TestRunPrintsSummaryAndSavesSession(t *testing.T) {
	repo := newRepo(t)
	if err := os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath, sessionPath := writeTestConfig(t)

	var stdout, stderr bytes.Buffer
	args := []string{"-config", configPath, "-norestore", "-nowatch", "-diff", "-timeout", "20s", repo}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"* " + repo, "history: 1 commits", "unstaged: 1", "main.go +2 -0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	saved, err := session.NewFileStore(sessionPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Repos) != 1 || saved.Repos[0] != repo || saved.Active != repo {
		t.Fatalf("got session %#v", saved)
	}

	// A second run without arguments reopens the saved session.
	stdout.Reset()
	if err := run(context.Background(), []string{"-config", configPath, "-timeout", "20s"}, &stdout, &stderr); err != nil {
		t.Fatalf("restore run: %v", err)
	}
	if !strings.Contains(stdout.String(), "* "+repo) {
		t.Fatalf("restored output missing repo:\n%s", stdout.String())
	}
}

func TestRunReportsOpenFailure(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	notRepo := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-norestore", notRepo}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for a directory that is not a repository")
	}
	if !strings.Contains(stdout.String(), "error:") {
		t.Fatalf("summary missing error:\n%s", stdout.String())
	}
}

func TestRunRejectsInvalidBackend(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-backend", "svn"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("got %v, want unknown backend error", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	ok := state.NewRepoState(1, "/src/ok")
	ok.Open = state.ReadyOf("/src/ok")
	ok.HeadBranch = state.ReadyOf("main")
	ok.UpstreamDivergence = state.ReadyOf(&backend.UpstreamDivergence{Ahead: 2, Behind: 1})
	ok.Branches = state.ReadyOf([]backend.Branch{{Name: "main"}, {Name: "dev"}})
	ok.Tags = state.FailedOf[[]backend.Tag]("boom")
	ok.Status = state.ReadyOf(backend.RepoStatus{Staged: []backend.FileStatus{{Path: "a"}}})
	ok.Log = state.ReadyOf(backend.LogPage{
		Commits:    []backend.Commit{{ID: "0123456789", Summary: "fix things"}},
		NextCursor: &backend.LogCursor{Offset: 1},
	})
	ok.LastError = "push: rejected"

	bad := state.NewRepoState(2, "/src/bad")
	bad.Open = state.FailedOf[string]("not a git repository")

	st := state.AppState{Repos: []*state.RepoState{ok, bad}}
	st.SetActive(1)

	want := `* /src/ok
    head: main (ahead 2, behind 1)
    branches: 2  tags: error: boom  remotes: not loaded  stashes: not loaded
    staged: 1  unstaged: 0
    history: 1+ commits  latest: 0123456 fix things
    last error: push: rejected
  /src/bad
    error: not a git repository
`
	if got := summary(st, newPalette(false)); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSummaryColors(t *testing.T) {
	t.Parallel()

	repo := state.NewRepoState(1, "/src/bad")
	repo.Open = state.FailedOf[string]("boom")
	got := summary(state.AppState{Repos: []*state.RepoState{repo}}, newPalette(true))
	if !strings.Contains(got, "\x1b[31merror: boom\x1b[0m") {
		t.Fatalf("got %q, want red error", got)
	}
}

func TestDiffsLoaded(t *testing.T) {
	t.Parallel()

	repo := func(diff state.LoadState) *state.RepoState {
		r := state.NewRepoState(1, "/src/a")
		r.Open = state.ReadyOf("/src/a")
		r.Diff.State = diff
		return r
	}
	failed := state.NewRepoState(2, "/src/bad")
	failed.Open = state.FailedOf[string]("boom")

	tests := []struct {
		name  string
		repos []*state.RepoState
		want  bool
	}{
		{"not selected yet", []*state.RepoState{repo(state.NotLoaded)}, false},
		{"loading", []*state.RepoState{repo(state.Loading)}, false},
		{"ready", []*state.RepoState{repo(state.Ready)}, true},
		{"failed", []*state.RepoState{repo(state.Failed)}, true},
		{"failed open ignored", []*state.RepoState{repo(state.Ready), failed}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := diffsLoaded(state.AppState{Repos: tt.repos}); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
