package backend

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseStatusPorcelainV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want RepoStatus
	}{
		{name: "empty", in: "", want: RepoStatus{}},
		{
			name: "worktree_only",
			in:   "1 .M N... 100644 100644 100644 abcdef0 abcdef0 path.txt\n",
			want: RepoStatus{Unstaged: []FileStatus{{Path: "path.txt", Kind: FileModified}}},
		},
		{
			name: "staged_only",
			in:   "1 A. N... 000000 100644 100644 0000000 abcdef0 new.txt\n",
			want: RepoStatus{Staged: []FileStatus{{Path: "new.txt", Kind: FileAdded}}},
		},
		{
			name: "both",
			in:   "1 MD N... 100644 100644 000000 abcdef0 abcdef0 path with space.txt\n",
			want: RepoStatus{
				Staged:   []FileStatus{{Path: "path with space.txt", Kind: FileModified}},
				Unstaged: []FileStatus{{Path: "path with space.txt", Kind: FileDeleted}},
			},
		},
		{
			name: "rename",
			in:   "2 R. N... 100644 100644 100644 abcdef0 abcdef0 R100 new.go\told.go\n",
			want: RepoStatus{Staged: []FileStatus{{Path: "new.go", OrigPath: "old.go", Kind: FileRenamed}}},
		},
		{
			name: "unmerged",
			in:   "u UU N... 100644 100644 100644 100644 abcdef0 abcdef0 abcdef0 conflict.txt\n",
			want: RepoStatus{Unstaged: []FileStatus{{Path: "conflict.txt", Kind: FileConflicted}}},
		},
		{
			name: "untracked",
			in:   "? untracked.txt\n",
			want: RepoStatus{Unstaged: []FileStatus{{Path: "untracked.txt", Kind: FileUntracked}}},
		},
		{
			name: "ignored_and_headers",
			in:   "# branch.oid abc\n! ignored.txt\n",
			want: RepoStatus{},
		},
		{
			name: "short_lines_ignored",
			in:   "1\n1 .\n1 .M\n?\n",
			want: RepoStatus{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseStatusPorcelainV2(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("parseStatusPorcelainV2() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseStatusPorcelainV2() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseStatusPorcelainV2_Error(t *testing.T) {
	t.Parallel()

	_, err := parseStatusPorcelainV2(failingReader{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRefsFromShowRef(t *testing.T) {
	t.Parallel()

	const (
		commit1 = "1111111111111111111111111111111111111111"
		commit2 = "2222222222222222222222222222222222222222"
		tagObj  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	)

	in := strings.Join([]string{
		commit1 + " refs/heads/main",
		commit1 + " refs/remotes/origin/main",
		commit1 + " refs/remotes/origin/HEAD",
		commit2 + " refs/tags/v1.0",
		tagObj + " refs/tags/v2.0",
		commit1 + " refs/tags/v2.0^{}",
		commit2 + " refs/stash",
		"",
	}, "\n")

	got, err := parseRefsFromShowRef(in)
	if err != nil {
		t.Fatalf("parseRefsFromShowRef() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("unexpected ref count: got %d want 5", len(got))
	}

	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindBranch, Name: "main"})
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindRemoteBranch, Name: "origin/main"})
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindRemoteBranch, Name: "origin/HEAD"})
	assertHasRef(t, got, Ref{Hash: commit2, Kind: RefKindTag, Name: "v1.0"})
	// v2.0 should use the peeled hash.
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindTag, Name: "v2.0"})
}

func TestParseRefsFromShowRef_InvalidLine(t *testing.T) {
	t.Parallel()

	_, err := parseRefsFromShowRef("refs/heads/main\n")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseGitLogRecord(t *testing.T) {
	t.Parallel()

	rec := bytes.Join([][]byte{
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb cccccccccccccccccccccccccccccccccccccccc"),
		[]byte("Alice"),
		[]byte("alice@example.com"),
		[]byte("2024-01-02T03:04:05Z"),
		[]byte("Bob"),
		[]byte("bob@example.com"),
		[]byte("2024-01-02T03:05:06Z"),
		[]byte("Subject line\n\nBody line\n"),
	}, []byte("\n"))

	rec2, err := parseGitLogRecord(rec)
	if err != nil {
		t.Fatalf("parseGitLogRecord: %v", err)
	}
	commit := rec2.commit()
	if commit.ID != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Fatalf("unexpected hash: %q", commit.ID)
	}
	wantParents := []CommitID{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "cccccccccccccccccccccccccccccccccccccccc"}
	if !reflect.DeepEqual(commit.ParentIDs, wantParents) {
		t.Fatalf("unexpected parents: %#v", commit.ParentIDs)
	}
	if commit.Author.Name != "Alice" || commit.Author.Email != "alice@example.com" {
		t.Fatalf("unexpected author: %#v", commit.Author)
	}
	if commit.Committer.Name != "Bob" || commit.Committer.Email != "bob@example.com" {
		t.Fatalf("unexpected committer: %#v", commit.Committer)
	}
	if !commit.Author.When.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected author time: %v", commit.Author.When)
	}
	if !commit.Committer.When.Equal(time.Date(2024, 1, 2, 3, 5, 6, 0, time.UTC)) {
		t.Fatalf("unexpected committer time: %v", commit.Committer.When)
	}
	if rec2.message != "Subject line\n\nBody line\n" {
		t.Fatalf("unexpected message: %q", rec2.message)
	}
	if commit.Summary != "Subject line" {
		t.Fatalf("unexpected summary: %q", commit.Summary)
	}
}

func TestParseGitLogRecord_EmptyMessage(t *testing.T) {
	t.Parallel()

	rec := []byte("h\n\nan\nae\n2024-01-02T03:04:05Z\ncn\nce\n2024-01-02T03:04:05Z\n")
	got, err := parseGitLogRecord(rec)
	if err != nil {
		t.Fatalf("parseGitLogRecord: %v", err)
	}
	if got.message != "" {
		t.Fatalf("expected empty message, got %q", got.message)
	}
	if len(got.parents) != 0 {
		t.Fatalf("expected no parents, got %v", got.parents)
	}
}

func TestParseGitLogRecord_ShortRecord(t *testing.T) {
	t.Parallel()

	_, err := parseGitLogRecord([]byte("only\ntwo\nlines"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseGitLogRecords(t *testing.T) {
	t.Parallel()

	one := "1111\n\nA\na@x\n2024-01-02T03:04:05Z\nA\na@x\n2024-01-02T03:04:05Z\nfirst\n"
	two := "2222\n1111\nB\nb@x\n2024-01-03T03:04:05Z\nB\nb@x\n2024-01-03T03:04:05Z\nsecond\n"
	out := []byte(two + "\x00\n" + one + "\x00")

	got, err := parseGitLogRecords(out)
	if err != nil {
		t.Fatalf("parseGitLogRecords: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].hash != "2222" || got[1].hash != "1111" {
		t.Fatalf("unexpected order: %q, %q", got[0].hash, got[1].hash)
	}
	if got[0].commit().Summary != "second" {
		t.Fatalf("unexpected summary: %q", got[0].commit().Summary)
	}
}

func TestParseNameStatus(t *testing.T) {
	t.Parallel()

	in := "M\tmain.go\nA\tnew.go\nD\tgone.go\nR087\told.go\trenamed.go\n\n"
	want := []CommitFileChange{
		{Path: "main.go", Kind: FileModified},
		{Path: "new.go", Kind: FileAdded},
		{Path: "gone.go", Kind: FileDeleted},
		{Path: "renamed.go", Kind: FileRenamed},
	}
	if got := parseNameStatus(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("parseNameStatus() = %+v, want %+v", got, want)
	}
}

func TestParseReflogAndStash(t *testing.T) {
	t.Parallel()

	reflog := parseReflog("aaa" + fieldSep + "HEAD@{0}" + fieldSep + "commit: second\n" +
		"bbb" + fieldSep + "HEAD@{1}" + fieldSep + "commit (initial): first\n")
	if len(reflog) != 2 || reflog[1].Index != 1 || reflog[1].NewID != "bbb" || reflog[0].Message != "commit: second" {
		t.Fatalf("unexpected reflog: %+v", reflog)
	}

	stashes := parseStashList("stash@{0}" + fieldSep + "ccc" + fieldSep + "On main: wip\n" +
		"stash@{x}" + fieldSep + "ddd" + fieldSep + "broken\n" +
		"stash@{1}" + fieldSep + "eee" + fieldSep + "WIP on main: abc subject\n")
	want := []StashEntry{
		{Index: 0, ID: "ccc", Message: "On main: wip"},
		{Index: 1, ID: "eee", Message: "WIP on main: abc subject"},
	}
	if !reflect.DeepEqual(stashes, want) {
		t.Fatalf("parseStashList() = %+v, want %+v", stashes, want)
	}
}

func TestParseRemotes(t *testing.T) {
	t.Parallel()

	in := "origin\tgit@example.com:a/b.git (fetch)\norigin\tgit@example.com:a/b.git (push)\n" +
		"upstream\thttps://example.com/c/d.git (fetch)\nupstream\thttps://example.com/c/d.git (push)\n"
	want := []Remote{
		{Name: "origin", URL: "git@example.com:a/b.git"},
		{Name: "upstream", URL: "https://example.com/c/d.git"},
	}
	if got := parseRemotes(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("parseRemotes() = %+v, want %+v", got, want)
	}
}

func TestParseLeftRightCount(t *testing.T) {
	t.Parallel()

	got, err := parseLeftRightCount("3\t5\n")
	if err != nil {
		t.Fatalf("parseLeftRightCount: %v", err)
	}
	if got != (UpstreamDivergence{Ahead: 3, Behind: 5}) {
		t.Fatalf("got %+v", got)
	}
	if _, err := parseLeftRightCount("3\n"); err == nil {
		t.Fatal("expected error for single field")
	}
}

func TestParseBranchUpstreams(t *testing.T) {
	t.Parallel()

	got := parseBranchUpstreams("main" + fieldSep + "origin/main\nfeature" + fieldSep + "\n")
	if len(got) != 1 || got["main"] != "origin/main" {
		t.Fatalf("parseBranchUpstreams() = %v", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}

func assertHasRef(t *testing.T, refs []Ref, want Ref) {
	t.Helper()
	for _, got := range refs {
		if got == want {
			return
		}
	}
	t.Fatalf("missing ref: %+v (got=%+v)", want, refs)
}
