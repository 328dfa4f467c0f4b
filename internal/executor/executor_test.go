package executor

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thiagokokada/gitdeck/internal/effect"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/git/backend/backendtest"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/session"
	"github.com/thiagokokada/gitdeck/internal/state"
)

type handleMap map[state.RepoID]backend.Repository

func (m handleMap) Handle(id state.RepoID) (backend.Repository, bool) {
	h, ok := m[id]
	return h, ok
}

type recorder struct {
	mu   sync.Mutex
	msgs []msg.Msg
}

func (r *recorder) send(m msg.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) all() []msg.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]msg.Msg(nil), r.msgs...)
}

type persisterFunc func(session.Session) error

func (f persisterFunc) Persist(s session.Session) error { return f(s) }

func TestDefaultWorkers(t *testing.T) {
	t.Parallel()

	if got := DefaultWorkers(); got < 1 || got > 8 {
		t.Fatalf("got %d, want within [1, 8]", got)
	}
	p := NewPool(0)
	defer p.Close()
	if p.Size() != DefaultWorkers() {
		t.Fatalf("got pool size %d, want %d", p.Size(), DefaultWorkers())
	}
}

func TestPoolRunsJobsConcurrently(t *testing.T) {
	t.Parallel()

	p := NewPool(4)
	var running, peak atomic.Int32
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(4)
	for range 4 {
		p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			started.Done()
			<-release
			running.Add(-1)
		})
	}
	started.Wait()
	close(release)
	p.Close()
	if got := peak.Load(); got != 4 {
		t.Fatalf("got peak concurrency %d, want 4", got)
	}
}

func TestPoolSurvivesPanics(t *testing.T) {
	t.Parallel()

	p := NewPool(1)
	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Close()
	if !ran.Load() {
		t.Fatal("job after panic did not run")
	}
	if p.Submit(func() {}) {
		t.Fatal("submit after close accepted")
	}
}

func TestScheduleLoads(t *testing.T) {
	t.Parallel()

	fake := &backendtest.Fake{
		CurrentBranchFunc: func() (string, error) { return "feature", nil },
		StatusFunc: func() (backend.RepoStatus, error) {
			return backend.RepoStatus{}, errors.New("status failed")
		},
		LogPageFunc: func(scope backend.HistoryScope, limit int, cursor *backend.LogCursor) (backend.LogPage, error) {
			return backend.LogPage{Commits: make([]backend.Commit, limit)}, nil
		},
	}
	rec := &recorder{}
	ex := New(handleMap{1: fake}, rec.send, Options{Workers: 2})
	cursor := &backend.LogCursor{Offset: 10}
	ex.Schedule([]effect.Effect{
		effect.LoadHeadBranch{Repo: 1},
		effect.LoadStatus{Repo: 1},
		effect.LoadLog{Repo: 1, Scope: backend.ScopeAllBranches, Limit: 3, Cursor: cursor},
		effect.LoadStatus{Repo: 2},
	})
	ex.Close()

	msgs := rec.all()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3: %#v", len(msgs), msgs)
	}
	for _, m := range msgs {
		switch m := m.(type) {
		case msg.HeadBranchLoaded:
			if m.Branch != "feature" || m.Err != nil {
				t.Fatalf("got %#v", m)
			}
		case msg.StatusLoaded:
			if m.Err == nil {
				t.Fatal("status error not carried")
			}
		case msg.LogLoaded:
			if m.Scope != backend.ScopeAllBranches || m.Cursor != cursor || len(m.Page.Commits) != 3 {
				t.Fatalf("got %#v", m)
			}
		default:
			t.Fatalf("unexpected message %T", m)
		}
	}
}

func TestScheduleMutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		effect     effect.Mutation
		wantMethod string
		wantArgs   []any
	}{
		{name: "stage", effect: effect.Stage{Repo: 1, Paths: []string{"a"}}, wantMethod: "Stage", wantArgs: []any{[]string{"a"}}},
		{
			name:       "unstage hunk",
			effect:     effect.ApplyPatch{Repo: 1, Patch: "p", Target: backend.PatchIndex, Reverse: true},
			wantMethod: "ApplyPatch",
			wantArgs:   []any{"p", backend.PatchIndex, true},
		},
		{name: "pull", effect: effect.Pull{Repo: 1, Mode: backend.PullRebase}, wantMethod: "Pull", wantArgs: []any{backend.PullRebase}},
		{name: "stash drop", effect: effect.StashDrop{Repo: 1, Index: 2}, wantMethod: "StashDrop", wantArgs: []any{2}},
		{
			name:       "create branch",
			effect:     effect.CreateBranch{Repo: 1, Name: "topic", Target: "abc"},
			wantMethod: "CreateBranch",
			wantArgs:   []any{"topic", backend.CommitID("abc")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var gotMethod string
			var gotArgs []any
			fake := &backendtest.Fake{
				MutateFunc: func(method string, args ...any) (backend.CommandOutput, error) {
					gotMethod, gotArgs = method, args
					return backend.CommandOutput{Command: "git " + method, Stdout: "ok"}, nil
				},
			}
			rec := &recorder{}
			ex := New(handleMap{1: fake}, rec.send, Options{Workers: 1})
			ex.Schedule([]effect.Effect{tt.effect})
			ex.Close()

			if gotMethod != tt.wantMethod || !reflect.DeepEqual(gotArgs, tt.wantArgs) {
				t.Fatalf("got %s%v, want %s%v", gotMethod, gotArgs, tt.wantMethod, tt.wantArgs)
			}
			msgs := rec.all()
			if len(msgs) != 1 {
				t.Fatalf("got %d messages, want 1", len(msgs))
			}
			done, ok := msgs[0].(msg.RepoActionFinished)
			if !ok || done.Action != tt.effect.Action() || done.Output.Stdout != "ok" || done.Err != nil {
				t.Fatalf("got %#v", msgs[0])
			}
		})
	}
}

func TestScheduleOpenAndPersist(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	saved := make(chan session.Session, 1)
	fake := &backendtest.Fake{Dir: "/work/a"}
	ex := New(handleMap{}, rec.send, Options{
		Workers: 1,
		Open: func(path string) (backend.Repository, error) {
			if path == "/bad" {
				return nil, errors.New("not a repository")
			}
			return fake, nil
		},
		Persister: persisterFunc(func(s session.Session) error {
			saved <- s
			return errors.New("disk full")
		}),
	})
	ex.Schedule([]effect.Effect{
		effect.OpenRepo{Repo: 1, Path: "/work/a"},
		effect.OpenRepo{Repo: 2, Path: "/bad"},
		effect.PersistSession{Paths: []string{"/work/a"}, ActivePath: "/work/a"},
	})
	ex.Close()

	select {
	case s := <-saved:
		if s.Active != "/work/a" || len(s.Repos) != 1 {
			t.Fatalf("got session %#v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("session not persisted")
	}
	msgs := rec.all()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	ok := msgs[0].(msg.RepoOpened)
	if ok.Repo != 1 || ok.Handle != fake || ok.Err != nil {
		t.Fatalf("got %#v", ok)
	}
	bad := msgs[1].(msg.RepoOpened)
	if bad.Repo != 2 || bad.Err == nil {
		t.Fatalf("got %#v", bad)
	}
}

func TestSchedulePersistsInOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var saved []session.Session
	ex := New(handleMap{}, func(msg.Msg) {}, Options{
		Workers: 4,
		Persister: persisterFunc(func(s session.Session) error {
			mu.Lock()
			first := len(saved) == 0
			mu.Unlock()
			if first && len(s.Repos) == 1 {
				time.Sleep(100 * time.Millisecond)
			}
			mu.Lock()
			saved = append(saved, s)
			mu.Unlock()
			return nil
		}),
	})
	ex.Schedule([]effect.Effect{effect.PersistSession{Paths: []string{"/a"}, ActivePath: "/a"}})
	ex.Schedule([]effect.Effect{effect.PersistSession{Paths: []string{"/a", "/b"}, ActivePath: "/b"}})
	ex.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(saved) != 2 {
		t.Fatalf("got %d writes, want 2", len(saved))
	}
	want := session.Session{Repos: []string{"/a", "/b"}, Active: "/b"}
	if got := saved[len(saved)-1]; !reflect.DeepEqual(got, want) {
		t.Fatalf("last write = %#v, want %#v", got, want)
	}
}

func TestScheduleCapturesHandle(t *testing.T) {
	t.Parallel()

	handles := handleMap{1: &backendtest.Fake{}}
	rec := &recorder{}
	release := make(chan struct{})
	ex := New(handles, rec.send, Options{Workers: 1})
	ex.pool.Submit(func() { <-release })
	ex.Schedule([]effect.Effect{effect.LoadBranches{Repo: 1}})
	delete(handles, 1)
	close(release)
	ex.Close()

	if msgs := rec.all(); len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
}
