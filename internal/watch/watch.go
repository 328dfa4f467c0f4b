// Package watch turns filesystem changes in open repositories into reload
// requests.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitdeck/internal/debounce"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/state"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher dispatches msg.RepoExternallyChanged, debounced per repository,
// when files change in a watched repository.
type Watcher struct {
	fs       *fsnotify.Watcher
	dispatch func(msg.Msg)
	debounce *debounce.Keyed[state.RepoID]

	mu    sync.Mutex
	roots map[state.RepoID]string
	dirs  map[string]state.RepoID
	done  chan struct{}
}

func New(dispatch func(msg.Msg), delay time.Duration) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		dispatch: dispatch,
		roots:    map[state.RepoID]string{},
		dirs:     map[string]state.RepoID{},
		done:     make(chan struct{}),
	}
	w.debounce = debounce.NewKeyed(delay, func(id state.RepoID) {
		slog.Debug("repository changed on disk", slog.Uint64("repo", uint64(id)))
		w.dispatch(msg.RepoExternallyChanged{Repo: id})
	})
	go w.loop()
	return w, nil
}

// Sync watches every open repository in st and stops watching the rest.
func (w *Watcher) Sync(st state.AppState) error {
	want := map[state.RepoID]string{}
	for _, repo := range st.Repos {
		if root, ok := repo.Open.Get(); ok && root != "" {
			want[repo.ID] = root
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for id, root := range w.roots {
		if want[id] != root {
			w.removeLocked(id)
		}
	}
	for id, root := range want {
		if _, ok := w.roots[id]; ok {
			continue
		}
		if err := w.addLocked(id, root); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watched returns the number of watched repositories.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.roots)
}

func (w *Watcher) addLocked(id state.RepoID, root string) error {
	var added []string
	for _, dir := range watchPaths(root) {
		slog.Debug("adding path to FS watcher", slog.String("path", dir))
		if err := w.fs.Add(dir); err != nil {
			for _, d := range added {
				_ = w.fs.Remove(d)
				delete(w.dirs, d)
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		added = append(added, dir)
		w.dirs[dir] = id
	}
	w.roots[id] = root
	return nil
}

func (w *Watcher) removeLocked(id state.RepoID) {
	for dir, owner := range w.dirs {
		if owner != id {
			continue
		}
		if err := w.fs.Remove(dir); err != nil {
			slog.Debug("removing path from FS watcher", slog.String("path", dir), slog.Any("error", err))
		}
		delete(w.dirs, dir)
	}
	delete(w.roots, id)
	w.debounce.Forget(id)
}

func (w *Watcher) Close() error {
	w.debounce.Stop()
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			id, ok := w.owner(ev.Name)
			if !ok {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.debounce.Trigger(id)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) owner(name string) (state.RepoID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.dirs[filepath.Dir(name)]; ok {
		return id, true
	}
	id, ok := w.dirs[name]
	return id, ok
}

// watchPaths lists the directories watched for a repository: the worktree
// root plus the parts of .git that change on commits, checkouts and staging.
func watchPaths(root string) []string {
	paths := []string{root}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return paths
	}
	paths = append(paths, gitDir)
	for _, sub := range []string{filepath.Join("refs", "heads"), filepath.Join("refs", "remotes")} {
		dir := filepath.Join(gitDir, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			paths = append(paths, dir)
		}
	}
	return paths
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
