package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/thiagokokada/gitdeck/internal/buildinfo"
	"github.com/thiagokokada/gitdeck/internal/config"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/reducer"
	"github.com/thiagokokada/gitdeck/internal/session"
	"github.com/thiagokokada/gitdeck/internal/state"
	"github.com/thiagokokada/gitdeck/internal/store"
	"github.com/thiagokokada/gitdeck/internal/watch"
)

const defaultTimeout = 30 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

type options struct {
	cfg      config.Config
	repos    []string
	restore  bool
	timeout  time.Duration
	follow   bool
	showDiff bool
	colors   palette
}

func parseArgs(args []string, stdout, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("gitdeck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultPath(), "path to the configuration file")
	backendKind := fs.String("backend", "", "repository backend: cli or native (default from config)")
	workers := fs.Int("workers", -1, "number of background workers (default from config)")
	noWatch := fs.Bool("nowatch", false, "disable automatic reload when repositories change")
	noRestore := fs.Bool("norestore", false, "do not reopen the repositories of the last session")
	timeout := fs.Duration("timeout", defaultTimeout, "how long to wait for repositories to load")
	follow := fs.Bool("follow", false, "keep running and print again whenever a repository changes")
	showDiff := fs.Bool("diff", false, "also print the files changed in each working tree")
	noColor := fs.Bool("nocolor", false, "disable colored output")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *showVersion {
		fmt.Fprintln(stdout, buildinfo.Read())
		return nil, flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *backendKind != "" {
		cfg.Backend = backend.Kind(*backendKind)
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *noWatch {
		cfg.Watch.Enabled = false
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &options{
		cfg:      cfg,
		repos:    fs.Args(),
		restore:  cfg.Session.Restore && !*noRestore,
		timeout:  *timeout,
		follow:   *follow,
		showDiff: *showDiff,
		colors:   newPalette(!*noColor && !color.NoColor && isStdout(stdout)),
	}, nil
}

func setupLogging(w io.Writer, cfg config.Config) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	setupLogging(stderr, opts.cfg)

	open, err := backend.FactoryFor(opts.cfg.Backend)
	if err != nil {
		return err
	}
	sessions := session.NewFileStore(opts.cfg.Session.Path)
	st := store.New(store.Options{
		Open:      open,
		Persister: sessions,
		Workers:   opts.cfg.Workers,
		Reducer: reducer.Options{
			LogPageSize: opts.cfg.LogPageSize,
			ReflogLimit: opts.cfg.ReflogLimit,
		},
	})
	defer st.Close()
	slog.Debug("store started",
		slog.String("backend", string(opts.cfg.Backend)),
		slog.String("session", sessions.Path()),
	)

	if err := openRepos(st, sessions, opts); err != nil {
		return err
	}
	snap, err := waitSettled(ctx, st, opts.timeout, allSettled)
	if err != nil {
		return err
	}
	if opts.showDiff {
		for _, repo := range snap.Repos {
			if repo.Open.IsReady() {
				st.Dispatch(msg.SelectDiff{Repo: repo.ID, Target: backend.WorkingTreeTarget("", backend.AreaUnstaged)})
			}
		}
		if snap, err = waitSettled(ctx, st, opts.timeout, diffsLoaded); err != nil {
			return err
		}
	}
	last := summary(snap, opts.colors)
	fmt.Fprint(stdout, last)

	if opts.follow {
		return follow(ctx, st, opts, stdout, last)
	}
	return openFailures(snap)
}

func openRepos(st *store.Store, sessions *session.FileStore, opts *options) error {
	if opts.restore {
		saved, err := sessions.Load()
		if err != nil {
			return err
		}
		if len(saved.Repos) > 0 {
			slog.Debug("restoring session", slog.Int("repos", len(saved.Repos)))
			st.Dispatch(msg.RestoreSession{Paths: saved.Repos, ActivePath: saved.Active})
		}
		if len(saved.Repos) > 0 && len(opts.repos) == 0 {
			return nil
		}
	}
	repos := opts.repos
	if len(repos) == 0 {
		repos = []string{"."}
	}
	for _, path := range repos {
		st.Dispatch(msg.OpenRepo{Path: path})
	}
	return nil
}

func allSettled(st state.AppState) bool {
	if len(st.Repos) == 0 {
		return false
	}
	for _, repo := range st.Repos {
		if !repo.Settled() {
			return false
		}
	}
	return true
}

// diffsLoaded reports whether every open repository settled with its diff
// loaded or failed.
func diffsLoaded(st state.AppState) bool {
	if !allSettled(st) {
		return false
	}
	for _, repo := range st.Repos {
		if repo.Open.IsReady() && repo.Diff.State != state.Ready && repo.Diff.State != state.Failed {
			return false
		}
	}
	return true
}

func waitSettled(ctx context.Context, st *store.Store, timeout time.Duration, cond func(state.AppState) bool) (state.AppState, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	snap, err := st.Wait(ctx, cond)
	if err != nil {
		return snap, fmt.Errorf("waiting for repositories: %w", err)
	}
	return snap, nil
}

func follow(ctx context.Context, st *store.Store, opts *options, stdout io.Writer, last string) error {
	var w *watch.Watcher
	if opts.cfg.Watch.Enabled {
		var err error
		w, err = watch.New(st.Dispatch, opts.cfg.Watch.Debounce)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				slog.Error("watcher close", slog.Any("error", err))
			}
		}()
	}
	changed := st.Subscribe()
	for {
		snap := st.Snapshot()
		if w != nil {
			if err := w.Sync(snap); err != nil {
				slog.Error("watch repositories", slog.Any("error", err))
			}
		}
		if allSettled(snap) {
			if out := summary(snap, opts.colors); out != last {
				fmt.Fprint(stdout, out)
				last = out
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changed:
			if !ok {
				return nil
			}
		}
	}
}

func isStdout(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout
}

func openFailures(st state.AppState) error {
	var errs []error
	for _, repo := range st.Repos {
		if repo.Open.State == state.Failed {
			errs = append(errs, fmt.Errorf("%s: %s", repo.Path, repo.Open.Err))
		}
	}
	return errors.Join(errs...)
}
