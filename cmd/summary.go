package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thiagokokada/gitdeck/internal/patch"
	"github.com/thiagokokada/gitdeck/internal/state"
)

type palette struct {
	repo *color.Color
	head *color.Color
	add  *color.Color
	del  *color.Color
	fail *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		repo: color.New(color.Bold),
		head: color.New(color.FgGreen),
		add:  color.New(color.FgGreen),
		del:  color.New(color.FgRed),
		fail: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.repo, p.head, p.add, p.del, p.fail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// summary renders one block per repository, active repository marked with *.
func summary(st state.AppState, p palette) string {
	var b strings.Builder
	for _, repo := range st.Repos {
		marker := " "
		if st.ActiveRepo != nil && *st.ActiveRepo == repo.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, p.repo.Sprint(repo.Path))
		writeRepo(&b, repo, p)
	}
	return b.String()
}

func writeRepo(b *strings.Builder, repo *state.RepoState, p palette) {
	if repo.Open.State == state.Failed {
		fmt.Fprintf(b, "    %s\n", p.fail.Sprint("error: "+repo.Open.Err))
		return
	}
	head := loadableText(repo.HeadBranch, func(v string) string { return v })
	if div, ok := repo.UpstreamDivergence.Get(); ok && div != nil {
		head += fmt.Sprintf(" (ahead %d, behind %d)", div.Ahead, div.Behind)
	}
	fmt.Fprintf(b, "    head: %s\n", p.head.Sprint(head))
	fmt.Fprintf(b, "    branches: %s  tags: %s  remotes: %s  stashes: %s\n",
		countText(repo.Branches), countText(repo.Tags), countText(repo.Remotes), countText(repo.Stashes))
	if status, ok := repo.Status.Get(); ok {
		fmt.Fprintf(b, "    staged: %d  unstaged: %d\n", len(status.Staged), len(status.Unstaged))
	} else {
		fmt.Fprintf(b, "    status: %s\n", repo.Status.State)
	}
	if page, ok := repo.Log.Get(); ok {
		more := ""
		if page.NextCursor != nil {
			more = "+"
		}
		latest := ""
		if len(page.Commits) > 0 {
			c := page.Commits[0]
			latest = fmt.Sprintf("  latest: %s %s", c.ID.Short(), c.Summary)
		}
		fmt.Fprintf(b, "    history: %d%s commits%s\n", len(page.Commits), more, latest)
	}
	if diff, ok := repo.Diff.Get(); ok {
		for _, f := range patch.Files(patch.Annotate(diff.Text)) {
			fmt.Fprintf(b, "    %s %s %s\n", f.Path, p.add.Sprintf("+%d", f.Added), p.del.Sprintf("-%d", f.Removed))
		}
	}
	if repo.LastError != "" {
		fmt.Fprintf(b, "    %s\n", p.fail.Sprint("last error: "+repo.LastError))
	}
	if d, ok := repo.Diagnostics.Last(); ok {
		fmt.Fprintf(b, "    diagnostics: %d (last: %s)\n", repo.Diagnostics.Len(), d.Message)
	}
}

func loadableText[T any](l state.Loadable[T], format func(T) string) string {
	switch l.State {
	case state.Ready:
		return format(l.Value)
	case state.Failed:
		return "error: " + l.Err
	default:
		return l.State.String()
	}
}

func countText[T any](l state.Loadable[[]T]) string {
	return loadableText(l, func(v []T) string { return fmt.Sprint(len(v)) })
}
