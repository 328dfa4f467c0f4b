package patch

import (
	"slices"
	"strings"
)

// Mode selects how unselected changes in a partially selected hunk are
// rewritten.
type Mode uint8

const (
	// ModeIndex drops unselected additions and keeps unselected removals as
	// context. The result applies forward, e.g. when staging.
	ModeIndex Mode = iota
	// ModeWorktreeDiscard drops unselected removals and keeps unselected
	// additions as context. The result applies in reverse, e.g. when
	// discarding worktree changes or unstaging.
	ModeWorktreeDiscard
)

// BuildHunkPatch returns a patch with the hunk whose "@@" line is at index
// hunk, or "" when there is no such hunk.
func BuildHunkPatch(lines []Line, hunk int) string {
	return BuildHunksPatch(lines, []int{hunk})
}

// BuildHunksPatch returns a patch with every selected hunk, identified by the
// index of its "@@" line. Each file header is written once.
func BuildHunksPatch(lines []Line, hunks []int) string {
	hunks = slices.Clone(hunks)
	slices.Sort(hunks)
	hunks = slices.Compact(hunks)

	var w writer
	for _, h := range hunks {
		if h < 0 || h >= len(lines) || lines[h].Kind != Hunk {
			continue
		}
		hdrStart, hdrEnd, ok := fileHeader(lines, h)
		if !ok {
			continue
		}
		w.header(lines, hdrStart, hdrEnd)
		for _, l := range lines[h:hunkEnd(lines, h)] {
			w.line(l.Text)
		}
	}
	return w.String()
}

// BuildLinesPatch returns a patch containing only the selected Add and Remove
// lines. Selected indices are grouped by enclosing hunk; other indices are
// ignored. The result is "" when nothing applicable was selected.
func BuildLinesPatch(lines []Line, selected []int, mode Mode) string {
	buckets := map[int]map[int]bool{}
	for _, i := range selected {
		if i < 0 || i >= len(lines) {
			continue
		}
		if k := lines[i].Kind; k != Add && k != Remove {
			continue
		}
		h, ok := enclosingHunk(lines, i)
		if !ok {
			continue
		}
		if buckets[h] == nil {
			buckets[h] = map[int]bool{}
		}
		buckets[h][i] = true
	}
	hunks := make([]int, 0, len(buckets))
	for h := range buckets {
		hunks = append(hunks, h)
	}
	slices.Sort(hunks)

	var w writer
	for _, h := range hunks {
		hdrStart, hdrEnd, ok := fileHeader(lines, h)
		if !ok {
			continue
		}
		body := partialHunk(lines, h, buckets[h], mode)
		if len(body) == 0 {
			continue
		}
		w.header(lines, hdrStart, hdrEnd)
		for _, s := range body {
			w.line(s)
		}
	}
	return w.String()
}

func partialHunk(lines []Line, h int, selected map[int]bool, mode Mode) []string {
	end := hunkEnd(lines, h)
	out := []string{lines[h].Text}
	changed := false
	prevKept := true
	for i := h + 1; i < end; i++ {
		l := lines[i]
		keep, asContext := true, false
		switch {
		case isNoNewlineMarker(l):
			keep = prevKept
		case l.Kind == Add && !selected[i]:
			keep, asContext = mode == ModeWorktreeDiscard, true
		case l.Kind == Remove && !selected[i]:
			keep, asContext = mode == ModeIndex, true
		case l.Kind == Add || l.Kind == Remove:
			changed = true
		}
		prevKept = keep
		if !keep {
			continue
		}
		if asContext {
			out = append(out, contextLine(l.Text))
		} else {
			out = append(out, l.Text)
		}
	}
	if !changed {
		return nil
	}
	return out
}

// contextLine turns an added or removed line into a context line.
func contextLine(text string) string {
	if text != "" && (text[0] == '+' || text[0] == '-') {
		text = text[1:]
	}
	return " " + text
}

// fileHeader returns the header block [start, end) for the file containing
// the line at index i: the nearest preceding "diff --git" line plus the
// header lines that follow it.
func fileHeader(lines []Line, i int) (start, end int, ok bool) {
	start = -1
	for j := i; j >= 0; j-- {
		if lines[j].isFileHeader() {
			start = j
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}
	end = start + 1
	for end < len(lines) && lines[end].Kind == Header && !lines[end].isFileHeader() {
		end++
	}
	return start, end, true
}

// hunkEnd returns the index after the last body line of the hunk at h.
func hunkEnd(lines []Line, h int) int {
	for j := h + 1; j < len(lines); j++ {
		if lines[j].Kind == Hunk || lines[j].isFileHeader() {
			return j
		}
	}
	return len(lines)
}

func enclosingHunk(lines []Line, i int) (int, bool) {
	for j := i; j >= 0; j-- {
		switch {
		case lines[j].Kind == Hunk:
			return j, true
		case lines[j].Kind == Header:
			return 0, false
		}
	}
	return 0, false
}

// writer accumulates patch text, writing each file header once.
type writer struct {
	b          strings.Builder
	lastHeader int
	started    bool
}

func (w *writer) header(lines []Line, start, end int) {
	if w.started && w.lastHeader == start {
		return
	}
	w.started = true
	w.lastHeader = start
	for _, l := range lines[start:end] {
		w.line(l.Text)
	}
}

func (w *writer) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) String() string { return w.b.String() }
