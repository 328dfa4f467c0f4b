// Package patch builds partial unified diffs out of an annotated diff, so a
// selection of hunks or lines can be staged, unstaged or discarded.
package patch

import (
	"strconv"
	"strings"
)

type Kind uint8

const (
	Header Kind = iota
	Hunk
	Context
	Add
	Remove
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Hunk:
		return "hunk"
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return "context"
	}
}

// Line is one line of a unified diff. Text keeps the leading marker
// character. OldLine and NewLine are 1-based; zero means the line has no
// position on that side.
type Line struct {
	Kind    Kind
	Text    string
	OldLine int
	NewLine int
}

func (l Line) isFileHeader() bool {
	return l.Kind == Header && strings.HasPrefix(l.Text, "diff --git ")
}

// Annotate classifies each line of unified diff text as produced by git or
// go-git.
func Annotate(text string) []Line {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	inHunk := false
	oldNo, newNo := 0, 0
	for _, s := range raw {
		s = strings.TrimSuffix(s, "\r")
		switch {
		case strings.HasPrefix(s, "diff "):
			inHunk = false
			lines = append(lines, Line{Kind: Header, Text: s})
		case strings.HasPrefix(s, "@@"):
			inHunk = true
			oldNo, newNo = parseHunkStarts(s)
			lines = append(lines, Line{Kind: Hunk, Text: s})
		case !inHunk:
			lines = append(lines, Line{Kind: Header, Text: s})
		case strings.HasPrefix(s, "+"):
			lines = append(lines, Line{Kind: Add, Text: s, NewLine: newNo})
			newNo++
		case strings.HasPrefix(s, "-"):
			lines = append(lines, Line{Kind: Remove, Text: s, OldLine: oldNo})
			oldNo++
		case strings.HasPrefix(s, `\`):
			// "\ No newline at end of file" belongs to the previous line.
			lines = append(lines, Line{Kind: Context, Text: s})
		default:
			lines = append(lines, Line{Kind: Context, Text: s, OldLine: oldNo, NewLine: newNo})
			oldNo++
			newNo++
		}
	}
	return lines
}

// parseHunkStarts reads the start lines from "@@ -a,b +c,d @@".
func parseHunkStarts(header string) (oldStart, newStart int) {
	fields := strings.Fields(header)
	for _, f := range fields[1:] {
		if f == "@@" {
			break
		}
		n := rangeStart(f[1:])
		switch f[0] {
		case '-':
			oldStart = n
		case '+':
			newStart = n
		}
	}
	return oldStart, newStart
}

func rangeStart(r string) int {
	start, _, _ := strings.Cut(r, ",")
	n, err := strconv.Atoi(start)
	if err != nil {
		return 0
	}
	return n
}

func isNoNewlineMarker(l Line) bool {
	return l.Kind == Context && strings.HasPrefix(l.Text, `\`)
}
