package patch

import "strings"

// File summarizes one file of an annotated diff.
type File struct {
	Path string
	// Header is the index of the file's "diff --git" line.
	Header int
	// Hunks holds the indices of the file's "@@" lines.
	Hunks   []int
	Added   int
	Removed int
}

// Files lists the files of an annotated diff in order.
func Files(lines []Line) []File {
	var files []File
	for i, l := range lines {
		switch {
		case l.isFileHeader():
			files = append(files, File{Path: diffGitPath(l.Text), Header: i})
		case len(files) == 0:
		case l.Kind == Hunk:
			files[len(files)-1].Hunks = append(files[len(files)-1].Hunks, i)
		case l.Kind == Add:
			files[len(files)-1].Added++
		case l.Kind == Remove:
			files[len(files)-1].Removed++
		}
	}
	return files
}

// diffGitPath returns the new-side path of a "diff --git a/x b/x" line.
func diffGitPath(line string) string {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return ""
	}
	tokens := diffLineTokens(strings.TrimSpace(rest))
	if len(tokens) < 2 {
		return ""
	}
	return strings.TrimPrefix(tokens[1], "b/")
}

// diffLineTokens splits on blanks, honoring git's double-quoted paths.
func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return tokens
		}
		if s[0] != '"' {
			j := strings.IndexAny(s, " \t")
			if j < 0 {
				j = len(s)
			}
			tokens = append(tokens, s[:j])
			s = s[j:]
			continue
		}
		var buf strings.Builder
		i := 1
		for ; i < len(s); i++ {
			ch := s[i]
			if ch == '\\' && i+1 < len(s) {
				i++
				buf.WriteByte(s[i])
				continue
			}
			if ch == '"' {
				i++
				break
			}
			buf.WriteByte(ch)
		}
		tokens = append(tokens, buf.String())
		s = s[i:]
	}
}
