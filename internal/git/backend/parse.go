package backend

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// NUL-delimited records; commit message cannot contain NUL.
const logRecordFormat = "%H%n%P%n%an%n%ae%n%aI%n%cn%n%ce%n%cI%n%B%x00"

// Unit separator between fields of single-line records.
const fieldSep = "\x1f"

func parseRefsFromShowRef(out string) ([]Ref, error) {
	type refEntry struct {
		hash string
		ref  string
	}

	peeledByTagRef := map[string]string{}
	var entries []refEntry

	for rawLine := range strings.SplitSeq(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		hash, refName := parts[0], parts[1]
		if base, ok := strings.CutSuffix(refName, "^{}"); ok {
			if base != "" {
				peeledByTagRef[base] = hash
			}
			continue
		}
		entries = append(entries, refEntry{hash: hash, ref: refName})
	}

	var refs []Ref
	for _, entry := range entries {
		if short, ok := strings.CutPrefix(entry.ref, "refs/tags/"); ok && short != "" {
			hash := entry.hash
			if peeled, ok := peeledByTagRef[entry.ref]; ok && peeled != "" {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash, Kind: RefKindTag, Name: short})
		} else if short, ok := strings.CutPrefix(entry.ref, "refs/heads/"); ok && short != "" {
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindBranch, Name: short})
		} else if short, ok := strings.CutPrefix(entry.ref, "refs/remotes/"); ok && short != "" {
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindRemoteBranch, Name: short})
		}
	}
	return refs, nil
}

// parseBranchUpstreams parses "for-each-ref --format=%(refname:short)<US>%(upstream:short)".
func parseBranchUpstreams(out string) map[string]string {
	upstreams := map[string]string{}
	for line := range strings.SplitSeq(out, "\n") {
		name, upstream, ok := strings.Cut(strings.TrimRight(line, "\r"), fieldSep)
		if !ok || name == "" || upstream == "" {
			continue
		}
		upstreams[name] = upstream
	}
	return upstreams
}

func parseStatusPorcelainV2(r io.Reader) (RepoStatus, error) {
	var res RepoStatus
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case '1', '2':
			fields := 9
			if line[0] == '2' {
				fields = 10
			}
			parts := strings.SplitN(line, " ", fields)
			if len(parts) < fields || len(parts[1]) != 2 {
				continue
			}
			path, orig := parts[fields-1], ""
			if line[0] == '2' {
				path, orig, _ = strings.Cut(path, "\t")
			}
			xy := parts[1]
			if xy[0] != '.' {
				res.Staged = append(res.Staged, FileStatus{Path: path, OrigPath: orig, Kind: statusKindFromCode(xy[0])})
			}
			if xy[1] != '.' {
				res.Unstaged = append(res.Unstaged, FileStatus{Path: path, OrigPath: orig, Kind: statusKindFromCode(xy[1])})
			}
		case 'u':
			parts := strings.SplitN(line, " ", 11)
			if len(parts) < 11 {
				continue
			}
			res.Unstaged = append(res.Unstaged, FileStatus{Path: parts[10], Kind: FileConflicted})
		case '?':
			res.Unstaged = append(res.Unstaged, FileStatus{Path: line[2:], Kind: FileUntracked})
		default:
			// '!' ignored, '#' headers.
		}
	}
	return res, scanner.Err()
}

func statusKindFromCode(code byte) FileStatusKind {
	switch code {
	case 'A', 'C':
		return FileAdded
	case 'D':
		return FileDeleted
	case 'R':
		return FileRenamed
	case 'U':
		return FileConflicted
	case '?':
		return FileUntracked
	default:
		return FileModified
	}
}

type logRecord struct {
	hash      string
	parents   []string
	author    Signature
	committer Signature
	message   string
}

func parseGitLogRecord(rec []byte) (*logRecord, error) {
	parts := strings.Split(string(rec), "\n")
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected git log record: got %d lines", len(parts))
	}
	hashStr := strings.TrimSpace(parts[0])
	if hashStr == "" {
		return nil, fmt.Errorf("missing commit hash")
	}
	authorWhen, _ := time.Parse(time.RFC3339, parts[4])
	committerWhen, _ := time.Parse(time.RFC3339, parts[7])
	message := ""
	if len(parts) > 8 {
		message = strings.Join(parts[8:], "\n")
	}
	return &logRecord{
		hash:      hashStr,
		parents:   strings.Fields(parts[1]),
		author:    Signature{Name: parts[2], Email: parts[3], When: authorWhen},
		committer: Signature{Name: parts[5], Email: parts[6], When: committerWhen},
		message:   message,
	}, nil
}

// parseGitLogRecords splits "git log --pretty=tformat:<logRecordFormat>" output.
func parseGitLogRecords(out []byte) ([]*logRecord, error) {
	var records []*logRecord
	for rec := range bytes.SplitSeq(out, []byte{0}) {
		// git log prints a newline between commits even when the format ends with NUL,
		// so subsequent records can start with '\n'.
		rec = bytes.TrimLeft(rec, "\r\n")
		if len(rec) == 0 {
			continue
		}
		record, err := parseGitLogRecord(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *logRecord) commit() Commit {
	return Commit{
		ID:        CommitID(r.hash),
		ParentIDs: commitIDs(r.parents),
		Author:    r.author,
		Committer: r.committer,
		Summary:   summaryLine(r.message),
	}
}

func commitIDs(hashes []string) []CommitID {
	if len(hashes) == 0 {
		return nil
	}
	ids := make([]CommitID, len(hashes))
	for i, h := range hashes {
		ids[i] = CommitID(h)
	}
	return ids
}

func summaryLine(message string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(first)
}

// parseNameStatus parses "diff-tree --name-status" output.
func parseNameStatus(out string) []CommitFileChange {
	var files []CommitFileChange
	for line := range strings.SplitSeq(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		files = append(files, CommitFileChange{
			Path: fields[len(fields)-1],
			Kind: statusKindFromCode(fields[0][0]),
		})
	}
	return files
}

// parseReflog parses "reflog --format=%H<US>%gd<US>%gs".
func parseReflog(out string) []ReflogEntry {
	var entries []ReflogEntry
	for line := range strings.SplitSeq(out, "\n") {
		parts := strings.SplitN(strings.TrimRight(line, "\r"), fieldSep, 3)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		entries = append(entries, ReflogEntry{
			Index:    len(entries),
			NewID:    CommitID(parts[0]),
			Selector: parts[1],
			Message:  parts[2],
		})
	}
	return entries
}

// parseStashList parses "stash list --format=%gd<US>%H<US>%gs".
func parseStashList(out string) []StashEntry {
	var entries []StashEntry
	for line := range strings.SplitSeq(out, "\n") {
		parts := strings.SplitN(strings.TrimRight(line, "\r"), fieldSep, 3)
		if len(parts) != 3 {
			continue
		}
		index, ok := stashIndex(parts[0])
		if !ok {
			continue
		}
		entries = append(entries, StashEntry{Index: index, ID: CommitID(parts[1]), Message: parts[2]})
	}
	return entries
}

func stashIndex(selector string) (int, bool) {
	rest, ok := strings.CutPrefix(selector, "stash@{")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, "}")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseRemotes parses "git remote -v", keeping fetch URLs.
func parseRemotes(out string) []Remote {
	var remotes []Remote
	seen := map[string]bool{}
	for line := range strings.SplitSeq(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || seen[fields[0]] {
			continue
		}
		if len(fields) == 3 && fields[2] != "(fetch)" {
			continue
		}
		seen[fields[0]] = true
		remotes = append(remotes, Remote{Name: fields[0], URL: fields[1]})
	}
	return remotes
}

// parseLeftRightCount parses "rev-list --left-right --count HEAD...@{upstream}".
func parseLeftRightCount(out string) (UpstreamDivergence, error) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return UpstreamDivergence{}, fmt.Errorf("unexpected rev-list output: %q", strings.TrimSpace(out))
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return UpstreamDivergence{}, fmt.Errorf("parse ahead count: %w", err)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return UpstreamDivergence{}, fmt.Errorf("parse behind count: %w", err)
	}
	return UpstreamDivergence{Ahead: ahead, Behind: behind}, nil
}

func splitRemoteBranch(short string) (remote, name string) {
	remote, name, ok := strings.Cut(short, "/")
	if !ok {
		return "", short
	}
	return remote, name
}
