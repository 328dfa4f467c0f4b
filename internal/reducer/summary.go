package reducer

import (
	"strings"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
)

// summarize derives a one-line command log summary from what a command printed.
func summarize(action string, out backend.CommandOutput, err error) string {
	if err != nil {
		if line := firstLine(out.Stderr); line != "" {
			return line
		}
		return firstLine(err.Error())
	}
	text := strings.ToLower(out.Combined())
	switch {
	case strings.Contains(text, "already up to date"),
		strings.Contains(text, "already up-to-date"),
		strings.Contains(text, "everything up-to-date"):
		return "already up to date"
	case strings.Contains(text, "successfully rebased"):
		return "rebased"
	case strings.Contains(text, "fast-forward"):
		return "fast-forwarded"
	case strings.Contains(text, "merge made by"):
		return "merged"
	}
	switch action {
	case "push":
		return "pushed"
	case "fetch":
		return "fetched"
	case "commit":
		return "committed"
	}
	if line := firstLine(out.Combined()); line != "" {
		return line
	}
	return action + " done"
}

func firstLine(s string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
