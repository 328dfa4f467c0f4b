package backend

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

type gitCLI struct {
	path string
}

// OpenCLI opens a repository backed by the git executable.
func OpenCLI(repoPath string) (Repository, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, &Error{Kind: KindIO, Op: "open repository", Err: err}
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, ioError("open repository", err)
	}
	tmp := &gitCLI{path: abs}
	root, err := tmp.runGitCommand([]string{"rev-parse", "--show-toplevel"}, false, "git rev-parse")
	if err != nil {
		return nil, backendError("open repository", err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, &Error{Op: "open repository", Message: "git rev-parse returned empty root"}
	}
	return &gitCLI{path: root}, nil
}

func (g *gitCLI) Workdir() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *gitCLI) runGitCommand(args []string, allowExit1 bool, context string) (string, error) {
	out, err := g.runGit(args, "", allowExit1, context)
	return out.Stdout, err
}

// runGit executes git in the repository root. stdin is fed to the process when
// non-empty. The returned output is populated even on failure so mutating
// commands can surface what git printed.
func (g *gitCLI) runGit(args []string, stdin string, allowExit1 bool, context string) (CommandOutput, error) {
	out := CommandOutput{Command: "git " + strings.Join(args, " ")}
	if g == nil || g.path == "" {
		return out, &Error{Op: context, Message: "repository root not set"}
	}
	cmdArgs := append([]string{"-C", g.path}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	slog.Debug("git command", slog.String("dir", g.path), slog.String("args", strings.Join(args, " ")))
	err := cmd.Run()
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	if err == nil {
		return out, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return out, &Error{Kind: KindIO, Op: context, Err: err}
	}
	out.ExitCode = exitErr.ExitCode()
	if allowExit1 && out.ExitCode == 1 && stderr.Len() == 0 {
		// treat as success when git diff signals changes via exit code 1
		return out, nil
	}
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = strings.TrimSpace(stdout.String())
	}
	return out, &Error{Kind: KindBackend, Op: context, Message: msg, Err: err}
}

// hasHead reports whether HEAD resolves to a commit (false in a fresh repository).
func (g *gitCLI) hasHead() (bool, error) {
	out, err := g.runGitCommand([]string{"rev-parse", "-q", "--verify", "HEAD"}, true, "git rev-parse")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func pathArgs(args []string, paths []string) []string {
	if len(paths) == 0 {
		return args
	}
	args = append(args, "--")
	return append(args, paths...)
}

func requirePaths(op string, paths []string) error {
	if len(paths) == 0 {
		return &Error{Op: op, Message: "no paths specified"}
	}
	return nil
}

func requireName(op, what, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &Error{Op: op, Message: fmt.Sprintf("%s not specified", what)}
	}
	return name, nil
}
