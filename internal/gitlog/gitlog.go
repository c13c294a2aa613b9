// Package gitlog shells out to git for the few version-control facts the
// sync needs: the last commit that touched a path, a file's content at a
// given revision, and the remote origin URL. Calls block with no timeout or
// retry; callers needing resilience wrap them.
package gitlog

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Commit describes one commit as reported by git log.
type Commit struct {
	Hash          string
	Author        string
	Date          string
	Message       string
	ModifiedFiles []string
}

// RepoRoot returns the top-level directory of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("gitlog: rev-parse --show-toplevel: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LastCommit returns the most recent commit touching path (repo-relative, or
// empty for the whole repository). Returns nil without error when the path
// has no history yet.
func LastCommit(repoDir, path string) (*Commit, error) {
	args := []string{"-C", repoDir, "log", "-1", "--name-only", "--pretty=format:%H%n%an%n%aI%n%s"}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("gitlog: git log: %w", err)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 4 {
		return nil, fmt.Errorf("gitlog: unexpected log output %q", text)
	}
	c := &Commit{
		Hash:    lines[0],
		Author:  lines[1],
		Date:    lines[2],
		Message: lines[3],
	}
	for _, l := range lines[4:] {
		if l = strings.TrimSpace(l); l != "" {
			c.ModifiedFiles = append(c.ModifiedFiles, l)
		}
	}
	return c, nil
}

// Show returns the content of relPath at the given revision.
func Show(repoDir, hash, relPath string) (string, error) {
	ref := hash + ":" + filepath.ToSlash(relPath)
	out, err := exec.Command("git", "-C", repoDir, "show", ref).Output()
	if err != nil {
		return "", fmt.Errorf("gitlog: git show %s: %w", ref, err)
	}
	return string(out), nil
}

// RemoteOriginURL returns the configured origin URL, or "" when the
// repository has no origin remote.
func RemoteOriginURL(repoDir string) (string, error) {
	out, err := exec.Command("git", "-C", repoDir, "config", "--get", "remote.origin.url").Output()
	if err != nil {
		// git exits nonzero when the key is absent; treat as no remote.
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}
