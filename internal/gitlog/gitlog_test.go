package gitlog_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"helpsync/internal/gitlog"
)

// initRepo creates a throwaway git repository with one committed file and
// returns its path. Tests are skipped when git is not installed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "config", "user.email", "test@example.com")
	run(t, dir, "config", "user.name", "Test Author")

	if err := os.WriteFile(filepath.Join(dir, "widgets.psm1"), []byte("function Get-Widget { }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "add", ".")
	run(t, dir, "commit", "-m", "add widgets")
	return dir
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestRepoRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := gitlog.RepoRoot(sub)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	// Compare resolved paths; the temp dir may sit behind a symlink.
	wantResolved, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(root)
	if gotResolved != wantResolved {
		t.Errorf("RepoRoot = %q, want %q", root, dir)
	}
}

func TestLastCommit(t *testing.T) {
	dir := initRepo(t)
	c, err := gitlog.LastCommit(dir, "widgets.psm1")
	if err != nil {
		t.Fatalf("LastCommit: %v", err)
	}
	if c == nil {
		t.Fatal("LastCommit returned nil for a committed path")
	}
	if len(c.Hash) != 40 {
		t.Errorf("Hash = %q", c.Hash)
	}
	if c.Author != "Test Author" {
		t.Errorf("Author = %q", c.Author)
	}
	if c.Message != "add widgets" {
		t.Errorf("Message = %q", c.Message)
	}
	if len(c.ModifiedFiles) != 1 || c.ModifiedFiles[0] != "widgets.psm1" {
		t.Errorf("ModifiedFiles = %v", c.ModifiedFiles)
	}
}

func TestLastCommitUntrackedPath(t *testing.T) {
	dir := initRepo(t)
	c, err := gitlog.LastCommit(dir, "never-committed.psm1")
	if err != nil {
		t.Fatalf("LastCommit: %v", err)
	}
	if c != nil {
		t.Errorf("untracked path should have no last commit, got %+v", c)
	}
}

func TestShow(t *testing.T) {
	dir := initRepo(t)
	c, err := gitlog.LastCommit(dir, "widgets.psm1")
	if err != nil || c == nil {
		t.Fatalf("LastCommit: %v, %+v", err, c)
	}

	// Change the working tree; Show must return the committed content.
	if err := os.WriteFile(filepath.Join(dir, "widgets.psm1"), []byte("function Get-Widget { 2 }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	content, err := gitlog.Show(dir, c.Hash, "widgets.psm1")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if content != "function Get-Widget { }\n" {
		t.Errorf("Show = %q", content)
	}
}

func TestRemoteOriginURL(t *testing.T) {
	dir := initRepo(t)

	url, err := gitlog.RemoteOriginURL(dir)
	if err != nil {
		t.Fatalf("RemoteOriginURL: %v", err)
	}
	if url != "" {
		t.Errorf("no remote configured, got %q", url)
	}

	run(t, dir, "remote", "add", "origin", "git@github.com:acme/widgets.git")
	url, err = gitlog.RemoteOriginURL(dir)
	if err != nil {
		t.Fatalf("RemoteOriginURL: %v", err)
	}
	if !strings.Contains(url, "acme/widgets") {
		t.Errorf("url = %q", url)
	}
}
