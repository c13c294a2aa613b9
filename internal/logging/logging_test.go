package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"helpsync/internal/logging"
)

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "run.log")
	log, err := logging.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	log.Printf("first %s", "line")
	log.Printf("second line\n")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[0], "first line") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[0], "[") {
		t.Errorf("line 0 missing timestamp: %q", lines[0])
	}
	if strings.Contains(lines[1], "\n") {
		t.Errorf("trailing newline not trimmed: %q", lines[1])
	}
}

func TestAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	for i := 0; i < 2; i++ {
		log, err := logging.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("pass %d", i)
		log.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("got %d lines, want 2 appended", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *logging.Logger
	log.Printf("discarded")
	if err := log.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}
