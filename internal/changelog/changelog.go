// Package changelog renders a change-set into a human-readable markdown
// entry with YAML frontmatter and appends it to the project change log.
package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"helpsync/internal/funcdiff"
)

// Entry is the frontmatter written above each rendered change-set.
type Entry struct {
	File   string `yaml:"file"`
	Commit string `yaml:"commit,omitempty"`
	Author string `yaml:"author,omitempty"`
	Date   string `yaml:"date"`
}

// Render produces one complete log entry: frontmatter between --- delimiters
// followed by the markdown body. Returns an empty string for an empty
// change-set so callers can skip the append.
func Render(meta Entry, cs *funcdiff.ChangeSet) (string, error) {
	if cs.Empty() {
		return "", nil
	}
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("changelog: marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	renderBody(&b, cs)
	return b.String(), nil
}

func renderBody(b *strings.Builder, cs *funcdiff.ChangeSet) {
	if len(cs.Added) > 0 {
		b.WriteString("## Added\n\n")
		for _, f := range cs.Added {
			fmt.Fprintf(b, "- %s\n", qualifiedName(f.Name, f.ParentName))
		}
		b.WriteString("\n")
	}
	if len(cs.Removed) > 0 {
		b.WriteString("## Removed\n\n")
		for _, f := range cs.Removed {
			fmt.Fprintf(b, "- %s\n", qualifiedName(f.Name, f.ParentName))
		}
		b.WriteString("\n")
	}
	if len(cs.Changed) > 0 {
		b.WriteString("## Changed\n\n")
		for _, d := range cs.Changed {
			fmt.Fprintf(b, "### %s\n\n", qualifiedName(d.FunctionName, d.ParentName))
			if d.LineCountDelta != nil {
				fmt.Fprintf(b, "- line count %d -> %d (%+d)\n",
					d.PreviousLineCount, d.CurrentLineCount, *d.LineCountDelta)
			}
			renderList(b, "parameters added", d.ParametersAdded)
			renderList(b, "parameters removed", d.ParametersRemoved)
			renderList(b, "parameters changed", d.ParametersChanged)
			renderList(b, "attributes added", d.AttributesAdded)
			renderList(b, "attributes removed", d.AttributesRemoved)
			b.WriteString("\n")
		}
	}
}

func renderList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func qualifiedName(name, parent string) string {
	if parent == "" {
		return name
	}
	return parent + " / " + name
}

// Append renders the entry and appends it to the change log at path,
// creating the file and its directory on first use. An empty change-set is
// a no-op.
func Append(path string, meta Entry, cs *funcdiff.ChangeSet) error {
	text, err := Render(meta, cs)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("changelog: ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("changelog: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("changelog: append %s: %w", path, err)
	}
	return nil
}

// SplitEntries separates a change log file back into individual entries,
// used by tests and the report command. Each entry starts at a ---
// frontmatter delimiter at the beginning of a line.
func SplitEntries(content string) []string {
	var entries []string
	var cur []string
	inFM := false
	for _, line := range strings.Split(content, "\n") {
		if line == "---" {
			if !inFM && len(cur) > 0 {
				entries = append(entries, strings.Join(cur, "\n"))
				cur = nil
			}
			inFM = !inFM
		}
		cur = append(cur, line)
	}
	if strings.TrimSpace(strings.Join(cur, "\n")) != "" {
		entries = append(entries, strings.Join(cur, "\n"))
	}
	return entries
}
