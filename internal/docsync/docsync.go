// Package docsync orchestrates one file's documentation sync: parse the
// current revision, fetch and parse the previous one from git, diff the two
// registries, synthesize help blocks for new and changed functions, and
// patch them into the file content. Processing is sequential and best-effort:
// one function's failed patch is recorded and the rest of the file continues.
package docsync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"helpsync/internal/config"
	"helpsync/internal/desctable"
	"helpsync/internal/funcdiff"
	"helpsync/internal/gitlog"
	"helpsync/internal/helpgen"
	"helpsync/internal/logging"
	"helpsync/internal/patch"
	"helpsync/internal/registry"
	"helpsync/internal/script"
)

// Options controls one sync run.
type Options struct {
	// UpdateVersion enables the NOTES version bump for changed functions.
	UpdateVersion bool

	// Placeholders emits empty headings for the core fields when nothing
	// can be generated or preserved.
	Placeholders bool

	// All synthesizes blocks for every function, not only new and changed
	// ones.
	All bool

	// Requested overrides the regenerated field set; nil means the default.
	Requested map[script.FieldName]bool

	// Today overrides the clock, for tests. DateLayout format.
	Today string
}

// FileReport is the outcome of syncing or diffing one file.
type FileReport struct {
	Path    string
	Commit  *gitlog.Commit // nil when the file has no history
	Changes *funcdiff.ChangeSet
	Patches patch.Result
	Content string // patched content
	Dirty   bool   // Content differs from what was read
}

// OK reports whether every attempted patch succeeded.
func (r *FileReport) OK() bool { return r.Patches.OK() }

// Syncer holds the per-project collaborators a sync needs. Each file's
// registry, change-set, and patch result are independent; no state is shared
// across files.
type Syncer struct {
	Root     string
	Settings *config.Settings
	Log      *logging.Logger
}

// New returns a Syncer rooted at root.
func New(root string, settings *config.Settings, log *logging.Logger) *Syncer {
	return &Syncer{Root: root, Settings: settings, Log: log}
}

// Diff parses the file at path and its previous committed revision and
// returns the change-set without synthesizing or patching anything.
func (s *Syncer) Diff(path string) (*FileReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docsync: read %s: %w", path, err)
	}
	return s.diffContent(path, string(content))
}

func (s *Syncer) diffContent(path, content string) (*FileReport, error) {
	current := registry.Build(script.Parse(content))

	report := &FileReport{Path: path, Content: content}

	var previous []*script.Function
	rel := s.relPath(path)
	commit, err := gitlog.LastCommit(s.Root, rel)
	if err != nil {
		// No repository or no history: diff against zero functions, which
		// marks everything as added.
		s.Log.Printf("no previous revision for %s: %v", rel, err)
	} else if commit != nil {
		report.Commit = commit
		prevSrc, showErr := gitlog.Show(s.Root, commit.Hash, rel)
		if showErr != nil {
			s.Log.Printf("show %s@%s failed: %v", rel, commit.Hash, showErr)
		} else {
			previous = registry.Build(script.Parse(prevSrc))
		}
	}

	report.Changes = funcdiff.Diff(current, previous)
	return report, nil
}

// Sync diffs the file at path, synthesizes help blocks, and patches them
// into the content. The returned report carries the patched content; writing
// it back to disk is the caller's decision. A failed patch for one function
// does not prevent the others from landing; the report's Patches result
// says which ones failed.
func (s *Syncer) Sync(path string, opts Options) (*FileReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docsync: read %s: %w", path, err)
	}
	original := string(raw)

	report, err := s.diffContent(path, original)
	if err != nil {
		return nil, err
	}

	table, err := desctable.Load(filepath.Join(s.Root, s.Settings.DescriptionTablePath))
	if err != nil {
		return nil, err
	}

	remote, _ := gitlog.RemoteOriginURL(s.Root)
	modules := ImportedModules(original)
	today := opts.Today
	if today == "" {
		today = time.Now().Format(helpgen.DateLayout)
	}
	requested := opts.Requested
	if requested == nil {
		requested = helpgen.DefaultRequested()
	}

	content := original
	for _, fn := range report.Changes.All {
		if !opts.All && !fn.IsNew && !fn.IsChanged {
			continue
		}
		ctx := helpgen.Context{
			IsNew:               fn.IsNew,
			IsChanged:           fn.IsChanged,
			AuthoredDescription: table.Lookup(fn.Name, fn.ParentName),
			Requested:           requested,
			UpdateVersion:       opts.UpdateVersion,
			Placeholders:        opts.Placeholders,
			DefaultAuthor:       s.Settings.Author,
			Today:               today,
			ImportedModules:     modules,
			RemoteURL:           remote,
			IndentUnit:          s.Settings.IndentUnit,
		}
		block := helpgen.Text(fn, ctx)

		// The existing block may live inside the body or precede the
		// signature; either way it is the replacement anchor. Only a
		// function with no block at all takes the insertion path.
		oldBlock := patch.Locate(fn.RawText).ExistingBlock
		if oldBlock == "" {
			oldBlock = fn.DocText
		}

		patched, patchErr := patch.Apply(content, oldBlock, block, fn.RawText)
		report.Patches.Record(fn.Name, patchErr)
		if patchErr != nil {
			s.Log.Printf("patch %s in %s failed: %v", fn.Name, path, patchErr)
			continue
		}
		content = patched
	}

	content = patch.StripTrailingWhitespace(content)
	report.Content = content
	report.Dirty = content != original

	s.seedDescriptionRows(table, report.Changes.Added)
	return report, nil
}

// seedDescriptionRows adds empty table rows for newly discovered functions
// so authors have a place to write descriptions, then saves the table.
func (s *Syncer) seedDescriptionRows(table *desctable.Table, added []*script.Function) {
	dirty := false
	for _, fn := range added {
		if table.Has(fn.Name, fn.ParentName) {
			continue
		}
		table.Set(fn.Name, fn.ParentName, "")
		dirty = true
	}
	if !dirty {
		return
	}
	path := filepath.Join(s.Root, s.Settings.DescriptionTablePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.Log.Printf("seed description rows: %v", err)
		return
	}
	if err := table.Save(path); err != nil {
		s.Log.Printf("seed description rows: %v", err)
	}
}

// relPath returns path relative to the syncer root, forward-slashed for git.
func (s *Syncer) relPath(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// SourceFiles walks root and returns the files matching the configured
// extensions, sorted, skipping dot-directories.
func (s *Syncer) SourceFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Settings.WantsFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docsync: walk %s: %w", s.Root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ImportedModules scans source for Import-Module and "using module"
// statements and returns the distinct module names, sorted.
func ImportedModules(source string) []string {
	seen := make(map[string]bool)
	for _, line := range strings.Split(source, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		var name string
		switch {
		case len(fields) >= 2 && strings.EqualFold(fields[0], "Import-Module"):
			name = fields[1]
		case len(fields) >= 3 && strings.EqualFold(fields[0], "using") && strings.EqualFold(fields[1], "module"):
			name = fields[2]
		}
		name = strings.Trim(name, `"'`)
		if name != "" && !strings.HasPrefix(name, "-") {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
