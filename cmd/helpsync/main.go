package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"helpsync/internal/changelog"
	"helpsync/internal/config"
	"helpsync/internal/docsync"
	"helpsync/internal/funcdiff"
	"helpsync/internal/helpgen"
	"helpsync/internal/logging"
	"helpsync/internal/manifest"
	"helpsync/internal/patch"
	"helpsync/internal/registry"
	"helpsync/internal/script"
	"helpsync/internal/ui"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Create .helpsync/settings.yaml for this project",
		usage: "helpsync init",
		long: `Create the settings file for the current project.

Prompts for the default author and writes .helpsync/settings.yaml.
Errors if the settings file already exists.
`,
		run: runInit,
	},
	{
		name:  "sync",
		short: "Regenerate help blocks for new and changed functions",
		usage: "helpsync sync [flags] [file ...]",
		long: `Diff each source file against its last committed revision, synthesize
help blocks for new and changed functions, and patch them in place.

With no file arguments every source file under the root is processed.
A failed patch for one function is logged and skipped; the rest of the
file is still written.
`,
		run: runSync,
	},
	{
		name:  "report",
		short: "Print the change-set without modifying anything",
		usage: "helpsync report [flags] [file ...]",
		long: `Diff each source file against its last committed revision and print
the rendered change-set to stdout. Files are not modified.
`,
		run: runReport,
	},
	{
		name:  "manifest",
		short: "Refresh the module manifest's exported function list",
		usage: "helpsync manifest [flags]",
		long: `Rebuild the functions_to_export list in the module manifest from the
top-level functions of every source file. Creates the manifest if it
does not exist. The version is not bumped.
`,
		run: runManifest,
	},
	{
		name:  "clean",
		short: "Strip trailing whitespace from source files",
		usage: "helpsync clean [flags] [file ...]",
		long: `Remove trailing spaces and tabs from every line of the given files,
or of every source file under the root when none are given.
`,
		run: runClean,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "helpsync keeps script help blocks in step with function changes.\n\n")
	fmt.Fprintf(w, "Usage:\n  helpsync <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'helpsync help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "helpsync: unknown command %q\n\nRun 'helpsync help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'helpsync help' for usage.", args[0])
}

// rootFlag registers the shared --root flag on a flag set.
func rootFlag(fs *pflag.FlagSet) *string {
	return fs.StringP("root", "r", ".", "project root directory")
}

// openProject loads settings and the run log for root.
func openProject(root string) (*config.Settings, *logging.Logger, error) {
	settings, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.Open(filepath.Join(root, settings.LogPath))
	if err != nil {
		return nil, nil, err
	}
	return settings, log, nil
}

// targetFiles resolves explicit arguments, or every source file under the
// root when none are given.
func targetFiles(s *docsync.Syncer, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return s.SourceFiles()
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	root := rootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := filepath.Join(*root, config.Dir, "settings.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings already exist at %s", path)
	}

	answers, err := promptQuestions([]question{
		{key: "author", prompt: "Default author for NOTES sections"},
		{key: "changelog", prompt: "Change log path (empty for CHANGELOG.md)"},
	})
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	settings := config.Default()
	settings.Author = answers["author"]
	if answers["changelog"] != "" {
		settings.ChangelogPath = answers["changelog"]
	}
	if err := settings.Save(*root); err != nil {
		return err
	}
	ui.Success("wrote %s", path)
	return nil
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func runSync(args []string) error {
	fs := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	root := rootFlag(fs)
	updateVersion := fs.BoolP("update-version", "u", false, "bump NOTES versions for changed functions")
	all := fs.BoolP("all", "a", false, "synthesize blocks for every function, not just new and changed")
	placeholders := fs.Bool("placeholders", false, "emit empty headings for missing core fields")
	dryRun := fs.BoolP("dry-run", "n", false, "report what would change without writing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, log, err := openProject(*root)
	if err != nil {
		return err
	}
	defer log.Close()
	syncer := docsync.New(*root, settings, log)

	files, err := targetFiles(syncer, fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		ui.Info("no source files found under %s", *root)
		return nil
	}

	opts := docsync.Options{
		UpdateVersion: *updateVersion,
		All:           *all,
		Placeholders:  *placeholders,
	}

	merged := &funcdiff.ChangeSet{}
	failed := false
	for _, file := range files {
		report, err := syncer.Sync(file, opts)
		if err != nil {
			ui.Error("%s: %v", file, err)
			failed = true
			continue
		}
		if !report.OK() {
			for _, o := range report.Patches.Failed() {
				ui.Warning("%s: %s: %v", file, o.Function, o.Err)
			}
			failed = true
		}

		if report.Dirty && !*dryRun {
			if err := os.WriteFile(file, []byte(report.Content), 0o644); err != nil {
				ui.Error("%s: write: %v", file, err)
				failed = true
				continue
			}
			meta := changelog.Entry{
				File: file,
				Date: time.Now().Format(helpgen.DateLayout),
			}
			if report.Commit != nil {
				meta.Commit = report.Commit.Hash
				meta.Author = report.Commit.Author
			}
			clPath := filepath.Join(*root, settings.ChangelogPath)
			if err := changelog.Append(clPath, meta, report.Changes); err != nil {
				ui.Warning("%s: %v", file, err)
			}
		}

		mergeChangeSet(merged, report.Changes)
		ui.Success("%s: %d added, %d removed, %d changed",
			file, len(report.Changes.Added), len(report.Changes.Removed), len(report.Changes.Changed))
	}

	if !*dryRun && !merged.Empty() {
		if err := bumpManifest(*root, settings, syncer, merged); err != nil {
			ui.Warning("manifest: %v", err)
		}
	}
	if failed {
		return fmt.Errorf("one or more files failed to sync cleanly")
	}
	return nil
}

func mergeChangeSet(dst, src *funcdiff.ChangeSet) {
	dst.Added = append(dst.Added, src.Added...)
	dst.Removed = append(dst.Removed, src.Removed...)
	dst.Changed = append(dst.Changed, src.Changed...)
	dst.All = append(dst.All, src.All...)
}

func bumpManifest(root string, settings *config.Settings, syncer *docsync.Syncer, cs *funcdiff.ChangeSet) error {
	path := filepath.Join(root, settings.ManifestPath)
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if m == nil {
		m = manifest.New(filepath.Base(mustAbs(root)), settings.Author)
	}
	if m.Bump(cs) {
		ui.Info("manifest version -> %s", m.Version)
	}
	names, err := exportedFunctions(syncer)
	if err != nil {
		return err
	}
	m.SetExports(names)
	return m.Save(path)
}

// exportedFunctions collects top-level function names across every source
// file under the root.
func exportedFunctions(syncer *docsync.Syncer) ([]string, error) {
	files, err := syncer.SourceFiles()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		fns := registry.Build(script.Parse(string(data)))
		names = append(names, registry.TopLevel(fns)...)
	}
	return names, nil
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// ---------------------------------------------------------------------------
// report
// ---------------------------------------------------------------------------

func runReport(args []string) error {
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	root := rootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, log, err := openProject(*root)
	if err != nil {
		return err
	}
	defer log.Close()
	syncer := docsync.New(*root, settings, log)

	files, err := targetFiles(syncer, fs.Args())
	if err != nil {
		return err
	}

	for _, file := range files {
		report, err := syncer.Diff(file)
		if err != nil {
			ui.Error("%s: %v", file, err)
			continue
		}
		if report.Changes.Empty() {
			ui.Info("%s: no changes", file)
			continue
		}
		meta := changelog.Entry{File: file, Date: time.Now().Format(helpgen.DateLayout)}
		if report.Commit != nil {
			meta.Commit = report.Commit.Hash
			meta.Author = report.Commit.Author
		}
		text, err := changelog.Render(meta, report.Changes)
		if err != nil {
			return err
		}
		fmt.Print(text)
	}
	return nil
}

// ---------------------------------------------------------------------------
// manifest
// ---------------------------------------------------------------------------

func runManifest(args []string) error {
	fs := pflag.NewFlagSet("manifest", pflag.ContinueOnError)
	root := rootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, log, err := openProject(*root)
	if err != nil {
		return err
	}
	defer log.Close()
	syncer := docsync.New(*root, settings, log)

	path := filepath.Join(*root, settings.ManifestPath)
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if m == nil {
		m = manifest.New(filepath.Base(mustAbs(*root)), settings.Author)
	}
	names, err := exportedFunctions(syncer)
	if err != nil {
		return err
	}
	m.SetExports(names)
	if err := m.Save(path); err != nil {
		return err
	}
	ui.Success("wrote %s (%d exported functions)", path, len(names))
	return nil
}

// ---------------------------------------------------------------------------
// clean
// ---------------------------------------------------------------------------

func runClean(args []string) error {
	fs := pflag.NewFlagSet("clean", pflag.ContinueOnError)
	root := rootFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, log, err := openProject(*root)
	if err != nil {
		return err
	}
	defer log.Close()
	syncer := docsync.New(*root, settings, log)

	files, err := targetFiles(syncer, fs.Args())
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			ui.Error("%s: %v", file, err)
			continue
		}
		cleaned := patch.StripTrailingWhitespace(string(data))
		if cleaned == string(data) {
			continue
		}
		if err := os.WriteFile(file, []byte(cleaned), 0o644); err != nil {
			ui.Error("%s: %v", file, err)
			continue
		}
		ui.Success("cleaned %s", file)
	}
	return nil
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

type question struct {
	key    string
	prompt string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.prompt
		ti.CharLimit = 256
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.key] = final.inputs[i].Value()
	}
	return answers, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
