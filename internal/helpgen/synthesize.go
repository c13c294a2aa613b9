// Package helpgen synthesizes comment-help blocks for parsed functions. For
// each recognized field it merges freshly generated content with whatever the
// author previously wrote, then renders the block indented to match the
// function's source column.
package helpgen

import (
	"fmt"
	"strings"
	"unicode"

	"helpsync/internal/script"
)

// Context carries everything one synthesis call needs beyond the function
// itself. It is threaded explicitly; there is no package-level configuration.
type Context struct {
	// Change flags, as set by the differ.
	IsNew     bool
	IsChanged bool

	// AuthoredDescription is the human-written description looked up from
	// the description table, empty when the table has no row.
	AuthoredDescription string

	// Requested marks the fields the caller wants regenerated. Fields not in
	// the set fall back to previously parsed content.
	Requested map[script.FieldName]bool

	// UpdateVersion enables the NOTES version-bump policy.
	UpdateVersion bool

	// Placeholders forces empty headings for Synopsis, Description,
	// Examples, and Links when neither generated nor prior content exists.
	Placeholders bool

	DefaultAuthor   string
	Today           string // DateLayout-formatted; injectable for tests
	ImportedModules []string
	RemoteURL       string

	// IndentUnit is one indentation level, e.g. four spaces.
	IndentUnit string
}

// DefaultRequested returns the field set regenerated by a normal sync run.
func DefaultRequested() map[script.FieldName]bool {
	return map[script.FieldName]bool{
		script.FieldSynopsis:    true,
		script.FieldDescription: true,
		script.FieldExamples:    true,
		script.FieldNotes:       true,
		script.FieldComponent:   true,
		script.FieldLinks:       true,
		script.FieldParameters:  true,
	}
}

// Synthesize computes a new comment-help block for fn and returns its lines.
// Field policy, evaluated independently per field: generated content wins
// when the field was requested and the generator produced something;
// otherwise prior parsed content is kept, reformatted to consistent
// indentation; otherwise the field is omitted (unless Placeholders demands
// an empty heading).
func Synthesize(fn *script.Function, ctx Context) []string {
	base := strings.Repeat(" ", max(fn.StartColumn-1, 0))
	ind := base + ctx.IndentUnit
	content := ind + ctx.IndentUnit

	lines := []string{ind + script.BlockOpen}

	emit := func(tag string, body []string) {
		lines = append(lines, ind+"."+tag)
		for _, l := range body {
			if l == "" {
				lines = append(lines, "")
				continue
			}
			lines = append(lines, content+l)
		}
	}

	for _, field := range script.FieldOrder {
		switch field {
		case script.FieldExamples:
			examples := fn.Doc.Examples
			if ctx.Requested[field] {
				if gen := GenerateExamples(fn); len(gen) > 0 {
					examples = gen
				}
			}
			if len(examples) == 0 && ctx.Placeholders {
				emit(field.Tag(), nil)
			}
			for _, ex := range examples {
				emit(field.Tag(), ex)
			}
		case script.FieldParameters:
			for _, p := range parameterHelp(fn, ctx.Requested[field]) {
				emit(field.Tag()+" "+p.name, p.lines)
			}
		default:
			body := fieldContent(fn, field, ctx)
			if len(body) == 0 {
				if ctx.Placeholders && placeholderField(field) {
					emit(field.Tag(), nil)
				}
				continue
			}
			emit(field.Tag(), body)
		}
	}

	lines = append(lines, ind+script.BlockClose)
	return lines
}

// Text returns the synthesized block as a single string, the form the
// patcher splices into file content.
func Text(fn *script.Function, ctx Context) string {
	return strings.Join(Synthesize(fn, ctx), "\n")
}

func placeholderField(f script.FieldName) bool {
	switch f {
	case script.FieldSynopsis, script.FieldDescription, script.FieldLinks:
		return true
	}
	return false
}

// fieldContent applies the per-field policy for simple fields.
func fieldContent(fn *script.Function, field script.FieldName, ctx Context) []string {
	if ctx.Requested[field] {
		if gen := generate(fn, field, ctx); len(gen) > 0 {
			return gen
		}
	}
	return fn.Doc.Field(field)
}

// generate dispatches to the field-specific generator. Fields without one
// return nil and fall through to prior content.
func generate(fn *script.Function, field script.FieldName, ctx Context) []string {
	switch field {
	case script.FieldSynopsis:
		return generateSynopsis(fn)
	case script.FieldDescription:
		if ctx.AuthoredDescription != "" {
			return strings.Split(ctx.AuthoredDescription, "\n")
		}
	case script.FieldNotes:
		notes := ParseNotes(fn.Doc.Notes, fn.Doc.Synopsis)
		return notes.Bump(ctx.IsChanged, ctx.UpdateVersion, ctx.DefaultAuthor, ctx.Today).Render()
	case script.FieldComponent:
		// Existing component text wins; modules are only inferred for
		// functions that never declared one.
		if len(fn.Doc.Component) == 0 && len(ctx.ImportedModules) > 0 {
			return []string{strings.Join(ctx.ImportedModules, ", ")}
		}
	case script.FieldLinks:
		if len(fn.Doc.Links) == 0 && ctx.RemoteURL != "" {
			return []string{normalizeRemote(ctx.RemoteURL)}
		}
	}
	return nil
}

// generateSynopsis keeps a well-formed existing synopsis verbatim. An absent
// synopsis, or one spanning more than two lines (the malformed heuristic),
// is replaced by a title derived from the function name.
func generateSynopsis(fn *script.Function) []string {
	existing := fn.Doc.Synopsis
	if n := len(existing); n >= 1 && n <= 2 {
		out := make([]string, 0, n)
		for _, l := range existing {
			out = append(out, strings.TrimSpace(l))
		}
		return out
	}
	return []string{TitleFromName(fn.Name)}
}

// normalizeRemote rewrites an ssh-style origin URL ("git@host:owner/repo.git")
// to https form and strips a trailing .git either way.
func normalizeRemote(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if rest, ok := strings.CutPrefix(url, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if found {
			return "https://" + host + "/" + path
		}
	}
	return url
}

// TitleFromName splits a function name into words at case boundaries and
// separators: "Get-UserName" becomes "Get User Name".
func TitleFromName(name string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '.':
			flush()
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				flush()
			} else if i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1]) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

// ---------------------------------------------------------------------------
// Examples
// ---------------------------------------------------------------------------

// GenerateExamples builds one example invocation per distinct parameter set.
// Mandatory parameters come first and unbracketed; optional parameters are
// bracketed, with a default-value suffix when one exists. A function whose
// parameters declare no sets yields a single example.
func GenerateExamples(fn *script.Function) [][]string {
	if len(fn.Parameters) == 0 {
		return [][]string{{fn.Name}}
	}

	var sets []string
	seen := map[string]bool{}
	for _, p := range fn.Parameters {
		set := p.ParameterSet()
		if !seen[set] {
			seen[set] = true
			sets = append(sets, set)
		}
	}
	// Parameters without a set name belong to every set; if named sets
	// exist, the unnamed pseudo-set disappears into them.
	if len(sets) > 1 && seen[""] {
		filtered := sets[:0]
		for _, s := range sets {
			if s != "" {
				filtered = append(filtered, s)
			}
		}
		sets = filtered
	}

	var examples [][]string
	for _, set := range sets {
		examples = append(examples, []string{invocationLine(fn, set)})
	}
	return examples
}

func invocationLine(fn *script.Function, set string) string {
	var mandatory, optional []string
	for _, p := range fn.Parameters {
		ps := p.ParameterSet()
		if ps != "" && ps != set {
			continue
		}
		if p.IsMandatory() {
			mandatory = append(mandatory, fmt.Sprintf("-%s $%s", p.Name, p.Name))
		} else {
			part := fmt.Sprintf("[-%s $%s", p.Name, p.Name)
			if p.DefaultValue != "" {
				part += " = " + p.DefaultValue
			}
			optional = append(optional, part+"]")
		}
	}
	parts := append([]string{fn.Name}, mandatory...)
	parts = append(parts, optional...)
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Parameter help
// ---------------------------------------------------------------------------

type paramDoc struct {
	name  string
	lines []string
}

// parameterHelp returns one entry per function parameter that has any help
// text: prior .PARAMETER content first, else (when regeneration was
// requested) the literal HelpMessage argument.
func parameterHelp(fn *script.Function, requested bool) []paramDoc {
	var docs []paramDoc
	for _, p := range fn.Parameters {
		lines := fn.Doc.ParamHelp[p.Name]
		if len(lines) == 0 && requested {
			if msg := strings.Trim(p.Binding["HelpMessage"], `"'`); msg != "" {
				lines = []string{msg}
			}
		}
		if len(lines) > 0 {
			docs = append(docs, paramDoc{name: p.Name, lines: lines})
		}
	}
	// Keep help for parameters that no longer exist out of the block, but
	// preserve documented-only names when the function has no param block at
	// all (the scanner may have been unable to see it).
	if len(docs) == 0 && len(fn.Parameters) == 0 {
		for _, name := range fn.Doc.ParamOrder {
			docs = append(docs, paramDoc{name: name, lines: fn.Doc.ParamHelp[name]})
		}
	}
	return docs
}
