package script

import (
	"strings"
	"unicode"
)

// Parse scans script source and returns one Function per syntactic function
// definition, in source order, with parameters, attributes, and comment-help
// parsed. ParentName is left empty; hierarchy assignment is the registry's
// job. Source with no function definitions yields an empty slice, never an
// error.
func Parse(source string) []*Function {
	sc := scan(source)

	fns := make([]*Function, 0, len(sc.functions))
	for _, span := range sc.functions {
		fn := &Function{
			Name:        span.name,
			StartLine:   span.startLine,
			StartColumn: span.startCol,
			EndLine:     span.endLine,
			EndColumn:   span.endCol,
			RawText:     source[span.start:span.end],
		}
		fns = append(fns, fn)
	}

	// Attach comment-help: a block comment documents the function whose
	// signature immediately follows it, else the innermost function
	// enclosing it. First attachment per function wins.
	for _, cs := range sc.comments {
		idx := attachDoc(source, sc.functions, cs)
		if idx < 0 || fns[idx].Doc.ParamHelp != nil {
			continue
		}
		// Pull the opening line's indentation into the recorded text so a
		// replacement indented for the function's column lands flush.
		start := cs.start
		for start > 0 && (source[start-1] == ' ' || source[start-1] == '\t') {
			start--
		}
		fns[idx].DocText = source[start:cs.end]
		fns[idx].Doc = ParseDocBlock(source[cs.start:cs.end])
	}

	// Attach param blocks and function-level attributes.
	for _, ps := range sc.paramBlocks {
		idx := innermost(sc.functions, ps.open)
		if idx < 0 || fns[idx].Parameters != nil {
			continue
		}
		fns[idx].Parameters = parseParamBlock(source[ps.open+1 : ps.close])
		fns[idx].Attributes = parseFunctionAttributes(source, sc.functions[idx], ps.open)
	}
	for i, span := range sc.functions {
		if fns[i].Attributes == nil {
			fns[i].Attributes = parseFunctionAttributes(source, span, span.end)
		}
		if fns[i].Doc.ParamHelp == nil {
			fns[i].Doc.ParamHelp = make(map[string][]string)
		}
	}

	return fns
}

// ---------------------------------------------------------------------------
// Scanner
// ---------------------------------------------------------------------------

type funcSpan struct {
	name                string
	start, end          int // byte offsets, end exclusive
	startLine, startCol int
	endLine, endCol     int
	bodyOpen            int // offset of the body '{'
	depth               int
}

type textSpan struct{ start, end int }

type paramSpan struct{ open, close int } // offsets of '(' and ')'

type scanResult struct {
	functions   []funcSpan
	comments    []textSpan
	paramBlocks []paramSpan
}

// scan walks the source once, tracking strings and comments, and records
// function spans, block comments, and param(...) blocks.
func scan(src string) scanResult {
	var res scanResult

	line, col := 1, 1
	depth := 0
	var open []int // indices into res.functions of functions awaiting close
	pending := -1  // function awaiting its body '{'

	i := 0
	advance := func(n int) {
		for k := 0; k < n && i < len(src); k++ {
			if src[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '#':
			// line comment
			for i < len(src) && src[i] != '\n' {
				advance(1)
			}
		case c == '<' && i+1 < len(src) && src[i+1] == '#':
			start := i
			advance(2)
			for i+1 < len(src) && !(src[i] == '#' && src[i+1] == '>') {
				advance(1)
			}
			advance(2)
			res.comments = append(res.comments, textSpan{start, i})
		case c == '\'' || c == '"':
			quote := c
			advance(1)
			for i < len(src) {
				if src[i] == '`' && quote == '"' { // escape in expandable strings
					advance(2)
					continue
				}
				if src[i] == quote {
					advance(1)
					break
				}
				advance(1)
			}
		case c == '{':
			depth++
			if pending >= 0 {
				res.functions[pending].bodyOpen = i
				res.functions[pending].depth = depth
				open = append(open, pending)
				pending = -1
			}
			advance(1)
		case c == '}':
			if n := len(open); n > 0 && res.functions[open[n-1]].depth == depth {
				f := &res.functions[open[n-1]]
				f.end = i + 1
				f.endLine = line
				f.endCol = col
				open = open[:n-1]
			}
			depth--
			advance(1)
		case isWordStart(c):
			wordStart, wordLine, wordCol := i, line, col
			for i < len(src) && isWordChar(src[i]) {
				advance(1)
			}
			word := strings.ToLower(src[wordStart:i])
			switch word {
			case "function", "filter", "workflow":
				// skip whitespace, read the function name
				for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
					advance(1)
				}
				nameStart := i
				for i < len(src) && isNameChar(src[i]) {
					advance(1)
				}
				if i > nameStart {
					res.functions = append(res.functions, funcSpan{
						name:      src[nameStart:i],
						start:     wordStart,
						startLine: wordLine,
						startCol:  wordCol,
					})
					pending = len(res.functions) - 1
				}
			case "param":
				j := i
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j < len(src) && src[j] == '(' {
					advance(j - i)
					openIdx := i
					closeIdx := matchParen(src, openIdx)
					res.paramBlocks = append(res.paramBlocks, paramSpan{openIdx, closeIdx})
					advance(closeIdx + 1 - i)
				}
			}
		default:
			advance(1)
		}
	}

	// Unterminated or bodiless functions: close at EOF so the scanner never
	// drops input or produces an empty span.
	for idx := range res.functions {
		f := &res.functions[idx]
		if f.end == 0 {
			f.end = len(src)
			f.endLine = line
			f.endCol = col
		}
	}

	return res
}

func isWordStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isWordChar(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func isNameChar(c byte) bool {
	return isWordChar(c) || c == '-' || c == '.' || c == ':'
}

// matchParen returns the offset of the ')' matching the '(' at open,
// skipping strings and comments. Returns len(src)-1 when unbalanced.
func matchParen(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '\'', '"':
			quote := src[i]
			for i++; i < len(src); i++ {
				if src[i] == '`' && quote == '"' {
					i++
					continue
				}
				if src[i] == quote {
					break
				}
			}
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '<':
			if i+1 < len(src) && src[i+1] == '#' {
				for i+1 < len(src) && !(src[i] == '#' && src[i+1] == '>') {
					i++
				}
				i++
			}
		}
	}
	return len(src) - 1
}

// attachDoc picks the function a block comment documents: the definition
// whose signature starts right after the comment with only whitespace
// between, else the innermost function enclosing the comment.
func attachDoc(src string, spans []funcSpan, cs textSpan) int {
	for i, s := range spans {
		if s.start >= cs.end && strings.TrimSpace(src[cs.end:s.start]) == "" {
			return i
		}
	}
	return innermost(spans, cs.start)
}

// innermost returns the index of the smallest function span containing
// offset, or -1.
func innermost(spans []funcSpan, offset int) int {
	best := -1
	for i, s := range spans {
		if offset <= s.start || offset >= s.end {
			continue
		}
		if best < 0 || (s.start > spans[best].start && s.end < spans[best].end) {
			best = i
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Param block parsing
// ---------------------------------------------------------------------------

// parseParamBlock parses the interior of a param( ... ) block into
// Parameters. Each top-level comma separates one parameter declaration.
func parseParamBlock(interior string) []Parameter {
	var params []Parameter
	for _, chunk := range splitTopLevel(interior, ',') {
		chunk = stripComments(chunk)
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if p, ok := parseParameter(chunk); ok {
			params = append(params, p)
		}
	}
	if params == nil {
		params = []Parameter{}
	}
	return params
}

// parseParameter parses one declaration: attribute and type brackets, the
// $Name variable, and an optional default expression.
func parseParameter(chunk string) (Parameter, bool) {
	p := Parameter{Binding: make(map[string]string)}
	rest := strings.TrimSpace(chunk)

	for strings.HasPrefix(rest, "[") {
		close := matchBracket(rest)
		if close < 0 {
			break
		}
		inner := rest[1:close]
		rest = strings.TrimSpace(rest[close+1:])

		attr, isAttr := parseAttribute(inner)
		if isAttr {
			p.Attributes = append(p.Attributes, attr)
			if attr.Kind == AttrParameter {
				for _, key := range BindingKeys {
					for k, v := range attr.Args {
						if strings.EqualFold(k, key) {
							p.Binding[key] = v
						}
					}
				}
			}
			continue
		}
		// A bare bracket group with no arguments is the static type.
		p.StaticType = strings.TrimSpace(inner)
	}

	if !strings.HasPrefix(rest, "$") {
		return p, false
	}
	rest = rest[1:]
	end := 0
	for end < len(rest) && isWordChar(rest[end]) {
		end++
	}
	p.Name = rest[:end]
	rest = strings.TrimSpace(rest[end:])

	if strings.HasPrefix(rest, "=") {
		p.DefaultValue = strings.TrimSpace(rest[1:])
	}
	return p, p.Name != ""
}

// parseAttribute classifies a bracket group interior. Returns ok=false when
// the group is a plain type annotation rather than an attribute.
func parseAttribute(inner string) (Attribute, bool) {
	name, argText, hasParens := strings.Cut(inner, "(")
	name = strings.TrimSpace(name)
	if hasParens {
		argText = strings.TrimSuffix(strings.TrimSpace(argText), ")")
	}

	switch strings.ToLower(name) {
	case "parameter":
		return Attribute{Kind: AttrParameter, Args: parseNamedArgs(argText)}, true
	case "cmdletbinding":
		return Attribute{Kind: AttrCmdletBinding, Args: parseNamedArgs(argText)}, true
	case "validateset":
		return Attribute{Kind: AttrValidateSet, Values: splitTrimmed(argText)}, true
	case "validatenotnullorempty":
		return Attribute{Kind: AttrValidateNotNullOrEmpty}, true
	case "outputtype":
		var types []string
		for _, t := range splitTrimmed(argText) {
			types = append(types, strings.Trim(t, "[]'\""))
		}
		return Attribute{Kind: AttrOutputType, Types: types}, true
	}
	if hasParens {
		return Attribute{Kind: AttrOther, Raw: strings.TrimSpace(inner)}, true
	}
	return Attribute{}, false
}

// parseNamedArgs parses "Key = Value, Switch, ..." preserving literal value
// text exactly as written.
func parseNamedArgs(argText string) map[string]string {
	args := make(map[string]string)
	for _, part := range splitTopLevel(argText, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, found := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !found {
			args[k] = ""
			continue
		}
		args[k] = strings.TrimSpace(v)
	}
	return args
}

// parseFunctionAttributes collects attribute groups appearing in a
// function's direct body before limit (usually the param block). Bracket
// groups inside nested constructs are not considered: the scan is shallow
// and stops at the first statement that is not an attribute.
func parseFunctionAttributes(src string, span funcSpan, limit int) []Attribute {
	start := span.bodyOpen + 1
	if start <= 0 || start >= len(src) || limit <= start {
		return nil
	}
	region := src[start:limit]

	var attrs []Attribute
	rest := strings.TrimSpace(stripComments(region))
	for strings.HasPrefix(rest, "[") {
		close := matchBracket(rest)
		if close < 0 {
			break
		}
		if attr, ok := parseAttribute(rest[1:close]); ok {
			attrs = append(attrs, attr)
		}
		rest = strings.TrimSpace(rest[close+1:])
	}
	return attrs
}

// ---------------------------------------------------------------------------
// Small text helpers
// ---------------------------------------------------------------------------

// splitTopLevel splits on sep occurrences outside quotes, brackets, and
// parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '\'', '"':
			quote := s[i]
			for i++; i < len(s); i++ {
				if s[i] == '`' && quote == '"' {
					i++
					continue
				}
				if s[i] == quote {
					break
				}
			}
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

func splitTrimmed(s string) []string {
	var out []string
	for _, part := range splitTopLevel(s, ',') {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// matchBracket returns the index of the ']' matching the leading '[' of s,
// or -1.
func matchBracket(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		case '\'', '"':
			quote := s[i]
			for i++; i < len(s); i++ {
				if s[i] == quote {
					break
				}
			}
		}
	}
	return -1
}

// stripComments removes line and block comments (outside strings) from s.
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<':
			if i+1 < len(s) && s[i+1] == '#' {
				j := i + 2
				for j+1 < len(s) && !(s[j] == '#' && s[j+1] == '>') {
					j++
				}
				i = j + 1
				continue
			}
			b.WriteByte(c)
		case '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case '\'', '"':
			quote := c
			b.WriteByte(c)
			for i++; i < len(s); i++ {
				b.WriteByte(s[i])
				if s[i] == '`' && quote == '"' {
					i++
					if i < len(s) {
						b.WriteByte(s[i])
					}
					continue
				}
				if s[i] == quote {
					break
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
