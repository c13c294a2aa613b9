// Package patch locates existing comment-help blocks inside function text
// and splices replacements into file content. The one safety invariant that
// matters here: never replace when the anchor text is not uniquely
// identifying. A failed patch is recorded and skipped; it never aborts the
// rest of the file.
package patch

import (
	"errors"
	"strings"

	"helpsync/internal/script"
)

var (
	// ErrBlockNotFound means the anchor text had zero occurrences in the
	// file content.
	ErrBlockNotFound = errors.New("patch: anchor block not found in file content")

	// ErrAmbiguousBlock means the anchor text occurred more than once, so a
	// blind replacement could corrupt an unrelated region.
	ErrAmbiguousBlock = errors.New("patch: anchor block occurs more than once")
)

// Location is the result of splitting a function's raw text.
type Location struct {
	// PrecedingCode is the signature portion before the first opening brace.
	PrecedingCode string

	// ExistingBlock is the comment-help block found in the body, including
	// the indentation of its opening line. Empty when the function carries
	// no block.
	ExistingBlock string
}

// Locate splits a function's raw text on its first opening brace to isolate
// the signature, then extracts the comment delimited by the block markers if
// one is present.
func Locate(functionRawText string) Location {
	brace := strings.IndexByte(functionRawText, '{')
	if brace < 0 {
		return Location{PrecedingCode: functionRawText}
	}
	loc := Location{PrecedingCode: functionRawText[:brace]}

	body := functionRawText[brace:]
	open := strings.Index(body, script.BlockOpen)
	if open < 0 {
		return loc
	}
	end := strings.Index(body[open:], script.BlockClose)
	if end < 0 {
		return loc
	}
	end = open + end + len(script.BlockClose)

	// Pull the opening line's indentation into the block so a replacement
	// indented for the function's column lands flush.
	start := open
	for start > 0 && (body[start-1] == ' ' || body[start-1] == '\t') {
		start--
	}
	loc.ExistingBlock = body[start:end]
	return loc
}

// Apply replaces oldBlock with newBlock in fileContent. When oldBlock is
// empty the function has no prior block and newBlock is inserted on its own
// lines immediately before the line holding anchor (the function's raw
// text). Both paths enforce the uniqueness invariant: zero matches yield
// ErrBlockNotFound, several yield ErrAmbiguousBlock, and in either case the
// content is returned unmodified. All text outside the matched span is left
// byte-for-byte unchanged.
func Apply(fileContent, oldBlock, newBlock, anchor string) (string, error) {
	if oldBlock != "" {
		switch strings.Count(fileContent, oldBlock) {
		case 0:
			return fileContent, ErrBlockNotFound
		case 1:
			return strings.Replace(fileContent, oldBlock, newBlock, 1), nil
		default:
			return fileContent, ErrAmbiguousBlock
		}
	}

	switch strings.Count(fileContent, anchor) {
	case 0:
		return fileContent, ErrBlockNotFound
	case 1:
	default:
		return fileContent, ErrAmbiguousBlock
	}

	pos := strings.Index(fileContent, anchor)
	lineStart := strings.LastIndexByte(fileContent[:pos], '\n') + 1
	return fileContent[:lineStart] + newBlock + "\n" + fileContent[lineStart:], nil
}

// ---------------------------------------------------------------------------
// Result aggregation
// ---------------------------------------------------------------------------

// Outcome records the patch result for one function.
type Outcome struct {
	Function string
	Err      error
}

// Result aggregates per-function outcomes for one file pass. It replaces
// scattered boolean flags: the overall success answer and the failure detail
// live in one value.
type Result struct {
	Outcomes []Outcome
}

// Record appends one outcome.
func (r *Result) Record(function string, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Function: function, Err: err})
}

// OK reports whether every recorded outcome succeeded.
func (r Result) OK() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that carry an error.
func (r Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// ---------------------------------------------------------------------------
// Whitespace cleanup
// ---------------------------------------------------------------------------

// StripTrailingWhitespace removes trailing spaces and tabs from every line,
// preserving line structure and the presence or absence of a final newline.
func StripTrailingWhitespace(content string) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}
