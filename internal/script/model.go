// Package script models parsed script-module source: function definitions
// with their parameter blocks, attributes, and comment-based help. The
// scanner in parse.go is a thin adapter that produces these values; the
// registry, differ, and help generator operate on them without touching
// source text again.
package script

import (
	"fmt"
	"sort"
	"strings"
)

// Function is one parsed function definition. Exactly one Function exists
// per syntactic definition in a file; nesting is recorded via ParentName
// (assigned by the registry, not the scanner).
type Function struct {
	Name       string
	ParentName string

	// 1-based source coordinates of the full definition span.
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int

	Parameters []Parameter
	Attributes []Attribute
	Doc        DocBlock

	// DocText is the raw text of the attached comment block, including the
	// indentation of its opening line. Empty when the function carries no
	// block. A block preceding the signature sits outside RawText, so the
	// patcher needs this as its replacement anchor.
	DocText string

	// RawText is the exact source span of the definition. It doubles as the
	// diff key and the patch anchor, so it must be byte-faithful.
	RawText string

	// Set by the differ, read by the help generator.
	IsNew     bool
	IsChanged bool
}

// LineCount returns the number of lines the definition spans.
func (f *Function) LineCount() int { return f.EndLine - f.StartLine }

// Parameter is one entry of a function's param block. Binding holds the
// literal source text of recognized [Parameter(...)] arguments, keyed by
// canonical name (see BindingKeys). Text is preserved verbatim, never
// evaluated, because the differ compares textually.
type Parameter struct {
	Name         string
	StaticType   string
	DefaultValue string
	Binding      map[string]string
	Attributes   []Attribute
}

// BindingKeys lists the recognized [Parameter(...)] argument names, in the
// order the differ reports them.
var BindingKeys = []string{
	"Mandatory",
	"Position",
	"HelpMessage",
	"ParameterSetName",
	"ValueFromPipeline",
}

// ParameterSet returns the literal ParameterSetName argument, or "" when the
// parameter belongs to every set.
func (p Parameter) ParameterSet() string {
	return strings.Trim(p.Binding["ParameterSetName"], `"'`)
}

// IsMandatory reports whether the Mandatory argument is present and not
// explicitly $false.
func (p Parameter) IsMandatory() bool {
	v, ok := p.Binding["Mandatory"]
	if !ok {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(v), "$false")
}

// AttributeKind identifies one of the closed set of recognized attribute
// shapes. Anything unrecognized is carried verbatim as AttrOther.
type AttributeKind int

const (
	AttrParameter AttributeKind = iota
	AttrValidateSet
	AttrValidateNotNullOrEmpty
	AttrCmdletBinding
	AttrOutputType
	AttrOther
)

func (k AttributeKind) String() string {
	switch k {
	case AttrParameter:
		return "Parameter"
	case AttrValidateSet:
		return "ValidateSet"
	case AttrValidateNotNullOrEmpty:
		return "ValidateNotNullOrEmpty"
	case AttrCmdletBinding:
		return "CmdletBinding"
	case AttrOutputType:
		return "OutputType"
	default:
		return "Other"
	}
}

// Attribute is a typed tag on a function or parameter. Which fields are
// populated depends on Kind:
//
//	AttrParameter, AttrCmdletBinding  Args (name -> literal text)
//	AttrValidateSet                   Values (allowed literals)
//	AttrOutputType                    Types (declared type names)
//	AttrValidateNotNullOrEmpty        nothing beyond the kind
//	AttrOther                         Raw (verbatim source)
type Attribute struct {
	Kind   AttributeKind
	Args   map[string]string
	Values []string
	Types  []string
	Raw    string
}

// Text renders the attribute in canonical source-like form. The differ uses
// this as both the attribute identity and its comparable value.
func (a Attribute) Text() string {
	switch a.Kind {
	case AttrValidateSet:
		return fmt.Sprintf("ValidateSet(%s)", strings.Join(a.Values, ", "))
	case AttrValidateNotNullOrEmpty:
		return "ValidateNotNullOrEmpty()"
	case AttrOutputType:
		return fmt.Sprintf("OutputType(%s)", strings.Join(a.Types, ", "))
	case AttrParameter, AttrCmdletBinding:
		return fmt.Sprintf("%s(%s)", a.Kind, renderArgs(a.Args))
	default:
		return a.Raw
	}
}

// ArgText renders only the argument portion, used when the differ reports a
// value change on a matching attribute name.
func (a Attribute) ArgText() string {
	switch a.Kind {
	case AttrValidateSet:
		return strings.Join(a.Values, ", ")
	case AttrOutputType:
		return strings.Join(a.Types, ", ")
	case AttrParameter, AttrCmdletBinding:
		return renderArgs(a.Args)
	default:
		return a.Raw
	}
}

func renderArgs(args map[string]string) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		if args[k] == "" {
			parts[i] = k
		} else {
			parts[i] = k + " = " + args[k]
		}
	}
	return strings.Join(parts, ", ")
}
