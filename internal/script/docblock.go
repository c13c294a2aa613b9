package script

import (
	"strings"
)

// FieldName names one recognized comment-help field. The set is closed: tags
// outside it are preserved nowhere and simply dropped on re-synthesis.
type FieldName string

const (
	FieldSynopsis              FieldName = "Synopsis"
	FieldDescription           FieldName = "Description"
	FieldExamples              FieldName = "Examples"
	FieldNotes                 FieldName = "Notes"
	FieldComponent             FieldName = "Component"
	FieldLinks                 FieldName = "Links"
	FieldForwardHelpCategory   FieldName = "ForwardHelpCategory"
	FieldForwardHelpTargetName FieldName = "ForwardHelpTargetName"
	FieldFunctionality         FieldName = "Functionality"
	FieldInputs                FieldName = "Inputs"
	FieldMamlHelpFile          FieldName = "MamlHelpFile"
	FieldParameters            FieldName = "Parameters"
	FieldRemoteHelpRunspace    FieldName = "RemoteHelpRunspace"
	FieldRole                  FieldName = "Role"
)

// FieldOrder is the fixed emission order for synthesized blocks.
var FieldOrder = []FieldName{
	FieldSynopsis,
	FieldDescription,
	FieldExamples,
	FieldNotes,
	FieldComponent,
	FieldLinks,
	FieldForwardHelpCategory,
	FieldForwardHelpTargetName,
	FieldFunctionality,
	FieldInputs,
	FieldMamlHelpFile,
	FieldParameters,
	FieldRemoteHelpRunspace,
	FieldRole,
}

// Tag returns the comment-help tag emitted for the field. Examples and
// Parameters repeat their tag per entry; MamlHelpFile uses the EXTERNALHELP
// spelling the help system expects.
func (f FieldName) Tag() string {
	switch f {
	case FieldExamples:
		return "EXAMPLE"
	case FieldLinks:
		return "LINK"
	case FieldParameters:
		return "PARAMETER"
	case FieldMamlHelpFile:
		return "EXTERNALHELP"
	default:
		return strings.ToUpper(string(f))
	}
}

// DocBlock is the structured content of one comment-help block. Every field
// may be empty. Blocks are parsed fresh from source on every read and never
// mutated; synthesis always builds a new one.
type DocBlock struct {
	Synopsis              []string
	Description           []string
	Examples              [][]string
	Notes                 []string
	Component             []string
	Links                 []string
	ForwardHelpCategory   []string
	ForwardHelpTargetName []string
	Functionality         []string
	Inputs                []string
	MamlHelpFile          []string
	RemoteHelpRunspace    []string
	Role                  []string

	// Per-parameter help, keyed by parameter name. ParamOrder preserves the
	// order the .PARAMETER tags appeared in.
	ParamOrder []string
	ParamHelp  map[string][]string
}

// Field returns the lines of a simple (non-repeating) field. Examples and
// Parameters have dedicated shapes and return nil here.
func (d DocBlock) Field(name FieldName) []string {
	switch name {
	case FieldSynopsis:
		return d.Synopsis
	case FieldDescription:
		return d.Description
	case FieldNotes:
		return d.Notes
	case FieldComponent:
		return d.Component
	case FieldLinks:
		return d.Links
	case FieldForwardHelpCategory:
		return d.ForwardHelpCategory
	case FieldForwardHelpTargetName:
		return d.ForwardHelpTargetName
	case FieldFunctionality:
		return d.Functionality
	case FieldInputs:
		return d.Inputs
	case FieldMamlHelpFile:
		return d.MamlHelpFile
	case FieldRemoteHelpRunspace:
		return d.RemoteHelpRunspace
	case FieldRole:
		return d.Role
	}
	return nil
}

// IsEmpty reports whether no field carries any content.
func (d DocBlock) IsEmpty() bool {
	for _, f := range FieldOrder {
		if f == FieldExamples {
			if len(d.Examples) > 0 {
				return false
			}
			continue
		}
		if f == FieldParameters {
			if len(d.ParamOrder) > 0 {
				return false
			}
			continue
		}
		if len(d.Field(f)) > 0 {
			return false
		}
	}
	return true
}

// Comment-help block delimiters.
const (
	BlockOpen  = "<#"
	BlockClose = "#>"
)

// ParseDocBlock parses the text between <# and #> delimiters (delimiters may
// be present or already stripped) into a DocBlock. Unknown tags are ignored.
// Content lines are trimmed; leading and trailing blank lines per field are
// dropped so re-synthesis yields consistent indentation.
func ParseDocBlock(comment string) DocBlock {
	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, BlockOpen)
	body = strings.TrimSuffix(body, BlockClose)

	var d DocBlock
	d.ParamHelp = make(map[string][]string)

	var tag, arg string
	var buf []string

	flush := func() {
		lines := trimBlankEdges(buf)
		buf = nil
		switch tag {
		case "":
			// text before any tag is dropped
		case "SYNOPSIS":
			d.Synopsis = append(d.Synopsis, lines...)
		case "DESCRIPTION":
			d.Description = append(d.Description, lines...)
		case "EXAMPLE":
			d.Examples = append(d.Examples, lines)
		case "NOTES":
			d.Notes = append(d.Notes, lines...)
		case "COMPONENT":
			d.Component = append(d.Component, lines...)
		case "LINK":
			d.Links = append(d.Links, lines...)
		case "FORWARDHELPCATEGORY":
			d.ForwardHelpCategory = append(d.ForwardHelpCategory, lines...)
		case "FORWARDHELPTARGETNAME":
			d.ForwardHelpTargetName = append(d.ForwardHelpTargetName, lines...)
		case "FUNCTIONALITY":
			d.Functionality = append(d.Functionality, lines...)
		case "INPUTS":
			d.Inputs = append(d.Inputs, lines...)
		case "EXTERNALHELP", "MAMLHELPFILE":
			if arg != "" {
				d.MamlHelpFile = append(d.MamlHelpFile, arg)
			}
			d.MamlHelpFile = append(d.MamlHelpFile, lines...)
		case "REMOTEHELPRUNSPACE":
			if arg != "" {
				d.RemoteHelpRunspace = append(d.RemoteHelpRunspace, arg)
			}
			d.RemoteHelpRunspace = append(d.RemoteHelpRunspace, lines...)
		case "ROLE":
			d.Role = append(d.Role, lines...)
		case "PARAMETER":
			if arg == "" {
				return
			}
			if _, seen := d.ParamHelp[arg]; !seen {
				d.ParamOrder = append(d.ParamOrder, arg)
			}
			d.ParamHelp[arg] = append(d.ParamHelp[arg], lines...)
		}
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, ".") && len(line) > 1 {
			word, rest, _ := strings.Cut(line[1:], " ")
			if isHelpTag(strings.ToUpper(word)) {
				flush()
				tag = strings.ToUpper(word)
				arg = strings.TrimSpace(rest)
				continue
			}
		}
		buf = append(buf, line)
	}
	flush()

	return d
}

func isHelpTag(word string) bool {
	switch word {
	case "SYNOPSIS", "DESCRIPTION", "EXAMPLE", "NOTES", "COMPONENT", "LINK",
		"FORWARDHELPCATEGORY", "FORWARDHELPTARGETNAME", "FUNCTIONALITY",
		"INPUTS", "EXTERNALHELP", "MAMLHELPFILE", "PARAMETER",
		"REMOTEHELPRUNSPACE", "ROLE":
		return true
	}
	return false
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}
