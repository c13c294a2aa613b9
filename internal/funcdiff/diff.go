// Package funcdiff compares two registries of parsed functions (current vs.
// previous revision) and produces a structured change-set: functions added,
// removed, and changed, with per-parameter and per-attribute sub-diffs
// rendered as formatted descriptor strings.
package funcdiff

import (
	"fmt"
	"strings"

	"helpsync/internal/script"
)

// ChangeSet is the result of comparing one file pair.
type ChangeSet struct {
	Added   []*script.Function
	Removed []*script.Function
	Changed []FunctionDelta

	// All is the full current registry, passed through for downstream help
	// generation.
	All []*script.Function
}

// Empty reports whether the comparison found nothing at all.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// FunctionDelta describes what changed in one function that exists in both
// revisions. It owns only formatted strings derived from the two compared
// functions, never a live reference to either.
type FunctionDelta struct {
	FunctionName string `yaml:"function"`
	ParentName   string `yaml:"parent,omitempty"`

	LineCountDelta    *int `yaml:"line_count_delta,omitempty"`
	CurrentLineCount  int  `yaml:"current_line_count,omitempty"`
	PreviousLineCount int  `yaml:"previous_line_count,omitempty"`

	ParametersAdded   []string `yaml:"parameters_added,omitempty"`
	ParametersRemoved []string `yaml:"parameters_removed,omitempty"`
	ParametersChanged []string `yaml:"parameters_changed,omitempty"`
	AttributesAdded   []string `yaml:"attributes_added,omitempty"`
	AttributesRemoved []string `yaml:"attributes_removed,omitempty"`
}

// Significant reports whether the delta records at least one concrete
// sub-field difference. A delta with only name and parent populated is a
// false positive from a formatting-only text change and is discarded.
func (d FunctionDelta) Significant() bool {
	return d.LineCountDelta != nil ||
		len(d.ParametersAdded) > 0 ||
		len(d.ParametersRemoved) > 0 ||
		len(d.ParametersChanged) > 0 ||
		len(d.AttributesAdded) > 0 ||
		len(d.AttributesRemoved) > 0
}

// Diff compares the current registry against a previous one. Functions are
// matched by (name, parent): a function that moved into or out of a nesting
// level is reported as removed plus added, not changed in place. As a side
// effect, every added function is flagged IsNew and every function that
// received a delta is flagged IsChanged. Always returns a ChangeSet, possibly
// empty.
func Diff(current, previous []*script.Function) *ChangeSet {
	cs := &ChangeSet{All: current}

	type key struct{ name, parent string }
	curKeys := make(map[key]bool, len(current))
	for _, f := range current {
		curKeys[key{f.Name, f.ParentName}] = true
	}
	prevKeys := make(map[key]bool, len(previous))
	for _, p := range previous {
		prevKeys[key{p.Name, p.ParentName}] = true
	}

	for _, f := range current {
		if !prevKeys[key{f.Name, f.ParentName}] {
			f.IsNew = true
			cs.Added = append(cs.Added, f)
		}
	}
	for _, p := range previous {
		if !curKeys[key{p.Name, p.ParentName}] {
			cs.Removed = append(cs.Removed, p)
		}
	}

	// One comparison per (name, parent) pair. Duplicate pairs should not
	// occur in well-formed input, but the scan is defensive against them;
	// the same name under different parents is two distinct pairs and both
	// get compared.
	compared := make(map[key]bool, len(current))
	for _, f := range current {
		k := key{f.Name, f.ParentName}
		if compared[k] {
			continue
		}
		for _, p := range previous {
			if f.Name != p.Name || f.ParentName != p.ParentName {
				continue
			}
			compared[k] = true
			if strings.TrimSpace(f.RawText) == strings.TrimSpace(p.RawText) {
				break
			}
			if delta := compare(f, p); delta.Significant() {
				f.IsChanged = true
				cs.Changed = append(cs.Changed, delta)
			}
			break
		}
	}

	return cs
}

// compare builds the delta for one matched function pair.
func compare(cur, prev *script.Function) FunctionDelta {
	d := FunctionDelta{
		FunctionName: cur.Name,
		ParentName:   cur.ParentName,
	}

	if cur.LineCount() != prev.LineCount() {
		delta := cur.LineCount() - prev.LineCount()
		d.LineCountDelta = &delta
		d.CurrentLineCount = cur.LineCount()
		d.PreviousLineCount = prev.LineCount()
	}

	d.ParametersAdded, d.ParametersRemoved, d.ParametersChanged =
		diffParameters(cur.Parameters, prev.Parameters)
	d.AttributesAdded, d.AttributesRemoved =
		diffAttributes(cur.Attributes, prev.Attributes)

	return d
}

// ---------------------------------------------------------------------------
// Parameter sub-diff
// ---------------------------------------------------------------------------

// diffParameters computes the name-set difference plus per-field change
// descriptors for parameters present in both revisions. Output order follows
// the source order of the slice each entry was drawn from.
func diffParameters(cur, prev []script.Parameter) (added, removed, changed []string) {
	prevByName := make(map[string]script.Parameter, len(prev))
	for _, p := range prev {
		if _, dup := prevByName[p.Name]; !dup {
			prevByName[p.Name] = p
		}
	}
	curNames := make(map[string]bool, len(cur))
	for _, p := range cur {
		curNames[p.Name] = true
	}

	for _, c := range cur {
		old, ok := prevByName[c.Name]
		if !ok {
			added = append(added, FormatParameter(c))
			continue
		}
		if fields := parameterFieldChanges(c, old); len(fields) > 0 {
			changed = append(changed, formatParameterChange(c, fields))
		}
	}
	for _, p := range prev {
		if !curNames[p.Name] {
			removed = append(removed, FormatParameter(p))
		}
	}
	return added, removed, changed
}

// FormatParameter renders a parameter descriptor: "[int] $B = 5".
func FormatParameter(p script.Parameter) string {
	var b strings.Builder
	if p.StaticType != "" {
		fmt.Fprintf(&b, "[%s] ", p.StaticType)
	}
	b.WriteString("$" + p.Name)
	if p.DefaultValue != "" {
		b.WriteString(" = " + p.DefaultValue)
	}
	return b.String()
}

// parameterFieldChanges compares every recognized sub-field by exact text
// and returns one "<field> [<old>-><new>]" entry per mismatch.
func parameterFieldChanges(cur, prev script.Parameter) []string {
	var fields []string
	for _, key := range script.BindingKeys {
		if cur.Binding[key] != prev.Binding[key] {
			fields = append(fields, formatFieldChange(key, prev.Binding[key], cur.Binding[key]))
		}
	}
	if cur.DefaultValue != prev.DefaultValue {
		fields = append(fields, formatFieldChange("DefaultValue", prev.DefaultValue, cur.DefaultValue))
	}
	if cur.StaticType != prev.StaticType {
		fields = append(fields, formatFieldChange("StaticType", prev.StaticType, cur.StaticType))
	}
	return fields
}

func formatFieldChange(field, before, after string) string {
	return fmt.Sprintf("%s [%s->%s]", field, before, after)
}

// formatParameterChange joins all field mismatches for one parameter into a
// single descriptor line: "[string] $Name ( Mandatory [->$true], ... )".
func formatParameterChange(p script.Parameter, fields []string) string {
	var b strings.Builder
	if p.StaticType != "" {
		fmt.Fprintf(&b, "[%s] ", p.StaticType)
	}
	fmt.Fprintf(&b, "$%s ( %s )", p.Name, strings.Join(fields, ", "))
	return b.String()
}

// ---------------------------------------------------------------------------
// Attribute sub-diff
// ---------------------------------------------------------------------------

// diffAttributes computes a symmetric add/remove by attribute name. A value
// change on a matching name is reported as a "<name> [<old>-><new>]" entry
// in the added list. A function moving between zero and one-or-more
// attributes degenerates to a plain add or remove of each one.
func diffAttributes(cur, prev []script.Attribute) (added, removed []string) {
	prevByName := make(map[string]script.Attribute, len(prev))
	for _, a := range prev {
		if _, dup := prevByName[attributeName(a)]; !dup {
			prevByName[attributeName(a)] = a
		}
	}
	curNames := make(map[string]bool, len(cur))
	for _, a := range cur {
		curNames[attributeName(a)] = true
	}

	for _, a := range cur {
		old, ok := prevByName[attributeName(a)]
		if !ok {
			added = append(added, a.Text())
			continue
		}
		if a.ArgText() != old.ArgText() {
			added = append(added, fmt.Sprintf("%s [%s->%s]", attributeName(a), old.ArgText(), a.ArgText()))
		}
	}
	for _, a := range prev {
		if !curNames[attributeName(a)] {
			removed = append(removed, a.Text())
		}
	}
	return added, removed
}

// attributeName returns the identity an attribute is matched under.
func attributeName(a script.Attribute) string {
	if a.Kind == script.AttrOther {
		name, _, _ := strings.Cut(a.Raw, "(")
		return strings.TrimSpace(name)
	}
	return a.Kind.String()
}
