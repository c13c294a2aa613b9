package funcdiff_test

import (
	"testing"

	"helpsync/internal/funcdiff"
	"helpsync/internal/registry"
	"helpsync/internal/script"
)

// parse builds a registry from source, the way the syncer feeds the differ.
func parse(t *testing.T, source string) []*script.Function {
	t.Helper()
	return registry.Build(script.Parse(source))
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	src := `function Foo {
    param([string] $A)
    $A
}
`
	cs := funcdiff.Diff(parse(t, src), parse(t, src))
	if !cs.Empty() {
		t.Errorf("identical revisions produced a non-empty change-set: %+v", cs)
	}
	if len(cs.All) != 1 {
		t.Errorf("All should carry the current registry, got %d", len(cs.All))
	}
}

func TestDiffParameterAdded(t *testing.T) {
	prev := `function Foo {
    param(
        [Parameter(Mandatory = $true)]
        [string] $A
    )
}
`
	cur := `function Foo {
    param(
        [Parameter(Mandatory = $true)]
        [string] $A,

        [int] $B = 5
    )
}
`
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(cs.Changed))
	}
	d := cs.Changed[0]
	if len(d.ParametersAdded) != 1 || d.ParametersAdded[0] != "[int] $B = 5" {
		t.Errorf("ParametersAdded = %v, want [\"[int] $B = 5\"]", d.ParametersAdded)
	}
	if len(d.ParametersRemoved) != 0 {
		t.Errorf("ParametersRemoved = %v, want empty", d.ParametersRemoved)
	}
	if !d.Significant() {
		t.Error("delta with an added parameter must be significant")
	}
}

func TestDiffRemovedFunction(t *testing.T) {
	prev := "function Foo { }\nfunction Bar { }\n"
	cur := "function Foo { }\n"
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Removed) != 1 || cs.Removed[0].Name != "Bar" {
		t.Fatalf("Removed = %+v, want Bar", cs.Removed)
	}
	for _, d := range cs.Changed {
		if d.FunctionName == "Bar" {
			t.Error("a removed function must not also appear in Changed")
		}
	}
	if len(cs.Added) != 0 {
		t.Errorf("Added = %+v, want empty", cs.Added)
	}
}

func TestDiffAddedFlagsIsNew(t *testing.T) {
	cur := "function Fresh { }\n"
	cs := funcdiff.Diff(parse(t, cur), nil)
	if len(cs.Added) != 1 {
		t.Fatalf("Added = %+v", cs.Added)
	}
	if !cs.Added[0].IsNew {
		t.Error("added function not flagged IsNew")
	}
	if cs.Added[0].IsChanged {
		t.Error("added function should not be flagged IsChanged")
	}
}

func TestDiffBindingChange(t *testing.T) {
	prev := `function Foo {
    param(
        [Parameter(Mandatory = $false)]
        [string] $Name
    )
}
`
	cur := `function Foo {
    param(
        [Parameter(Mandatory = $true)]
        [string] $Name
    )
}
`
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(cs.Changed))
	}
	d := cs.Changed[0]
	if len(d.ParametersChanged) != 1 {
		t.Fatalf("ParametersChanged = %v", d.ParametersChanged)
	}
	want := "[string] $Name ( Mandatory [$false->$true] )"
	if d.ParametersChanged[0] != want {
		t.Errorf("descriptor = %q, want %q", d.ParametersChanged[0], want)
	}
	if !cs.All[0].IsChanged {
		t.Error("changed function not flagged IsChanged")
	}
}

func TestDiffDefaultAndTypeChange(t *testing.T) {
	prev := "function Foo {\n    param([int] $N = 1)\n}\n"
	cur := "function Foo {\n    param([long] $N = 2)\n}\n"
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(cs.Changed))
	}
	want := "[long] $N ( DefaultValue [1->2], StaticType [int->long] )"
	if got := cs.Changed[0].ParametersChanged[0]; got != want {
		t.Errorf("descriptor = %q, want %q", got, want)
	}
}

func TestDiffAttributeChanges(t *testing.T) {
	prev := `function Foo {
    [CmdletBinding()]
    param([string] $A)
}
`
	cur := `function Foo {
    [CmdletBinding(SupportsShouldProcess = $true)]
    [OutputType([string])]
    param([string] $A)
}
`
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(cs.Changed))
	}
	d := cs.Changed[0]
	if len(d.AttributesAdded) != 2 {
		t.Fatalf("AttributesAdded = %v", d.AttributesAdded)
	}
	wantValueChange := "CmdletBinding [->SupportsShouldProcess = $true]"
	if d.AttributesAdded[0] != wantValueChange {
		t.Errorf("value change = %q, want %q", d.AttributesAdded[0], wantValueChange)
	}
	if d.AttributesAdded[1] != "OutputType(string)" {
		t.Errorf("new attribute = %q, want OutputType(string)", d.AttributesAdded[1])
	}
	if len(d.AttributesRemoved) != 0 {
		t.Errorf("AttributesRemoved = %v", d.AttributesRemoved)
	}
}

func TestDiffBodyOnlyChangeUsesLineCount(t *testing.T) {
	prev := "function Foo {\n    $x = 1\n}\n"
	cur := "function Foo {\n    $x = 1\n    $y = 2\n}\n"
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(cs.Changed))
	}
	d := cs.Changed[0]
	if d.LineCountDelta == nil || *d.LineCountDelta != 1 {
		t.Fatalf("LineCountDelta = %v, want 1", d.LineCountDelta)
	}
	if d.PreviousLineCount != 2 || d.CurrentLineCount != 3 {
		t.Errorf("line counts = %d -> %d, want 2 -> 3", d.PreviousLineCount, d.CurrentLineCount)
	}
}

func TestDiffInsignificantTextChangeDropped(t *testing.T) {
	// Same line count, same parameters, same attributes: a body tweak with
	// no measurable delta is not reported as changed.
	prev := "function Foo {\n    $x = 1\n}\n"
	cur := "function Foo {\n    $x = 2\n}\n"
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Changed) != 0 {
		t.Errorf("Changed = %+v, want empty", cs.Changed)
	}
	if cs.All[0].IsChanged {
		t.Error("function with an insignificant delta must not be flagged IsChanged")
	}
}

func TestDiffParentChangeIsRemovePlusAdd(t *testing.T) {
	prev := `function Helper { }
function Main { }
`
	cur := `function Main {
    function Helper { }
}
`
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))

	var addedHelper, removedHelper bool
	for _, f := range cs.Added {
		if f.Name == "Helper" && f.ParentName == "Main" {
			addedHelper = true
		}
	}
	for _, f := range cs.Removed {
		if f.Name == "Helper" && f.ParentName == "" {
			removedHelper = true
		}
	}
	if !addedHelper || !removedHelper {
		t.Errorf("moved function should be remove+add; Added=%+v Removed=%+v", cs.Added, cs.Removed)
	}
	for _, d := range cs.Changed {
		if d.FunctionName == "Helper" {
			t.Error("moved function must not appear in Changed")
		}
	}
}

func TestDiffSameNameUnderDifferentParents(t *testing.T) {
	// A top-level Helper and a Main-nested Helper are two distinct
	// (name, parent) pairs; an unchanged one must not shadow the other's
	// comparison.
	prev := `function Helper {
    1
}
function Main {
    function Helper {
        param([string] $A)
    }
}
`
	cur := `function Helper {
    1
}
function Main {
    function Helper {
        param(
            [string] $A,

            [int] $B = 5
        )
    }
}
`
	cs := funcdiff.Diff(parse(t, cur), parse(t, prev))
	if len(cs.Added) != 0 || len(cs.Removed) != 0 {
		t.Fatalf("Added = %+v, Removed = %+v, want empty", cs.Added, cs.Removed)
	}

	var nested *funcdiff.FunctionDelta
	for i := range cs.Changed {
		d := &cs.Changed[i]
		if d.FunctionName == "Helper" && d.ParentName == "Main" {
			nested = d
		}
		if d.FunctionName == "Helper" && d.ParentName == "" {
			t.Errorf("unchanged top-level Helper reported changed: %+v", d)
		}
	}
	if nested == nil {
		t.Fatalf("nested Helper delta missing: %+v", cs.Changed)
	}
	if len(nested.ParametersAdded) != 1 || nested.ParametersAdded[0] != "[int] $B = 5" {
		t.Errorf("ParametersAdded = %v, want [\"[int] $B = 5\"]", nested.ParametersAdded)
	}
}

func TestFormatParameter(t *testing.T) {
	cases := []struct {
		p    script.Parameter
		want string
	}{
		{script.Parameter{Name: "B", StaticType: "int", DefaultValue: "5"}, "[int] $B = 5"},
		{script.Parameter{Name: "Name", StaticType: "string"}, "[string] $Name"},
		{script.Parameter{Name: "Raw"}, "$Raw"},
	}
	for _, c := range cases {
		if got := funcdiff.FormatParameter(c.p); got != c.want {
			t.Errorf("FormatParameter(%s) = %q, want %q", c.p.Name, got, c.want)
		}
	}
}
