package patch_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"helpsync/internal/patch"
	"helpsync/internal/script"
)

func TestLocateNoBlock(t *testing.T) {
	raw := "function Get-Widget {\n    $x = 1\n}"
	loc := patch.Locate(raw)
	if loc.PrecedingCode != "function Get-Widget " {
		t.Errorf("PrecedingCode = %q", loc.PrecedingCode)
	}
	if loc.ExistingBlock != "" {
		t.Errorf("ExistingBlock = %q, want empty", loc.ExistingBlock)
	}
}

func TestLocateFindsBlockWithIndent(t *testing.T) {
	raw := "function Get-Widget {\n    <#\n    .SYNOPSIS\n    Gets.\n    #>\n    $x = 1\n}"
	loc := patch.Locate(raw)
	want := "    <#\n    .SYNOPSIS\n    Gets.\n    #>"
	if loc.ExistingBlock != want {
		t.Errorf("ExistingBlock = %q, want %q", loc.ExistingBlock, want)
	}
}

func TestLocateBracelessFunction(t *testing.T) {
	raw := "function Broken"
	loc := patch.Locate(raw)
	if loc.PrecedingCode != raw || loc.ExistingBlock != "" {
		t.Errorf("Locate(%q) = %+v", raw, loc)
	}
}

func TestApplyReplacesUniqueBlock(t *testing.T) {
	file := "function A {\n    <# old #>\n    1\n}\nfunction B {\n    2\n}\n"
	got, err := patch.Apply(file, "    <# old #>", "    <# new #>", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(got, "<# new #>") || strings.Contains(got, "<# old #>") {
		t.Errorf("replacement failed:\n%s", got)
	}
	// Everything outside the matched span is untouched.
	if !strings.Contains(got, "function B {\n    2\n}\n") {
		t.Errorf("unrelated function modified:\n%s", got)
	}
}

func TestApplyAmbiguousLeavesContentUnmodified(t *testing.T) {
	file := "<# dup #>\nmore\n<# dup #>\n"
	got, err := patch.Apply(file, "<# dup #>", "<# new #>", "")
	if !errors.Is(err, patch.ErrAmbiguousBlock) {
		t.Fatalf("err = %v, want ErrAmbiguousBlock", err)
	}
	if got != file {
		t.Errorf("content modified on ambiguous match:\n%s", got)
	}
}

func TestApplyMissingBlock(t *testing.T) {
	file := "nothing to see\n"
	got, err := patch.Apply(file, "<# absent #>", "<# new #>", "")
	if !errors.Is(err, patch.ErrBlockNotFound) {
		t.Fatalf("err = %v, want ErrBlockNotFound", err)
	}
	if got != file {
		t.Errorf("content modified on failed match:\n%s", got)
	}
}

func TestApplyInsertsBeforeSignature(t *testing.T) {
	archive := txtar.Parse([]byte(`-- before --
$preamble = 1

function Get-Widget {
    $x = 1
}
-- after --
$preamble = 1

<#
.SYNOPSIS
Gets.
#>
function Get-Widget {
    $x = 1
}
`))
	files := map[string]string{}
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}

	anchor := "function Get-Widget {\n    $x = 1\n}"
	block := "<#\n.SYNOPSIS\nGets.\n#>"
	got, err := patch.Apply(files["before"], "", block, anchor)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != files["after"] {
		t.Errorf("insert result:\n%s\nwant:\n%s", got, files["after"])
	}
}

func TestApplyInsertPreservesSignatureIndent(t *testing.T) {
	file := "function Outer {\n    function Inner {\n        1\n    }\n}\n"
	anchor := "function Inner {\n        1\n    }"
	got, err := patch.Apply(file, "", "    <# doc #>", anchor)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := "function Outer {\n    <# doc #>\n    function Inner {\n        1\n    }\n}\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestApplyInsertAmbiguousAnchor(t *testing.T) {
	file := "function F { 1 }\nfunction F { 1 }\n"
	_, err := patch.Apply(file, "", "<# doc #>", "function F { 1 }")
	if !errors.Is(err, patch.ErrAmbiguousBlock) {
		t.Errorf("err = %v, want ErrAmbiguousBlock", err)
	}
}

// TestRoundTrip verifies that a replaced block is what Locate finds on the
// patched function's new raw text.
func TestRoundTrip(t *testing.T) {
	src := `function Get-Widget {
    <#
    .SYNOPSIS
    Old.
    #>
    $x = 1
}
`
	fns := script.Parse(src)
	loc := patch.Locate(fns[0].RawText)
	if loc.ExistingBlock == "" {
		t.Fatal("block not located")
	}

	newBlock := "    <#\n    .SYNOPSIS\n    New.\n    #>"
	patched, err := patch.Apply(src, loc.ExistingBlock, newBlock, fns[0].RawText)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	again := script.Parse(patched)
	if got := patch.Locate(again[0].RawText).ExistingBlock; got != newBlock {
		t.Errorf("round trip: located %q, want %q", got, newBlock)
	}
}

// TestInsertRoundTrip verifies that an inserted block is recorded as the
// function's own on re-parse and serves as the replacement anchor from then
// on, so repeated applies converge instead of stacking blocks.
func TestInsertRoundTrip(t *testing.T) {
	src := "function Get-Widget {\n    1\n}\n"
	fns := script.Parse(src)
	if fns[0].DocText != "" {
		t.Fatalf("DocText = %q, want empty before insert", fns[0].DocText)
	}

	newBlock := "<#\n.SYNOPSIS\nGets.\n#>"
	patched, err := patch.Apply(src, "", newBlock, fns[0].RawText)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	again := script.Parse(patched)
	if again[0].DocText != newBlock {
		t.Fatalf("round trip: DocText = %q, want %q", again[0].DocText, newBlock)
	}

	same, err := patch.Apply(patched, again[0].DocText, newBlock, again[0].RawText)
	if err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if same != patched {
		t.Errorf("re-apply modified content:\n%s\nwant:\n%s", same, patched)
	}
	if got := strings.Count(same, "<#"); got != 1 {
		t.Errorf("got %d blocks, want 1:\n%s", got, same)
	}
}

func TestResultAggregation(t *testing.T) {
	var r patch.Result
	if !r.OK() {
		t.Error("empty result should be OK")
	}
	r.Record("Good", nil)
	r.Record("Bad", patch.ErrAmbiguousBlock)
	r.Record("AlsoGood", nil)

	if r.OK() {
		t.Error("result with a failure reported OK")
	}
	failed := r.Failed()
	if len(failed) != 1 || failed[0].Function != "Bad" {
		t.Errorf("Failed = %+v", failed)
	}
	if !errors.Is(failed[0].Err, patch.ErrAmbiguousBlock) {
		t.Errorf("failure error = %v", failed[0].Err)
	}
}

func TestStripTrailingWhitespace(t *testing.T) {
	in := "line one   \n\tline two\t\t\nclean\n   \n"
	want := "line one\n\tline two\nclean\n\n"
	if got := patch.StripTrailingWhitespace(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := patch.StripTrailingWhitespace("no newline  "); got != "no newline" {
		t.Errorf("got %q", got)
	}
}
