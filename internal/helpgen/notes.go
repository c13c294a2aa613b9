package helpgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Notes holds the structured sub-fields of a NOTES section. Version zero
// means "not yet assigned"; rendering always emits at least version 1.
type Notes struct {
	Author   string
	Created  string
	Modified string
	Version  int
	Other    []string
}

// DateLayout is the on-disk date format for CREATED and MOD lines.
const DateLayout = "2006-01-02"

// Fixed-width tags so values line up in rendered notes.
const (
	tagAuthor  = "AUTHOR  "
	tagCreated = "CREATED "
	tagMod     = "MOD     "
	tagVer     = "VER     "
)

// ParseNotes extracts structured sub-fields from existing NOTES lines. When
// the notes carry no author tag, synopsis lines are scanned as a fallback
// source. Malformed version text is caught locally and left at zero; it is
// never propagated as an error.
func ParseNotes(notes, synopsis []string) Notes {
	var n Notes
	for _, line := range notes {
		tag, value := splitNoteLine(line)
		switch tag {
		case "AUTHOR":
			n.Author = value
		case "CREATED":
			n.Created = value
		case "MOD", "MODIFIED":
			n.Modified = value
		case "VER", "VERSION":
			if v, err := strconv.Atoi(value); err == nil {
				n.Version = v
			}
		default:
			if strings.TrimSpace(line) != "" {
				n.Other = append(n.Other, strings.TrimSpace(line))
			}
		}
	}
	if n.Author == "" {
		for _, line := range synopsis {
			if tag, value := splitNoteLine(line); tag == "AUTHOR" {
				n.Author = value
				break
			}
		}
	}
	return n
}

// splitNoteLine splits "AUTHOR  Jane Doe" into ("AUTHOR", "Jane Doe").
// Returns an empty tag for lines that do not start with a recognized word.
func splitNoteLine(line string) (tag, value string) {
	trimmed := strings.TrimSpace(line)
	word, rest, _ := strings.Cut(trimmed, " ")
	switch strings.ToUpper(word) {
	case "AUTHOR", "CREATED", "MOD", "MODIFIED", "VER", "VERSION":
		return strings.ToUpper(word), strings.TrimSpace(rest)
	}
	return "", ""
}

// Bump applies the version-bump policy for one synthesis call.
//
// Defaults are filled on every path, including for new functions: a missing
// author becomes defaultAuthor, a missing created date becomes today, a
// missing version becomes 1. Only a changed function with updateVersion set
// advances state: the modified date moves to today when the created date is
// not today, and an existing modified date increments the version. Repeated
// calls with updateVersion=false are idempotent; repeated calls with
// updateVersion=true on the same day each increment again, which is the
// intended behavior.
func (n Notes) Bump(isChanged, updateVersion bool, defaultAuthor, today string) Notes {
	out := n
	if out.Author == "" {
		out.Author = defaultAuthor
	}
	if out.Created == "" {
		out.Created = today
	}
	if out.Version == 0 {
		out.Version = 1
	}

	if isChanged && updateVersion {
		if out.Created != today {
			out.Modified = today
		}
		if out.Modified != "" {
			out.Version++
		}
	}
	return out
}

// Render emits the fixed-format note lines: AUTHOR and CREATED always, MOD
// only when set, VER always, then any freeform lines that were preserved.
func (n Notes) Render() []string {
	version := n.Version
	if version == 0 {
		version = 1
	}
	lines := []string{
		tagAuthor + n.Author,
		tagCreated + n.Created,
	}
	if n.Modified != "" {
		lines = append(lines, tagMod+n.Modified)
	}
	lines = append(lines, tagVer+fmt.Sprintf("%d", version))
	lines = append(lines, n.Other...)
	return lines
}
