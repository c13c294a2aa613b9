// Package desctable reads and writes the per-function description table: a
// tab-delimited text file mapping (function, parent) to a human-authored
// description. The synthesizer treats it as read-only input; the sync run
// appends blank rows for newly discovered functions so authors have a place
// to write.
package desctable

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Key identifies one row. Parent is empty for top-level functions.
type Key struct {
	Function string
	Parent   string
}

// Table is an in-memory description table.
type Table struct {
	rows map[Key]string
}

// New returns an empty table.
func New() *Table {
	return &Table{rows: make(map[Key]string)}
}

// Load reads a table from path. A missing file is not an error: it yields an
// empty table, matching first-run behavior.
func Load(path string) (*Table, error) {
	t := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("desctable: read %s: %w", path, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("desctable: %s:%d: expected 3 tab-separated columns", path, i+1)
		}
		key := Key{Function: parts[0], Parent: parts[1]}
		t.rows[key] = unescape(parts[2])
	}
	return t, nil
}

// Lookup returns the authored description for (function, parent), or "".
func (t *Table) Lookup(function, parent string) string {
	if t == nil {
		return ""
	}
	return t.rows[Key{Function: function, Parent: parent}]
}

// Has reports whether a row exists, even an empty one.
func (t *Table) Has(function, parent string) bool {
	if t == nil {
		return false
	}
	_, ok := t.rows[Key{Function: function, Parent: parent}]
	return ok
}

// Set stores a description, overwriting any existing row.
func (t *Table) Set(function, parent, description string) {
	t.rows[Key{Function: function, Parent: parent}] = description
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Save writes the table to path, rows sorted by function then parent so the
// file diffs cleanly under version control.
func (t *Table) Save(path string) error {
	keys := make([]Key, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Function != keys[j].Function {
			return keys[i].Function < keys[j].Function
		}
		return keys[i].Parent < keys[j].Parent
	})

	var b strings.Builder
	b.WriteString("# function\tparent\tdescription\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", k.Function, k.Parent, escape(t.rows[k]))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("desctable: write %s: %w", path, err)
	}
	return nil
}

// Descriptions are single rows; embedded newlines and tabs are escaped.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
