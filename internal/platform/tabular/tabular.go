// Package tabular provides a small in-memory columnar table used by the
// pipeline between extract and load. Columns carry an explicit Kind tag
// assigned once during schema normalization; values are nullable scalars.
package tabular

import (
	"fmt"
	"time"
)

// Kind tags a column with its declared value type
type Kind uint8

const (
	// KindString is a free-form text column
	KindString Kind = iota
	// KindFloat is a numeric column stored as float64
	KindFloat
	// KindDate is a calendar date column
	KindDate
	// KindBool is an indicator column (one-hot levels)
	KindBool
)

// String returns the dtype name reported by quality checks
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float64"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a nullable scalar tagged with a Kind
// the zero value is a null string
type Value struct {
	kind  Kind
	valid bool
	f     float64
	s     string
	t     time.Time
	b     bool
}

// String constructs a string value
func String(s string) Value { return Value{kind: KindString, valid: true, s: s} }

// Float constructs a float value
func Float(f float64) Value { return Value{kind: KindFloat, valid: true, f: f} }

// Date constructs a date value
func Date(t time.Time) Value { return Value{kind: KindDate, valid: true, t: t} }

// Bool constructs a bool value
func Bool(b bool) Value { return Value{kind: KindBool, valid: true, b: b} }

// Null constructs a null value of the given kind
func Null(k Kind) Value { return Value{kind: k} }

// Kind returns the declared kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is missing
func (v Value) IsNull() bool { return !v.valid }

// Float returns the float value with an ok flag
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// Str returns the string value with an ok flag
func (v Value) Str() (string, bool) {
	if !v.valid || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Date returns the date value with an ok flag
func (v Value) Date() (time.Time, bool) {
	if !v.valid || v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// Bool returns the bool value with an ok flag
func (v Value) Bool() (bool, bool) {
	if !v.valid || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Any returns the value as a driver-friendly any; null becomes nil
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindFloat:
		return v.f
	case KindDate:
		return v.t
	case KindBool:
		return v.b
	default:
		return v.s
	}
}

// Column is a named, typed vector of values
type Column struct {
	Name string
	Kind Kind
	Vals []Value
}

// Floats returns the non-null float values of the column in row order
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Vals))
	for _, v := range c.Vals {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// NullCount returns the number of missing values in the column
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Vals {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Table is an ordered collection of equal-length columns
type Table struct {
	cols  []*Column
	index map[string]int
}

// New constructs a table from columns; all columns must share a length
// and names must be unique
func New(cols ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i := range cols {
		if err := t.AddCol(cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the row count (0 for an empty table)
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Vals)
}

// NumCols returns the column count
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the named column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the named column or nil
func (t *Table) Col(name string) *Column {
	if i, ok := t.index[name]; ok {
		return t.cols[i]
	}
	return nil
}

// Cols returns the columns in order; callers must not reorder the slice
func (t *Table) Cols() []*Column { return t.cols }

// AddCol appends a column; its length must match the table's row count
func (t *Table) AddCol(c Column) error {
	if _, dup := t.index[c.Name]; dup {
		return fmt.Errorf("tabular: duplicate column %q", c.Name)
	}
	if len(t.cols) > 0 && len(c.Vals) != t.NumRows() {
		return fmt.Errorf("tabular: column %q has %d rows, table has %d", c.Name, len(c.Vals), t.NumRows())
	}
	cc := c
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, &cc)
	return nil
}

// DropCol removes the named column; missing name is a no-op
func (t *Table) DropCol(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.index, name)
	for j := i; j < len(t.cols); j++ {
		t.index[t.cols[j].Name] = j
	}
}

// Rename applies fn to every column name; the mapping must stay unique
func (t *Table) Rename(fn func(string) string) error {
	seen := make(map[string]bool, len(t.cols))
	for _, c := range t.cols {
		n := fn(c.Name)
		if seen[n] {
			return fmt.Errorf("tabular: rename collides on %q", n)
		}
		seen[n] = true
	}
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		c.Name = fn(c.Name)
		t.index[c.Name] = i
	}
	return nil
}

// Append concatenates other's rows under this table (row-wise union).
// Columns missing on either side are filled with nulls of the declared kind;
// a shared column must agree on Kind.
func (t *Table) Append(other *Table) error {
	nA, nB := t.NumRows(), other.NumRows()

	for _, c := range t.cols {
		oc := other.Col(c.Name)
		if oc == nil {
			for i := 0; i < nB; i++ {
				c.Vals = append(c.Vals, Null(c.Kind))
			}
			continue
		}
		if oc.Kind != c.Kind {
			return fmt.Errorf("tabular: column %q kind mismatch (%s vs %s)", c.Name, c.Kind, oc.Kind)
		}
		c.Vals = append(c.Vals, oc.Vals...)
	}

	for _, oc := range other.cols {
		if t.Has(oc.Name) {
			continue
		}
		vals := make([]Value, 0, nA+nB)
		for i := 0; i < nA; i++ {
			vals = append(vals, Null(oc.Kind))
		}
		vals = append(vals, oc.Vals...)
		if err := t.AddCol(Column{Name: oc.Name, Kind: oc.Kind, Vals: vals}); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns a new table keeping only rows where keep(row) is true.
// keep is called exactly once per row, so stateful predicates (dedup
// maps) see each row a single time regardless of column count
func (t *Table) Filter(keep func(row int) bool) *Table {
	n := t.NumRows()
	mask := make([]bool, n)
	kept := 0
	for i := 0; i < n; i++ {
		if keep(i) {
			mask[i] = true
			kept++
		}
	}

	out := &Table{index: make(map[string]int, len(t.cols))}
	for _, c := range t.cols {
		vals := make([]Value, 0, kept)
		for i := 0; i < n; i++ {
			if mask[i] {
				vals = append(vals, c.Vals[i])
			}
		}
		cc := &Column{Name: c.Name, Kind: c.Kind, Vals: vals}
		out.index[cc.Name] = len(out.cols)
		out.cols = append(out.cols, cc)
	}
	return out
}
