// Package table provides a small ordered, column-typed table used by every
// stage of the panel pipeline.
//
// Numeric columns store float64 with NaN marking a missing value. String
// columns store "" for a missing value. SetNum and SetStr mutate in place;
// every other transform returns a new table.
package table

import (
	"fmt"
	"math"
)

// Kind is the storage type of a column.
type Kind int

// Column kinds.
const (
	Numeric Kind = iota
	String
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "string"
}

// column holds one named vector.
type column struct {
	name string
	kind Kind
	num  []float64
	str  []string
}

func (c *column) clone() *column {
	out := &column{name: c.name, kind: c.kind}
	if c.kind == Numeric {
		out.num = append([]float64(nil), c.num...)
	} else {
		out.str = append([]string(nil), c.str...)
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	cols  []*column
	index map[string]int
	n     int
}

// New returns an empty table with n rows and no columns.
func New(n int) *Table {
	return &Table{index: make(map[string]int), n: n}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the kind of the named column.
func (t *Table) Kind(name string) (Kind, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.cols[i].kind, true
}

// NumericColumns returns the names of all numeric columns in order.
func (t *Table) NumericColumns() []string {
	out := make([]string, 0, len(t.cols))
	for _, c := range t.cols {
		if c.kind == Numeric {
			out = append(out, c.name)
		}
	}
	return out
}

// Num returns the backing numeric vector of a column. The slice must be
// treated as read-only; use SetNum to replace it.
func (t *Table) Num(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok || t.cols[i].kind != Numeric {
		return nil, false
	}
	return t.cols[i].num, true
}

// Str returns the backing string vector of a column.
func (t *Table) Str(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok || t.cols[i].kind != String {
		return nil, false
	}
	return t.cols[i].str, true
}

// SetNum adds or replaces a numeric column. It panics when the length does
// not match the table.
func (t *Table) SetNum(name string, v []float64) {
	if len(v) != t.n {
		panic(fmt.Sprintf("table: column %q has %d rows, table has %d", name, len(v), t.n))
	}
	t.set(&column{name: name, kind: Numeric, num: v})
}

// SetStr adds or replaces a string column.
func (t *Table) SetStr(name string, v []string) {
	if len(v) != t.n {
		panic(fmt.Sprintf("table: column %q has %d rows, table has %d", name, len(v), t.n))
	}
	t.set(&column{name: name, kind: String, str: v})
}

func (t *Table) set(c *column) {
	if i, ok := t.index[c.name]; ok {
		t.cols[i] = c
		return
	}
	t.index[c.name] = len(t.cols)
	t.cols = append(t.cols, c)
}

// Drop removes the named columns if present.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := New(t.n)
	for _, c := range t.cols {
		if !skip[c.name] {
			out.set(c.clone())
		}
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.n)
	for _, c := range t.cols {
		out.set(c.clone())
	}
	return out
}

// Filter returns the rows where keep is true, preserving order.
func (t *Table) Filter(keep []bool) *Table {
	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// Take returns the rows at the given positions in the given order.
func (t *Table) Take(idx []int) *Table {
	out := New(len(idx))
	for _, c := range t.cols {
		nc := &column{name: c.name, kind: c.kind}
		if c.kind == Numeric {
			nc.num = make([]float64, len(idx))
			for j, i := range idx {
				nc.num[j] = c.num[i]
			}
		} else {
			nc.str = make([]string, len(idx))
			for j, i := range idx {
				nc.str[j] = c.str[i]
			}
		}
		out.set(nc)
	}
	return out
}

// Select returns a table holding only the listed columns that exist, in
// the listed order.
func (t *Table) Select(names ...string) *Table {
	out := New(t.n)
	for _, n := range names {
		if i, ok := t.index[n]; ok {
			out.set(t.cols[i].clone())
		}
	}
	return out
}

// Rename returns a copy with columns renamed according to m.
func (t *Table) Rename(m map[string]string) *Table {
	out := New(t.n)
	for _, c := range t.cols {
		nc := c.clone()
		if to, ok := m[c.name]; ok {
			nc.name = to
		}
		out.set(nc)
	}
	return out
}

// Suffix appends sfx to every column name except those listed in except.
func (t *Table) Suffix(sfx string, except ...string) *Table {
	keep := make(map[string]bool, len(except))
	for _, e := range except {
		keep[e] = true
	}
	m := make(map[string]string, len(t.cols))
	for _, c := range t.cols {
		if !keep[c.name] {
			m[c.name] = c.name + sfx
		}
	}
	return t.Rename(m)
}

// Value is a single cell as returned by Row.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Row returns the cells of row i keyed by column name.
func (t *Table) Row(i int) map[string]Value {
	out := make(map[string]Value, len(t.cols))
	for _, c := range t.cols {
		if c.kind == Numeric {
			out[c.name] = Value{Kind: Numeric, Num: c.num[i]}
		} else {
			out[c.name] = Value{Kind: String, Str: c.str[i]}
		}
	}
	return out
}

// Concat stacks tables vertically. The result has the union of columns in
// first-seen order; rows of a table lacking a column are filled with the
// missing marker. A column that is numeric in one table and string in
// another is stored as string.
func Concat(parts ...*Table) *Table {
	total := 0
	var order []string
	kinds := make(map[string]Kind)
	for _, p := range parts {
		total += p.n
		for _, c := range p.cols {
			k, seen := kinds[c.name]
			if !seen {
				order = append(order, c.name)
				kinds[c.name] = c.kind
			} else if k != c.kind {
				kinds[c.name] = String
			}
		}
	}
	out := New(total)
	for _, name := range order {
		if kinds[name] == Numeric {
			v := make([]float64, 0, total)
			for _, p := range parts {
				if src, ok := p.Num(name); ok {
					v = append(v, src...)
				} else {
					v = append(v, NaNs(p.n)...)
				}
			}
			out.set(&column{name: name, kind: Numeric, num: v})
			continue
		}
		v := make([]string, 0, total)
		for _, p := range parts {
			v = append(v, p.stringsOf(name)...)
		}
		out.set(&column{name: name, kind: String, str: v})
	}
	return out
}

// stringsOf renders any column as strings, "" for missing or absent.
func (t *Table) stringsOf(name string) []string {
	i, ok := t.index[name]
	if !ok {
		return make([]string, t.n)
	}
	c := t.cols[i]
	if c.kind == String {
		return c.str
	}
	out := make([]string, t.n)
	for j, f := range c.num {
		if !math.IsNaN(f) {
			out[j] = FormatFloat(f)
		}
	}
	return out
}

// StrOf returns a column as strings regardless of its kind.
func (t *Table) StrOf(name string) ([]string, bool) {
	if !t.Has(name) {
		return nil, false
	}
	return t.stringsOf(name), true
}

// NaNs returns n missing numeric values.
func NaNs(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}
