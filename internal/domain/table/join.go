package table

import (
	"fmt"
	"math"
	"strings"
)

// LeftJoin keeps every row of left, in order, and appends the columns of
// right matched on leftOn[i] == rightOn[i]. Only the first matching right
// row is used, so the result always has left.Len() rows. Unmatched rows get
// missing values. Right key columns and right columns whose name already
// exists in left are not copied.
func LeftJoin(left *Table, leftOn []string, right *Table, rightOn []string) (*Table, error) {
	if len(leftOn) != len(rightOn) || len(leftOn) == 0 {
		return nil, fmt.Errorf("table: join needs matching key lists, got %d and %d", len(leftOn), len(rightOn))
	}
	lk, lvalid, err := compositeKeys(left, leftOn)
	if err != nil {
		return nil, err
	}
	rk, rvalid, err := compositeKeys(right, rightOn)
	if err != nil {
		return nil, err
	}
	first := make(map[string]int, len(rk))
	for i, k := range rk {
		if _, ok := first[k]; !ok && rvalid[i] {
			first[k] = i
		}
	}
	match := make([]int, len(lk))
	for i, k := range lk {
		if j, ok := first[k]; ok && lvalid[i] {
			match[i] = j
		} else {
			match[i] = -1
		}
	}

	skip := make(map[string]bool, len(rightOn))
	for _, c := range rightOn {
		skip[c] = true
	}
	out := left.Clone()
	for _, c := range right.cols {
		if skip[c.name] || out.Has(c.name) {
			continue
		}
		if c.kind == Numeric {
			v := make([]float64, len(match))
			for i, j := range match {
				if j < 0 {
					v[i] = math.NaN()
				} else {
					v[i] = c.num[j]
				}
			}
			out.set(&column{name: c.name, kind: Numeric, num: v})
			continue
		}
		v := make([]string, len(match))
		for i, j := range match {
			if j >= 0 {
				v[i] = c.str[j]
			}
		}
		out.set(&column{name: c.name, kind: String, str: v})
	}
	return out, nil
}

// Matched reports, for each left row, whether LeftJoin would find a match.
func Matched(left *Table, leftOn []string, right *Table, rightOn []string) ([]bool, error) {
	lk, lvalid, err := compositeKeys(left, leftOn)
	if err != nil {
		return nil, err
	}
	rk, rvalid, err := compositeKeys(right, rightOn)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rk))
	for i, k := range rk {
		if rvalid[i] {
			set[k] = true
		}
	}
	out := make([]bool, len(lk))
	for i, k := range lk {
		out[i] = lvalid[i] && set[k]
	}
	return out, nil
}

// compositeKeys joins the rendered key columns of every row. Rows with any
// missing key part are marked invalid and never match.
func compositeKeys(t *Table, on []string) ([]string, []bool, error) {
	parts := make([][]string, len(on))
	for j, c := range on {
		v, ok := t.StrOf(c)
		if !ok {
			return nil, nil, fmt.Errorf("table: join key %q not found", c)
		}
		parts[j] = v
	}
	keys := make([]string, t.n)
	valid := make([]bool, t.n)
	var sb strings.Builder
	for i := range keys {
		sb.Reset()
		valid[i] = true
		for j := range parts {
			if parts[j][i] == "" {
				valid[i] = false
			}
			sb.WriteString(parts[j][i])
			sb.WriteByte(0)
		}
		keys[i] = sb.String()
	}
	return keys, valid, nil
}
