package table

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders f without trailing zeros; integral values print
// without a decimal point.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GroupIndex groups row positions by the value of a string key, returning
// the distinct keys in first-seen order and the positions of each.
func GroupIndex(keys []string) ([]string, map[string][]int) {
	order := make([]string, 0)
	groups := make(map[string][]int)
	for i, k := range keys {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	return order, groups
}

// ParseFloat parses a cell, reporting false for empty or non-numeric text.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToNumeric returns the named column coerced to numbers. Numeric columns are
// returned as is; string cells that do not parse become NaN.
func (t *Table) ToNumeric(name string) ([]float64, bool) {
	if v, ok := t.Num(name); ok {
		return v, true
	}
	s, ok := t.Str(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(s))
	for i, cell := range s {
		if f, ok := ParseFloat(cell); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out, true
}
