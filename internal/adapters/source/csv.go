package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/okian/mvpcast/internal/domain/table"
	"golang.org/x/text/encoding/charmap"
)

// ReadFile reads a CSV file into a table.
func ReadFile(path string) (*table.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ReadCSV(bytes.NewReader(decode(raw)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// decode returns raw as UTF-8. Files that are not valid UTF-8 are taken to
// be latin-1, which is how the upstream exports are encoded.
func decode(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return raw
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return out
}

// ReadCSV parses a header-first CSV stream. A column becomes numeric when
// every non-empty cell parses as a float; otherwise it is a string column.
func ReadCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrParse)
	}
	header := records[0]
	rows := records[1:]
	t := table.New(len(rows))
	seen := make(map[string]bool, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", j)
		}
		if seen[name] {
			// duplicate headers keep the first occurrence
			continue
		}
		seen[name] = true
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		if nums, ok := numeric(cells); ok {
			t.SetNum(name, nums)
		} else {
			t.SetStr(name, cells)
		}
	}
	return t, nil
}

func numeric(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		f, ok := table.ParseFloat(c)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
