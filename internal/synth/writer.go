package synth

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Write stores s under dir/<year>/<table>.csv.
func Write(dir string, s *Season) error {
	root := filepath.Join(dir, fmt.Sprint(s.Year))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create season dir: %w", err)
	}
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeRecords(filepath.Join(root, name+".csv"), s.Files[name]); err != nil {
			return err
		}
	}
	return nil
}

// WriteSeasons generates and writes every season in years.
func WriteSeasons(ctx context.Context, dir string, years []int, cfg Config) error {
	for _, y := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Write(dir, Generate(y, cfg)); err != nil {
			return fmt.Errorf("season %d: %w", y, err)
		}
	}
	return nil
}

func writeRecords(path string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
