package repository

import (
	"os"

	"github.com/okian/mvpcast/pkg/logger"
)

// FileOption applies a configuration option to the FileBundleStore.
type FileOption func(*FileBundleStore)

// WithFileMode sets the permissions of the written bundle.
func WithFileMode(mode os.FileMode) FileOption {
	return func(s *FileBundleStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

// WithBundleLogger sets the store's logger.
func WithBundleLogger(log logger.Logger) FileOption {
	return func(s *FileBundleStore) {
		if log != nil {
			s.log = log
		}
	}
}

// ResultsOption applies a configuration option to the ResultsWriter.
type ResultsOption func(*ResultsWriter)

// WithFilePrefix sets the leaderboard file name prefix.
func WithFilePrefix(prefix string) ResultsOption {
	return func(w *ResultsWriter) {
		if prefix != "" {
			w.prefix = prefix
		}
	}
}
