// Package synth generates deterministic raw season directories with the
// same layout and columns as the real exports. It backs the end-to-end tests
// and the synth-seasons command.
package synth

// Config controls generation.
type Config struct {
	Seed int64 // base seed; each season derives its own stream from it
	// Players is the size of the player pool. Every pool player appears in
	// every generated season.
	Players int
	// LastVotingSeason is the last season that gets an mvp_voting.csv.
	LastVotingSeason int
	// TradeRate is the share of players split across two teams.
	TradeRate float64
	// CombinedCodeFrom is the first season that marks combined rows with
	// "2TM" instead of "TOT".
	CombinedCodeFrom int
}

// DefaultConfig returns the configuration used by tests and the CLI.
func DefaultConfig() Config {
	return Config{
		Seed:             7,
		Players:          90,
		LastVotingSeason: 2025,
		TradeRate:        0.1,
		CombinedCodeFrom: 2025,
	}
}

func (c Config) combinedCode(year int) string {
	if c.CombinedCodeFrom > 0 && year >= c.CombinedCodeFrom {
		return "2TM"
	}
	return "TOT"
}
