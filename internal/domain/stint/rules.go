package stint

// Candidate is what a fallback rule sees for one collapsed row.
type Candidate struct {
	Key Key
	// Resolved is the answer from PrimaryTeams, empty when absent.
	Resolved string
	// Team is the collapsed row's own team code.
	Team string
}

// Rule proposes a primary team for a candidate.
type Rule func(Candidate) (string, bool)

// FromResolver accepts the minutes-based answer when there is one.
func FromResolver(c Candidate) (string, bool) {
	return c.Resolved, c.Resolved != ""
}

// FromCollapsedTeam accepts the row's own team unless it is a combined code.
func FromCollapsedTeam(opts Options) Rule {
	return func(c Candidate) (string, bool) {
		if c.Team == "" || opts.IsCombined(c.Team) {
			return "", false
		}
		return c.Team, true
	}
}

// DefaultRules is the resolution order used by the season builder.
func DefaultRules(opts Options) []Rule {
	return []Rule{FromResolver, FromCollapsedTeam(opts)}
}

// Resolve runs rules in order and returns the first accepted team, or ""
// when the primary team is unknown.
func Resolve(c Candidate, rules []Rule) string {
	for _, r := range rules {
		if team, ok := r(c); ok {
			return team
		}
	}
	return ""
}
