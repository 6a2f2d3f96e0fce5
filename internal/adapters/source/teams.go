package source

import (
	"fmt"
	"strings"
)

var teamAbbrev = map[string]string{
	"Atlanta Hawks":          "ATL",
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BRK",
	"Charlotte Hornets":      "CHA",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Detroit Pistons":        "DET",
	"Indiana Pacers":         "IND",
	"Miami Heat":             "MIA",
	"Milwaukee Bucks":        "MIL",
	"New York Knicks":        "NYK",
	"Orlando Magic":          "ORL",
	"Philadelphia 76ers":     "PHI",
	"Toronto Raptors":        "TOR",
	"Washington Wizards":     "WAS",
	"Dallas Mavericks":       "DAL",
	"Denver Nuggets":         "DEN",
	"Golden State Warriors":  "GSW",
	"Houston Rockets":        "HOU",
	"Los Angeles Clippers":   "LAC",
	"Los Angeles Lakers":     "LAL",
	"Memphis Grizzlies":      "MEM",
	"Minnesota Timberwolves": "MIN",
	"New Orleans Pelicans":   "NOP",
	"Oklahoma City Thunder":  "OKC",
	"Phoenix Suns":           "PHO",
	"Portland Trail Blazers": "POR",
	"Sacramento Kings":       "SAC",
	"San Antonio Spurs":      "SAS",
	"Utah Jazz":              "UTA",
}

// TeamAbbrev maps a standings team name to its three-letter code. The
// playoff marker "*" is ignored. Unknown names are returned trimmed.
func TeamAbbrev(name string) string {
	base := strings.TrimSpace(strings.ReplaceAll(name, "*", ""))
	if code, ok := teamAbbrev[base]; ok {
		return code
	}
	return base
}

// SeasonString renders a season end year as "YYYY-YY", e.g. 2024 -> "2023-24".
func SeasonString(year int) string {
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// TeamNames returns a copy of the known full-name to code mapping.
func TeamNames() map[string]string {
	out := make(map[string]string, len(teamAbbrev))
	for k, v := range teamAbbrev {
		out[k] = v
	}
	return out
}
