package synth

import (
	"math"
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/adapters/source"
)

const (
	seasonGames    = 82
	votingPtsMax   = 1000
	votedPlayers   = 10
	playoffTeams   = 8
	possPerMinute  = 2.08
	leagueAvgScore = 112.0
)

var (
	firstNames = []string{
		"Nikola", "Luka", "Giannis", "Shai", "Jayson", "Joel", "Anthony", "Domantas",
		"Tyrese", "Donovan", "De'Aaron", "P.J.", "Jaren", "Dennis", "Kevin",
	}
	lastNames = []string{
		"Jokić", "Dončić", "Brown", "Walker", "Jackson Jr.", "Tucker",
		"Schröder", "Edwards", "Mitchell", "Holiday",
	}
	eastCodes = map[string]bool{
		"ATL": true, "BOS": true, "BRK": true, "CHA": true, "CHI": true,
		"CLE": true, "DET": true, "IND": true, "MIA": true, "MIL": true,
		"NYK": true, "ORL": true, "PHI": true, "TOR": true, "WAS": true,
	}
)

// Season is one generated season as CSV records keyed by table name.
type Season struct {
	Year  int
	Files map[string][][]string
}

type player struct {
	name  string
	id    string
	skill float64
	age   int
	pos   string
}

type stintRow struct {
	p     *player
	team  string
	g     float64
	share float64 // fraction of the player's season in this row
}

type line struct {
	p    *player
	team string
	g    float64
	mpg  float64
	ppg  float64
	rpg  float64
	apg  float64
	spg  float64
	bpg  float64
	topg float64
	pfpg float64
}

// pool returns the deterministic player pool for cfg.
func pool(cfg Config) []*player {
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))
	positions := []string{"PG", "SG", "SF", "PF", "C"}
	out := make([]*player, 0, cfg.Players)
	for i := 0; i < cfg.Players; i++ {
		name := firstNames[i%len(firstNames)] + " " + lastNames[(i/len(firstNames)+i)%len(lastNames)]
		if i >= len(firstNames)*len(lastNames) {
			name += " " + strconv.Itoa(i)
		}
		out = append(out, &player{
			name:  name,
			id:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
			skill: math.Pow(rng.Float64(), 2),
			age:   20 + rng.IntN(14),
			pos:   positions[i%len(positions)],
		})
	}
	// names must be unique per season
	seen := make(map[string]int)
	for _, p := range out {
		seen[p.name]++
		if n := seen[p.name]; n > 1 {
			p.name += " " + strconv.Itoa(n)
			p.id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.name)).String()
		}
	}
	return out
}

func teamCodes() ([]string, map[string]string) {
	names := source.TeamNames()
	byCode := make(map[string]string, len(names))
	codes := make([]string, 0, len(names))
	for name, code := range names {
		byCode[code] = name
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, byCode
}

// Generate builds the raw tables for one season.
func Generate(year int, cfg Config) *Season {
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(year)))
	codes, byCode := teamCodes()
	players := pool(cfg)

	var stints []stintRow
	var lines []line
	primary := make(map[*player]string, len(players))
	for i, p := range players {
		s := p.skill
		g := math.Round(math.Min(seasonGames, 45+30*s+rng.NormFloat64()*8))
		if g < 1 {
			g = 1
		}
		team := codes[(i*7+year)%len(codes)]
		primary[p] = team
		l := line{
			p:    p,
			g:    g,
			mpg:  18 + 18*s,
			ppg:  math.Max(2, 6+24*s+rng.NormFloat64()*1.5),
			rpg:  3 + 8*s,
			apg:  1.5 + 7*s,
			spg:  0.5 + 1.2*s,
			bpg:  0.3 + 1.5*s,
			topg: 1 + 2.5*s,
			pfpg: 1.5 + 1.5*s,
		}
		lines = append(lines, l)
		if rng.Float64() < cfg.TradeRate && g >= 10 {
			first := math.Round(g * 0.6)
			other := codes[(i*7+year+1)%len(codes)]
			stints = append(stints,
				stintRow{p: p, team: cfg.combinedCode(year), g: g, share: 1},
				stintRow{p: p, team: team, g: first, share: first / g},
				stintRow{p: p, team: other, g: g - first, share: (g - first) / g},
			)
			continue
		}
		stints = append(stints, stintRow{p: p, team: team, g: g, share: 1})
	}
	byPlayer := make(map[*player]line, len(lines))
	for _, l := range lines {
		byPlayer[l.p] = l
	}

	standings, winPct := buildStandings(players, primary, codes, byCode, year)
	s := &Season{Year: year, Files: map[string][][]string{
		source.Totals:    totalsRecords(stints, byPlayer),
		source.PerGame:   perGameRecords(stints, byPlayer),
		source.PerPoss:   perPossRecords(stints, byPlayer),
		source.Advanced:  advancedRecords(stints, byPlayer),
		source.Standings: standings,
	}}
	if year <= cfg.LastVotingSeason {
		s.Files[source.Voting] = votingRecords(lines, primary, winPct)
	}
	return s
}

func num(x float64, prec int) string {
	return strconv.FormatFloat(x, 'f', prec, 64)
}

func shooting(l line) (fg, fga, tp, tpa, ft, fta float64) {
	ft = l.ppg * 0.18
	fta = ft / 0.8
	tp = l.ppg * 0.08
	tpa = tp / 0.36
	fg = (l.ppg - ft - tp) / 2
	fga = fg / (0.45 + 0.05*l.p.skill)
	return
}

func totalsRecords(stints []stintRow, lines map[*player]line) [][]string {
	out := [][]string{{
		"Rk", "Player", "Age", "Team", "Pos", "G", "GS", "MP",
		"PTS", "TRB", "AST", "STL", "BLK", "ORB", "DRB", "TOV", "PF", "synth_id",
	}}
	for i, st := range stints {
		l := lines[st.p]
		g := st.g
		orb := l.rpg * 0.3
		out = append(out, []string{
			strconv.Itoa(i + 1), st.p.name, strconv.Itoa(st.p.age), st.team, st.p.pos,
			num(g, 0), num(math.Round(g*st.p.skill), 0), num(math.Round(g*l.mpg), 0),
			num(math.Round(g*l.ppg), 0), num(math.Round(g*l.rpg), 0), num(math.Round(g*l.apg), 0),
			num(math.Round(g*l.spg), 0), num(math.Round(g*l.bpg), 0),
			num(math.Round(g*orb), 0), num(math.Round(g*(l.rpg-orb)), 0),
			num(math.Round(g*l.topg), 0), num(math.Round(g*l.pfpg), 0),
			st.p.id,
		})
	}
	return out
}

func perGameRecords(stints []stintRow, lines map[*player]line) [][]string {
	out := [][]string{{
		"Player", "Team", "G", "MP", "FG", "FGA", "FG%", "3P", "3PA", "3P%",
		"2P", "2PA", "2P%", "eFG%", "FT", "FTA", "FT%", "PTS",
	}}
	for _, st := range stints {
		l := lines[st.p]
		fg, fga, tp, tpa, ft, fta := shooting(l)
		out = append(out, []string{
			st.p.name, st.team, num(st.g, 0), num(l.mpg, 1),
			num(fg, 1), num(fga, 1), num(fg/fga, 3),
			num(tp, 1), num(tpa, 1), num(tp/tpa, 3),
			num(fg-tp, 1), num(fga-tpa, 1), num((fg-tp)/(fga-tpa), 3),
			num((fg+0.5*tp)/fga, 3),
			num(ft, 1), num(fta, 1), num(ft/fta, 3),
			num(l.ppg, 1),
		})
	}
	return out
}

func perPossRecords(stints []stintRow, lines map[*player]line) [][]string {
	out := [][]string{{
		"Player", "Team", "G", "FG", "FGA", "FG%", "3P", "3PA", "3P%",
		"2P", "2PA", "2P%", "eFG%", "FT", "FTA", "FT%",
		"ORB", "DRB", "TRB", "AST", "STL", "BLK", "TOV", "PF", "PTS", "ORtg", "DRtg",
	}}
	for _, st := range stints {
		l := lines[st.p]
		k := 100 / (l.mpg * possPerMinute)
		fg, fga, tp, tpa, ft, fta := shooting(l)
		orb := l.rpg * 0.3
		out = append(out, []string{
			st.p.name, st.team, num(st.g, 0),
			num(fg*k, 1), num(fga*k, 1), num(fg/fga, 3),
			num(tp*k, 1), num(tpa*k, 1), num(tp/tpa, 3),
			num((fg-tp)*k, 1), num((fga-tpa)*k, 1), num((fg-tp)/(fga-tpa), 3),
			num((fg+0.5*tp)/fga, 3),
			num(ft*k, 1), num(fta*k, 1), num(ft/fta, 3),
			num(orb*k, 1), num((l.rpg-orb)*k, 1), num(l.rpg*k, 1),
			num(l.apg*k, 1), num(l.spg*k, 1), num(l.bpg*k, 1),
			num(l.topg*k, 1), num(l.pfpg*k, 1), num(l.ppg*k, 1),
			num(105+15*st.p.skill, 0), num(116-8*st.p.skill, 0),
		})
	}
	return out
}

func advancedRecords(stints []stintRow, lines map[*player]line) [][]string {
	out := [][]string{{
		"Player", "Team", "G", "MP", "PER", "TS%", "3PAr", "FTr",
		"OWS", "DWS", "WS", "WS/48", "OBPM", "DBPM", "BPM", "VORP",
	}}
	for _, st := range stints {
		l := lines[st.p]
		s := st.p.skill
		frac := st.g / seasonGames
		ows := (0.5 + 8*s) * frac
		dws := (0.5 + 4*s) * frac
		mp := st.g * l.mpg
		obpm := -2 + 8*s
		dbpm := -1 + 3*s
		out = append(out, []string{
			st.p.name, st.team, num(st.g, 0), num(math.Round(mp), 0),
			num(9+20*s, 1), num(0.52+0.1*s, 3), num(0.35, 3), num(0.25+0.1*s, 3),
			num(ows, 1), num(dws, 1), num(ows+dws, 1), num((ows+dws)*48/mp, 3),
			num(obpm, 1), num(dbpm, 1), num(obpm+dbpm, 1),
			num(math.Max(-0.5, (obpm+dbpm+2)*frac*0.9), 1),
		})
	}
	return out
}

func buildStandings(players []*player, primary map[*player]string, codes []string, byCode map[string]string, year int) ([][]string, map[string]float64) {
	strength := make(map[string]float64, len(codes))
	count := make(map[string]float64, len(codes))
	for _, p := range players {
		strength[primary[p]] += p.skill
		count[primary[p]]++
	}
	mean := 0.0
	for _, c := range codes {
		if count[c] > 0 {
			strength[c] /= count[c]
		}
		mean += strength[c]
	}
	mean /= float64(len(codes))

	type rec struct {
		code string
		w, l float64
	}
	conf := map[bool][]rec{}
	winPct := make(map[string]float64, len(codes))
	for _, c := range codes {
		w := math.Round(math.Max(15, math.Min(67, 41+(strength[c]-mean)*150+float64((year+len(c))%5))))
		conf[eastCodes[c]] = append(conf[eastCodes[c]], rec{code: c, w: w, l: seasonGames - w})
		winPct[c] = w / seasonGames
	}

	out := [][]string{{"Team", "W", "L", "W/L%", "GB", "PS/G", "PA/G", "SRS", "Conference"}}
	for _, east := range []bool{true, false} {
		name := "Western Conference"
		label := "West"
		if east {
			name, label = "Eastern Conference", "East"
		}
		out = append(out, []string{name, "", "", "", "", "", "", "", ""})
		rs := conf[east]
		sort.SliceStable(rs, func(a, b int) bool { return rs[a].w > rs[b].w })
		for i, r := range rs {
			team := byCode[r.code]
			if i < playoffTeams {
				team += "*"
			}
			gb := "—"
			if d := ((rs[0].w - r.w) + (r.l - rs[0].l)) / 2; d > 0 {
				gb = num(d, 1)
			}
			margin := (r.w - 41) * 0.25
			out = append(out, []string{
				team, num(r.w, 0), num(r.l, 0), num(r.w/seasonGames, 3), gb,
				num(leagueAvgScore+margin/2, 1), num(leagueAvgScore-margin/2, 1),
				num(margin-0.1, 2), label,
			})
		}
	}
	return out, winPct
}

func votingRecords(lines []line, primary map[*player]string, winPct map[string]float64) [][]string {
	type cand struct {
		l     line
		score float64
	}
	var cands []cand
	for _, l := range lines {
		cands = append(cands, cand{l: l, score: 0.6*l.p.skill + 0.3*winPct[primary[l.p]] + 0.1*l.g/seasonGames})
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })
	if len(cands) > votedPlayers {
		cands = cands[:votedPlayers]
	}

	out := [][]string{source.VotingColumns[:len(source.VotingColumns)-2]}
	for i, c := range cands {
		share := 0.9 * math.Pow(0.55, float64(i))
		first := 0.0
		if i == 0 {
			first = 80
		} else if i == 1 {
			first = 20
		}
		l := c.l
		out = append(out, []string{
			strconv.Itoa(i + 1), l.p.name, strconv.Itoa(l.p.age), primary[l.p],
			num(first, 0), num(math.Round(share*votingPtsMax), 0), num(votingPtsMax, 0), num(share, 3),
			num(l.g, 0), num(l.mpg, 1), num(l.ppg, 1), num(l.rpg, 1), num(l.apg, 1),
			num(l.spg, 1), num(l.bpg, 1),
			num(0.5, 3), num(0.36, 3), num(0.8, 3),
			num((0.5+12*l.p.skill)*l.g/seasonGames, 1), num(0.05+0.2*l.p.skill, 3),
		})
	}
	return out
}
