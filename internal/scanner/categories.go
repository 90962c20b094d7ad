package scanner

import (
	"regexp"
	"strings"

	"github.com/probmarkets/kalshi-bot/pkg/types"
)

// categoryPattern binds a category name to the ticker/title patterns that
// identify it. Order matters: the first matching category wins, and
// player_props must come before sports so basketball props aren't
// swallowed by the generic sports patterns.
type categoryPattern struct {
	name     string
	patterns []*regexp.Regexp
}

var categoryPatterns = []categoryPattern{
	{"college_basketball", compileAll(
		`^KXNCAAMBGAME`,
		`^KXNCAAMBSPREAD`,
		`^KXNCAAMBTOTAL`,
	)},
	{"basketball", compileAll(
		`^KXNCAAMBGAME`,
		`^KXNCAAMBSPREAD`,
		`^KXNCAAMBTOTAL`,
		`^KXNBAGAME`,
		`^KXNBASPREAD`,
		`^KXNBATOTAL`,
		`^KXNBA.*GAME`,
	)},
	{"player_props", compileAll(
		`^KXNBA`,
		`^KXNCAAMB`,
		`(?i)points\s+scored`,
		`(?i)wins\s+by\s+over.*[Pp]oints`,
		`(?i)\b(nba|ncaa\s*basketball)\b`,
		`(?i)basketball`,
		`(?i)all.star`,
	)},
	{"crypto", compileAll(
		`(?i)btc`,
		`(?i)bitcoin`,
		`(?i)eth`,
		`(?i)ethereum`,
		`(?i)crypto`,
		`(?i)doge`,
		`(?i)sol`,
		`(?i)xrp`,
	)},
	{"weather", compileAll(
		`(?i)weather`,
		`(?i)temperature`,
		`(?i)rain`,
		`(?i)snow`,
		`(?i)hurricane`,
		`(?i)storm`,
		`(?i)celsius`,
		`(?i)fahrenheit`,
	)},
	{"politics", compileAll(
		`(?i)election`,
		`(?i)president`,
		`(?i)congress`,
		`(?i)senate`,
		`(?i)house`,
		`(?i)vote`,
		`(?i)poll`,
		`(?i)governor`,
		`(?i)democrat`,
		`(?i)republican`,
		`(?i)biden`,
		`(?i)trump`,
	)},
	{"economics", compileAll(
		`(?i)fed`,
		`(?i)fomc`,
		`(?i)rate`,
		`(?i)inflation`,
		`(?i)cpi`,
		`(?i)gdp`,
		`(?i)jobs`,
		`(?i)unemployment`,
		`(?i)payroll`,
		`(?i)treasury`,
	)},
	{"sports", compileAll(
		`(?i)nfl`,
		`(?i)nba`,
		`(?i)mlb`,
		`(?i)nhl`,
		`(?i)super\s*bowl`,
		`(?i)world\s*series`,
		`(?i)championship`,
		`(?i)playoffs`,
		`(?i)esports`,
		`(?i)table\s*tennis`,
		`(?i)points`,
		`(?i)rebounds`,
		`(?i)assists`,
		`(?i)win\s+map`,
		`(?i)winner`,
		`(?i)over\s+\d+`,
		`(?i)under\s+\d+`,
		`KXMV`,
		`KXTABLETENNIS`,
		`KXCS2`,
	)},
}

// excludePatterns identify markets that are never tradable regardless of
// category: mention/social media markets and multivariate combo (parlay)
// markets.
var excludePatterns = compileAll(
	`(?i)mention`,
	`(?i)tweet`,
	`(?i)post\s+about`,
	`(?i)social\s*media`,
	`(?i)say\s+.*\s+on`,
	`(?i)truth\s*social`,
	`^KXMV`,
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func matchText(m *types.Market) string {
	return m.Ticker + " " + m.Title + " " + m.Category
}

// IsExcluded reports whether the market matches any exclusion pattern.
func IsExcluded(m *types.Market) bool {
	text := matchText(m)
	for _, p := range excludePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify returns the first matching category name, or "" if none match.
func Classify(m *types.Market) string {
	text := matchText(m)
	for _, cat := range categoryPatterns {
		for _, p := range cat.patterns {
			if p.MatchString(text) {
				return cat.name
			}
		}
	}
	return ""
}

// MatchesCategory reports whether the market belongs to target. Excluded
// markets never match, including under "all".
func MatchesCategory(m *types.Market, target string) bool {
	if IsExcluded(m) {
		return false
	}
	if strings.EqualFold(target, "all") {
		return true
	}
	return Classify(m) == strings.ToLower(target)
}

// Categories returns the supported category names, "all" first.
func Categories() []string {
	out := make([]string, 0, len(categoryPatterns)+1)
	out = append(out, "all")
	for _, cat := range categoryPatterns {
		out = append(out, cat.name)
	}
	return out
}
