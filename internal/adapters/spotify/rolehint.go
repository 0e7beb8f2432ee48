package spotify

import "strings"

// roleKeywords maps genre fragments to the instrument whose stem fits that
// listening profile best. First match by count wins.
var roleKeywords = map[string]string{
	"rock":       "guitar",
	"metal":      "guitar",
	"punk":       "guitar",
	"hip hop":    "drums",
	"rap":        "drums",
	"trap":       "drums",
	"electronic": "synth",
	"edm":        "synth",
	"house":      "synth",
	"techno":     "synth",
	"jazz":       "bass",
	"funk":       "bass",
	"soul":       "bass",
	"classical":  "keys",
	"piano":      "keys",
	"ambient":    "keys",
}

// RoleForGenres picks the instrument most supported by the given genre
// tags. Unmatched profiles fall back to vocals.
func RoleForGenres(genres []string) string {
	counts := make(map[string]int)
	for _, g := range genres {
		g = strings.ToLower(g)
		for kw, role := range roleKeywords {
			if strings.Contains(g, kw) {
				counts[role]++
			}
		}
	}

	best, bestCount := "vocals", 0
	for _, role := range []string{"guitar", "drums", "synth", "bass", "keys"} {
		if counts[role] > bestCount {
			best, bestCount = role, counts[role]
		}
	}
	return best
}
