package statparse

import "strings"

// Layout identifies which of the two known stat screens produced the text:
// the single player-card overlay or the two-page career screen.
type Layout int

const (
	LayoutPlayerCard Layout = iota
	LayoutCareer
)

func (l Layout) String() string {
	if l == LayoutCareer {
		return "career"
	}
	return "player_card"
}

// valueKind is the text shape expected after a label.
type valueKind int

const (
	kindCount    valueKind = iota // plain non-negative integer, separators allowed
	kindDuration                  // H:MM:SS, stored as total seconds
)

// noPos marks a stat that has no position fallback on a given layout.
const noPos = -1

// pattern binds one stat key to its label spellings and its position-fallback
// index per layout. Labels are lowercase; more specific spellings come first
// so e.g. "terminid kills" is claimed before a generic "kills" could be.
// The table is package-level and never mutated after init.
type pattern struct {
	key       StatKey
	labels    []string
	kind      valueKind
	cardPos   int // index into the ordered numeric tokens of a player-card text
	careerPos int // index into the ordered numeric tokens of a career text
}

// Position indices follow the on-screen reading order of each layout. The
// player card shows a 12-stat summary; the career screen lists all 23 across
// its two pages. Career-only counters (stratagem breakdowns, extractions,
// objectives) have no card index.
var patterns = []pattern{
	{StatMissionsPlayed, []string{"missions played", "missions"}, kindCount, 0, 18},
	{StatMissionsWon, []string{"missions won", "victories", "wins"}, kindCount, 1, 19},
	{StatEnemyKills, []string{"enemy kills", "enemies killed", "kills"}, kindCount, 2, 0},
	{StatTerminidKills, []string{"terminid kills", "terminids killed", "bug kills"}, kindCount, 3, 1},
	{StatAutomatonKills, []string{"automaton kills", "automatons killed", "bot kills"}, kindCount, 4, 2},
	{StatFriendlyKills, []string{"friendly kills", "friendlies killed", "team kills"}, kindCount, 5, 3},
	{StatDeaths, []string{"deaths", "times died", "kia"}, kindCount, 6, 7},
	{StatShotsFired, []string{"shots fired", "rounds fired"}, kindCount, 7, 8},
	{StatShotsHit, []string{"shots hit", "rounds hit", "hits"}, kindCount, 8, 9},
	{StatInMissionTime, []string{"in-mission time", "in mission time", "mission time", "time played"}, kindDuration, 9, 20},
	{StatSamplesCollected, []string{"samples collected", "samples gathered", "samples"}, kindCount, 10, 21},
	{StatTotalXPEarned, []string{"total xp earned", "xp earned", "total xp", "experience"}, kindCount, 11, 22},

	{StatGrenadeKills, []string{"grenade kills"}, kindCount, noPos, 4},
	{StatMeleeKills, []string{"melee kills"}, kindCount, noPos, 5},
	{StatEagleKills, []string{"eagle kills"}, kindCount, noPos, 6},
	{StatOrbitalsUsed, []string{"orbitals used", "orbital stratagems used"}, kindCount, noPos, 10},
	{StatDefensiveStratagemsUsed, []string{"defensive stratagems used", "defensive stratagems"}, kindCount, noPos, 11},
	{StatEagleStratagemsUsed, []string{"eagle stratagems used", "eagle stratagems"}, kindCount, noPos, 12},
	{StatSupplyStratagemsUsed, []string{"supply stratagems used", "supply stratagems"}, kindCount, noPos, 13},
	{StatReinforceStratagemsUsed, []string{"reinforce stratagems used", "reinforce stratagems", "reinforcements used"}, kindCount, noPos, 14},
	{StatTotalStratagemsUsed, []string{"total stratagems used", "stratagems used"}, kindCount, noPos, 15},
	{StatSuccessfulExtractions, []string{"successful extractions", "extractions"}, kindCount, noPos, 16},
	{StatObjectivesCompleted, []string{"objectives completed", "objectives"}, kindCount, noPos, 17},
}

// careerMarkers are substrings that only occur on the career screen. The
// player card carries no reliable marker of its own, so it is the default.
var careerMarkers = []string{
	"career",
	"reinforce stratagems",
	"total stratagems",
	"successful extractions",
	"objectives completed",
}

// DetectLayout reports which known stat screen the raw OCR text came from.
func DetectLayout(raw string) Layout {
	return detectLayout(strings.ToLower(strings.Join(strings.Fields(raw), " ")))
}

// detectLayout picks the position table for lowercased, space-collapsed text.
func detectLayout(low string) Layout {
	for _, m := range careerMarkers {
		if strings.Contains(low, m) {
			return LayoutCareer
		}
	}
	return LayoutPlayerCard
}

// positionFor returns the numeric-token index of p on the given layout.
func (p pattern) positionFor(l Layout) int {
	if l == LayoutCareer {
		return p.careerPos
	}
	return p.cardPos
}

// labelWords holds every word that appears in a label spelling or layout
// marker. The player-name heuristic uses it to avoid mistaking a garbled
// stat line for a handle.
var labelWords = buildLabelWords()

func buildLabelWords() map[string]struct{} {
	out := map[string]struct{}{}
	add := func(s string) {
		for _, w := range strings.Fields(s) {
			out[w] = struct{}{}
		}
	}
	for _, p := range patterns {
		for _, l := range p.labels {
			add(l)
		}
	}
	for _, m := range careerMarkers {
		add(m)
	}
	return out
}
