package statparse

// StatKey identifies one of the career statistics shown on the in-game stat
// screens. The set is closed and shared with the storage schema and the
// review UI; never invent keys outside this list.
type StatKey string

const (
	StatEnemyKills              StatKey = "enemy_kills"
	StatTerminidKills           StatKey = "terminid_kills"
	StatAutomatonKills          StatKey = "automaton_kills"
	StatFriendlyKills           StatKey = "friendly_kills"
	StatGrenadeKills            StatKey = "grenade_kills"
	StatMeleeKills              StatKey = "melee_kills"
	StatEagleKills              StatKey = "eagle_kills"
	StatDeaths                  StatKey = "deaths"
	StatShotsFired              StatKey = "shots_fired"
	StatShotsHit                StatKey = "shots_hit"
	StatOrbitalsUsed            StatKey = "orbitals_used"
	StatDefensiveStratagemsUsed StatKey = "defensive_stratagems_used"
	StatEagleStratagemsUsed     StatKey = "eagle_stratagems_used"
	StatSupplyStratagemsUsed    StatKey = "supply_stratagems_used"
	StatReinforceStratagemsUsed StatKey = "reinforce_stratagems_used"
	StatTotalStratagemsUsed     StatKey = "total_stratagems_used"
	StatSuccessfulExtractions   StatKey = "successful_extractions"
	StatObjectivesCompleted     StatKey = "objectives_completed"
	StatMissionsPlayed          StatKey = "missions_played"
	StatMissionsWon             StatKey = "missions_won"
	StatInMissionTime           StatKey = "in_mission_time"
	StatSamplesCollected        StatKey = "samples_collected"
	StatTotalXPEarned           StatKey = "total_xp_earned"
)

// AllStatKeys lists every key in a fixed order. Merge and the tests iterate
// this slice so results are deterministic regardless of map ordering.
var AllStatKeys = []StatKey{
	StatEnemyKills,
	StatTerminidKills,
	StatAutomatonKills,
	StatFriendlyKills,
	StatGrenadeKills,
	StatMeleeKills,
	StatEagleKills,
	StatDeaths,
	StatShotsFired,
	StatShotsHit,
	StatOrbitalsUsed,
	StatDefensiveStratagemsUsed,
	StatEagleStratagemsUsed,
	StatSupplyStratagemsUsed,
	StatReinforceStratagemsUsed,
	StatTotalStratagemsUsed,
	StatSuccessfulExtractions,
	StatObjectivesCompleted,
	StatMissionsPlayed,
	StatMissionsWon,
	StatInMissionTime,
	StatSamplesCollected,
	StatTotalXPEarned,
}

// ValidStatKey reports whether k belongs to the closed key set. Storage and
// handler layers use it to reject unknown keys in user corrections.
func ValidStatKey(k StatKey) bool {
	for _, known := range AllStatKeys {
		if known == k {
			return true
		}
	}
	return false
}

// Confidence tags how a stat value was recovered from OCR text.
type Confidence string

const (
	// ConfidenceLabel means the value followed a recognized stat label.
	ConfidenceLabel Confidence = "label"
	// ConfidencePosition means the value was taken from a fixed numeric-token
	// position of a known screen layout, without a label match.
	ConfidencePosition Confidence = "position"
)

// rank orders confidences: label beats position, anything else ranks zero.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceLabel:
		return 2
	case ConfidencePosition:
		return 1
	}
	return 0
}

// ParseResult is the partial statistics record produced from one screenshot's
// OCR text. Keys missing from Stats were simply not recovered; a key appears
// in Confidence iff it appears in Stats. PlayerName is nil when no handle
// could be extracted. Treat values as immutable once returned.
type ParseResult struct {
	Stats      map[StatKey]int64      `json:"stats"`
	Confidence map[StatKey]Confidence `json:"confidence"`
	PlayerName *string                `json:"player_name,omitempty"`
}

// NewParseResult returns an empty result with allocated maps.
func NewParseResult() ParseResult {
	return ParseResult{
		Stats:      map[StatKey]int64{},
		Confidence: map[StatKey]Confidence{},
	}
}

// Empty reports whether nothing at all was recovered. The upload handler uses
// it to tell the user "no stats detected" without treating that as an error.
func (r ParseResult) Empty() bool {
	return len(r.Stats) == 0 && r.PlayerName == nil
}
