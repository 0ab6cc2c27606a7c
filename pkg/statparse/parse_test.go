package statparse

import (
	"reflect"
	"testing"
)

const cardText = `THUPER
PLAYER CARD
MISSIONS PLAYED 86
MISSIONS WON 71
ENEMY KILLS 1,234
TERMINID KILLS 890
AUTOMATON KILLS 344
FRIENDLY KILLS 7
DEATHS 52
SHOTS FIRED 41,337
SHOTS HIT 18,221
IN-MISSION TIME 103:24:11
SAMPLES COLLECTED 912
TOTAL XP EARNED 151,240`

func TestParseCardLabels(t *testing.T) {
	r := Parse(cardText)
	want := map[StatKey]int64{
		StatMissionsPlayed:   86,
		StatMissionsWon:      71,
		StatEnemyKills:       1234,
		StatTerminidKills:    890,
		StatAutomatonKills:   344,
		StatFriendlyKills:    7,
		StatDeaths:           52,
		StatShotsFired:       41337,
		StatShotsHit:         18221,
		StatInMissionTime:    103*3600 + 24*60 + 11,
		StatSamplesCollected: 912,
		StatTotalXPEarned:    151240,
	}
	for k, v := range want {
		if got, ok := r.Stats[k]; !ok || got != v {
			t.Errorf("%s: got %d (present=%v), want %d", k, got, ok, v)
		}
		if r.Confidence[k] != ConfidenceLabel {
			t.Errorf("%s: confidence %q, want label", k, r.Confidence[k])
		}
	}
	if len(r.Stats) != len(want) {
		t.Errorf("got %d stats, want %d: %v", len(r.Stats), len(want), r.Stats)
	}
	if r.PlayerName == nil || *r.PlayerName != "THUPER" {
		t.Errorf("player name = %v, want THUPER", r.PlayerName)
	}
}

func TestParseCardPositionFallback(t *testing.T) {
	// Labels garbled beyond recognition; only the numeric column survives in
	// on-screen order. The third numeric token is the enemy-kill count on the
	// player card.
	text := `THUPER
M1SS10NS PLAVED 86
M1SS10NS W0N 71
ENEMV K1LLS 1234
TERM1N1D K1LLS 890`
	r := Parse(text)
	if v, ok := r.Stats[StatEnemyKills]; !ok || v != 1234 {
		t.Fatalf("enemy kills = %d (present=%v), want 1234", v, ok)
	}
	if r.Confidence[StatEnemyKills] != ConfidencePosition {
		t.Fatalf("enemy kills confidence %q, want position", r.Confidence[StatEnemyKills])
	}
	if v := r.Stats[StatMissionsPlayed]; v != 86 {
		t.Fatalf("missions played = %d, want 86", v)
	}
}

func TestParseCareerLayout(t *testing.T) {
	text := `CAREER
ENEMY KILLS 52,881
GRENADE KILLS 1,204
MELEE KILLS 88
EAGLE KILLS 3,901
ORBITALS USED 412
REINFORCE STRATAGEMS USED 204
TOTAL STRATAGEMS USED 1,102
SUCCESSFUL EXTRACTIONS 77
OBJECTIVES COMPLETED 310`
	r := Parse(text)
	want := map[StatKey]int64{
		StatEnemyKills:              52881,
		StatGrenadeKills:            1204,
		StatMeleeKills:              88,
		StatEagleKills:              3901,
		StatOrbitalsUsed:            412,
		StatReinforceStratagemsUsed: 204,
		StatTotalStratagemsUsed:     1102,
		StatSuccessfulExtractions:   77,
		StatObjectivesCompleted:     310,
	}
	for k, v := range want {
		if got := r.Stats[k]; got != v {
			t.Errorf("%s: got %d, want %d", k, got, v)
		}
		if r.Confidence[k] != ConfidenceLabel {
			t.Errorf("%s: confidence %q, want label", k, r.Confidence[k])
		}
	}
}

func TestParseCareerPositionUsesCareerTable(t *testing.T) {
	// Career marker present, labels otherwise destroyed. Numeric tokens land
	// on the career position table, where index 0 is enemy kills.
	text := `CAREER
52881 1204 88`
	r := Parse(text)
	if v := r.Stats[StatEnemyKills]; v != 52881 {
		t.Fatalf("enemy kills = %d, want 52881", v)
	}
	if v := r.Stats[StatTerminidKills]; v != 1204 {
		t.Fatalf("terminid kills = %d, want 1204", v)
	}
	if r.Confidence[StatEnemyKills] != ConfidencePosition {
		t.Fatalf("confidence %q, want position", r.Confidence[StatEnemyKills])
	}
}

func TestParseUnparseableLabelValueFallsThrough(t *testing.T) {
	// A label followed by garbage is a non-match for that key, not a zero.
	r := Parse("DEATHS abc xyz qqq")
	if _, ok := r.Stats[StatDeaths]; ok {
		t.Fatalf("deaths should be absent, got %v", r.Stats)
	}
	if _, ok := r.Confidence[StatDeaths]; ok {
		t.Fatalf("deaths confidence should be absent")
	}
}

func TestParseDuplicateLabelFirstWins(t *testing.T) {
	r := Parse("DEATHS 12\nDEATHS 99")
	if v := r.Stats[StatDeaths]; v != 12 {
		t.Fatalf("deaths = %d, want first occurrence 12", v)
	}
}

func TestParseValueOnNextLine(t *testing.T) {
	r := Parse("SAMPLES COLLECTED\n912\nDEATHS 4")
	if v := r.Stats[StatSamplesCollected]; v != 912 {
		t.Fatalf("samples = %d, want 912", v)
	}
	if r.Confidence[StatSamplesCollected] != ConfidenceLabel {
		t.Fatalf("confidence %q, want label", r.Confidence[StatSamplesCollected])
	}
}

func TestParseSpecificLabelBeatsGeneric(t *testing.T) {
	// "terminid kills" must be claimed before the bare "kills" spelling of
	// enemy kills can reinterpret the same line.
	r := Parse("TERMINID KILLS 890\nKILLS 500")
	if v := r.Stats[StatTerminidKills]; v != 890 {
		t.Fatalf("terminid kills = %d, want 890", v)
	}
	if v := r.Stats[StatEnemyKills]; v != 500 {
		t.Fatalf("enemy kills = %d, want 500", v)
	}
}

func TestParseEmptyAndGarbage(t *testing.T) {
	for _, in := range []string{"", "   \n\n  ", "%%%###@@@", "no stats here at all"} {
		r := Parse(in)
		if len(r.Stats) != 0 || len(r.Confidence) != 0 {
			t.Errorf("Parse(%q) should recover nothing, got %v", in, r.Stats)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	a := Parse(cardText)
	b := Parse(cardText)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parse is not deterministic:\n%v\n%v", a, b)
	}
}

func TestParseKeySetInvariant(t *testing.T) {
	for _, in := range []string{cardText, "DEATHS 12", "", "CAREER\n1 2 3"} {
		r := Parse(in)
		if len(r.Stats) != len(r.Confidence) {
			t.Fatalf("key sets differ for %q: %v vs %v", in, r.Stats, r.Confidence)
		}
		for k := range r.Stats {
			if _, ok := r.Confidence[k]; !ok {
				t.Fatalf("key %s in stats but not confidence", k)
			}
		}
	}
}

func TestParseNameAbsent(t *testing.T) {
	// Every line is either a stat or digit-heavy; no handle should be forced.
	r := Parse("DEATHS 12\n123456\nSHOTS FIRED 99")
	if r.PlayerName != nil {
		t.Fatalf("player name = %q, want absent", *r.PlayerName)
	}
}

func TestParseLabeledName(t *testing.T) {
	r := Parse("NAME: SES Wings of Liberty\nDEATHS 3")
	if r.PlayerName == nil || *r.PlayerName != "SES Wings of Liberty" {
		t.Fatalf("player name = %v", r.PlayerName)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1,234", 1234, true},
		{"1.234", 1234, true},
		{"(912)", 912, true},
		{"0", 0, true},
		{"12abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, c := range cases {
		got, ok := parseCount(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("parseCount(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseDurationToken(t *testing.T) {
	got, ok := parseDuration("103:24:11")
	if !ok || got != 103*3600+24*60+11 {
		t.Fatalf("parseDuration = %d,%v", got, ok)
	}
	if _, ok := parseDuration("103:99:11"); ok {
		t.Fatalf("minutes out of range should not parse")
	}
	if _, ok := parseDuration("1234"); ok {
		t.Fatalf("plain count should not parse as duration")
	}
}

func TestPatternTableComplete(t *testing.T) {
	seen := map[StatKey]bool{}
	cardIdx := map[int]StatKey{}
	careerIdx := map[int]StatKey{}
	for _, p := range patterns {
		if seen[p.key] {
			t.Fatalf("duplicate pattern for %s", p.key)
		}
		seen[p.key] = true
		if len(p.labels) == 0 {
			t.Errorf("%s has no label spellings", p.key)
		}
		if p.careerPos == noPos {
			t.Errorf("%s unreachable by position on career layout", p.key)
		} else if prev, dup := careerIdx[p.careerPos]; dup {
			t.Errorf("career index %d claimed by %s and %s", p.careerPos, prev, p.key)
		} else {
			careerIdx[p.careerPos] = p.key
		}
		if p.cardPos != noPos {
			if prev, dup := cardIdx[p.cardPos]; dup {
				t.Errorf("card index %d claimed by %s and %s", p.cardPos, prev, p.key)
			} else {
				cardIdx[p.cardPos] = p.key
			}
		}
	}
	for _, k := range AllStatKeys {
		if !seen[k] {
			t.Errorf("%s has no pattern entry", k)
		}
	}
	if len(patterns) != len(AllStatKeys) {
		t.Errorf("pattern table has %d entries, key set has %d", len(patterns), len(AllStatKeys))
	}
}
