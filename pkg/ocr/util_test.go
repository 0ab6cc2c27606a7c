package ocr

import "testing"

func TestNormalizeTextKeepsLineOrder(t *testing.T) {
	in := "ENEMY   KILLS\t1,234\r\n\r\n  DEATHS 52  \n"
	want := "ENEMY KILLS 1,234\nDEATHS 52"
	if got := normalizeText(in); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTextScorePrefersDigits(t *testing.T) {
	if textScore("1234") <= textScore("abcd") {
		t.Fatalf("digits should outscore letters")
	}
}
