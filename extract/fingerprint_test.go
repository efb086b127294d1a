package extract

import "testing"

func TestFingerprint_Deterministic(t *testing.T) {
	text := "hand thrown stoneware mug with pulled handle"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("same text must produce the same fingerprint")
	}
}

func TestFingerprint_SimilarTextsAreClose(t *testing.T) {
	a := Fingerprint("hand thrown stoneware mug with pulled handle")
	b := Fingerprint("hand thrown stoneware cup with pulled handle")
	if d := HammingDistance(a, b); d > 16 {
		t.Errorf("near-duplicate texts too far apart: %d bits", d)
	}
}

func TestFingerprint_DifferentTextsAreFar(t *testing.T) {
	a := Fingerprint("hand thrown stoneware mug with pulled handle")
	b := Fingerprint("completely unrelated sentence about railway timetables and signal boxes")
	if d := HammingDistance(a, b); d < 5 {
		t.Errorf("unrelated texts too close: %d bits", d)
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if Fingerprint("") != 0 || Fingerprint("   \t\n") != 0 {
		t.Error("empty input should produce fingerprint 0")
	}
}
