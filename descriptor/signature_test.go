package descriptor

import "testing"

func TestExcinFirstOccurrenceRemovesOnlyFirst(t *testing.T) {
	raw := []byte("abc-deadbeef-deadbeef-xyz")
	got := excinFirstOccurrence(raw, "deadbeef")
	want := "abc--deadbeef-xyz"
	if string(got) != want {
		t.Errorf("excinFirstOccurrence = %q, want %q", got, want)
	}
}

func TestExcinFirstOccurrenceAbsentNeedle(t *testing.T) {
	raw := []byte("no signature token here")
	got := excinFirstOccurrence(raw, "deadbeef")
	if string(got) != string(raw) {
		t.Errorf("excinFirstOccurrence modified content with no match: %q", got)
	}
}
