package utils

import (
	"testing"
	"time"
)

func TestFormatLondonHandlesDST(t *testing.T) {
	winter := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	if got := FormatLondon(winter); got != "Jan 15, 09:30" {
		t.Fatalf("winter: got %q", got)
	}
	summer := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	if got := FormatLondon(summer); got != "Jul 15, 10:30" {
		t.Fatalf("summer: got %q", got)
	}
	if FormatLondon(time.Time{}) != "" {
		t.Fatalf("zero time should render empty")
	}
}

func TestPickVariantStable(t *testing.T) {
	for _, id := range []string{"EAB1234", "M3F2A1", ""} {
		a, b := PickVariant(id, 0, 3), PickVariant(id, 0, 3)
		if a != b || a < 0 || a >= 3 {
			t.Fatalf("PickVariant(%q) = %d, %d", id, a, b)
		}
	}
	if PickVariant("EAB1234", 0, 0) != 0 {
		t.Fatalf("empty range should pick 0")
	}
}
