package types

import "testing"

func TestReadTimestampSentinels(t *testing.T) {
	if got := ReadTimestamp(0xFFFFFFFFFFFFFFFF); got != -1 {
		t.Fatalf("all-ones sentinel: got %d, want -1", got)
	}
	if got := ReadTimestamp(0); got != 0 {
		t.Fatalf("all-zeros sentinel: got %d, want 0", got)
	}
}

func TestFiletimeRoundTrip(t *testing.T) {
	// 910692730085477 ms is the largest value whose FILETIME still fits in
	// 64 bits: (910692730085477 + windowsEpochOffsetMs) * 10000 < 2^63.
	cases := []int64{0, 1, 1000, 1 << 20, 910692730085477}
	for _, ms := range cases {
		ft := TimeToFiletime_ms(ms)
		got := int64(ft)/filetimeScale - windowsEpochOffsetMs
		if got != ms {
			t.Fatalf("round trip for %d ms: got %d", ms, got)
		}
	}
}

// TimeToFiletime_ms is a test helper mirroring TimeToFiletime's arithmetic
// directly on a millisecond value, avoiding a dependency on time.Time's own
// rounding behavior for the property check.
func TimeToFiletime_ms(ms int64) uint64 {
	return uint64((ms + windowsEpochOffsetMs) * filetimeScale)
}
