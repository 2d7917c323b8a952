package normalize

import (
	"testing"

	"ukdata/pkg/records"
)

func TestDedup_firstOccurrenceWins(t *testing.T) {
	r1 := wellFormedRow()
	r2 := wellFormedRow()
	r2["speed_limit"] = "60" // same key, different content

	accs := Normalize([]records.Record{r1, r2})
	out, stats := Dedup(accs)

	if got, want := len(out), 1; got != want {
		t.Fatalf("Dedup kept %d rows, want %d", got, want)
	}
	if out[0].SpeedLimit == nil || *out[0].SpeedLimit != 30 {
		t.Errorf("kept SpeedLimit = %v, want 30 (first writer wins)", out[0].SpeedLimit)
	}
	if got, want := stats.Conflicts, 1; got != want {
		t.Errorf("Conflicts = %d, want %d", got, want)
	}
	if got, want := stats.Exact, 0; got != want {
		t.Errorf("Exact = %d, want %d", got, want)
	}
}

func TestDedup_exactDuplicate(t *testing.T) {
	accs := Normalize([]records.Record{wellFormedRow(), wellFormedRow()})
	out, stats := Dedup(accs)

	if got, want := len(out), 1; got != want {
		t.Fatalf("Dedup kept %d rows, want %d", got, want)
	}
	if got, want := stats.Exact, 1; got != want {
		t.Errorf("Exact = %d, want %d", got, want)
	}
	if got, want := stats.Conflicts, 0; got != want {
		t.Errorf("Conflicts = %d, want %d", got, want)
	}
}

func TestDedup_distinctKeysUntouched(t *testing.T) {
	r1 := wellFormedRow()
	r2 := wellFormedRow()
	r2["accident_index"] = "2023010199999"
	r3 := wellFormedRow()
	r3["accident_index"] = "2023010100001"

	accs := Normalize([]records.Record{r1, r2, r3})
	out, stats := Dedup(accs)

	if got, want := len(out), 3; got != want {
		t.Fatalf("Dedup kept %d rows, want %d", got, want)
	}
	// Input order preserved.
	if out[0].Index != r1["accident_index"] || out[2].Index != "2023010100001" {
		t.Errorf("order changed: %s, %s, %s", out[0].Index, out[1].Index, out[2].Index)
	}
	if stats.Exact != 0 || stats.Conflicts != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
}

func TestDedup_emptyInput(t *testing.T) {
	out, stats := Dedup(nil)
	if len(out) != 0 || stats.Exact != 0 || stats.Conflicts != 0 {
		t.Fatalf("Dedup(nil) = %v, %+v; want empty", out, stats)
	}
}
