package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := tempJournal(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	entries := []Entry{
		{
			SessionID: "s1", CarrierID: "C1", HoleID: "H1",
			Phase: "cold_start", Status: "OK",
			CreatedAt: base,
		},
		{
			SessionID: "s1", CarrierID: "C1", HoleID: "H2",
			Phase: "golden_locked", Status: "NG",
			ECodes: []string{"E02", "E04"}, RCodes: []string{"R02", "R04"},
			DriftEvent: true,
			CreatedAt:  base.Add(time.Second),
		},
	}
	for _, e := range entries {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: want 2, got %d", len(got))
	}

	// Newest first.
	if got[0].HoleID != "H2" || got[1].HoleID != "H1" {
		t.Fatalf("unexpected order: %s, %s", got[0].HoleID, got[1].HoleID)
	}
	if got[0].EntryID == "" {
		t.Fatal("entry ID not assigned")
	}
	if !got[0].DriftEvent {
		t.Fatal("drift flag lost")
	}
	if len(got[0].ECodes) != 2 || got[0].ECodes[0] != "E02" {
		t.Fatalf("e-codes lost: %v", got[0].ECodes)
	}
	if len(got[1].ECodes) != 0 {
		t.Fatalf("empty code list must stay empty, got %v", got[1].ECodes)
	}
	if !got[0].CreatedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("timestamp lost: %v", got[0].CreatedAt)
	}
}

func TestRecentLimit(t *testing.T) {
	j := tempJournal(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := j.Record(Entry{
			SessionID: "s", CarrierID: "C", HoleID: "H",
			Phase: "shadow", Status: "OK",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, err := j.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored: got %d", len(got))
	}
}
