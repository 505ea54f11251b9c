package history

import (
	"testing"

	"github.com/zen-systems/draftgate/pkg/decision"
	"github.com/zen-systems/draftgate/pkg/review"
)

func sampleDecision(id string) *decision.AggregateDecision {
	return &decision.AggregateDecision{
		ID:           id,
		Request:      review.Request{Title: "Sydney in 3 Days", Body: "Day one.", Topic: "travel"},
		OverallScore: 8.7,
		PerDimension: map[string]review.DimensionResult{
			review.DimensionQuality: {Dimension: review.DimensionQuality, Score: 9},
		},
		Action: decision.ActionApprove,
		Reason: "overall score 8.7 meets the approve threshold 8.0",
		State:  decision.StateApproved,
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	d := sampleDecision("d-123")
	if _, err := store.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load("d-123")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.OverallScore != 8.7 || loaded.Action != decision.ActionApprove {
		t.Errorf("unexpected decision: %+v", loaded)
	}
	if loaded.Request.Title != "Sydney in 3 Days" {
		t.Errorf("request title = %q", loaded.Request.Title)
	}
}

func TestStore_List(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, id := range []string{"d-1", "d-2", "d-3"} {
		if _, err := store.Save(sampleDecision(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	entries, err := store.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (limit)", len(entries))
	}
	for _, e := range entries {
		if e.Action != decision.ActionApprove || e.Title == "" {
			t.Errorf("unexpected entry: %+v", e)
		}
	}

	all, err := store.List(0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("entries = %d, want 3", len(all))
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load("nope"); err == nil {
		t.Fatal("expected error for unknown ID")
	}
}
