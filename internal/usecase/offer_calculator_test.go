package usecase

import (
	"testing"

	"github.com/gridplay/boxgame/internal/domain/projection"
)

func TestOfferValue_RootMeanSquare(t *testing.T) {
	got := OfferValue([]float64{10, 8, 6})

	// sqrt((100 + 64 + 36) / 3) = 8.1649..., rounded to 2 decimals.
	if got != 8.16 {
		t.Fatalf("expected offer value 8.16, got %v", got)
	}
}

func TestOfferValue_SingleBox(t *testing.T) {
	if got := OfferValue([]float64{12.5}); got != 12.5 {
		t.Fatalf("expected offer value 12.5, got %v", got)
	}
}

func TestOfferValue_Empty(t *testing.T) {
	if got := OfferValue(nil); got != 0 {
		t.Fatalf("expected zero offer value for empty input, got %v", got)
	}
}

func TestOfferCandidate_PicksClosest(t *testing.T) {
	pool := []projection.Projection{
		{PlayerID: "p1", ProjectedPoints: 20},
		{PlayerID: "p2", ProjectedPoints: 9},
		{PlayerID: "p3", ProjectedPoints: 7.5},
	}

	candidate, ok := OfferCandidate(pool, 8.0, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if candidate.PlayerID != "p3" {
		t.Fatalf("expected p3 (closest to 8.0), got %s", candidate.PlayerID)
	}
}

func TestOfferCandidate_TieGoesToFirstInPoolOrder(t *testing.T) {
	pool := []projection.Projection{
		{PlayerID: "p1", ProjectedPoints: 9},
		{PlayerID: "p2", ProjectedPoints: 7},
	}

	// Both are exactly 1.0 away from the target.
	candidate, ok := OfferCandidate(pool, 8.0, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if candidate.PlayerID != "p1" {
		t.Fatalf("expected tie to resolve to first pool entry p1, got %s", candidate.PlayerID)
	}
}

func TestOfferCandidate_SkipsExcluded(t *testing.T) {
	pool := []projection.Projection{
		{PlayerID: "p1", ProjectedPoints: 8},
		{PlayerID: "p2", ProjectedPoints: 5},
	}
	excluded := map[string]struct{}{"p1": {}}

	candidate, ok := OfferCandidate(pool, 8.0, excluded)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if candidate.PlayerID != "p2" {
		t.Fatalf("expected p2 after excluding p1, got %s", candidate.PlayerID)
	}
}

func TestOfferCandidate_ExhaustedPool(t *testing.T) {
	pool := []projection.Projection{
		{PlayerID: "p1", ProjectedPoints: 8},
	}
	excluded := map[string]struct{}{"p1": {}}

	if _, ok := OfferCandidate(pool, 8.0, excluded); ok {
		t.Fatal("expected no candidate from an exhausted pool")
	}
}
