package usecase

import (
	"math"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/projection"
)

// OfferValue is the banker's buyout number: the root mean square of
// projected points across every non-eliminated box, selected box included,
// rounded to two decimals.
func OfferValue(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}

	sumSquares := 0.0
	for _, v := range points {
		sumSquares += v * v
	}

	return math.Round(math.Sqrt(sumSquares/float64(len(points)))*100) / 100
}

// remainingPoints collects projections of the boxes still in play.
func remainingPoints(boxes []box.Audit) []float64 {
	points := make([]float64, 0, len(boxes))
	for _, item := range boxes {
		if item.Status == box.StatusAvailable || item.Status == box.StatusSelected {
			points = append(points, item.ProjectedPoints)
		}
	}
	return points
}

// OfferCandidate picks the offered player: the leftover pool member whose
// projection sits closest to the target value. Ties go to the earlier pool
// position. Players already boxed this generation or offered earlier are
// excluded; ok is false when the leftover pool is exhausted.
func OfferCandidate(pool []projection.Projection, target float64, excluded map[string]struct{}) (projection.Projection, bool) {
	best := projection.Projection{}
	bestDiff := math.Inf(1)
	found := false

	for _, p := range pool {
		if _, skip := excluded[p.PlayerID]; skip {
			continue
		}
		diff := math.Abs(p.ProjectedPoints - target)
		if diff < bestDiff {
			best = p
			bestDiff = diff
			found = true
		}
	}

	return best, found
}
