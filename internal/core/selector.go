package core

import (
	"sort"

	"lighthousecore/pkg/geo"
)

// RankedLighthouse pairs a facility with its straight-line distance from an
// origin. DistanceKm is nil when no origin was available.
type RankedLighthouse struct {
	Lighthouse Lighthouse
	DistanceKm *float64
}

// RankLighthouses orders facilities by ascending haversine distance from the
// origin. A nil origin preserves the input order with nil distances. The sort
// is stable so equidistant facilities keep their seed order.
func RankLighthouses(lighthouses []Lighthouse, origin *geo.Coordinate) []RankedLighthouse {
	ranked := make([]RankedLighthouse, 0, len(lighthouses))
	for _, lh := range lighthouses {
		entry := RankedLighthouse{Lighthouse: lh}
		if origin != nil {
			d := geo.DistanceKm(*origin, lh.Coordinate)
			entry.DistanceKm = &d
		}
		ranked = append(ranked, entry)
	}
	if origin == nil {
		return ranked
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceKm < *ranked[j].DistanceKm
	})
	return ranked
}

// NearestLighthouse returns the closest facility to the origin. ok is false
// when the slice is empty; callers must not auto-assign in that case.
func NearestLighthouse(lighthouses []Lighthouse, origin geo.Coordinate) (Lighthouse, bool) {
	if len(lighthouses) == 0 {
		return Lighthouse{}, false
	}
	ranked := RankLighthouses(lighthouses, &origin)
	return ranked[0].Lighthouse, true
}
