package core

import "sort"

// PointsPerMeal is the score awarded for each distributed meal.
const PointsPerMeal = 10

// LeaderboardSize bounds the leaderboard to the top contributors.
const LeaderboardSize = 5

// MilestoneBadge names a recognition level reached at a fixed meal count.
type MilestoneBadge struct {
	Meals int    `json:"meals"`
	Name  string `json:"name"`
}

// Milestones lists the recognition levels in ascending order. Thresholds are
// matched by exact equality; meal counts only ever advance by one, so no
// crossing can be skipped.
var Milestones = []MilestoneBadge{
	{Meals: 1, Name: "First Meal"},
	{Meals: 5, Name: "Helping Hand"},
	{Meals: 10, Name: "Community Cook"},
	{Meals: 25, Name: "Neighborhood Hero"},
	{Meals: 50, Name: "Lighthouse Legend"},
}

// MilestoneReached returns the badge earned at exactly the given meal count.
func MilestoneReached(meals int) (MilestoneBadge, bool) {
	for _, m := range Milestones {
		if m.Meals == meals {
			return m, true
		}
	}
	return MilestoneBadge{}, false
}

// Badges returns the cumulative recognition a contributor has earned, derived
// solely from the lifetime meal count.
func Badges(c Contributor) []MilestoneBadge {
	var earned []MilestoneBadge
	for _, m := range Milestones {
		if c.MealsContributed >= m.Meals {
			earned = append(earned, m)
		}
	}
	return earned
}

// Leaderboard returns the top contributors by points, descending. Ties keep
// original collection order, so ranks stay stable as scores change.
func Leaderboard(contributors []Contributor) []Contributor {
	ranked := make([]Contributor, len(contributors))
	copy(ranked, contributors)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		return ranked[i].Seq < ranked[j].Seq
	})
	if len(ranked) > LeaderboardSize {
		ranked = ranked[:LeaderboardSize]
	}
	return ranked
}
