package domain

// mealTransitions is the closed transition table for the meal lifecycle.
// A container may be distributed straight from logged, reflecting real-world
// scan variance where the explicit receive step is skipped.
var mealTransitions = map[MealStatus][]MealStatus{
	StatusLogged:       {StatusAtLighthouse, StatusDistributed},
	StatusAtLighthouse: {StatusDistributed},
	StatusDistributed:  {},
}

// ValidStatus reports whether s is a member of the closed meal status set.
func ValidStatus(s MealStatus) bool {
	_, ok := mealTransitions[s]
	return ok
}

// TerminalStatus reports whether s permits no further transitions.
func TerminalStatus(s MealStatus) bool {
	next, ok := mealTransitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the table permits moving a meal from one
// status to another. Identity moves are not transitions and return false.
func CanTransition(from, to MealStatus) bool {
	for _, next := range mealTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
