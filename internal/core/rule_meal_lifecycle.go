package core

import (
	"context"
	"fmt"

	"lighthousecore/pkg/domain"
)

// NewMealLifecycleRule blocks illegal meal status transitions at commit time.
// The transition table lives in pkg/domain; this rule is the single authority
// re-validating it, so callers never need scattered status string checks.
func NewMealLifecycleRule() Rule {
	return mealLifecycleRule{}
}

type mealLifecycleRule struct{}

func (mealLifecycleRule) Name() string { return "meal_lifecycle" }

func (mealLifecycleRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityMeal {
			continue
		}
		after, ok := domain.DecodeChangePayload[Meal](change.After)
		if !ok {
			continue
		}
		if !domain.ValidStatus(after.Status) {
			result.Violations = append(result.Violations, Violation{
				Rule:     "meal_lifecycle",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("unknown meal status %q", after.Status),
				Entity:   EntityMeal,
				EntityID: after.ID,
			})
			continue
		}
		before, ok := domain.DecodeChangePayload[Meal](change.Before)
		if !ok || before.Status == after.Status {
			continue
		}
		if !domain.CanTransition(before.Status, after.Status) {
			result.Violations = append(result.Violations, Violation{
				Rule:     "meal_lifecycle",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("illegal transition %s -> %s", before.Status, after.Status),
				Entity:   EntityMeal,
				EntityID: after.ID,
			})
		}
	}
	return result, nil
}
