package core

import (
	"context"
	"fmt"

	"lighthousecore/pkg/domain"
)

// NewReferenceIntegrityRule blocks commits containing meals or notifications
// that reference contributors or lighthouses absent from the transaction view.
func NewReferenceIntegrityRule() Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (referenceIntegrityRule) Evaluate(_ context.Context, view TransactionView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		switch change.Entity {
		case EntityMeal:
			meal, ok := domain.DecodeChangePayload[Meal](change.After)
			if !ok {
				continue
			}
			if meal.ContributorID != "" {
				if _, found := view.FindContributor(meal.ContributorID); !found {
					result.Violations = append(result.Violations, danglingRef(EntityMeal, meal.ID, "contributor_id", meal.ContributorID))
				}
			}
			if meal.AssignedLighthouseID != "" {
				if _, found := view.FindLighthouse(meal.AssignedLighthouseID); !found {
					result.Violations = append(result.Violations, danglingRef(EntityMeal, meal.ID, "assigned_lighthouse_id", meal.AssignedLighthouseID))
				}
			}
		case EntityNotification:
			note, ok := domain.DecodeChangePayload[Notification](change.After)
			if !ok {
				continue
			}
			if note.ContributorID != "" {
				if _, found := view.FindContributor(note.ContributorID); !found {
					result.Violations = append(result.Violations, danglingRef(EntityNotification, note.ID, "contributor_id", note.ContributorID))
				}
			}
		}
	}
	return result, nil
}

func danglingRef(entity EntityType, id, field, ref string) Violation {
	return Violation{
		Rule:     "reference_integrity",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("%s %s references missing %s %q", entity, id, field, ref),
		Entity:   entity,
		EntityID: id,
	}
}
