// Package domain defines the core persistent entities, value types, typed
// errors, and rule evaluation primitives used by lighthousecore.
package domain

import (
	"time"

	"lighthousecore/pkg/geo"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityContributor identifies an individual meal donor record.
	EntityContributor EntityType = "contributor"
	// EntityMeal identifies a single tracked meal container record.
	EntityMeal EntityType = "meal"
	// EntityLighthouse identifies a distribution facility record.
	EntityLighthouse EntityType = "lighthouse"
	// EntityNotification identifies an append-only notification record.
	EntityNotification EntityType = "notification"
)

// MealStatus represents the canonical meal container lifecycle states.
type MealStatus string

// Canonical meal statuses. Logged is the sole initial state; distributed is terminal.
const (
	// StatusLogged indicates a meal registered by a contributor, not yet received.
	StatusLogged MealStatus = "logged"
	// StatusAtLighthouse indicates a meal checked in at its assigned facility.
	StatusAtLighthouse MealStatus = "at_lighthouse"
	// StatusDistributed indicates a meal handed to a recipient. Terminal.
	StatusDistributed MealStatus = "distributed"
)

// MealType enumerates the supported meal categories.
type MealType string

// Canonical meal type values.
const (
	MealVegetarian MealType = "vegetarian"
	MealBeef       MealType = "beef"
	MealPork       MealType = "pork"
	MealFish       MealType = "fish"
)

// HandoffMethod enumerates how a contribution reaches its lighthouse.
type HandoffMethod string

// Canonical handoff methods.
const (
	// HandoffDropoff indicates the contributor delivers to the lighthouse.
	HandoffDropoff HandoffMethod = "dropoff"
	// HandoffCollect indicates a keeper collects from the contributor.
	HandoffCollect HandoffMethod = "collect"
)

// NotificationKind classifies notification log entries.
type NotificationKind string

// Canonical notification kinds.
const (
	NotificationInfo        NotificationKind = "info"
	NotificationDistributed NotificationKind = "distributed"
	NotificationMilestone   NotificationKind = "milestone"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contributor represents an individual who donates meals. Points and
// MealsContributed only ever increase, and only via a distribution transition.
type Contributor struct {
	Base
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Home             *geo.Coordinate `json:"home,omitempty"`
	Points           int             `json:"points"`
	MealsContributed int             `json:"meals_contributed"`
	// Seq preserves insertion order across snapshot round trips; it breaks
	// leaderboard ties deterministically.
	Seq int64 `json:"seq"`
}

// Meal represents one trackable donated food container. The ID doubles as the
// scan payload printed on the container label.
type Meal struct {
	Base
	ContributorID        string        `json:"contributor_id"`
	AssignedLighthouseID string        `json:"assigned_lighthouse_id"`
	PreparedOn           time.Time     `json:"prepared_on"`
	Description          string        `json:"description"`
	MealType             MealType      `json:"meal_type"`
	Allergens            []string      `json:"allergens"`
	Handoff              HandoffMethod `json:"handoff"`
	Status               MealStatus    `json:"status"`
	RecipientName        string        `json:"recipient_name,omitempty"`
	DistributedAt        *time.Time    `json:"distributed_at,omitempty"`
	ExpiresAt            *time.Time    `json:"expires_at,omitempty"`
}

// Lighthouse is a fixed distribution facility. Seeded at store initialization
// and treated as read-only reference data by the core.
type Lighthouse struct {
	Base
	Name            string         `json:"name"`
	Coordinate      geo.Coordinate `json:"coordinate"`
	ServiceRadiusKm float64        `json:"service_radius_km"`
	DropoffPoints   []string       `json:"dropoff_points"`
	// Seq preserves seed order across snapshot round trips.
	Seq int64 `json:"seq"`
}

// Notification is an append-only message to a contributor, created by the
// lifecycle engine as a side effect of a distribution transition.
type Notification struct {
	Base
	ContributorID string           `json:"contributor_id"`
	MealID        string           `json:"meal_id,omitempty"`
	Kind          NotificationKind `json:"kind"`
	Message       string           `json:"message"`
	Read          bool             `json:"read"`
}

// NotificationCap bounds the retained notification log; the oldest entries
// beyond the cap are evicted FIFO.
const NotificationCap = 100

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionReset  Action = "reset"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
