package core

import "lighthousecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	MealStatus         = domain.MealStatus
	MealType           = domain.MealType
	HandoffMethod      = domain.HandoffMethod
	NotificationKind   = domain.NotificationKind
	Severity           = domain.Severity
	Base               = domain.Base
	Contributor        = domain.Contributor
	Meal               = domain.Meal
	Lighthouse         = domain.Lighthouse
	Notification       = domain.Notification
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityContributor  = domain.EntityContributor
	EntityMeal         = domain.EntityMeal
	EntityLighthouse   = domain.EntityLighthouse
	EntityNotification = domain.EntityNotification
)

const (
	StatusLogged       = domain.StatusLogged
	StatusAtLighthouse = domain.StatusAtLighthouse
	StatusDistributed  = domain.StatusDistributed
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionReset  = domain.ActionReset
)

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewMealLifecycleRule())
	engine.Register(NewReferenceIntegrityRule())
	return engine
}
