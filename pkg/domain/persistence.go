package domain

import "context"

// Transaction exposes the domain mutations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateContributor(Contributor) (Contributor, error)
	UpdateContributor(id string, mutator func(*Contributor) error) (Contributor, error)
	UpsertMeal(Meal) (Meal, error)
	UpdateMeal(id string, mutator func(*Meal) error) (Meal, error)
	PutLighthouse(Lighthouse) (Lighthouse, error)
	AddNotification(Notification) (Notification, error)
	Reset(seed []Lighthouse)
	FindContributor(id string) (Contributor, bool)
	FindMeal(id string) (Meal, bool)
	FindLighthouse(id string) (Lighthouse, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// read-side projections.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. Backends
// load their snapshot once at construction and write the full snapshot after
// every successful transaction.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetContributor(id string) (Contributor, bool)
	ListContributors() []Contributor
	GetMeal(id string) (Meal, bool)
	ListMeals() []Meal
	GetLighthouse(id string) (Lighthouse, bool)
	ListLighthouses() []Lighthouse
	ListNotifications() []Notification
}
