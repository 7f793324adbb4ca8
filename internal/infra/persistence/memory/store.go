// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments. Durable backends embed it
// and snapshot its state after every successful transaction.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lighthousecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Contributor aliases domain.Contributor for in-memory persistence operations.
	Contributor = domain.Contributor
	// Meal aliases domain.Meal.
	Meal = domain.Meal
	// Lighthouse aliases domain.Lighthouse.
	Lighthouse = domain.Lighthouse
	// Notification aliases domain.Notification.
	Notification = domain.Notification
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	contributors  map[string]Contributor
	meals         map[string]Meal
	lighthouses   map[string]Lighthouse
	notifications []Notification // newest first, capped at domain.NotificationCap
	nextSeq       int64
}

// Snapshot captures a point-in-time clone of the store state. It is the unit
// persisted by the durable backends after every mutation.
type Snapshot struct {
	Contributors  map[string]Contributor `json:"contributors"`
	Meals         map[string]Meal        `json:"meals"`
	Lighthouses   map[string]Lighthouse  `json:"lighthouses"`
	Notifications []Notification         `json:"notifications"`
}

func newMemoryState() memoryState {
	return memoryState{
		contributors: make(map[string]Contributor),
		meals:        make(map[string]Meal),
		lighthouses:  make(map[string]Lighthouse),
		nextSeq:      1,
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	cloned.nextSeq = s.nextSeq
	for k, v := range s.contributors {
		cloned.contributors[k] = cloneContributor(v)
	}
	for k, v := range s.meals {
		cloned.meals[k] = cloneMeal(v)
	}
	for k, v := range s.lighthouses {
		cloned.lighthouses[k] = cloneLighthouse(v)
	}
	cloned.notifications = cloneNotifications(s.notifications)
	return cloned
}

func cloneContributor(c Contributor) Contributor {
	cp := c
	if c.Home != nil {
		home := *c.Home
		cp.Home = &home
	}
	return cp
}

func cloneMeal(m Meal) Meal {
	cp := m
	cp.Allergens = append([]string(nil), m.Allergens...)
	if m.DistributedAt != nil {
		at := *m.DistributedAt
		cp.DistributedAt = &at
	}
	if m.ExpiresAt != nil {
		at := *m.ExpiresAt
		cp.ExpiresAt = &at
	}
	return cp
}

func cloneLighthouse(l Lighthouse) Lighthouse {
	cp := l
	cp.DropoffPoints = append([]string(nil), l.DropoffPoints...)
	return cp
}

func cloneNotifications(ns []Notification) []Notification {
	if ns == nil {
		return nil
	}
	out := make([]Notification, len(ns))
	copy(out, ns)
	return out
}

// Store is an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider, primarily for deterministic tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

func snapshotFromState(state memoryState) Snapshot {
	snapshot := Snapshot{
		Contributors:  make(map[string]Contributor, len(state.contributors)),
		Meals:         make(map[string]Meal, len(state.meals)),
		Lighthouses:   make(map[string]Lighthouse, len(state.lighthouses)),
		Notifications: cloneNotifications(state.notifications),
	}
	for k, v := range state.contributors {
		snapshot.Contributors[k] = cloneContributor(v)
	}
	for k, v := range state.meals {
		snapshot.Meals[k] = cloneMeal(v)
	}
	for k, v := range state.lighthouses {
		snapshot.Lighthouses[k] = cloneLighthouse(v)
	}
	return snapshot
}

func stateFromSnapshot(snapshot Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range snapshot.Contributors {
		state.contributors[k] = cloneContributor(v)
		if v.Seq >= state.nextSeq {
			state.nextSeq = v.Seq + 1
		}
	}
	for k, v := range snapshot.Meals {
		state.meals[k] = cloneMeal(v)
	}
	for k, v := range snapshot.Lighthouses {
		state.lighthouses[k] = cloneLighthouse(v)
		if v.Seq >= state.nextSeq {
			state.nextSeq = v.Seq + 1
		}
	}
	state.notifications = cloneNotifications(snapshot.Notifications)
	if len(state.notifications) > domain.NotificationCap {
		state.notifications = state.notifications[:domain.NotificationCap]
	}
	return state
}

func contributorsOrdered(m map[string]Contributor) []Contributor {
	out := make([]Contributor, 0, len(m))
	for _, c := range m {
		out = append(out, cloneContributor(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func mealsOrdered(m map[string]Meal) []Meal {
	out := make([]Meal, 0, len(m))
	for _, meal := range m {
		out = append(out, cloneMeal(meal))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func lighthousesOrdered(m map[string]Lighthouse) []Lighthouse {
	out := make([]Lighthouse, 0, len(m))
	for _, l := range m {
		out = append(out, cloneLighthouse(l))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// Read helpers over committed state ------------------------------------------

// GetContributor retrieves a contributor by ID from committed state.
func (s *Store) GetContributor(id string) (Contributor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.contributors[id]
	if !ok {
		return Contributor{}, false
	}
	return cloneContributor(c), true
}

// ListContributors returns all contributors in insertion order.
func (s *Store) ListContributors() []Contributor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contributorsOrdered(s.state.contributors)
}

// GetMeal retrieves a meal by ID from committed state.
func (s *Store) GetMeal(id string) (Meal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.meals[id]
	if !ok {
		return Meal{}, false
	}
	return cloneMeal(m), true
}

// ListMeals returns all meals ordered by creation time.
func (s *Store) ListMeals() []Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mealsOrdered(s.state.meals)
}

// GetLighthouse retrieves a lighthouse by ID from committed state.
func (s *Store) GetLighthouse(id string) (Lighthouse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.lighthouses[id]
	if !ok {
		return Lighthouse{}, false
	}
	return cloneLighthouse(l), true
}

// ListLighthouses returns all lighthouses in seed order.
func (s *Store) ListLighthouses() []Lighthouse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lighthousesOrdered(s.state.lighthouses)
}

// ListNotifications returns the retained notification log, newest first.
func (s *Store) ListNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotifications(s.state.notifications)
}
