package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lighthousecore/pkg/domain"
)

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to
// rules and read-side projections.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListContributors returns all contributors within the snapshot in insertion order.
func (v transactionView) ListContributors() []Contributor {
	return contributorsOrdered(v.state.contributors)
}

// ListMeals returns all meals within the snapshot ordered by creation time.
func (v transactionView) ListMeals() []Meal {
	return mealsOrdered(v.state.meals)
}

// ListLighthouses returns all lighthouses within the snapshot in seed order.
func (v transactionView) ListLighthouses() []Lighthouse {
	return lighthousesOrdered(v.state.lighthouses)
}

// ListNotifications returns the snapshot notification log, newest first.
func (v transactionView) ListNotifications() []Notification {
	return cloneNotifications(v.state.notifications)
}

// FindContributor retrieves a contributor by ID from the snapshot.
func (v transactionView) FindContributor(id string) (Contributor, bool) {
	c, ok := v.state.contributors[id]
	if !ok {
		return Contributor{}, false
	}
	return cloneContributor(c), true
}

// FindMeal retrieves a meal by ID from the snapshot.
func (v transactionView) FindMeal(id string) (Meal, bool) {
	m, ok := v.state.meals[id]
	if !ok {
		return Meal{}, false
	}
	return cloneMeal(m), true
}

// FindLighthouse retrieves a lighthouse by ID from the snapshot.
func (v transactionView) FindLighthouse(id string) (Lighthouse, bool) {
	l, ok := v.state.lighthouses[id]
	if !ok {
		return Lighthouse{}, false
	}
	return cloneLighthouse(l), true
}

func (tx *transaction) recordChange(entity domain.EntityType, action domain.Action, before, after any) error {
	change := Change{Entity: entity, Action: action, Before: domain.UndefinedChangePayload(), After: domain.UndefinedChangePayload()}
	if before != nil {
		payload, err := domain.NewChangePayloadFromValue(before)
		if err != nil {
			return fmt.Errorf("encode %s before payload: %w", entity, err)
		}
		change.Before = payload
	}
	if after != nil {
		payload, err := domain.NewChangePayloadFromValue(after)
		if err != nil {
			return fmt.Errorf("encode %s after payload: %w", entity, err)
		}
		change.After = payload
	}
	tx.changes = append(tx.changes, change)
	return nil
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateContributor inserts a new contributor record.
func (tx *transaction) CreateContributor(c Contributor) (Contributor, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.contributors[c.ID]; exists {
		return Contributor{}, domain.DuplicateIdentityError{Entity: domain.EntityContributor, ID: c.ID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	c.Seq = tx.state.nextSeq
	tx.state.nextSeq++
	tx.state.contributors[c.ID] = cloneContributor(c)
	if err := tx.recordChange(domain.EntityContributor, domain.ActionCreate, nil, c); err != nil {
		return Contributor{}, err
	}
	return cloneContributor(c), nil
}

// UpdateContributor mutates an existing contributor using the provided mutator.
func (tx *transaction) UpdateContributor(id string, mutator func(*Contributor) error) (Contributor, error) {
	current, ok := tx.state.contributors[id]
	if !ok {
		return Contributor{}, domain.NotFoundError{Entity: domain.EntityContributor, ID: id}
	}
	before := cloneContributor(current)
	if err := mutator(&current); err != nil {
		return Contributor{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.contributors[id] = cloneContributor(current)
	if err := tx.recordChange(domain.EntityContributor, domain.ActionUpdate, before, current); err != nil {
		return Contributor{}, err
	}
	return cloneContributor(current), nil
}

// UpsertMeal inserts a meal or merges the provided non-zero fields into an
// existing record. Inserts validate contributor and lighthouse references.
func (tx *transaction) UpsertMeal(m Meal) (Meal, error) {
	if _, ok := tx.state.meals[m.ID]; ok {
		return tx.UpdateMeal(m.ID, func(target *Meal) error {
			mergeMeal(target, m)
			return nil
		})
	}
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, ok := tx.state.contributors[m.ContributorID]; !ok {
		return Meal{}, domain.InvalidReferenceError{Entity: domain.EntityMeal, ID: m.ID, Field: "contributor", Ref: m.ContributorID}
	}
	if _, ok := tx.state.lighthouses[m.AssignedLighthouseID]; !ok {
		return Meal{}, domain.InvalidReferenceError{Entity: domain.EntityMeal, ID: m.ID, Field: "lighthouse", Ref: m.AssignedLighthouseID}
	}
	if m.Status == "" {
		m.Status = domain.StatusLogged
	}
	m.Allergens = normalizeAllergens(m.Allergens)
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.meals[m.ID] = cloneMeal(m)
	if err := tx.recordChange(domain.EntityMeal, domain.ActionCreate, nil, m); err != nil {
		return Meal{}, err
	}
	return cloneMeal(m), nil
}

// UpdateMeal mutates an existing meal using the provided mutator.
func (tx *transaction) UpdateMeal(id string, mutator func(*Meal) error) (Meal, error) {
	current, ok := tx.state.meals[id]
	if !ok {
		return Meal{}, domain.NotFoundError{Entity: domain.EntityMeal, ID: id}
	}
	before := cloneMeal(current)
	if err := mutator(&current); err != nil {
		return Meal{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Allergens = normalizeAllergens(current.Allergens)
	tx.state.meals[id] = cloneMeal(current)
	if err := tx.recordChange(domain.EntityMeal, domain.ActionUpdate, before, current); err != nil {
		return Meal{}, err
	}
	return cloneMeal(current), nil
}

// PutLighthouse inserts or replaces a seeded lighthouse record.
func (tx *transaction) PutLighthouse(l Lighthouse) (Lighthouse, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if existing, ok := tx.state.lighthouses[l.ID]; ok {
		l.Seq = existing.Seq
		l.CreatedAt = existing.CreatedAt
	} else {
		l.Seq = tx.state.nextSeq
		tx.state.nextSeq++
		l.CreatedAt = tx.now
	}
	l.UpdatedAt = tx.now
	tx.state.lighthouses[l.ID] = cloneLighthouse(l)
	if err := tx.recordChange(domain.EntityLighthouse, domain.ActionCreate, nil, l); err != nil {
		return Lighthouse{}, err
	}
	return cloneLighthouse(l), nil
}

// AddNotification prepends a notification and evicts entries beyond the cap.
func (tx *transaction) AddNotification(n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, ok := tx.state.contributors[n.ContributorID]; !ok {
		return Notification{}, domain.InvalidReferenceError{Entity: domain.EntityNotification, ID: n.ID, Field: "contributor", Ref: n.ContributorID}
	}
	if n.Kind == "" {
		n.Kind = domain.NotificationInfo
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notifications = append([]Notification{n}, tx.state.notifications...)
	if len(tx.state.notifications) > domain.NotificationCap {
		tx.state.notifications = tx.state.notifications[:domain.NotificationCap]
	}
	if err := tx.recordChange(domain.EntityNotification, domain.ActionCreate, nil, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Reset replaces the entire state with empty collections plus the seeded
// lighthouse list. Irreversible.
func (tx *transaction) Reset(seed []Lighthouse) {
	tx.state = newMemoryState()
	for _, l := range seed {
		if l.ID == "" {
			l.ID = tx.store.newID()
		}
		l.Seq = tx.state.nextSeq
		tx.state.nextSeq++
		l.CreatedAt = tx.now
		l.UpdatedAt = tx.now
		tx.state.lighthouses[l.ID] = cloneLighthouse(l)
	}
	_ = tx.recordChange(domain.EntityLighthouse, domain.ActionReset, nil, nil)
}

// FindContributor exposes contributor lookup within the transaction scope.
func (tx *transaction) FindContributor(id string) (Contributor, bool) {
	c, ok := tx.state.contributors[id]
	if !ok {
		return Contributor{}, false
	}
	return cloneContributor(c), true
}

// FindMeal exposes meal lookup within the transaction scope.
func (tx *transaction) FindMeal(id string) (Meal, bool) {
	m, ok := tx.state.meals[id]
	if !ok {
		return Meal{}, false
	}
	return cloneMeal(m), true
}

// FindLighthouse exposes lighthouse lookup within the transaction scope.
func (tx *transaction) FindLighthouse(id string) (Lighthouse, bool) {
	l, ok := tx.state.lighthouses[id]
	if !ok {
		return Lighthouse{}, false
	}
	return cloneLighthouse(l), true
}

// mergeMeal copies the non-zero fields of incoming onto target. Identity and
// bookkeeping fields are preserved by UpdateMeal.
func mergeMeal(target *Meal, incoming Meal) {
	if incoming.ContributorID != "" {
		target.ContributorID = incoming.ContributorID
	}
	if incoming.AssignedLighthouseID != "" {
		target.AssignedLighthouseID = incoming.AssignedLighthouseID
	}
	if !incoming.PreparedOn.IsZero() {
		target.PreparedOn = incoming.PreparedOn
	}
	if incoming.Description != "" {
		target.Description = incoming.Description
	}
	if incoming.MealType != "" {
		target.MealType = incoming.MealType
	}
	if incoming.Allergens != nil {
		target.Allergens = incoming.Allergens
	}
	if incoming.Handoff != "" {
		target.Handoff = incoming.Handoff
	}
	if incoming.Status != "" {
		target.Status = incoming.Status
	}
	if incoming.RecipientName != "" {
		target.RecipientName = incoming.RecipientName
	}
	if incoming.DistributedAt != nil {
		target.DistributedAt = incoming.DistributedAt
	}
	if incoming.ExpiresAt != nil {
		target.ExpiresAt = incoming.ExpiresAt
	}
}

// normalizeAllergens returns a sorted, de-duplicated, whitespace-trimmed copy
// of the allergen set.
func normalizeAllergens(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
