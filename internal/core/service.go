package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lighthousecore/pkg/domain"
	"lighthousecore/pkg/geo"
)

// Service exposes the transactional meal workflow: contributor registry, meal
// lifecycle transitions, scoring, facility suggestion, and the notification
// log. All mutations run through the store's rules engine.
type Service struct {
	store    PersistentStore
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
	alerts   AlertSink
	location LocationProvider
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger injects a structured logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder attaches an operation metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer attaches an operation tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithAuditRecorder attaches an audit trail recorder.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) { s.audit = a }
}

// WithAlertSink attaches a fire-and-forget alert sink. Defaults to no-op.
func WithAlertSink(a AlertSink) Option {
	return func(s *Service) {
		if a != nil {
			s.alerts = a
		}
	}
}

// WithLocationProvider attaches a best-effort origin resolver used by
// SuggestLighthouse.
func WithLocationProvider(p LocationProvider) Option {
	return func(s *Service) { s.location = p }
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: noopLogger{},
		alerts: NoopAlertSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run wraps a store transaction with tracing, metrics, and audit recording.
func (s *Service) run(ctx context.Context, operation string, fn func(tx Transaction) error) (Result, error) {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, duration)
	}
	if err != nil {
		var pErr *domain.PersistenceError
		if errors.As(err, &pErr) {
			// Snapshot write failed after a successful commit; the session
			// keeps running on the in-memory state.
			s.logger.Warn("snapshot write failed", "operation", operation, "backend", pErr.Backend, "error", pErr.Err)
		} else {
			s.logger.Debug("operation rejected", "operation", operation, "error", err)
			return res, err
		}
	}
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			s.logger.Warn("rule warning", "rule", v.Rule, "message", v.Message)
		}
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			Operation:  operation,
			Violations: res.Violations,
			OccurredAt: time.Now().UTC(),
		})
	}
	return res, err
}

// RegisterContributor persists a new contributor.
func (s *Service) RegisterContributor(ctx context.Context, contributor Contributor) (Contributor, Result, error) {
	var created Contributor
	res, err := s.run(ctx, "register_contributor", func(tx Transaction) error {
		var err error
		created, err = tx.CreateContributor(contributor)
		return err
	})
	return created, res, err
}

// UpdateContributor mutates a contributor using the provided mutator.
func (s *Service) UpdateContributor(ctx context.Context, id string, mutator func(*Contributor) error) (Contributor, Result, error) {
	var updated Contributor
	res, err := s.run(ctx, "update_contributor", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateContributor(id, mutator)
		return err
	})
	return updated, res, err
}

// LogMeal inserts or merges a single meal record.
func (s *Service) LogMeal(ctx context.Context, meal Meal) (Meal, Result, error) {
	var logged Meal
	res, err := s.run(ctx, "log_meal", func(tx Transaction) error {
		var err error
		logged, err = tx.UpsertMeal(meal)
		return err
	})
	return logged, res, err
}

// LogMealBatch logs a batch of identical containers in one transaction. The
// container identifiers derive from the base code; the template supplies the
// shared fields. An empty base code yields an error because no printable
// identifiers can be generated.
func (s *Service) LogMealBatch(ctx context.Context, template Meal, baseCode string, quantity int) ([]Meal, Result, error) {
	ids := GenerateBatchIDs(baseCode, quantity)
	if len(ids) == 0 {
		return nil, Result{}, fmt.Errorf("base code required for batch logging")
	}
	logged := make([]Meal, 0, len(ids))
	res, err := s.run(ctx, "log_meal_batch", func(tx Transaction) error {
		logged = logged[:0]
		for _, id := range ids {
			meal := template
			meal.ID = id
			created, err := tx.UpsertMeal(meal)
			if err != nil {
				return err
			}
			logged = append(logged, created)
		}
		return nil
	})
	if err != nil && !isPersistenceError(err) {
		return nil, res, err
	}
	return logged, res, err
}

// ReceiveMeal records a container scan at its assigned lighthouse. Duplicate
// scans and scans of already-distributed containers are silent no-ops, so
// repeated check-ins never fail or regress status.
func (s *Service) ReceiveMeal(ctx context.Context, code string) (Meal, Result, error) {
	var received Meal
	res, err := s.run(ctx, "receive_meal", func(tx Transaction) error {
		meal, ok := tx.FindMeal(code)
		if !ok {
			return domain.NotFoundError{Entity: EntityMeal, ID: code}
		}
		if meal.Status != StatusLogged {
			received = meal
			return nil
		}
		var err error
		received, err = tx.UpdateMeal(code, func(m *Meal) error {
			m.Status = StatusAtLighthouse
			return nil
		})
		return err
	})
	return received, res, err
}

// DistributeMeal records a container handoff to a recipient. The status
// change, scoring, and resulting notifications commit in one transaction, so
// a contributor is credited exactly once per container. Distribution is legal
// from logged as well as at_lighthouse; a dropoff may go straight out the
// door without a separate check-in scan.
func (s *Service) DistributeMeal(ctx context.Context, code, recipient string) (Meal, Result, error) {
	if recipient == "" {
		recipient = "Community member"
	}
	var (
		distributed Meal
		milestone   *MilestoneBadge
		contributor Contributor
	)
	res, err := s.run(ctx, "distribute_meal", func(tx Transaction) error {
		milestone = nil
		meal, ok := tx.FindMeal(code)
		if !ok {
			return domain.NotFoundError{Entity: EntityMeal, ID: code}
		}
		if meal.Status == StatusDistributed {
			return domain.AlreadyDistributedError{MealID: meal.ID}
		}
		now := time.Now().UTC()
		var err error
		distributed, err = tx.UpdateMeal(code, func(m *Meal) error {
			m.Status = StatusDistributed
			m.RecipientName = recipient
			m.DistributedAt = &now
			return nil
		})
		if err != nil {
			return err
		}
		contributor, err = tx.UpdateContributor(distributed.ContributorID, func(c *Contributor) error {
			c.Points += PointsPerMeal
			c.MealsContributed++
			return nil
		})
		if err != nil {
			return err
		}
		if _, err := tx.AddNotification(Notification{
			ContributorID: contributor.ID,
			MealID:        distributed.ID,
			Kind:          domain.NotificationDistributed,
			Message:       fmt.Sprintf("Your meal %q has been distributed. Thank you!", mealLabel(distributed)),
		}); err != nil {
			return err
		}
		if badge, reached := MilestoneReached(contributor.MealsContributed); reached {
			milestone = &badge
			if _, err := tx.AddNotification(Notification{
				ContributorID: contributor.ID,
				MealID:        distributed.ID,
				Kind:          domain.NotificationMilestone,
				Message:       fmt.Sprintf("You earned the %s badge after %d meals. Thank you!", badge.Name, badge.Meals),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !isPersistenceError(err) {
		return Meal{}, res, err
	}
	s.logger.Info("meal distributed", "meal", distributed.ID, "contributor", contributor.ID, "points", contributor.Points)
	s.alerts.Notify("Meal distributed", fmt.Sprintf("%s reached %s", mealLabel(distributed), recipient))
	if milestone != nil {
		s.alerts.Notify("Milestone reached", fmt.Sprintf("%s earned the %s badge", contributor.Name, milestone.Name))
	}
	return distributed, res, err
}

func mealLabel(m Meal) string {
	if m.Description != "" {
		return m.Description
	}
	return m.ID
}

func isPersistenceError(err error) bool {
	var pErr *domain.PersistenceError
	return errors.As(err, &pErr)
}

// SeedLighthouses upserts the facility reference data.
func (s *Service) SeedLighthouses(ctx context.Context, lighthouses []Lighthouse) (Result, error) {
	return s.run(ctx, "seed_lighthouses", func(tx Transaction) error {
		for _, lh := range lighthouses {
			if _, err := tx.PutLighthouse(lh); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset clears all state and reseeds the facility list.
func (s *Service) Reset(ctx context.Context, seed []Lighthouse) (Result, error) {
	return s.run(ctx, "reset", func(tx Transaction) error {
		tx.Reset(seed)
		return nil
	})
}

// GetContributor returns a contributor from committed state.
func (s *Service) GetContributor(id string) (Contributor, bool) {
	return s.store.GetContributor(id)
}

// ListContributors returns all contributors in collection order.
func (s *Service) ListContributors() []Contributor {
	return s.store.ListContributors()
}

// GetMeal returns a meal from committed state.
func (s *Service) GetMeal(id string) (Meal, bool) {
	return s.store.GetMeal(id)
}

// ListMeals returns all meals.
func (s *Service) ListMeals() []Meal {
	return s.store.ListMeals()
}

// ListLighthouses returns the seeded facilities in seed order.
func (s *Service) ListLighthouses() []Lighthouse {
	return s.store.ListLighthouses()
}

// Leaderboard returns the top contributors by points.
func (s *Service) Leaderboard() []Contributor {
	return Leaderboard(s.store.ListContributors())
}

// ContributorBadges returns the cumulative badges earned by a contributor.
func (s *Service) ContributorBadges(id string) ([]MilestoneBadge, bool) {
	contributor, ok := s.store.GetContributor(id)
	if !ok {
		return nil, false
	}
	return Badges(contributor), true
}

// Notifications returns a contributor's notifications, newest first. An empty
// contributor id returns the full log.
func (s *Service) Notifications(contributorID string) []Notification {
	all := s.store.ListNotifications()
	if contributorID == "" {
		return all
	}
	var out []Notification
	for _, n := range all {
		if n.ContributorID == contributorID {
			out = append(out, n)
		}
	}
	return out
}

// SuggestLighthouse ranks facilities from the current location. When no
// location provider is configured or the provider reports
// ErrLocationUnavailable, facilities come back unranked in seed order; a
// missing fix is never a hard error.
func (s *Service) SuggestLighthouse(ctx context.Context) ([]RankedLighthouse, error) {
	lighthouses := s.store.ListLighthouses()
	var origin *geo.Coordinate
	if s.location != nil {
		coord, err := s.location.CurrentCoordinate(ctx)
		switch {
		case err == nil:
			origin = &coord
		case errors.Is(err, domain.ErrLocationUnavailable):
			s.logger.Debug("location unavailable, listing facilities unranked")
		default:
			s.logger.Warn("location lookup failed, listing facilities unranked", "error", err)
		}
	}
	return RankLighthouses(lighthouses, origin), nil
}
