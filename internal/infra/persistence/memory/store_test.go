package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lighthousecore/internal/infra/persistence/memory"
	"lighthousecore/pkg/domain"
	"lighthousecore/pkg/geo"
)

func seedBasics(t *testing.T, store *memory.Store) (contributorID, lighthouseID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		lighthouse, err := tx.PutLighthouse(domain.Lighthouse{
			Base:            domain.Base{ID: "lh-a"},
			Name:            "Lighthouse A",
			Coordinate:      geo.Coordinate{Lat: -33.93, Lon: 18.42},
			ServiceRadiusKm: 10,
			DropoffPoints:   []string{"Front gate", "Kitchen door"},
		})
		if err != nil {
			return err
		}
		lighthouseID = lighthouse.ID
		contributor, err := tx.CreateContributor(domain.Contributor{Base: domain.Base{ID: "c1"}, Name: "Alice"})
		if err != nil {
			return err
		}
		contributorID = contributor.ID
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return contributorID, lighthouseID
}

func TestCreateContributorDuplicateIdentity(t *testing.T) {
	store := memory.NewStore(nil)
	seedBasics(t, store)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateContributor(domain.Contributor{Base: domain.Base{ID: "c1"}, Name: "Imposter"})
		return err
	})
	var dup domain.DuplicateIdentityError
	if !errors.As(err, &dup) || dup.ID != "c1" {
		t.Fatalf("expected DuplicateIdentityError for c1, got %v", err)
	}
}

func TestUpdateContributorNotFound(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateContributor("ghost", func(c *domain.Contributor) error { return nil })
		return err
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != domain.EntityContributor {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpsertMealInsertValidatesReferences(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, lighthouseID := seedBasics(t, store)

	cases := []struct {
		name string
		meal domain.Meal
	}{
		{"missing contributor", domain.Meal{Base: domain.Base{ID: "QR1"}, ContributorID: "ghost", AssignedLighthouseID: lighthouseID}},
		{"missing lighthouse", domain.Meal{Base: domain.Base{ID: "QR1"}, ContributorID: contributorID, AssignedLighthouseID: "ghost"}},
	}
	for _, tc := range cases {
		_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, err := tx.UpsertMeal(tc.meal)
			return err
		})
		var ref domain.InvalidReferenceError
		if !errors.As(err, &ref) {
			t.Fatalf("%s: expected InvalidReferenceError, got %v", tc.name, err)
		}
	}
}

func TestUpsertMealInsertThenMerge(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, lighthouseID := seedBasics(t, store)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpsertMeal(domain.Meal{
			Base:                 domain.Base{ID: "QR1"},
			ContributorID:        contributorID,
			AssignedLighthouseID: lighthouseID,
			Description:          "Lentil soup",
			MealType:             domain.MealVegetarian,
			Allergens:            []string{"Celery", "celery ", "Celery", "Gluten"},
			Handoff:              domain.HandoffDropoff,
		})
		return err
	}); err != nil {
		t.Fatalf("insert meal: %v", err)
	}

	meal, ok := store.GetMeal("QR1")
	if !ok {
		t.Fatalf("expected meal QR1 to exist")
	}
	if meal.Status != domain.StatusLogged {
		t.Fatalf("expected initial status logged, got %s", meal.Status)
	}
	if len(meal.Allergens) != 3 {
		t.Fatalf("expected normalized allergen set, got %v", meal.Allergens)
	}

	// Upsert on an existing id merges non-zero fields only.
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpsertMeal(domain.Meal{Base: domain.Base{ID: "QR1"}, Status: domain.StatusAtLighthouse})
		return err
	}); err != nil {
		t.Fatalf("merge meal: %v", err)
	}
	merged, _ := store.GetMeal("QR1")
	if merged.Status != domain.StatusAtLighthouse {
		t.Fatalf("expected merged status at_lighthouse, got %s", merged.Status)
	}
	if merged.Description != "Lentil soup" || merged.ContributorID != contributorID {
		t.Fatalf("merge must not clear unset fields: %+v", merged)
	}
}

func TestMealIDsAreNeverReassigned(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, lighthouseID := seedBasics(t, store)

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.UpsertMeal(domain.Meal{Base: domain.Base{ID: "QR1"}, ContributorID: contributorID, AssignedLighthouseID: lighthouseID}); err != nil {
			return err
		}
		_, err := tx.UpdateMeal("QR1", func(m *domain.Meal) error {
			m.ID = "QR2"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := store.GetMeal("QR1"); !ok {
		t.Fatalf("expected meal to keep its original id")
	}
	if _, ok := store.GetMeal("QR2"); ok {
		t.Fatalf("meal id must never be reassigned")
	}
}

func TestNotificationLogPrependAndCap(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, _ := seedBasics(t, store)
	ctx := context.Background()

	for i := 0; i < domain.NotificationCap+10; i++ {
		msg := fmt.Sprintf("message %d", i)
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.AddNotification(domain.Notification{ContributorID: contributorID, Message: msg})
			return err
		}); err != nil {
			t.Fatalf("add notification %d: %v", i, err)
		}
	}

	log := store.ListNotifications()
	if len(log) != domain.NotificationCap {
		t.Fatalf("expected log capped at %d, got %d", domain.NotificationCap, len(log))
	}
	if log[0].Message != fmt.Sprintf("message %d", domain.NotificationCap+9) {
		t.Fatalf("expected newest entry first, got %q", log[0].Message)
	}
	if log[len(log)-1].Message != "message 10" {
		t.Fatalf("expected oldest entries evicted FIFO, got %q", log[len(log)-1].Message)
	}
}

func TestAddNotificationValidatesContributor(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.AddNotification(domain.Notification{ContributorID: "ghost", Message: "hi"})
		return err
	})
	var ref domain.InvalidReferenceError
	if !errors.As(err, &ref) || ref.Entity != domain.EntityNotification {
		t.Fatalf("expected InvalidReferenceError, got %v", err)
	}
}

func TestResetReplacesStateWithSeed(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, lighthouseID := seedBasics(t, store)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpsertMeal(domain.Meal{Base: domain.Base{ID: "QR1"}, ContributorID: contributorID, AssignedLighthouseID: lighthouseID})
		return err
	}); err != nil {
		t.Fatalf("insert meal: %v", err)
	}

	seed := []domain.Lighthouse{
		{Base: domain.Base{ID: "seed-1"}, Name: "Seed One"},
		{Base: domain.Base{ID: "seed-2"}, Name: "Seed Two"},
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.Reset(seed)
		return nil
	}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if got := store.ListContributors(); len(got) != 0 {
		t.Fatalf("expected contributors cleared, got %d", len(got))
	}
	if got := store.ListMeals(); len(got) != 0 {
		t.Fatalf("expected meals cleared, got %d", len(got))
	}
	lighthouses := store.ListLighthouses()
	if len(lighthouses) != 2 || lighthouses[0].ID != "seed-1" || lighthouses[1].ID != "seed-2" {
		t.Fatalf("expected seeded lighthouses in order, got %+v", lighthouses)
	}
}

func TestSnapshotRoundTripPreservesOrderAndSeq(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreateContributor(domain.Contributor{Name: name})
			return err
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	restored := memory.NewStore(nil)
	restored.ImportState(store.ExportState())

	got := restored.ListContributors()
	if len(got) != 3 {
		t.Fatalf("expected 3 contributors, got %d", len(got))
	}
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		if got[i].Name != name {
			t.Fatalf("expected insertion order preserved, got %+v", got)
		}
	}

	// New inserts after import must not collide with restored sequence numbers.
	if _, err := restored.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateContributor(domain.Contributor{Name: "Dave"})
		return err
	}); err != nil {
		t.Fatalf("create after import: %v", err)
	}
	all := restored.ListContributors()
	if all[len(all)-1].Name != "Dave" {
		t.Fatalf("expected Dave appended last, got %+v", all)
	}
	if all[len(all)-1].Seq <= all[len(all)-2].Seq {
		t.Fatalf("expected strictly increasing seq, got %+v", all)
	}
}

func TestViewAndGettersReturnClones(t *testing.T) {
	store := memory.NewStore(nil)
	contributorID, _ := seedBasics(t, store)

	c, _ := store.GetContributor(contributorID)
	c.Name = "Mutated"
	again, _ := store.GetContributor(contributorID)
	if again.Name != "Alice" {
		t.Fatalf("expected getter to return a clone, got %q", again.Name)
	}

	if err := store.View(context.Background(), func(view domain.TransactionView) error {
		ls := view.ListLighthouses()
		if len(ls) != 1 {
			return fmt.Errorf("expected one lighthouse, got %d", len(ls))
		}
		ls[0].DropoffPoints[0] = "tampered"
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	lh, _ := store.GetLighthouse("lh-a")
	if lh.DropoffPoints[0] != "Front gate" {
		t.Fatalf("expected view slices to be isolated, got %v", lh.DropoffPoints)
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := memory.NewStore(nil)
	seedBasics(t, store)

	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateContributor(domain.Contributor{Name: "Eve"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected transaction error to propagate, got %v", err)
	}
	if len(store.ListContributors()) != 1 {
		t.Fatalf("expected rollback of uncommitted transaction")
	}
}
