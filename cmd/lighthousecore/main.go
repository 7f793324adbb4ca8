// Command lighthousecore is the operational CLI for the donated-meal ledger:
// it seeds facility data, logs meal batches, records lifecycle scans, and
// reports the leaderboard and notification log.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"lighthousecore/internal/config"
	"lighthousecore/internal/core"
	"lighthousecore/internal/location"
	"lighthousecore/pkg/domain"
	"lighthousecore/pkg/geo"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		exitFunc(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: lighthousecore [-config path] <command> [flags]

commands:
  seed           seed the facility list (and demo data with -demo)
  register       register a contributor
  log            log a meal batch for a contributor
  receive        record a container scan at its lighthouse
  distribute     record a container handoff to a recipient
  leaderboard    print the top contributors
  lighthouses    print facilities, nearest first when a location is configured
  notifications  print a contributor's notification log
  reset          clear all state and reseed facilities`)
}

func run(args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("lighthousecore", flag.ContinueOnError)
	global.SetOutput(stdout)
	configPath := global.String("config", "", "path to config file")
	global.Usage = func() { usage(stdout) }
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage(stdout)
		return fmt.Errorf("command required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Apply(); err != nil {
		return err
	}

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger := core.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithAlertSink(core.LoggerAlertSink{Logger: logger}),
	}
	if provider := locationProvider(cfg); provider != nil {
		opts = append(opts, core.WithLocationProvider(provider))
	}
	svc := core.NewService(store, opts...)

	ctx := context.Background()
	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "seed":
		return runSeed(ctx, svc, cfg, cmdArgs, stdout)
	case "register":
		return runRegister(ctx, svc, cmdArgs, stdout)
	case "log":
		return runLog(ctx, svc, cmdArgs, stdout)
	case "receive":
		return runReceive(ctx, svc, cmdArgs, stdout)
	case "distribute":
		return runDistribute(ctx, svc, cmdArgs, stdout)
	case "leaderboard":
		return runLeaderboard(svc, stdout)
	case "lighthouses":
		return runLighthouses(ctx, svc, stdout)
	case "notifications":
		return runNotifications(svc, cmdArgs, stdout)
	case "reset":
		_, err := svc.Reset(ctx, cfg.SeedEntities())
		if err == nil {
			fmt.Fprintln(stdout, "state cleared, facilities reseeded")
		}
		return err
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", command)
	}
}

func locationProvider(cfg *config.Config) core.LocationProvider {
	if cfg.Location.Static != nil {
		return location.Static{Coordinate: *cfg.Location.Static}
	}
	if cfg.Location.GeocodeAddress != "" {
		return location.NewGeocoder(cfg.Location.GeocodeAddress)
	}
	return nil
}

func runSeed(ctx context.Context, svc *core.Service, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stdout)
	demo := fs.Bool("demo", false, "also create demo contributors and meals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := svc.SeedLighthouses(ctx, cfg.SeedEntities()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "seeded %d lighthouses\n", len(cfg.Lighthouses))
	if !*demo {
		return nil
	}
	return seedDemoData(ctx, svc, stdout)
}

// demoBatch seeds one meal batch for the demo contributor at index donor.
type demoBatch struct {
	donor       int
	base        string
	description string
	mealType    domain.MealType
	allergens   []string
	quantity    int
}

var demoBatches = []demoBatch{
	{0, "CAS", "Beef Casserole", domain.MealBeef, []string{"Celery"}, 4},
	{0, "PASTA", "Veg Pasta Bake", domain.MealVegetarian, []string{"Milk", "Gluten"}, 6},
	{1, "STEW", "Beef Stew", domain.MealBeef, nil, 5},
	{1, "SOUP", "Lentil Soup", domain.MealVegetarian, nil, 8},
}

// seedDemoData creates a small Cape Town walkthrough: two contributors, a few
// logged meals, and one container taken through the full journey.
func seedDemoData(ctx context.Context, svc *core.Service, stdout io.Writer) error {
	home := geo.Coordinate{Lat: -33.915, Lon: 18.39}
	alice, _, err := svc.RegisterContributor(ctx, core.Contributor{Name: "Alice", Email: "alice@example.org", Home: &home})
	if err != nil {
		return err
	}
	zane, _, err := svc.RegisterContributor(ctx, core.Contributor{Name: "Zane", Email: "zane@example.org"})
	if err != nil {
		return err
	}
	donors := []core.Contributor{alice, zane}
	lighthouses := svc.ListLighthouses()
	if len(lighthouses) == 0 {
		return fmt.Errorf("no lighthouses seeded")
	}
	assigned := lighthouses[0].ID

	now := time.Now().UTC()
	var total int
	for _, b := range demoBatches {
		template := core.Meal{
			ContributorID:        donors[b.donor].ID,
			AssignedLighthouseID: assigned,
			PreparedOn:           now,
			Description:          b.description,
			MealType:             b.mealType,
			Allergens:            b.allergens,
			Handoff:              domain.HandoffDropoff,
		}
		meals, _, err := svc.LogMealBatch(ctx, template, b.base, b.quantity)
		if err != nil {
			return err
		}
		total += len(meals)
	}
	// Walk one container through the full journey.
	if _, _, err := svc.ReceiveMeal(ctx, "PASTA-01"); err != nil {
		return err
	}
	if _, _, err := svc.DistributeMeal(ctx, "PASTA-01", ""); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "seeded demo data: 2 contributors, %d meals, 1 distributed\n", total)
	return nil
}

func runRegister(ctx context.Context, svc *core.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stdout)
	name := fs.String("name", "", "contributor name (required)")
	email := fs.String("email", "", "contributor email")
	phone := fs.String("phone", "", "contributor phone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}
	contributor, _, err := svc.RegisterContributor(ctx, core.Contributor{Name: *name, Email: *email, Phone: *phone})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "registered contributor %s (%s)\n", contributor.Name, contributor.ID)
	return nil
}

func runLog(ctx context.Context, svc *core.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	fs.SetOutput(stdout)
	contributor := fs.String("contributor", "", "contributor id (required)")
	lighthouse := fs.String("lighthouse", "", "assigned lighthouse id (required)")
	code := fs.String("code", "", "base container code (required)")
	quantity := fs.Int("qty", 1, "number of containers")
	description := fs.String("desc", "", "meal description")
	mealType := fs.String("type", string(domain.MealVegetarian), "meal type: vegetarian|beef|pork|fish")
	allergens := fs.String("allergens", "", "comma-separated allergen list")
	collect := fs.Bool("collect", false, "keeper collects instead of dropoff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *contributor == "" || *lighthouse == "" || *code == "" {
		return fmt.Errorf("-contributor, -lighthouse and -code are required")
	}
	handoff := domain.HandoffDropoff
	if *collect {
		handoff = domain.HandoffCollect
	}
	template := core.Meal{
		ContributorID:        *contributor,
		AssignedLighthouseID: *lighthouse,
		PreparedOn:           time.Now().UTC(),
		Description:          *description,
		MealType:             domain.MealType(*mealType),
		Allergens:            splitList(*allergens),
		Handoff:              handoff,
	}
	meals, _, err := svc.LogMealBatch(ctx, template, *code, *quantity)
	if err != nil {
		return err
	}
	for _, meal := range meals {
		fmt.Fprintf(stdout, "logged %s\n", meal.ID)
	}
	return nil
}

func runReceive(ctx context.Context, svc *core.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("receive", flag.ContinueOnError)
	fs.SetOutput(stdout)
	code := fs.String("code", "", "container code (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("-code is required")
	}
	meal, _, err := svc.ReceiveMeal(ctx, *code)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s is now %s\n", meal.ID, meal.Status)
	return nil
}

func runDistribute(ctx context.Context, svc *core.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("distribute", flag.ContinueOnError)
	fs.SetOutput(stdout)
	code := fs.String("code", "", "container code (required)")
	recipient := fs.String("recipient", "", "recipient name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("-code is required")
	}
	meal, _, err := svc.DistributeMeal(ctx, *code, *recipient)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s distributed to %s\n", meal.ID, meal.RecipientName)
	return nil
}

func runLeaderboard(svc *core.Service, stdout io.Writer) error {
	top := svc.Leaderboard()
	if len(top) == 0 {
		fmt.Fprintln(stdout, "no contributors yet")
		return nil
	}
	for i, c := range top {
		fmt.Fprintf(stdout, "%d. %-20s %4d pts  %3d meals", i+1, c.Name, c.Points, c.MealsContributed)
		if badges := core.Badges(c); len(badges) > 0 {
			names := make([]string, 0, len(badges))
			for _, b := range badges {
				names = append(names, b.Name)
			}
			fmt.Fprintf(stdout, "  [%s]", strings.Join(names, ", "))
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func runLighthouses(ctx context.Context, svc *core.Service, stdout io.Writer) error {
	ranked, err := svc.SuggestLighthouse(ctx)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Fprintln(stdout, "no lighthouses seeded")
		return nil
	}
	for _, entry := range ranked {
		lh := entry.Lighthouse
		if entry.DistanceKm != nil {
			fmt.Fprintf(stdout, "%-20s %.1f km  (%s)\n", lh.Name, *entry.DistanceKm, strings.Join(lh.DropoffPoints, "; "))
		} else {
			fmt.Fprintf(stdout, "%-20s (%s)\n", lh.Name, strings.Join(lh.DropoffPoints, "; "))
		}
	}
	return nil
}

func runNotifications(svc *core.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	fs.SetOutput(stdout)
	contributor := fs.String("contributor", "", "filter by contributor id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	notes := svc.Notifications(*contributor)
	if len(notes) == 0 {
		fmt.Fprintln(stdout, "no notifications")
		return nil
	}
	for _, n := range notes {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(stdout, "%s [%s] %s\n", marker, n.Kind, n.Message)
	}
	return nil
}

func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
