package main

import (
	"fmt"

	"conduit/internal/cache"
	"conduit/internal/database"
	"conduit/internal/middleware"
	"conduit/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedOpts     seed.Options
	seedFixtures string
	seedDemo     bool

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo data",
		Long: `Populates the database with generated users, follows, articles, favorites
and comments, or with a YAML fixtures file.

Examples:
  conduit seed --users 50 --articles 200
  conduit seed --demo --clean
  conduit seed --fixtures ./fixtures.yml`,
		Args: cobra.NoArgs,
		RunE: runSeed,
	}
)

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.NumUsers, "users", 50, "Number of users to create")
	f.IntVar(&seedOpts.NumArticles, "articles", 200, "Number of articles to create")
	f.BoolVar(&seedOpts.ShouldClean, "clean", false, "Delete existing data before seeding")
	f.BoolVar(&seedOpts.SkipBcrypt, "fast-hash", false, "Hash passwords at the minimum bcrypt cost")
	f.IntVar(&seedOpts.MaxDays, "max-days", 90, "Spread article creation times over this many days")
	f.Int64Var(&seedOpts.RandSeed, "rand-seed", 0, "Seed for reproducible data (0 picks one)")
	f.StringVar(&seedFixtures, "fixtures", "", "Load a YAML fixtures file instead of generating data")
	f.BoolVar(&seedDemo, "demo", false, "Load the built-in demo fixtures")
	seedCmd.MarkFlagsMutuallyExclusive("fixtures", "demo")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := cache.InitRedis(cfg.RedisURL); err != nil {
		middleware.Logger.Warn("redis unavailable, cached tags may be stale", "error", err)
	}

	s := seed.NewSeeder(db, seedOpts)
	ctx := cmd.Context()

	var summary *seed.Summary
	switch {
	case seedDemo:
		fx, err := seed.DemoFixtures()
		if err != nil {
			return err
		}
		summary, err = s.ApplyFixtures(ctx, fx)
		if err != nil {
			return fmt.Errorf("demo seeding failed: %w", err)
		}
	case seedFixtures != "":
		fx, err := seed.LoadFixtures(seedFixtures)
		if err != nil {
			return err
		}
		summary, err = s.ApplyFixtures(ctx, fx)
		if err != nil {
			return fmt.Errorf("fixture seeding failed: %w", err)
		}
	default:
		summary, err = s.Run(ctx)
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seeded %s\n", summary)
	if seedFixtures == "" && !seedDemo {
		fmt.Fprintf(out, "all generated users have the password %q\n", seed.DefaultPassword)
	}
	return nil
}
