package main

import (
	"context"
	"fmt"
	"os"

	"carbonsense/cache"
	"carbonsense/config"
	"carbonsense/database"
	"carbonsense/entryfile"
	"carbonsense/logging"
	"carbonsense/models"
	"carbonsense/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		userID     uint
		batchSize  int
		dryRun     bool
		skipBadges bool
	)

	cmd := &cobra.Command{
		Use:   "entries-importer <file.json>",
		Short: "Import carbon entries for a user from a JSON file",
		Long: `Reads a JSON array of entries, fills in missing totals with the emission
calculator and inserts them for the given user in batches. Badges are
evaluated once the import is done.`,
		Example: `  # Import a file for user 12
  entries-importer --user-id 12 ./data/entries.json

  # Validate and show totals without writing
  entries-importer --user-id 12 --dry-run ./data/entries.json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user-id is required")
			}
			if batchSize < 1 {
				return fmt.Errorf("--batch-size must be at least 1")
			}
			return runImport(cmd, args[0], userID, batchSize, dryRun, skipBadges)
		},
	}

	cmd.Flags().UintVar(&userID, "user-id", 0, "Owner of the imported entries")
	cmd.Flags().IntVar(&batchSize, "batch-size", 200, "Rows per insert statement")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print totals without writing")
	cmd.Flags().BoolVar(&skipBadges, "skip-badges", false, "Do not evaluate badges after import")

	return cmd
}

func runImport(cmd *cobra.Command, path string, userID uint, batchSize int, dryRun, skipBadges bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := entryfile.Decode(f)
	if err != nil {
		return err
	}
	if problems := entryfile.Check(records); len(problems) > 0 {
		for _, p := range problems {
			cmd.PrintErrf("%s: %s\n", path, p)
		}
		return fmt.Errorf("%d invalid entries in %s", len(problems), path)
	}

	entries := make([]models.CarbonEntry, 0, len(records))
	for _, rec := range records {
		entry, err := rec.Entry(userID)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	cmd.Printf("Found %d entries\n", len(entries))

	if dryRun {
		for _, e := range entries {
			cmd.Printf("  %s  %-9s %-7s %8.2f kg\n", e.Day(), e.TravelMode, e.FoodType, e.TotalEmissions)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	store := services.NewGormStore(db)
	user, err := store.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	if err := store.InsertEntries(ctx, entries, batchSize); err != nil {
		return err
	}
	cmd.Printf("Imported %d entries for %s\n", len(entries), user.DisplayName())
	invalidateLeaderboard(ctx, cfg, store, log)

	if skipBadges {
		return nil
	}
	awarded := services.NewBadgeService(nil, log).Award(ctx, store, userID)
	for _, b := range awarded {
		cmd.Printf("  %s %s\n", b.Icon, b.Name)
	}
	log.Info("Import finished",
		zap.Uint("user_id", userID),
		zap.Int("entries", len(entries)),
		zap.Int("new_badges", len(awarded)),
	)
	return nil
}

// invalidateLeaderboard drops the shared weekly leaderboard so the API
// recomputes it. Without redis the API's cache is process-local and there is
// nothing to clear from here.
func invalidateLeaderboard(ctx context.Context, cfg *config.Config, store *services.GormStore, log *zap.Logger) {
	if cfg.RedisURL == "" {
		return
	}
	redisCache, err := cache.NewRedis(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn("Leaderboard cache not invalidated", zap.Error(err))
		return
	}
	defer func() { _ = redisCache.Close() }()

	services.NewLeaderboardService(store, redisCache, cfg.LeaderboardCacheTTL, log).Invalidate(ctx)
}
