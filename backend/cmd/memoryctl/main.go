package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"memory-graph/backend/internal/graph"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/memstore"
	"memory-graph/backend/internal/services"
	"memory-graph/backend/pkg/config"
	"memory-graph/backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "memoryctl",
	Short: "memoryctl - administer the memory graph database",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init("development")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Neo4j constraints and indexes",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a sample journal for a user",
	RunE:  runSeed,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the journal statistics of a user",
	RunE:  runStats,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every memory of a user",
	RunE:  runPurge,
}

var (
	forceFlag   bool
	userFlag    string
	confirmFlag bool
	timeoutFlag time.Duration
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "Overall command timeout")
	migrateCmd.Flags().BoolVar(&forceFlag, "force", false, "Reapply the migration even if already recorded")
	seedCmd.Flags().BoolVar(&forceFlag, "force", false, "Seed even if the user already has memories")
	for _, cmd := range []*cobra.Command{seedCmd, statsCmd, purgeCmd} {
		cmd.Flags().StringVarP(&userFlag, "user", "u", "", "User id to operate on")
		_ = cmd.MarkFlagRequired("user")
	}
	purgeCmd.Flags().BoolVarP(&confirmFlag, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(migrateCmd, seedCmd, statsCmd, purgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.StoreNeo4j {
		return fmt.Errorf("migrate requires STORE_BACKEND=%s, got %q", config.StoreNeo4j, cfg.StoreBackend)
	}

	repo, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	applied, failed, err := repo.Migrate(ctx, forceFlag)
	if err != nil {
		return err
	}
	switch {
	case !applied:
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s already applied. Use --force to reapply.\n", graph.SchemaVersion)
	case len(failed) > 0:
		for _, f := range failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s statement %d: %v\n", f.Migration, f.Statement, f.Err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s applied with %d failed statements\n", graph.SchemaVersion, len(failed))
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s applied\n", graph.SchemaVersion)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	existing, err := svc.FindAll(ctx, userFlag)
	if err != nil {
		return err
	}
	if len(existing) > 0 && !forceFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "User %s already has %d memories, skipping (use --force to seed anyway)\n", userFlag, len(existing))
		return nil
	}

	created, err := seedJournal(ctx, svc, userFlag, logger.Get())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d memories for %s\n", len(created), userFlag)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	overview, err := svc.Overview(ctx, userFlag)
	if err != nil {
		return err
	}
	printOverview(cmd.OutOrStdout(), userFlag, overview)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	if !confirmFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "This deletes every memory of %s. Continue? (yes/no): ", userFlag)
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "yes" && response != "y" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := purgeUser(ctx, svc, userFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d memories of %s\n", removed, userFlag)
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*graph.Repository, error) {
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, err
	}
	return graph.NewRepository(driver, cfg.Neo4jDatabase), nil
}

// openService builds a MemoryService over the configured store
func openService(ctx context.Context) (*services.MemoryService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var store memory.Store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Get().Warn("Using in-process memory store; nothing will be persisted")
		store = memstore.New()
	default:
		repo, err := connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store = repo
	}

	closeFn := func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Get().Warn("Failed to close store", zap.Error(err))
		}
	}
	return services.NewMemoryService(store, logger.Named("memoryctl"), nil), closeFn, nil
}
