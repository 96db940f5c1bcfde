package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "memory-graph/backend/pkg/errors"
)

// SchemaVersion identifies the schema written by Migrate
const SchemaVersion = "memory_graph_schema_v2"

type migration struct {
	name        string
	description string
	query       string
}

var migrations = []migration{
	{
		name:        "Create Constraints",
		description: "Unique ids for memories, people and places",
		query: `
			CREATE CONSTRAINT memory_id_unique IF NOT EXISTS FOR (m:Memory) REQUIRE m.id IS UNIQUE;
			CREATE CONSTRAINT person_id_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE;
			CREATE CONSTRAINT place_id_unique IF NOT EXISTS FOR (pl:Place) REQUIRE pl.id IS UNIQUE;
		`,
	},
	{
		name:        "Create Merge Key Constraints",
		description: "One person and one place per (userId, name); replaces the v1 lookup indexes",
		query: `
			DROP INDEX person_user_name IF EXISTS;
			DROP INDEX place_user_name IF EXISTS;
			CREATE CONSTRAINT person_user_name_unique IF NOT EXISTS FOR (p:Person) REQUIRE (p.userId, p.name) IS UNIQUE;
			CREATE CONSTRAINT place_user_name_unique IF NOT EXISTS FOR (pl:Place) REQUIRE (pl.userId, pl.name) IS UNIQUE;
		`,
	},
	{
		name:        "Create Indexes",
		description: "Owner and timeline lookups",
		query: `
			CREATE INDEX memory_user_id IF NOT EXISTS FOR (m:Memory) ON (m.userId);
			CREATE INDEX memory_created_at IF NOT EXISTS FOR (m:Memory) ON (m.createdAt);
		`,
	},
	{
		name:        "Backfill Photo Captions",
		description: "Give memories written before captions existed an aligned caption list",
		query: `
			MATCH (m:Memory)
			WHERE m.photoUrls IS NOT NULL AND m.photoCaptions IS NULL
			SET m.photoCaptions = [url IN m.photoUrls | ''];
		`,
	},
}

// MigrationStep reports one statement that failed while Migrate kept going
type MigrationStep struct {
	Migration string
	Statement int
	Err       error
}

// Migrate creates the constraints and indexes the repository relies on and
// records SchemaVersion. Unless force is set an already recorded version is
// left alone. Failing statements are logged and returned but do not stop
// later ones; schema statements are idempotent.
func (r *Repository) Migrate(ctx context.Context, force bool) (applied bool, failed []MigrationStep, err error) {
	if !force {
		done, err := r.migrationApplied(ctx)
		if err != nil {
			return false, nil, apperrors.NewGraphQueryFailed("check migration", err)
		}
		if done {
			r.logger.Info("Migration already applied", zap.String("version", SchemaVersion))
			return false, nil, nil
		}
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for i, m := range migrations {
		r.logger.Info("Running migration",
			zap.Int("step", i+1),
			zap.Int("total", len(migrations)),
			zap.String("name", m.name),
			zap.String("description", m.description),
		)

		for j, stmt := range splitStatements(m.query) {
			result, err := session.Run(ctx, stmt, nil)
			if err == nil {
				_, err = result.Consume(ctx)
			}
			if err != nil {
				r.logger.Warn("Migration statement failed",
					zap.String("migration", m.name),
					zap.Int("statement", j+1),
					zap.Error(err),
				)
				failed = append(failed, MigrationStep{Migration: m.name, Statement: j + 1, Err: err})
			}
		}
	}

	if err := r.markMigrationApplied(ctx); err != nil {
		return true, failed, apperrors.NewGraphQueryFailed("mark migration", err)
	}
	return true, failed, nil
}

func (r *Repository) migrationApplied(ctx context.Context) (bool, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Migration {version: $version})
		RETURN m.applied_at as applied_at
	`, map[string]any{"version": SchemaVersion})
	if err != nil {
		return false, err
	}
	if result.Next(ctx) {
		return true, nil
	}
	return false, result.Err()
}

func (r *Repository) markMigrationApplied(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime(),
		    m.description = 'Memory, person and place constraints and lookup indexes'
	`, map[string]any{"version": SchemaVersion})
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// splitStatements splits a multi-statement script on semicolons, dropping
// comment lines and empty statements
func splitStatements(script string) []string {
	var statements []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "//") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
