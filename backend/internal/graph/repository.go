package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"memory-graph/backend/internal/memory"
	"memory-graph/backend/pkg/logger"
	apperrors "memory-graph/backend/pkg/errors"
)

// Repository is the Neo4j implementation of memory.Store.
//
// Memory, Person and Place nodes carry a string id property. Each mutation
// runs as one managed write transaction, so a failing statement rolls back
// the node together with every relationship written alongside it.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
	newID    func() string
}

var _ memory.Store = (*Repository)(nil)

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
		newID:    func() string { return uuid.New().String() },
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Ping verifies connectivity to the database
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.NewGraphQueryFailed("verify connectivity", err)
	}
	return nil
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.database,
	})
}

// Create writes the memory node, its people, places, links and photos in one transaction
func (r *Repository) Create(ctx context.Context, in memory.CreateInput, createdAt time.Time) (string, error) {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	id := r.newID()
	urls, captions := photoParams(in.Photos)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := run(ctx, tx, createMemoryQuery, map[string]any{
			"id":            id,
			"text":          in.Text,
			"date":          in.Date,
			"emotion":       string(in.Emotion),
			"userId":        in.UserID,
			"createdAt":     createdAt.UTC().Format(time.RFC3339Nano),
			"photoUrls":     urls,
			"photoCaptions": captions,
		}); err != nil {
			return nil, err
		}
		if err := r.attachPeople(ctx, tx, id, in.UserID, in.People); err != nil {
			return nil, err
		}
		if err := r.attachPlaces(ctx, tx, id, in.UserID, in.Places); err != nil {
			return nil, err
		}
		return nil, attachLinks(ctx, tx, id, in.UserID, in.LinkedMemories)
	})
	if err != nil {
		return "", apperrors.NewGraphQueryFailed("create memory", err)
	}

	r.logger.Debug("Memory node written",
		zap.String("memory_id", id),
		zap.String("user_id", in.UserID),
		zap.Int("people", len(in.People)),
		zap.Int("places", len(in.Places)),
		zap.Int("links_requested", len(in.LinkedMemories)),
	)
	return id, nil
}

// List returns every memory of the user with its relations
func (r *Repository) List(ctx context.Context, userID string) ([]memory.Memory, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, listMemoriesQuery, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		memories := []memory.Memory{}
		for result.Next(ctx) {
			memories = append(memories, parseMemory(result.Record()))
		}
		return memories, result.Err()
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list memories", err)
	}
	return out.([]memory.Memory), nil
}

// Get returns one memory owned by the user
func (r *Repository) Get(ctx context.Context, id, userID string) (*memory.Memory, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, getMemoryQuery, map[string]any{"id": id, "userId": userID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewMemoryNotFound(id)
		}
		m := parseMemory(result.Record())
		return &m, nil
	})
	if err != nil {
		return nil, wrapQueryError("get memory", err)
	}
	return out.(*memory.Memory), nil
}

// Update applies a partial update. Each relation present in the input is
// rewritten by deleting every edge of that kind and recreating the edges
// from the supplied list; the whole sequence commits or rolls back together.
func (r *Repository) Update(ctx context.Context, id, userID string, in memory.UpdateInput) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	params := map[string]any{"id": id, "userId": userID}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, ownedMemoryQuery, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewMemoryNotFound(id)
		}

		if props := in.Scalars(); len(props) > 0 {
			if err := run(ctx, tx, updateScalarsQuery, withParams(params, "props", props)); err != nil {
				return nil, err
			}
		}
		if in.Photos != nil {
			urls, captions := photoParams(*in.Photos)
			p := withParams(params, "photoUrls", urls)
			p["photoCaptions"] = captions
			if err := run(ctx, tx, setPhotosQuery, p); err != nil {
				return nil, err
			}
		}
		if in.People != nil {
			if err := run(ctx, tx, detachPeopleQuery, params); err != nil {
				return nil, err
			}
			if err := r.attachPeople(ctx, tx, id, userID, *in.People); err != nil {
				return nil, err
			}
		}
		if in.Places != nil {
			if err := run(ctx, tx, detachPlacesQuery, params); err != nil {
				return nil, err
			}
			if err := r.attachPlaces(ctx, tx, id, userID, *in.Places); err != nil {
				return nil, err
			}
		}
		if in.LinkedMemories != nil {
			if err := run(ctx, tx, detachLinksQuery, params); err != nil {
				return nil, err
			}
			if err := attachLinks(ctx, tx, id, userID, *in.LinkedMemories); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return wrapQueryError("update memory", err)
	}

	r.logger.Info("Memory updated",
		zap.String("memory_id", id),
		zap.String("user_id", userID),
		zap.Bool("people_replaced", in.People != nil),
		zap.Bool("places_replaced", in.Places != nil),
		zap.Bool("links_replaced", in.LinkedMemories != nil),
	)
	return nil
}

// Delete detaches and removes the memory. Person and Place nodes are kept.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, deleteMemoryQuery, map[string]any{"id": id, "userId": userID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewMemoryNotFound(id)
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return wrapQueryError("delete memory", err)
	}

	r.logger.Info("Memory deleted",
		zap.String("memory_id", id),
		zap.String("user_id", userID),
	)
	return nil
}

func (r *Repository) attachPeople(ctx context.Context, tx neo4j.ManagedTransaction, id, userID string, people []memory.PersonInput) error {
	if len(people) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(people))
	for i, p := range people {
		rows[i] = map[string]any{
			"id":           r.newID(),
			"name":         p.Name,
			"relationship": p.Relationship,
			"position":     i,
		}
	}
	return run(ctx, tx, attachPeopleQuery, map[string]any{"id": id, "userId": userID, "people": rows})
}

func (r *Repository) attachPlaces(ctx context.Context, tx neo4j.ManagedTransaction, id, userID string, places []memory.PlaceInput) error {
	if len(places) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(places))
	for i, p := range places {
		rows[i] = map[string]any{
			"id":       r.newID(),
			"name":     p.Name,
			"type":     p.Type,
			"position": i,
		}
	}
	return run(ctx, tx, attachPlacesQuery, map[string]any{"id": id, "userId": userID, "places": rows})
}

func attachLinks(ctx context.Context, tx neo4j.ManagedTransaction, id, userID string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(links))
	for i, target := range links {
		rows[i] = map[string]any{"id": target, "position": i}
	}
	return run(ctx, tx, attachLinksQuery, map[string]any{"id": id, "userId": userID, "links": rows})
}

// run executes a statement inside tx and drains its result
func run(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

func withParams(base map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

func photoParams(photos []memory.Photo) (urls, captions []string) {
	urls = make([]string, len(photos))
	captions = make([]string, len(photos))
	for i, p := range photos {
		urls[i] = p.URL
		captions[i] = p.Caption
	}
	return urls, captions
}

// wrapQueryError keeps domain errors raised inside a transaction as they are
func wrapQueryError(operation string, err error) error {
	if apperrors.IsNotFound(err) {
		return err
	}
	return apperrors.NewGraphQueryFailed(operation, err)
}

// Connect creates a driver and verifies that the database answers
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}
