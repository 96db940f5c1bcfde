package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"memory-graph/backend/internal/memory"
	apperrors "memory-graph/backend/pkg/errors"
)

// The repository tests require a running Neo4j instance.
// Set NEO4J_TEST_URI (and NEO4J_TEST_USER, NEO4J_TEST_PASSWORD) to run them.
func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo, userID := newTestRepository(t)

	id, err := repo.Create(ctx, memory.CreateInput{
		Text:    "Picnic by the lake",
		Date:    "2024-06-01",
		Emotion: memory.EmotionJoy,
		UserID:  userID,
		People:  []memory.PersonInput{{Name: "Alice", Relationship: "friend"}, {Name: "Bob"}},
		Places:  []memory.PlaceInput{{Name: "Lake", Type: "outdoors"}},
		Photos:  []memory.Photo{{URL: "https://example.com/1.jpg", Caption: "sunset"}},
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m, err := repo.Get(ctx, id, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Text != "Picnic by the lake" || m.Emotion != memory.EmotionJoy {
		t.Errorf("unexpected scalars: %+v", m)
	}
	if got := m.PersonNames(); len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("expected people [Alice Bob], got %v", got)
	}
	if m.People[0].Relationship != "friend" {
		t.Errorf("expected relationship friend, got %q", m.People[0].Relationship)
	}
	if len(m.Photos) != 1 || m.Photos[0].Caption != "sunset" {
		t.Errorf("expected captioned photo, got %+v", m.Photos)
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}
}

func TestRepository_MergesPeopleByName(t *testing.T) {
	ctx := context.Background()
	repo, userID := newTestRepository(t)

	first, err := repo.Create(ctx, memory.CreateInput{
		Text: "one", Date: "2024-01-01", Emotion: memory.EmotionNeutral, UserID: userID,
		People: []memory.PersonInput{{Name: "Alice"}},
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := repo.Create(ctx, memory.CreateInput{
		Text: "two", Date: "2024-01-02", Emotion: memory.EmotionNeutral, UserID: userID,
		People: []memory.PersonInput{{Name: "Alice", Relationship: "sister"}},
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	a, err := repo.Get(ctx, first, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := repo.Get(ctx, second, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.People[0].ID != b.People[0].ID {
		t.Errorf("expected one Alice node, got %s and %s", a.People[0].ID, b.People[0].ID)
	}
	if a.People[0].Relationship != "sister" {
		t.Errorf("expected merged relationship sister, got %q", a.People[0].Relationship)
	}
}

func TestRepository_UpdateReplacesRelations(t *testing.T) {
	ctx := context.Background()
	repo, userID := newTestRepository(t)

	target, err := repo.Create(ctx, memory.CreateInput{
		Text: "target", Date: "2024-01-01", Emotion: memory.EmotionLove, UserID: userID,
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id, err := repo.Create(ctx, memory.CreateInput{
		Text: "source", Date: "2024-01-02", Emotion: memory.EmotionFear, UserID: userID,
		People: []memory.PersonInput{{Name: "Alice"}},
		Places: []memory.PlaceInput{{Name: "Home"}},
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	text := "edited"
	people := []memory.PersonInput{}
	links := []string{target, id, "does-not-exist"}
	if err := repo.Update(ctx, id, userID, memory.UpdateInput{
		Text:           &text,
		People:         &people,
		LinkedMemories: &links,
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	m, err := repo.Get(ctx, id, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Text != "edited" {
		t.Errorf("expected text edited, got %q", m.Text)
	}
	if len(m.People) != 0 {
		t.Errorf("expected people cleared, got %v", m.People)
	}
	if len(m.Places) != 1 || m.Places[0].Name != "Home" {
		t.Errorf("expected places untouched, got %v", m.Places)
	}
	if len(m.LinkedMemories) != 1 || m.LinkedMemories[0] != target {
		t.Errorf("expected only %s linked, got %v", target, m.LinkedMemories)
	}
}

func TestRepository_OwnershipAndDelete(t *testing.T) {
	ctx := context.Background()
	repo, userID := newTestRepository(t)

	id, err := repo.Create(ctx, memory.CreateInput{
		Text: "private", Date: "2024-01-01", Emotion: memory.EmotionSadness, UserID: userID,
	}, time.Now())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.Get(ctx, id, "someone-else"); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found for foreign user, got %v", err)
	}
	if err := repo.Delete(ctx, id, "someone-else"); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found deleting foreign memory, got %v", err)
	}

	if err := repo.Delete(ctx, id, userID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, id, userID); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id, userID); !apperrors.IsNotFound(err) {
		t.Errorf("expected second delete to report not found, got %v", err)
	}
}

func TestRepository_Migrate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	if _, failed, err := repo.Migrate(ctx, true); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	} else if len(failed) > 0 {
		t.Errorf("expected every statement to succeed, got %+v", failed)
	}

	applied, _, err := repo.Migrate(ctx, false)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if applied {
		t.Error("expected recorded migration to be skipped without force")
	}
}

func TestRepository_MergeKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	repo, userID := newTestRepository(t)

	if _, _, err := repo.Migrate(ctx, true); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	session := repo.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			CREATE (:Person {id: $a, userId: $userId, name: 'Twin'})
			CREATE (:Person {id: $b, userId: $userId, name: 'Twin'})`,
			map[string]any{"a": uuid.New().String(), "b": uuid.New().String(), "userId": userID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err == nil {
		t.Fatal("expected the second Person with the same name to violate the constraint")
	}
}

// newTestRepository connects to the test database and removes everything the
// returned user wrote once the test finishes
func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}

	driver, err := createTestDriver(uri)
	if err != nil {
		t.Skipf("Neo4j unavailable: %v", err)
	}
	userID := "test-user-" + uuid.New().String()

	t.Cleanup(func() {
		ctx := context.Background()
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (n {userId: $userId}) DETACH DELETE n", map[string]interface{}{"userId": userID})
		driver.Close(ctx)
	})

	return NewRepository(driver, os.Getenv("NEO4J_TEST_DATABASE")), userID
}

func createTestDriver(uri string) (neo4j.DriverWithContext, error) {
	user := envOr("NEO4J_TEST_USER", "neo4j")
	password := envOr("NEO4J_TEST_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return driver, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
