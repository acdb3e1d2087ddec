package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database, migrates it and
// closes it when the test ends. Each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	ctx, cancel := TestContext()
	defer cancel()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := database.Open(ctx, "sqlite", dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// TestContext returns a context with a timeout suitable for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// SetupTestMongo returns a throwaway MongoDB database for audit tests.
// The test is skipped when no server answers at RETROBOARD_TEST_MONGO_URI
// (default mongodb://localhost:27017).
func SetupTestMongo(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("RETROBOARD_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo not available: %v", err)
	}

	db := client.Database("retroboard_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
