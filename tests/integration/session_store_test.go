package integration

import (
	"context"
	"testing"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/session"
)

func TestRedisSessionStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer TeardownTestEnvironment(t)

	store := session.NewRedisStore(env.Redis)
	ctx := context.Background()

	sess := domain.Session{
		Token: "token-abc",
		User: domain.User{
			ID:    "user-1",
			Email: "amina@example.com",
			Name:  "Amina",
			Role:  domain.UserRoleSupplier,
		},
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		FlushRedis(t, env.Redis)

		if err := store.Save(ctx, "sid-1", sess, time.Minute); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx, "sid-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !loaded.Valid() {
			t.Fatalf("Expected valid session, got %+v", loaded)
		}
		if loaded.Token != sess.Token || loaded.User.Email != sess.User.Email || loaded.User.Role != sess.User.Role {
			t.Errorf("Round trip mismatch: %+v", loaded)
		}
	})

	t.Run("LoadMissingReturnsNil", func(t *testing.T) {
		FlushRedis(t, env.Redis)

		loaded, err := store.Load(ctx, "no-such-sid")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded != nil {
			t.Errorf("Expected nil for missing session, got %+v", loaded)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		FlushRedis(t, env.Redis)

		if err := store.Save(ctx, "sid-2", sess, time.Minute); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := store.Clear(ctx, "sid-2"); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		loaded, err := store.Load(ctx, "sid-2")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded != nil {
			t.Errorf("Expected session gone after clear, got %+v", loaded)
		}
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		FlushRedis(t, env.Redis)

		if err := store.Save(ctx, "sid-3", sess, time.Second); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		time.Sleep(1500 * time.Millisecond)

		loaded, err := store.Load(ctx, "sid-3")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded != nil {
			t.Errorf("Expected session expired, got %+v", loaded)
		}
	})

	t.Run("SessionsAreIsolatedPerSID", func(t *testing.T) {
		FlushRedis(t, env.Redis)

		other := sess
		other.User.ID = "user-2"
		other.User.Email = "joseph@example.com"

		if err := store.Save(ctx, "sid-a", sess, time.Minute); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := store.Save(ctx, "sid-b", other, time.Minute); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		a, _ := store.Load(ctx, "sid-a")
		b, _ := store.Load(ctx, "sid-b")
		if a == nil || b == nil || a.User.ID == b.User.ID {
			t.Errorf("Expected isolated sessions, got %+v and %+v", a, b)
		}
	})
}
