package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	domainrepos "github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisTryOnRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisTryOnRepository(client, ttl)
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func TestRedisTryOnRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("pending then succeeded", func(t *testing.T) {
		repo, _ := newRedisRepo(t, time.Hour)
		request := newTestRequest(t)

		if err := repo.Save(ctx, request); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		record, err := repo.FindByID(ctx, request.ID())
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if record.Status != domainrepos.StatusPending || record.SubjectFormat != "image/jpeg" || record.GarmentFormat != "image/png" {
			t.Errorf("unexpected pending record %+v", record)
		}

		image, _ := valueobjects.NewNormalizedImage([]byte("generated-C"), "image/png")
		if err := repo.SaveResult(ctx, entities.NewTryOnResult(request.ID(), image, "done")); err != nil {
			t.Fatalf("SaveResult() error = %v", err)
		}

		record, err = repo.FindByID(ctx, request.ID())
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if record.Status != domainrepos.StatusSucceeded {
			t.Errorf("Status = %s, want succeeded", record.Status)
		}
		if record.ResultFormat != "image/png" || record.ResultBytes != len("generated-C") || record.ModelText != "done" {
			t.Errorf("unexpected result fields %+v", record)
		}
		if record.SettledAt == 0 {
			t.Errorf("SettledAt should be set")
		}
	})

	t.Run("pending then failed", func(t *testing.T) {
		repo, _ := newRedisRepo(t, time.Hour)
		request := newTestRequest(t)
		if err := repo.Save(ctx, request); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := repo.SaveFailure(ctx, request.ID(), "blocked"); err != nil {
			t.Fatalf("SaveFailure() error = %v", err)
		}

		record, err := repo.FindByID(ctx, request.ID())
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if record.Status != domainrepos.StatusFailed || record.Error != "blocked" {
			t.Errorf("unexpected failed record %+v", record)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		repo, _ := newRedisRepo(t, time.Hour)

		_, err := repo.FindByID(ctx, "req_missing")
		if !errors.Is(err, domainrepos.ErrNotFound) {
			t.Errorf("FindByID() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("result without a saved request", func(t *testing.T) {
		repo, mr := newRedisRepo(t, time.Hour)

		image, _ := valueobjects.NewNormalizedImage([]byte("generated-C"), "image/png")
		err := repo.SaveResult(ctx, entities.NewTryOnResult("req_orphan", image, ""))
		if !errors.Is(err, domainrepos.ErrNotFound) {
			t.Errorf("SaveResult() error = %v, want ErrNotFound", err)
		}
		if mr.Exists(redisKey("req_orphan")) {
			t.Errorf("an orphan result must not create a record")
		}
	})

	t.Run("records expire after the ttl", func(t *testing.T) {
		repo, mr := newRedisRepo(t, 30*time.Minute)
		request := newTestRequest(t)
		if err := repo.Save(ctx, request); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		key := redisKey(request.ID())
		if ttl := mr.TTL(key); ttl != 30*time.Minute {
			t.Errorf("TTL = %v, want 30m", ttl)
		}

		// settling rewrites the record and refreshes its ttl
		mr.FastForward(20 * time.Minute)
		if err := repo.SaveFailure(ctx, request.ID(), "timeout"); err != nil {
			t.Fatalf("SaveFailure() error = %v", err)
		}
		if ttl := mr.TTL(key); ttl != 30*time.Minute {
			t.Errorf("TTL after settle = %v, want 30m", ttl)
		}

		mr.FastForward(31 * time.Minute)
		if _, err := repo.FindByID(ctx, request.ID()); !errors.Is(err, domainrepos.ErrNotFound) {
			t.Errorf("FindByID() after expiry error = %v, want ErrNotFound", err)
		}
	})

	t.Run("default ttl", func(t *testing.T) {
		repo, mr := newRedisRepo(t, 0)
		request := newTestRequest(t)
		if err := repo.Save(ctx, request); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if ttl := mr.TTL(redisKey(request.ID())); ttl != 24*time.Hour {
			t.Errorf("TTL = %v, want 24h", ttl)
		}
	})
}

func TestConnectRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("pings the server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := ConnectRedis(ctx, RedisOptions{Addr: mr.Addr()})
		if err != nil {
			t.Fatalf("ConnectRedis() error = %v", err)
		}
		client.Close()
	})

	t.Run("fails when the server is gone", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		if _, err := ConnectRedis(ctx, RedisOptions{Addr: addr}); err == nil {
			t.Errorf("ConnectRedis() should fail against a closed server")
		}
	})

	t.Run("checks the password", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mr.RequireAuth("secret")

		if _, err := ConnectRedis(ctx, RedisOptions{Addr: mr.Addr(), Password: "wrong"}); err == nil {
			t.Errorf("ConnectRedis() should fail with a wrong password")
		}
		client, err := ConnectRedis(ctx, RedisOptions{Addr: mr.Addr(), Password: "secret"})
		if err != nil {
			t.Fatalf("ConnectRedis() error = %v", err)
		}
		client.Close()
	})
}

func TestRedisKey(t *testing.T) {
	if got := redisKey("req_1"); got != "tryon:history:req_1" {
		t.Errorf("redisKey() = %s", got)
	}
}
