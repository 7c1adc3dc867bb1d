package redis_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"tripweaver/config"
	"tripweaver/internal/conversation"
	"tripweaver/internal/session"
	redisstore "tripweaver/internal/session/redis"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	mapped, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	cfg := config.RedisConfig{Host: host, Port: port, Timeout: 5 * time.Second}

	store, err := redisstore.New(ctx, cfg, time.Hour)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer func() { _ = store.Close() }()

	sess := session.New()
	sess.Slots = conversation.SlotSet{
		Destination: "Bali",
		Duration:    5,
		TravelDates: []string{"2026-12-25"},
	}
	sess.Flags.FlightsSearched = true
	sess.AppendTurn("user", "5 days in bali from 25 dec", 10)

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("session not found after put")
	}
	if got.Slots.Destination != "Bali" || !got.Flags.FlightsSearched || len(got.History) != 1 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	if miss, err := store.Get(ctx, "does-not-exist"); err != nil || miss != nil {
		t.Fatalf("miss should be (nil, nil), got (%+v, %v)", miss, err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone, _ := store.Get(ctx, sess.ID); gone != nil {
		t.Fatal("session survived delete")
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, _ := redisC.Host(ctx)
	mapped, _ := redisC.MappedPort(ctx, "6379")
	port, _ := strconv.Atoi(mapped.Port())

	store, err := redisstore.New(ctx, config.RedisConfig{Host: host, Port: port}, time.Second)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer func() { _ = store.Close() }()

	sess := session.New()
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := store.Get(ctx, sess.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			return // expired as expected
		}
		if time.Now().After(deadline) {
			t.Fatal("session did not expire within the TTL")
		}
		time.Sleep(200 * time.Millisecond)
	}
}
