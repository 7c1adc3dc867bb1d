package inmemory

import (
	"context"
	"testing"
	"time"

	"tripweaver/internal/conversation"
	"tripweaver/internal/session"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := New(ttl, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPutGetRoundtrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	sess := session.New()
	sess.Slots = conversation.SlotSet{Destination: "Bali", Duration: 5}
	sess.Flags.FlightsSearched = true
	sess.AppendTurn("user", "5 days in bali", 10)

	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Slots.Destination != "Bali" || !got.Flags.FlightsSearched || len(got.History) != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	sess := session.New()
	sess.Slots.Destination = "Bali"
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, _ := s.Get(ctx, sess.ID)
	first.Slots.Destination = "Tokyo"
	first.History = append(first.History, session.Turn{Role: "user", Content: "x"})

	second, _ := s.Get(ctx, sess.ID)
	if second.Slots.Destination != "Bali" || len(second.History) != 0 {
		t.Fatalf("mutation leaked into the store: %+v", second)
	}
}

func TestMissAndDelete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if got, err := s.Get(ctx, "nope"); err != nil || got != nil {
		t.Fatalf("miss should be (nil, nil), got (%+v, %v)", got, err)
	}

	sess := session.New()
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Get(ctx, sess.ID); got != nil {
		t.Fatal("session survived Delete")
	}
}

func TestExpiry(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	sess := session.New()
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	base := time.Now()
	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	if got, _ := s.Get(ctx, sess.ID); got != nil {
		t.Fatal("expired session still visible")
	}

	// sweep physically removes it
	s.sweep()
	s.mu.RLock()
	_, ok := s.sessions[sess.ID]
	s.mu.RUnlock()
	if ok {
		t.Fatal("sweep left the expired entry behind")
	}
}

func TestPutRefreshesTTL(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	sess := session.New()
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	base := time.Now()
	s.now = func() time.Time { return base.Add(50 * time.Minute) }
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.now = func() time.Time { return base.Add(100 * time.Minute) }
	if got, _ := s.Get(ctx, sess.ID); got == nil {
		t.Fatal("Put did not refresh the TTL")
	}
}

func TestBadSweepScheduleRejected(t *testing.T) {
	if _, err := New(time.Hour, "not a cron expression", nil); err == nil {
		t.Fatal("expected schedule parse error")
	}
}
