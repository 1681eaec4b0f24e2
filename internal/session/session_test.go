package session

import (
	"context"
	"testing"
	"time"

	"github.com/tobilabs/salesbot/internal/prefs"
)

func TestMemoryStoreGetOrCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "abc")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if sess.State != StateGreeting {
		t.Errorf("new session should start in greeting, got %q", sess.State)
	}

	if _, err := store.GetOrCreate(ctx, "abc"); err != nil {
		t.Fatalf("GetOrCreate second call: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 session, got %d", store.Count())
	}
}

func TestMemoryStoreHandsOutSnapshots(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "abc")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	// Unsaved mutations must stay invisible to readers.
	sess.AddTurn("user", "hello")
	sess.State = StateRecommending

	seen, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(seen.Turns) != 0 || seen.State != StateGreeting {
		t.Errorf("reader observed unsaved mutations: %d turns, state %q", len(seen.Turns), seen.State)
	}

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	seen, err = store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get after save: %v", err)
	}
	if len(seen.Turns) != 1 || seen.State != StateRecommending {
		t.Errorf("saved state not visible: %d turns, state %q", len(seen.Turns), seen.State)
	}

	// The snapshot a reader holds must not alias the stored record.
	seen.AddTurn("user", "tamper")
	fresh, _ := store.Get(ctx, "abc")
	if len(fresh.Turns) != 1 {
		t.Errorf("reader snapshot aliases the stored record: %d turns", len(fresh.Turns))
	}
}

func TestMemoryStoreSaveBumpsUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "abc")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	created := sess.UpdatedAt

	time.Sleep(time.Millisecond)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !sess.UpdatedAt.After(created) {
		t.Errorf("Save did not bump UpdatedAt: %v vs %v", sess.UpdatedAt, created)
	}
}

func TestGetDoesNotCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Get must not create sessions, have %d", store.Count())
	}

	if _, err := store.GetOrCreate(ctx, "abc"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := store.Get(ctx, "abc"); err != nil {
		t.Errorf("Get after create: %v", err)
	}
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetOrCreate(context.Background(), ""); err != ErrEmptySessionID {
		t.Errorf("expected ErrEmptySessionID, got %v", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewMemorySQLiteStore()
	if err != nil {
		t.Fatalf("NewMemorySQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	sess.State = StateRecommending
	sess.AddTurn("user", "hello")
	sess.Prefs.Brand = prefs.StringAttr{Value: "Apple", Confidence: prefs.ConfidenceExplicit, Set: true}
	sess.MarkPresented("offer-1")
	sess.LastRecommended = []string{"p1", "p2"}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate after save: %v", err)
	}
	if loaded.State != StateRecommending {
		t.Errorf("state not persisted: %q", loaded.State)
	}
	if len(loaded.Turns) != 1 || loaded.Turns[0].Content != "hello" {
		t.Errorf("turns not persisted: %+v", loaded.Turns)
	}
	if loaded.Prefs.Brand.Value != "Apple" || loaded.Prefs.Brand.Confidence != prefs.ConfidenceExplicit {
		t.Errorf("prefs not persisted: %+v", loaded.Prefs.Brand)
	}
	if loaded.ActiveOfferID != "offer-1" || !loaded.Presented("offer-1") {
		t.Errorf("offer bookkeeping not persisted: %+v", loaded)
	}
	if len(loaded.LastRecommended) != 2 {
		t.Errorf("last recommended not persisted: %v", loaded.LastRecommended)
	}
}

func TestRecordOfferResponse(t *testing.T) {
	sess := NewSession("s")
	sess.MarkPresented("offer-1")
	if sess.ActiveOfferID != "offer-1" {
		t.Fatalf("expected active offer, got %q", sess.ActiveOfferID)
	}

	sess.RecordOfferResponse("offer-1", false)
	if sess.ActiveOfferID != "" {
		t.Error("active offer should clear after a response")
	}
	if len(sess.DeclinedOffers) != 1 || sess.DeclinedOffers[0] != "offer-1" {
		t.Errorf("declined set wrong: %v", sess.DeclinedOffers)
	}

	sess.MarkPresented("offer-2")
	sess.RecordOfferResponse("offer-2", true)
	if len(sess.AcceptedOffers) != 1 || sess.AcceptedOffers[0] != "offer-2" {
		t.Errorf("accepted set wrong: %v", sess.AcceptedOffers)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sess := NewSession("s")
	sess.AddTurn("user", "hi")
	snapshot := sess.Clone()

	sess.AddTurn("assistant", "hello")
	sess.State = StateClosed

	if len(snapshot.Turns) != 1 {
		t.Errorf("clone shares turn slice: %d turns", len(snapshot.Turns))
	}
	if snapshot.State != StateGreeting {
		t.Errorf("clone state mutated: %q", snapshot.State)
	}
}
