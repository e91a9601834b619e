package story

import (
	"context"
	"testing"
)

func testSession(setting string) *Session {
	return NewSession(setting, []Agent{
		{Name: "Kara", Role: "Protagonist", Eligible: true},
		{Name: "Vex", Role: "Antagonist"},
	}, "Cinematic")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	sess := testSession("a heist in a floating city")
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Setting != sess.Setting || len(got.Agents) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); err != ErrSessionNotFound {
		t.Errorf("Get: got %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); err != ErrSessionNotFound {
		t.Errorf("Delete: got %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	sess := testSession("an isolated scenario")
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating a returned session must not leak into the store.
	got, _ := store.Get(ctx, sess.ID)
	got.NarrativeHistory = append(got.NarrativeHistory, "rogue entry")
	got.State.Location = "nowhere"
	got.Agents[0].Name = "imposter"

	fresh, _ := store.Get(ctx, sess.ID)
	if len(fresh.NarrativeHistory) != 0 {
		t.Error("history mutation leaked into the store")
	}
	if fresh.State.Location != DefaultLocation {
		t.Errorf("state mutation leaked: %q", fresh.State.Location)
	}
	if fresh.Agents[0].Name != "Kara" {
		t.Errorf("agent mutation leaked: %q", fresh.Agents[0].Name)
	}

	// Same for the session handed to Create.
	sess.State.Location = "elsewhere"
	fresh, _ = store.Get(ctx, sess.ID)
	if fresh.State.Location != DefaultLocation {
		t.Errorf("caller mutation leaked: %q", fresh.State.Location)
	}
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	sess := testSession("a persistent scenario")
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess.TurnCount = 5
	sess.NarrativeHistory = append(sess.NarrativeHistory, "turn five prose")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.TurnCount != 5 || len(got.NarrativeHistory) != 1 {
		t.Errorf("Save did not persist: %+v", got)
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, testSession("scenario")); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("List returned %d sessions, want 3", len(sessions))
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()
	ctx := context.Background()

	if err := store.Create(ctx, testSession("too late")); err != ErrStoreClosed {
		t.Errorf("Create after close: got %v, want ErrStoreClosed", err)
	}
	if _, err := store.Get(ctx, "any"); err != ErrStoreClosed {
		t.Errorf("Get after close: got %v, want ErrStoreClosed", err)
	}
}
