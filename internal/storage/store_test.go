package storage

import (
	"context"
	"testing"
	"time"

	"tuneroom/internal/relay"
)

func TestProfileLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected no profile yet, got %+v", profile)
	}

	if err := store.SaveProfile(ctx, Profile{DisplayName: "Alice", FavoriteGenre: "indie"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := store.SaveProfile(ctx, Profile{DisplayName: "Alice", FavoriteGenre: "rock"}); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}

	profile, err = store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile after save: %v", err)
	}
	if profile == nil || profile.DisplayName != "Alice" || profile.FavoriteGenre != "rock" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestRecentRooms(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.TouchRoom(ctx, "r1", "chill beats"); err != nil {
		t.Fatalf("TouchRoom: %v", err)
	}
	if err := store.TouchRoom(ctx, "r2", "late night"); err != nil {
		t.Fatalf("TouchRoom: %v", err)
	}
	// revisiting must not duplicate the entry or blank the name
	if err := store.TouchRoom(ctx, "r1", ""); err != nil {
		t.Fatalf("TouchRoom revisit: %v", err)
	}

	visits, err := store.RecentRooms(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRooms: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(visits))
	}
	for _, v := range visits {
		if v.Key == "r1" && v.Name != "chill beats" {
			t.Fatalf("revisit must keep the known name, got %q", v.Name)
		}
	}
}

func TestMessageHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		msg := relay.ChatMessage{
			ID:        content,
			UserID:    "u1",
			Username:  "Alice",
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendMessage(ctx, "r1", msg); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	// replayed duplicate is ignored
	if err := store.AppendMessage(ctx, "r1", relay.ChatMessage{ID: "first", Content: "first", Timestamp: base}); err != nil {
		t.Fatalf("AppendMessage duplicate: %v", err)
	}

	msgs, err := store.MessagesForRoom(ctx, "r1", 2)
	if err != nil {
		t.Fatalf("MessagesForRoom: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Fatalf("expected the latest messages oldest-first, got %+v", msgs)
	}

	other, err := store.MessagesForRoom(ctx, "r2", 10)
	if err != nil {
		t.Fatalf("MessagesForRoom other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("history must be scoped per room, got %+v", other)
	}
}

func TestQueueRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracks := []relay.Track{
		{ID: "t1", MediaID: "m1", Title: "One", Channel: "Ch", AddedBy: "Alice", AddedAt: added},
		{ID: "t2", MediaID: "m2", Title: "Two", Channel: "Ch", AddedBy: "Bob", AddedAt: added},
	}
	if err := store.SaveQueue(ctx, "r1", tracks); err != nil {
		t.Fatalf("SaveQueue: %v", err)
	}

	got, err := store.QueueForRoom(ctx, "r1")
	if err != nil {
		t.Fatalf("QueueForRoom: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Fatalf("unexpected queue: %+v", got)
	}

	// saving again replaces, not appends
	if err := store.SaveQueue(ctx, "r1", tracks[1:]); err != nil {
		t.Fatalf("SaveQueue replace: %v", err)
	}
	got, err = store.QueueForRoom(ctx, "r1")
	if err != nil {
		t.Fatalf("QueueForRoom after replace: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("expected the replaced queue, got %+v", got)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := "sqlite://file:" + t.Name() + "?mode=memory&cache=shared"
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
