package actions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dwellio/go-formstate/pkg/actions"
	"github.com/dwellio/go-formstate/pkg/listing"
)

func TestMemoryStore_CopiesRecords(t *testing.T) {
	store := actions.NewMemoryStore(nil)
	ctx := context.Background()

	amenities := []string{"Wifi"}
	p, err := store.CreateProperty(ctx, listing.Property{Name: "Loft", Amenities: amenities})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
	amenities[0] = "changed"
	p.Amenities[0] = "changed"

	stored, err := store.Property(ctx, p.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Wifi"}, stored.Amenities); diff != "" {
		t.Fatalf("store shares storage with caller (-want +got):\n%s", diff)
	}
}

func TestMemoryStore_UniqueEmails(t *testing.T) {
	store := actions.NewMemoryStore(nil)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, listing.User{Email: "ada@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateUser(ctx, listing.User{Email: "ADA@example.com"}); !errors.Is(err, actions.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryStore_ModifyUser(t *testing.T) {
	store := actions.NewMemoryStore(nil)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, listing.User{Email: "ada@example.com", Bookmarks: []string{"p1"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	if _, err := store.ModifyUser(ctx, user.ID, func(u *listing.User) error {
		u.Bookmarks = append(u.Bookmarks, "p2")
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	stored, _ := store.User(ctx, user.ID)
	if diff := cmp.Diff([]string{"p1"}, stored.Bookmarks); diff != "" {
		t.Fatalf("failed modify was saved (-want +got):\n%s", diff)
	}

	updated, err := store.ModifyUser(ctx, user.ID, func(u *listing.User) error {
		u.ID = "hijacked"
		u.Bookmarks = append(u.Bookmarks, "p2")
		return nil
	})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if updated.ID != user.ID {
		t.Fatalf("expected id %q to be kept, got %q", user.ID, updated.ID)
	}
	stored, _ = store.User(ctx, user.ID)
	if diff := cmp.Diff([]string{"p1", "p2"}, stored.Bookmarks); diff != "" {
		t.Fatalf("bookmarks mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.ModifyUser(ctx, "missing", func(*listing.User) error { return nil }); !errors.Is(err, actions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeletePropertyCascades(t *testing.T) {
	store := actions.NewMemoryStore(nil)
	ctx := context.Background()

	p, _ := store.CreateProperty(ctx, listing.Property{Owner: "owner"})
	user, _ := store.CreateUser(ctx, listing.User{Email: "guest@example.com", Bookmarks: []string{p.ID, "other"}})
	m, _ := store.CreateMessage(ctx, listing.Message{Recipient: "owner", Property: p.ID})

	if err := store.DeleteProperty(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Message(ctx, m.ID); !errors.Is(err, actions.ErrNotFound) {
		t.Fatalf("expected message to be removed, got %v", err)
	}
	reloaded, _ := store.User(ctx, user.ID)
	if diff := cmp.Diff([]string{"other"}, reloaded.Bookmarks); diff != "" {
		t.Fatalf("bookmarks mismatch (-want +got):\n%s", diff)
	}
	if err := store.DeleteProperty(ctx, p.ID); !errors.Is(err, actions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_MessagesOrder(t *testing.T) {
	clock := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	store := actions.NewMemoryStore(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	ctx := context.Background()

	older, _ := store.CreateMessage(ctx, listing.Message{Recipient: "owner", Body: "older"})
	read, _ := store.CreateMessage(ctx, listing.Message{Recipient: "owner", Body: "read", Read: true})
	newer, _ := store.CreateMessage(ctx, listing.Message{Recipient: "owner", Body: "newer"})
	_, _ = store.CreateMessage(ctx, listing.Message{Recipient: "someone else"})

	got, err := store.Messages(ctx, "owner")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var ids []string
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{newer.ID, older.ID, read.ID}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}
