package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vblinov/beamchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *SQLiteStore, email, fullName string) *store.User {
	t.Helper()

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: "hash",
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func TestUserRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice@example.com", "Alice")

	byID, err := s.GetUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != "alice@example.com" || byID.FullName != "Alice" {
		t.Fatalf("unexpected user: %+v", byID)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != alice.ID {
		t.Fatalf("expected same user, got %+v", byEmail)
	}

	if _, err := s.GetUserByID(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice@example.com", "Alice")

	// Only the profile pic changes; full name stays.
	updated, err := s.UpdateProfile(ctx, alice.ID, "", "https://cdn.example.com/alice.png")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Alice" || updated.ProfilePic != "https://cdn.example.com/alice.png" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	// Only the name changes; pic stays.
	updated, err = s.UpdateProfile(ctx, alice.ID, "Alice Cooper", "")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Alice Cooper" || updated.ProfilePic != "https://cdn.example.com/alice.png" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if _, err := s.UpdateProfile(ctx, uuid.NewString(), "Ghost", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersExcept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice@example.com", "Alice")
	createUser(t, s, "bob@example.com", "Bob")
	createUser(t, s, "carol@example.com", "Carol")

	users, err := s.ListUsersExcept(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == alice.ID {
			t.Fatalf("viewer included in listing")
		}
	}
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "alice@example.com", "Alice Smith")
	createUser(t, s, "bob@example.com", "Bob Smith")
	createUser(t, s, "carol@example.com", "Carol Jones")

	results, err := s.SearchUsers(ctx, "Smith")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}

	results, err = s.SearchUsers(ctx, "carol@")
	if err != nil {
		t.Fatalf("search by email: %v", err)
	}
	if len(results) != 1 || results[0].FullName != "Carol Jones" {
		t.Fatalf("unexpected email match: %+v", results)
	}
}

func saveMessage(t *testing.T, s *SQLiteStore, from, to *store.User, text string, at time.Time) *store.Message {
	t.Helper()

	msg := &store.Message{
		ID:         uuid.NewString(),
		SenderID:   from.ID,
		ReceiverID: to.ID,
		Text:       text,
		CreatedAt:  at,
	}
	if err := s.SaveMessage(context.Background(), msg); err != nil {
		t.Fatalf("save message: %v", err)
	}
	return msg
}

func TestMessagesBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice@example.com", "Alice")
	bob := createUser(t, s, "bob@example.com", "Bob")
	carol := createUser(t, s, "carol@example.com", "Carol")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	saveMessage(t, s, alice, bob, "one", base.Add(1*time.Second))
	saveMessage(t, s, bob, alice, "two", base.Add(2*time.Second))
	saveMessage(t, s, alice, carol, "other thread", base.Add(3*time.Second))
	last := saveMessage(t, s, alice, bob, "three", base.Add(4*time.Second))

	msgs, err := s.ListMessagesBetween(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("list between: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, msgs[i].Text)
		}
	}

	all, err := s.ListMessagesWith(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list with: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 messages involving alice, got %d", len(all))
	}

	// Direction of the arguments must not matter.
	latest, err := s.LastMessageBetween(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("last between: %v", err)
	}
	if latest.ID != last.ID {
		t.Fatalf("expected %s as last message, got %s", last.ID, latest.ID)
	}
}

func TestDeleteMessagesBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice@example.com", "Alice")
	bob := createUser(t, s, "bob@example.com", "Bob")
	carol := createUser(t, s, "carol@example.com", "Carol")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	saveMessage(t, s, alice, bob, "one", base.Add(1*time.Second))
	saveMessage(t, s, bob, alice, "two", base.Add(2*time.Second))
	saveMessage(t, s, alice, carol, "keep me", base.Add(3*time.Second))

	deleted, err := s.DeleteMessagesBetween(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("delete between: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", deleted)
	}

	if _, err := s.LastMessageBetween(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// The unrelated thread survives.
	kept, err := s.ListMessagesBetween(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("list kept: %v", err)
	}
	if len(kept) != 1 || kept[0].Text != "keep me" {
		t.Fatalf("unrelated messages affected: %+v", kept)
	}
}
