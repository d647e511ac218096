package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lookup-erp/lookup/pkg/models"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "session.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dbPath
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LoadSession(ctx); err != nil || ok {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}

	want := models.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Subject:      "user-1",
		ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadSession(ctx)
	if err != nil || !ok {
		t.Fatalf("expected session, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionWithoutExpiry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, models.Session{AccessToken: "opaque"}); err != nil {
		t.Fatal(err)
	}
	got, _, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ExpiresAt.IsZero() {
		t.Errorf("expected zero expiry, got %v", got.ExpiresAt)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be filled in")
	}
}

func TestSaveSessionRejectsEmptyToken(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SaveSession(context.Background(), models.Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSessionVersionBumps(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	v0, err := s.SessionVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v0 != 0 {
		t.Errorf("expected version 0, got %d", v0)
	}

	_ = s.SaveSession(ctx, models.Session{AccessToken: "a"})
	_ = s.SaveSession(ctx, models.Session{AccessToken: "b"})
	_ = s.ClearSession(ctx)

	v, err := s.SessionVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != 3 {
		t.Errorf("expected version 3, got %d", v)
	}
	if _, ok, _ := s.LoadSession(ctx); ok {
		t.Error("expected session cleared")
	}
}

func TestVersionVisibleAcrossHandles(t *testing.T) {
	a, path := newTestStore(t)
	b, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	ctx := context.Background()

	if err := a.SaveSession(ctx, models.Session{AccessToken: "shared"}); err != nil {
		t.Fatal(err)
	}
	v, err := b.SessionVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Errorf("expected version 1 from second handle, got %d", v)
	}
	got, ok, err := b.LoadSession(ctx)
	if err != nil || !ok || got.AccessToken != "shared" {
		t.Errorf("second handle saw %+v ok=%v err=%v", got, ok, err)
	}
}

func TestKeyValue(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Value(ctx, "oauth.state"); err != nil || ok {
		t.Fatalf("expected missing value, got ok=%v err=%v", ok, err)
	}
	if err := s.SetValue(ctx, "oauth.state", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetValue(ctx, "oauth.state", "def"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Value(ctx, "oauth.state")
	if err != nil || !ok || v != "def" {
		t.Errorf("got %q ok=%v err=%v, want def", v, ok, err)
	}
	if err := s.DeleteValue(ctx, "oauth.state"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Value(ctx, "oauth.state"); ok {
		t.Error("expected value deleted")
	}
}

func TestChatHistory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ex := models.ChatExchange{
			ID:        fmt.Sprintf("ex-%d", i),
			Question:  fmt.Sprintf("q%d", i),
			Answer:    fmt.Sprintf("a%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendChat(ctx, ex); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ChatHistory(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].ID != "ex-0" || all[4].ID != "ex-4" {
		t.Fatalf("unexpected full history %+v", all)
	}
	if !all[2].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created_at not preserved: %v", all[2].CreatedAt)
	}

	latest, err := s.ChatHistory(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	ids := []string{latest[0].ID, latest[1].ID}
	if diff := cmp.Diff([]string{"ex-3", "ex-4"}, ids); diff != "" {
		t.Errorf("latest mismatch (-want +got):\n%s", diff)
	}

	if err := s.ClearChat(ctx); err != nil {
		t.Fatal(err)
	}
	all, _ = s.ChatHistory(ctx, 0)
	if len(all) != 0 {
		t.Errorf("expected empty history, got %d", len(all))
	}
}

func TestAppendChatDuplicateID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	ex := models.ChatExchange{ID: "dup", Question: "q"}
	if err := s.AppendChat(ctx, ex); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendChat(ctx, ex); err == nil {
		t.Error("expected error for duplicate id")
	}
}
