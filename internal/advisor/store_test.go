package advisor_test

import (
	"testing"

	"github.com/edubot-ec/edubot/internal/advisor"
)

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := advisor.NewMemoryStore()

	sess, err := store.GetOrCreate("student-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("session should get an ID")
	}
	if sess.UserID != "student-1" {
		t.Errorf("UserID = %q, want student-1", sess.UserID)
	}

	again, err := store.GetOrCreate("student-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if again.ID != sess.ID {
		t.Error("active session should be reused")
	}
}

func TestMemoryStore_GetOrCreate_EmptyUser(t *testing.T) {
	store := advisor.NewMemoryStore()
	if _, err := store.GetOrCreate(""); err == nil {
		t.Error("expected error for empty user_id")
	}
}

func TestMemoryStore_EndStartsFresh(t *testing.T) {
	store := advisor.NewMemoryStore()

	first, err := store.GetOrCreate("student-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if err := store.End(first.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	second, err := store.GetOrCreate("student-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if second.ID == first.ID {
		t.Error("an ended session must not be reused")
	}
}

func TestMemoryStore_End_NotFound(t *testing.T) {
	store := advisor.NewMemoryStore()
	if err := store.End("missing"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := advisor.NewMemoryStore()

	sess, err := store.GetOrCreate("student-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	sess.Context.LastMentionedSubject = "Física"

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Context.LastMentionedSubject != "Física" {
		t.Errorf("LastMentionedSubject = %q", got.Context.LastMentionedSubject)
	}
	if got.UpdatedAt.Before(got.StartedAt) {
		t.Error("UpdatedAt should advance on save")
	}
}

func TestMemoryStore_Save_NoID(t *testing.T) {
	store := advisor.NewMemoryStore()
	if err := store.Save(&advisor.Session{}); err == nil {
		t.Error("expected error for session without ID")
	}
}
