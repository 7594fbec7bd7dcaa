package auth

import (
	"path/filepath"
	"testing"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewService(db)
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := testService(t)

	user, err := s.CreateUser("lehrer", "geheim-genug")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == 0 {
		t.Error("user ID not set")
	}
	if user.PasswordHash == "geheim-genug" {
		t.Error("password stored in plain text")
	}

	got, err := s.Authenticate("lehrer", "geheim-genug")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Username != "lehrer" {
		t.Fatalf("authenticate returned %+v", got)
	}

	got, err = s.Authenticate("lehrer", "falsch")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("wrong password must not authenticate")
	}

	got, err = s.Authenticate("unbekannt", "geheim-genug")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("unknown user must not authenticate")
	}
}

func TestUpdatePassword(t *testing.T) {
	s := testService(t)

	user, err := s.CreateUser("lehrer", "altes-passwort")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePassword(user.ID, "neues-passwort"); err != nil {
		t.Fatal(err)
	}

	if got, _ := s.Authenticate("lehrer", "altes-passwort"); got != nil {
		t.Error("old password still works")
	}
	if got, _ := s.Authenticate("lehrer", "neues-passwort"); got == nil {
		t.Error("new password rejected")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := testService(t)

	user, err := s.CreateUser("lehrer", "geheim-genug")
	if err != nil {
		t.Fatal(err)
	}

	session, err := s.CreateSession(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}

	loaded, err := s.GetSession(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.UserID != user.ID {
		t.Fatalf("session lookup returned %+v", loaded)
	}

	if err := s.DeleteSession(session.ID); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.GetSession(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("deleted session still found")
	}
}

func TestExpiredSessionIsRemoved(t *testing.T) {
	s := testService(t)

	user, err := s.CreateUser("lehrer", "geheim-genug")
	if err != nil {
		t.Fatal(err)
	}
	session, err := s.CreateSession(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.db.Exec("UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE id = ?", session.ID); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.GetSession(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("expired session returned")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("expired session row not deleted")
	}
}
