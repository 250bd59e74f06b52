package auth

import (
	"strings"
	"testing"
	"time"
)

func TestManagerLoginAndLookup(t *testing.T) {
	mgr := NewManager(Config{Username: "Admin", Password: "secret", SessionTTL: time.Minute})
	session, err := mgr.Login("admin", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Token == "" || !session.Admin {
		t.Fatalf("expected admin session, got %+v", session)
	}
	got, ok := mgr.Lookup(session.Token)
	if !ok || got.User != "admin" {
		t.Fatalf("expected session to validate, got %+v %v", got, ok)
	}
	mgr.Logout(session.Token)
	if _, ok := mgr.Lookup(session.Token); ok {
		t.Fatalf("expected logout to drop the session")
	}
}

func TestManagerRejectsBadCredentials(t *testing.T) {
	mgr := NewManager(Config{Username: "admin", Password: "secret"})
	if _, err := mgr.Login("admin", "wrong"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := mgr.Login("", "secret"); err == nil {
		t.Fatalf("expected error for empty username")
	}
	disabled := NewManager(Config{Username: "admin"})
	if _, err := disabled.Login("admin", ""); err == nil {
		t.Fatalf("expected login to be disabled without a password")
	}
}

func TestGuestSessions(t *testing.T) {
	mgr := NewManager(Config{})
	a, b := mgr.Guest(), mgr.Guest()
	if a.User == b.User || !strings.HasPrefix(a.User, "guest-") || a.Admin {
		t.Fatalf("unexpected guests %+v %+v", a, b)
	}
	if _, ok := mgr.Lookup(a.Token); !ok {
		t.Fatalf("guest session should validate")
	}
}

func TestManagerExpiresSessions(t *testing.T) {
	mgr := NewManager(Config{Username: "admin", Password: "secret", SessionTTL: time.Minute})
	now := time.Now()
	mgr.now = func() time.Time { return now }
	session, err := mgr.Login("admin", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok := mgr.Lookup(session.Token); ok {
		t.Fatalf("expected session to expire")
	}
}

func TestManagerSweepsExpiredGuests(t *testing.T) {
	mgr := NewManager(Config{SessionTTL: time.Minute})
	now := time.Now()
	mgr.now = func() time.Time { return now }
	for i := 0; i < sweepThreshold; i++ {
		mgr.Guest()
	}
	now = now.Add(2 * time.Minute)
	live := mgr.Guest()
	if mgr.Len() != 1 {
		t.Fatalf("expected expired guests to be swept, %d sessions left", mgr.Len())
	}
	if _, ok := mgr.Lookup(live.Token); !ok {
		t.Fatalf("expected the new session to survive the sweep")
	}
}
