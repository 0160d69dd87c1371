package auth

import (
	"testing"
	"time"
)

func TestRole_Levels(t *testing.T) {
	if RoleViewer.Level() != 1 || RoleEditor.Level() != 2 || RoleAdmin.Level() != 3 {
		t.Fatalf("unexpected levels: viewer=%d editor=%d admin=%d",
			RoleViewer.Level(), RoleEditor.Level(), RoleAdmin.Level())
	}
	if Role("superuser").Level() != 0 {
		t.Fatalf("unknown role must be level 0")
	}
}

func TestRole_Meets(t *testing.T) {
	if !RoleAdmin.Meets(RoleViewer) {
		t.Fatalf("admin should meet viewer")
	}
	if RoleViewer.Meets(RoleEditor) {
		t.Fatalf("viewer should not meet editor")
	}
	if !RoleViewer.Meets("") {
		t.Fatalf("empty requirement should pass for any authenticated role")
	}
	// Unknown roles fail comparisons instead of erroring.
	if Role("globalRole:weird").Meets(RoleViewer) {
		t.Fatalf("unknown role should fail every comparison")
	}
	if !Role("mystery").Meets("") {
		t.Fatalf("empty requirement passes even for unknown roles")
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatalf("session should not be expired yet")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("session should be expired")
	}
}

func TestSession_User(t *testing.T) {
	s := Session{
		ID:            "tok-1",
		UserID:        "u-1",
		FirstName:     "Ada",
		Email:         "ada@example.com",
		Role:          RoleEditor,
		EmailVerified: true,
	}
	u := s.User()
	if u.ID != "u-1" || u.Email != "ada@example.com" || u.Role != RoleEditor || !u.EmailVerified {
		t.Fatalf("unexpected user: %+v", u)
	}
}
