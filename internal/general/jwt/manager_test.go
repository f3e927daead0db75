package jwt

import (
	"testing"
	"time"

	"commuto/internal/domain/user"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager("test-secret", time.Hour)
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	signed, _, err := mgr.IssueUserToken("user-1", user.RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, claims, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != user.RoleDriver {
		t.Errorf("claims = %+v", claims)
	}

	p, err := claims.Principal()
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if p.UserID != "user-1" || !p.Role.IsDriver() {
		t.Errorf("principal = %+v", p)
	}
}

func TestIssueRejectsInvalidRole(t *testing.T) {
	mgr := newTestManager(t)
	if _, _, err := mgr.IssueUserToken("user-1", user.Role("ADMIN")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewManager("secret-a", time.Hour).IssueUserToken("u", user.RolePassenger)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := NewManager("secret-b", time.Hour).ParseAndValidate(signed); err == nil {
		t.Error("expected signature failure")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewManager("test-secret", -time.Minute)
	signed, _, err := mgr.IssueUserToken("u", user.RolePassenger)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Error("expected expiry failure")
	}
}

func TestValidateWSAuth(t *testing.T) {
	mgr := newTestManager(t)
	signed, _, err := mgr.IssueUserToken("drv-1", user.RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	frame := []byte(`{"type":"auth","token":"Bearer ` + signed + `"}`)
	res, err := ValidateWSAuth(frame, mgr, user.RolePassenger, user.RoleDriver)
	if err != nil {
		t.Fatalf("ws auth: %v", err)
	}
	if res.Claims.Subject != "drv-1" {
		t.Errorf("subject = %q", res.Claims.Subject)
	}

	// role not in the allow list
	if _, err := ValidateWSAuth(frame, mgr, user.RolePassenger); err != ErrRoleForbidden {
		t.Errorf("err = %v, want ErrRoleForbidden", err)
	}

	// missing Bearer wrapping
	bad := []byte(`{"type":"auth","token":"` + signed + `"}`)
	if _, err := ValidateWSAuth(bad, mgr, user.RoleDriver); err != ErrBadTokenWrap {
		t.Errorf("err = %v, want ErrBadTokenWrap", err)
	}

	// wrong message type
	if _, err := ValidateWSAuth([]byte(`{"type":"ping"}`), mgr, user.RoleDriver); err != ErrBadAuthMsg {
		t.Errorf("err = %v, want ErrBadAuthMsg", err)
	}
}
