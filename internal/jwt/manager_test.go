package jwt

import (
	"errors"
	"testing"
	"time"

	"quicklift/internal/domain/user"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	signed, _, err := mgr.IssueUserToken("user-1", user.RoleDriver, "driver-1")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}

	_, claims, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != user.RoleDriver || claims.DriverID != "driver-1" {
		t.Fatalf("claims = %+v", claims)
	}

	if err := RoleAllowed(claims, user.RoleDriver, user.RoleAdmin); err != nil {
		t.Fatalf("RoleAllowed: %v", err)
	}
	if err := RoleAllowed(claims, user.RoleRider); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("got %v, want ErrRoleForbidden", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewManager("secret-a", time.Hour).IssueUserToken("user-1", user.RoleRider, "")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if _, _, err := NewManager("secret-b", time.Hour).ParseAndValidate(signed); err == nil {
		t.Fatal("token signed with different secret validated")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewManager("test-secret", -time.Minute)
	signed, _, err := mgr.IssueUserToken("user-1", user.RoleRider, "")
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	if _, _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestIssueRejectsInvalidRole(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)
	if _, _, err := mgr.IssueUserToken("user-1", user.Role("SUPERUSER"), ""); err == nil {
		t.Fatal("invalid role accepted")
	}
}

func TestValidateWSAuth(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)
	signed, _, _ := mgr.IssueUserToken("user-1", user.RoleDriver, "driver-1")

	frame := []byte(`{"type":"auth","token":"Bearer ` + signed + `"}`)
	result, err := ValidateWSAuth(frame, mgr, user.RoleDriver)
	if err != nil {
		t.Fatalf("ValidateWSAuth: %v", err)
	}
	if result.Claims.DriverID != "driver-1" {
		t.Fatalf("claims = %+v", result.Claims)
	}

	if _, err := ValidateWSAuth([]byte(`{"type":"ping"}`), mgr, user.RoleDriver); !errors.Is(err, ErrBadAuthMsg) {
		t.Fatalf("got %v, want ErrBadAuthMsg", err)
	}
	if _, err := ValidateWSAuth([]byte(`{"type":"auth","token":"`+signed+`"}`), mgr, user.RoleDriver); !errors.Is(err, ErrBadTokenWrap) {
		t.Fatalf("got %v, want ErrBadTokenWrap", err)
	}
	if _, err := ValidateWSAuth(frame, mgr, user.RoleRider); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("got %v, want ErrRoleForbidden", err)
	}
}
