package auth

import (
	"testing"

	"github.com/apollostem/academy/internal/models"
)

func TestAuthorize_NilCredential(t *testing.T) {
	decision := Authorize(nil, models.RoleTeacher)
	if decision.Allowed {
		t.Fatal("expected deny for nil credential")
	}
	if decision.Reason != DenyUnauthenticated {
		t.Errorf("expected reason %q, got %q", DenyUnauthenticated, decision.Reason)
	}
}

func TestAuthorize_NilCredential_EmptyRoleSet(t *testing.T) {
	// Even with no role requirement, an absent credential is unauthenticated.
	decision := Authorize(nil)
	if decision.Allowed {
		t.Fatal("expected deny for nil credential with empty role set")
	}
	if decision.Reason != DenyUnauthenticated {
		t.Errorf("expected reason %q, got %q", DenyUnauthenticated, decision.Reason)
	}
}

func TestAuthorize_EmptyRoleSet_AllowsAnyRole(t *testing.T) {
	for _, role := range []models.Role{models.RoleStudent, models.RoleTeacher, models.RoleVolunteer, models.RoleParent} {
		cred := &Credential{UserID: "u1", Role: role}
		if decision := Authorize(cred); !decision.Allowed {
			t.Errorf("role %q: expected allow with empty role set", role)
		}
	}
}

func TestAuthorize_Member(t *testing.T) {
	cred := &Credential{UserID: "u1", Role: models.RoleTeacher}
	if decision := Authorize(cred, models.RoleTeacher); !decision.Allowed {
		t.Error("expected allow for exact role match")
	}
	if decision := Authorize(cred, models.RoleStudent, models.RoleTeacher); !decision.Allowed {
		t.Error("expected allow for membership in multi-role set")
	}
}

func TestAuthorize_NonMember(t *testing.T) {
	cred := &Credential{UserID: "u1", Role: models.RoleStudent}

	decision := Authorize(cred, models.RoleTeacher)
	if decision.Allowed {
		t.Fatal("expected deny for role not in set")
	}
	if decision.Reason != DenyForbidden {
		t.Errorf("expected reason %q, got %q", DenyForbidden, decision.Reason)
	}

	decision = Authorize(cred, models.RoleTeacher, models.RoleVolunteer)
	if decision.Allowed {
		t.Fatal("expected deny for role not in multi-role set")
	}
}
