package auth

import "github.com/apollostem/academy/internal/models"

// DenyReason distinguishes "log in" from "you lack permission" for clients.
type DenyReason string

const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyForbidden       DenyReason = "forbidden"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Authorize checks a verified credential against a required-role set.
// A nil credential (absent or failed verification upstream) is always
// unauthenticated. An empty required set means any authenticated caller of
// any role; it does not mean "no authentication". The gate has no knowledge
// of specific endpoints.
func Authorize(cred *Credential, requiredRoles ...models.Role) Decision {
	if cred == nil {
		return Decision{Allowed: false, Reason: DenyUnauthenticated}
	}
	if len(requiredRoles) == 0 {
		return Decision{Allowed: true}
	}
	for _, r := range requiredRoles {
		if cred.Role == r {
			return Decision{Allowed: true}
		}
	}
	return Decision{Allowed: false, Reason: DenyForbidden}
}
