// Package store is the remote persistence tier: the authenticated
// per-user table of evaluation rows and the profiles used for login
// and admin-wide aggregation.
package store

import (
	"fmt"

	"github.com/CodBad25/oral-dnb/internal/session"
)

// Role is the closed set of profile roles. Branching on roles goes
// through this type, not raw strings.
type Role string

const (
	RoleJury      Role = "jury"
	RoleAdmin     Role = "admin"
	RolePrincipal Role = "principal"
)

// ParseRole validates a role string coming from storage or a token.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleJury, RoleAdmin, RolePrincipal:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanViewAllJuries reports whether the role sees every jury's rows.
func (r Role) CanViewAllJuries() bool {
	return r == RoleAdmin || r == RolePrincipal
}

// Profile is one account row.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	JuryNumber   string `json:"jury_number"`
	DisplayName  string `json:"display_name"`
	CreatedAt    int64  `json:"created_at"`
}

// Entry is one persisted evaluation row. The embedded state carries
// jury, candidate, scores, comments and timers; CurrentStep is always
// the summary step when read back.
type Entry struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"user_id"`
	JuryNumber string                  `json:"jury_number"`
	State      session.EvaluationState `json:"state"`
	CreatedAt  int64                   `json:"created_at"`
	UpdatedAt  int64                   `json:"updated_at"`
}
