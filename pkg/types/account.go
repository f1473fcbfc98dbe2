package types

import (
	"strings"
	"time"
)

// Account is a registered customer. Accounts are immutable once created.
type Account struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SignupDate time.Time `json:"signup_date"`
}

// Credential is the caller identity supplied by the transport layer.
// It is trusted as-is; only its presence is checked.
type Credential struct {
	Name  string
	Email string
}

// IsZero reports whether the credential carries no email
func (c Credential) IsZero() bool {
	return c.Email == ""
}

// Normalize returns the credential with surrounding whitespace removed, the
// form accounts are stored under
func (c Credential) Normalize() Credential {
	return Credential{Name: strings.TrimSpace(c.Name), Email: strings.TrimSpace(c.Email)}
}

func (c Credential) String() string {
	if c.Name == "" {
		return c.Email
	}
	return c.Name + " <" + c.Email + ">"
}
