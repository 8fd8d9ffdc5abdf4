package auth

import (
	"time"

	"github.com/escolaweb/escolaweb/internal/roles"
)

// Account represents a stored user account, keyed by CPF.
type Account struct {
	CPF          string
	PasswordHash string
	Role         roles.Role
	Ativo        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile carries the display fields merged into a session at login.
// Which backing record it comes from depends on the acting role.
type Profile struct {
	ID        int64
	Nome      string
	Sobrenome string
	Email     string
	FotoURL   string
}

// Principal is the result of a successful authentication. ActualRole is the
// role stored on the account; ActingRole is the role the session operates
// as, never ranked above ActualRole.
type Principal struct {
	CPF        string
	ActualRole roles.Role
	ActingRole roles.Role
	Profile    Profile
}
