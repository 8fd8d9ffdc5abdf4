// Package roles defines the school role hierarchy and the permission
// predicate every guard and the login flow rely on.
package roles

import (
	"fmt"
	"strings"
)

// Role is one of the four school roles, ordered by privilege.
type Role int

const (
	// Aluno is a student account, the lowest rank.
	Aluno Role = iota + 1
	// Professor teaches classes and records attendance and grades.
	Professor
	// Coordenador reviews atestados and pre-enrollment submissions.
	Coordenador
	// Admin has full access, the highest rank.
	Admin
)

var names = map[Role]string{
	Aluno:       "aluno",
	Professor:   "professor",
	Coordenador: "coordenador",
	Admin:       "admin",
}

// All lists every role in ascending rank order.
func All() []Role {
	return []Role{Aluno, Professor, Coordenador, Admin}
}

// Rank returns the numeric rank of a role. Unknown roles rank zero,
// below every valid role.
func (r Role) Rank() int {
	if !r.Valid() {
		return 0
	}
	return int(r)
}

// Valid reports whether r is one of the four defined roles.
func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

// String returns the lowercase role name.
func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Parse resolves a role name as stored in sessions and form values.
func Parse(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for role, name := range names {
		if name == normalized {
			return role, nil
		}
	}
	return 0, fmt.Errorf("roles: unknown role %q", value)
}

// HasPermission reports whether a holder of held may act with the
// privileges of required.
func HasPermission(held, required Role) bool {
	return held.Rank() >= required.Rank() && held.Valid() && required.Valid()
}

// AccessibleLevels returns every role held may act as, ascending.
func AccessibleLevels(held Role) []Role {
	var levels []Role
	for _, role := range All() {
		if role.Rank() <= held.Rank() {
			levels = append(levels, role)
		}
	}
	return levels
}
