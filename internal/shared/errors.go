package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Every login failure
	// branch maps to this error so the client cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a unique-constraint conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage translates internal errors into a message suitable for a
// rendered page. Unknown errors collapse to a generic message so storage
// details never leak into HTML.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado"
	case errors.Is(err, ErrDuplicate):
		return "Já existe um registro com esses dados"
	case errors.Is(err, ErrInvalidCredentials):
		return "CPF, senha ou perfil inválidos"
	default:
		return "Não foi possível concluir a operação"
	}
}
