package professores

import "time"

// Professor represents a teaching or coordination staff record. The Cargo
// field distinguishes plain professors from coordinators.
type Professor struct {
	ID         int64
	Nome       string
	Sobrenome  string
	CPF        string
	Email      string
	Disciplina string
	Cargo      string
	FotoURL    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Known cargo values.
const (
	CargoProfessor   = "professor"
	CargoCoordenador = "coordenador"
)
