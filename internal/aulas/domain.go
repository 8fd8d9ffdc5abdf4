package aulas

import "time"

// Aula represents a scheduled class session for a turma.
type Aula struct {
	ID          int64
	ProfessorID int64
	Turma       string
	Disciplina  string
	Data        time.Time
	Horario     string
	Conteudo    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Presenca records one student's attendance for one aula. Abonada marks an
// absence excused by an approved medical certificate.
type Presenca struct {
	ID       int64
	AulaID   int64
	AlunoID  int64
	Presente bool
	Abonada  bool
}
