package notas

import "time"

// Nota is one grade for one student, subject and term. The pair
// (aluno, disciplina, bimestre) is unique; relaunching a grade replaces it.
type Nota struct {
	ID          int64
	AlunoID     int64
	ProfessorID int64
	Disciplina  string
	Bimestre    int
	Valor       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bimestres per school year.
const BimestresPorAno = 4

// MediaAprovacao is the passing average.
const MediaAprovacao = 6.0
