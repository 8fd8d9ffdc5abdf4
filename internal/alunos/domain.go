package alunos

import "time"

// Aluno represents a student record.
type Aluno struct {
	ID        int64
	Matricula string
	Nome      string
	Sobrenome string
	CPF       string
	Email     string
	Turma     string
	FotoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
