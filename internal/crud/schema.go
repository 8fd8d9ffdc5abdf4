package crud

import "github.com/jackc/pgx/v5/pgxpool"

// SchoolRegistry wires the school collections into a Registry. Account and
// session tables are deliberately absent: credentials never travel through
// the generic pathway.
func SchoolRegistry(pool *pgxpool.Pool) *Registry {
	registry := NewRegistry()

	registry.Register(NewTable(pool, TableConfig{
		Table:      "alunos",
		PrimaryKey: "id",
		Columns:    []string{"id", "matricula", "nome", "sobrenome", "cpf", "email", "turma", "foto_url"},
		Relations: []Relation{
			{Name: "presencas", Table: "presencas", ForeignKey: "aluno_id"},
			{Name: "notas", Table: "notas", ForeignKey: "aluno_id"},
			{Name: "atestados", Table: "atestados", ForeignKey: "aluno_id"},
		},
	}), "aluno")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "professores",
		PrimaryKey: "id",
		Columns:    []string{"id", "nome", "sobrenome", "cpf", "email", "disciplina", "cargo", "foto_url"},
	}), "professor")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "aulas",
		PrimaryKey: "id",
		Columns:    []string{"id", "professor_id", "turma", "disciplina", "data", "horario", "conteudo"},
		Relations: []Relation{
			{Name: "presencas", Table: "presencas", ForeignKey: "aula_id"},
		},
	}), "aula")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "presencas",
		PrimaryKey: "id",
		Columns:    []string{"id", "aula_id", "aluno_id", "presente", "abonada"},
	}), "presenca", "presença", "presenças")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "notas",
		PrimaryKey: "id",
		Columns:    []string{"id", "aluno_id", "professor_id", "disciplina", "bimestre", "valor"},
	}), "nota")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "atestados",
		PrimaryKey: "id",
		Columns:    []string{"id", "aluno_id", "inicio", "fim", "motivo", "arquivo_url", "status", "revisor_cpf", "parecer"},
	}), "atestado")

	registry.Register(NewTable(pool, TableConfig{
		Table:      "precadastros",
		PrimaryKey: "id",
		Columns:    []string{"id", "nome", "sobrenome", "cpf", "email", "turma", "status", "revisor_cpf", "parecer"},
	}), "precadastro", "pré-cadastro")

	return registry
}
