package crud

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTable(t *testing.T) {
	cases := map[string]string{
		"Alunos":      "alunos",
		"  aulas  ":   "aulas",
		"Presenças":   "presencas",
		"presença":    "presenca",
		"Pré-Cadastro": "pre-cadastro",
		"NOTAS":       "notas",
	}
	for input, want := range cases {
		require.Equal(t, want, normalizeTable(input), "input %q", input)
	}
}
