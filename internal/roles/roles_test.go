package roles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escolaweb/escolaweb/internal/roles"
)

func TestRankOrdering(t *testing.T) {
	all := roles.All()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		require.Greater(t, all[i].Rank(), all[i-1].Rank())
	}
	require.Equal(t, 1, roles.Aluno.Rank())
	require.Equal(t, 4, roles.Admin.Rank())
}

func TestHasPermission(t *testing.T) {
	for _, held := range roles.All() {
		for _, required := range roles.All() {
			expected := held.Rank() >= required.Rank()
			require.Equal(t, expected, roles.HasPermission(held, required),
				"held=%s required=%s", held, required)
		}
	}
	require.True(t, roles.HasPermission(roles.Coordenador, roles.Professor))
	require.False(t, roles.HasPermission(roles.Professor, roles.Coordenador))
	require.True(t, roles.HasPermission(roles.Admin, roles.Admin))
}

func TestHasPermissionRejectsInvalidRoles(t *testing.T) {
	require.False(t, roles.HasPermission(roles.Role(0), roles.Aluno))
	require.False(t, roles.HasPermission(roles.Role(9), roles.Admin))
	require.False(t, roles.HasPermission(roles.Admin, roles.Role(0)))
}

func TestAccessibleLevels(t *testing.T) {
	require.Equal(t, []roles.Role{roles.Aluno}, roles.AccessibleLevels(roles.Aluno))
	require.Equal(t,
		[]roles.Role{roles.Aluno, roles.Professor, roles.Coordenador},
		roles.AccessibleLevels(roles.Coordenador))
	require.Len(t, roles.AccessibleLevels(roles.Admin), 4)
}

func TestParseRoundTrip(t *testing.T) {
	for _, role := range roles.All() {
		parsed, err := roles.Parse(role.String())
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}

	parsed, err := roles.Parse("  Coordenador ")
	require.NoError(t, err)
	require.Equal(t, roles.Coordenador, parsed)

	_, err = roles.Parse("diretor")
	require.Error(t, err)
}
