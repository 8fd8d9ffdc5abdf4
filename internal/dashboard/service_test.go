package dashboard

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls atomic.Int64
	stats Stats
}

func (r *countingRepo) CountStats(_ context.Context) (Stats, error) {
	r.calls.Add(1)
	return r.stats, nil
}

func testCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStatsServedFromCache(t *testing.T) {
	repo := &countingRepo{stats: Stats{Alunos: 120, Professores: 14, AtestadosPendentes: 3}}
	svc := NewService(slog.Default(), repo, testCache(t), time.Minute)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), first.Alunos)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), repo.calls.Load(), "second read must hit the cache")
}

func TestStatsWithoutCache(t *testing.T) {
	repo := &countingRepo{stats: Stats{Professores: 5}}
	svc := NewService(slog.Default(), repo, nil, time.Minute)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Professores)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.calls.Load())
}
