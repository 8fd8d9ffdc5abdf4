package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// memoryCollection implements every operation over an in-memory slice.
type memoryCollection struct {
	name    string
	records []map[string]any
	nextID  int64
	calls   int
}

func newMemoryCollection(name string) *memoryCollection {
	return &memoryCollection{name: name}
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) Insert(ctx context.Context, data map[string]any) (map[string]any, error) {
	c.calls++
	c.nextID++
	record := make(map[string]any, len(data)+1)
	for k, v := range data {
		record[k] = v
	}
	record["id"] = c.nextID
	c.records = append(c.records, record)
	return record, nil
}

func (c *memoryCollection) FindMany(ctx context.Context, relations []string) ([]map[string]any, error) {
	c.calls++
	out := make([]map[string]any, len(c.records))
	copy(out, c.records)
	return out, nil
}

func (c *memoryCollection) Update(ctx context.Context, pk string, data map[string]any) (map[string]any, error) {
	c.calls++
	for _, record := range c.records {
		if record[pk] == data[pk] {
			for k, v := range data {
				if k != pk {
					record[k] = v
				}
			}
			return record, nil
		}
	}
	return nil, ErrNotFound
}

func (c *memoryCollection) Delete(ctx context.Context, pk string, data map[string]any) error {
	c.calls++
	for i, record := range c.records {
		if record[pk] == data[pk] {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (c *memoryCollection) Upsert(ctx context.Context, where, data map[string]any) (map[string]any, error) {
	c.calls++
outer:
	for _, record := range c.records {
		for k, v := range where {
			if record[k] != v {
				continue outer
			}
		}
		for k, v := range data {
			record[k] = v
		}
		return record, nil
	}
	merged := make(map[string]any, len(where)+len(data))
	for k, v := range where {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return c.Insert(ctx, merged)
}

// readOnlyCollection supports get only.
type readOnlyCollection struct{ name string }

func (c readOnlyCollection) Name() string { return c.name }

func (c readOnlyCollection) FindMany(ctx context.Context, relations []string) ([]map[string]any, error) {
	return []map[string]any{}, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *memoryCollection) {
	t.Helper()
	alunos := newMemoryCollection("alunos")
	registry := NewRegistry()
	registry.Register(alunos, "aluno")
	registry.Register(readOnlyCollection{name: "presencas"}, "presença")
	dispatcher, err := NewDispatcher(registry)
	require.NoError(t, err)
	return dispatcher, alunos
}

func TestDispatcherRejectsEmptyRegistry(t *testing.T) {
	_, err := NewDispatcher(NewRegistry())
	require.Error(t, err)
}

func TestInsertThenGetRoundTrip(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	ctx := context.Background()

	inserted, err := dispatcher.Dispatch(ctx, Request{
		Operation: OpInsert,
		Table:     "alunos",
		Data:      map[string]any{"nome": "Clara", "turma": "3B"},
	})
	require.NoError(t, err)
	record := inserted.(map[string]any)
	require.Equal(t, "Clara", record["nome"])
	require.NotZero(t, record["id"])

	fetched, err := dispatcher.Dispatch(ctx, Request{Operation: OpGet, Table: "alunos"})
	require.NoError(t, err)
	records := fetched.([]map[string]any)
	require.Len(t, records, 1)
	require.Equal(t, "Clara", records[0]["nome"])
	require.Equal(t, "3B", records[0]["turma"])
}

func TestUpdateTargetsSingleRecord(t *testing.T) {
	dispatcher, alunos := newTestDispatcher(t)
	ctx := context.Background()

	for _, nome := range []string{"Ana", "Bruno", "Carla"} {
		_, err := dispatcher.Dispatch(ctx, Request{
			Operation: OpInsert,
			Table:     "alunos",
			Data:      map[string]any{"nome": nome},
		})
		require.NoError(t, err)
	}

	updated, err := dispatcher.Dispatch(ctx, Request{
		Operation:  OpUpdate,
		Table:      "alunos",
		PrimaryKey: "id",
		Data:       map[string]any{"id": int64(2), "nome": "Bruno Silva"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bruno Silva", updated.(map[string]any)["nome"])

	require.Equal(t, "Ana", alunos.records[0]["nome"])
	require.Equal(t, "Carla", alunos.records[2]["nome"])
}

func TestUpdateMissingRecordFails(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation:  OpUpdate,
		Table:      "alunos",
		PrimaryKey: "id",
		Data:       map[string]any{"id": int64(7), "nome": "X"},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRecord(t *testing.T) {
	dispatcher, alunos := newTestDispatcher(t)
	ctx := context.Background()

	_, err := dispatcher.Dispatch(ctx, Request{
		Operation: OpInsert,
		Table:     "alunos",
		Data:      map[string]any{"nome": "Davi"},
	})
	require.NoError(t, err)

	result, err := dispatcher.Dispatch(ctx, Request{
		Operation:  OpDelete,
		Table:      "alunos",
		PrimaryKey: "id",
		Data:       map[string]any{"id": int64(1)},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"deleted": true}, result)
	require.Empty(t, alunos.records)

	_, err = dispatcher.Dispatch(ctx, Request{
		Operation:  OpDelete,
		Table:      "alunos",
		PrimaryKey: "id",
		Data:       map[string]any{"id": int64(1)},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertUpdatesOrCreates(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	ctx := context.Background()

	created, err := dispatcher.Dispatch(ctx, Request{
		Operation: OpUpsert,
		Table:     "alunos",
		Where:     map[string]any{"cpf": "12345678901"},
		Data:      map[string]any{"nome": "Elisa"},
	})
	require.NoError(t, err)
	require.Equal(t, "Elisa", created.(map[string]any)["nome"])

	updated, err := dispatcher.Dispatch(ctx, Request{
		Operation: OpUpsert,
		Table:     "alunos",
		Where:     map[string]any{"cpf": "12345678901"},
		Data:      map[string]any{"nome": "Elisa Prado"},
	})
	require.NoError(t, err)
	require.Equal(t, "Elisa Prado", updated.(map[string]any)["nome"])

	fetched, err := dispatcher.Dispatch(ctx, Request{Operation: OpGet, Table: "alunos"})
	require.NoError(t, err)
	require.Len(t, fetched.([]map[string]any), 1)
}

func TestUnknownTableNeverReachesStorage(t *testing.T) {
	dispatcher, alunos := newTestDispatcher(t)

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: OpGet,
		Table:     "doesNotExist",
	})
	require.ErrorIs(t, err, ErrModelNotFound)
	require.Contains(t, err.Error(), "doesNotExist")
	require.Zero(t, alunos.calls)
}

func TestTableNameNormalization(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	ctx := context.Background()

	for _, variant := range []string{"alunos", "Alunos", " ALUNO ", "aluno"} {
		_, err := dispatcher.Dispatch(ctx, Request{Operation: OpGet, Table: variant})
		require.NoError(t, err, "variant %q", variant)
	}

	// Accented variants fold onto the registered collection.
	_, err := dispatcher.Dispatch(ctx, Request{Operation: OpGet, Table: "Presença"})
	require.NoError(t, err)
}

func TestMethodUnavailable(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: OpInsert,
		Table:     "presencas",
		Data:      map[string]any{"presente": true},
	})
	require.ErrorIs(t, err, ErrMethodUnavailable)
}

func TestMissingFieldGuards(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	ctx := context.Background()

	_, err := dispatcher.Dispatch(ctx, Request{Operation: OpInsert, Table: "alunos"})
	require.ErrorIs(t, err, ErrMissingData)

	_, err = dispatcher.Dispatch(ctx, Request{
		Operation: OpUpdate,
		Table:     "alunos",
		Data:      map[string]any{"nome": "X"},
	})
	require.ErrorIs(t, err, ErrMissingPrimaryKey)

	// Primary key named but its value absent from data.
	_, err = dispatcher.Dispatch(ctx, Request{
		Operation:  OpDelete,
		Table:      "alunos",
		PrimaryKey: "id",
		Data:       map[string]any{"nome": "X"},
	})
	require.ErrorIs(t, err, ErrMissingPrimaryKey)

	_, err = dispatcher.Dispatch(ctx, Request{
		Operation: OpUpsert,
		Table:     "alunos",
		Data:      map[string]any{"nome": "X"},
	})
	require.ErrorIs(t, err, ErrMissingPrimaryKey)
}
