package crud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Relation describes a child collection eager-loadable from a Table.
// ForeignKey is the column on the related table referencing this table's
// primary key.
type Relation struct {
	Name       string
	Table      string
	ForeignKey string
}

// TableConfig declares the shape of a database-backed collection. Columns is
// an allow-list: data keys outside it are rejected before any SQL is built.
type TableConfig struct {
	Table      string
	PrimaryKey string
	Columns    []string
	Relations  []Relation
}

// Table is a Collection backed by a PostgreSQL table. It implements every
// dispatcher operation.
type Table struct {
	pool *pgxpool.Pool
	cfg  TableConfig
	cols map[string]struct{}
}

// NewTable constructs a Table collection.
func NewTable(pool *pgxpool.Pool, cfg TableConfig) *Table {
	cols := make(map[string]struct{}, len(cfg.Columns))
	for _, c := range cfg.Columns {
		cols[c] = struct{}{}
	}
	return &Table{pool: pool, cfg: cfg, cols: cols}
}

// Name returns the canonical collection name.
func (t *Table) Name() string {
	return t.cfg.Table
}

// Insert creates one record and returns it including generated columns.
func (t *Table) Insert(ctx context.Context, data map[string]any) (map[string]any, error) {
	keys, values, err := t.filterColumns(data)
	if err != nil {
		return nil, err
	}
	placeholders := make([]string, len(keys))
	for i := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		quoteIdent(t.cfg.Table), joinIdents(keys), strings.Join(placeholders, ", "))
	rows, err := t.pool.Query(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	records, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// FindMany returns every record, attaching the requested relations as
// nested slices keyed by the relation name.
func (t *Table) FindMany(ctx context.Context, relations []string) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`,
		quoteIdent(t.cfg.Table), quoteIdent(t.cfg.PrimaryKey))
	rows, err := t.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	records, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	for _, name := range relations {
		if err := t.attachRelation(ctx, records, name); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Update applies data to the single record identified by data[pk].
func (t *Table) Update(ctx context.Context, pk string, data map[string]any) (map[string]any, error) {
	if _, ok := t.cols[pk]; !ok {
		return nil, fmt.Errorf("%w: primary key %q on %s", ErrUnknownColumn, pk, t.cfg.Table)
	}
	target := data[pk]
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k != pk {
			fields[k] = v
		}
	}
	keys, values, err := t.filterColumns(fields)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: update on %s has no fields besides %s", ErrMissingData, t.cfg.Table, pk)
	}
	assignments := make([]string, len(keys))
	for i, k := range keys {
		assignments[i] = fmt.Sprintf("%s = $%d", quoteIdent(k), i+1)
	}
	values = append(values, target)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d RETURNING *`,
		quoteIdent(t.cfg.Table), strings.Join(assignments, ", "), quoteIdent(pk), len(values))
	rows, err := t.pool.Query(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	records, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %s=%v", ErrNotFound, t.cfg.Table, pk, target)
	}
	return records[0], nil
}

// Delete removes the single record identified by data[pk].
func (t *Table) Delete(ctx context.Context, pk string, data map[string]any) error {
	if _, ok := t.cols[pk]; !ok {
		return fmt.Errorf("%w: primary key %q on %s", ErrUnknownColumn, pk, t.cfg.Table)
	}
	tag, err := t.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		quoteIdent(t.cfg.Table), quoteIdent(pk)), data[pk])
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s=%v", ErrNotFound, t.cfg.Table, pk, data[pk])
	}
	return nil
}

// Upsert inserts data, updating the existing record when the unique
// constraint over the where columns already matches.
func (t *Table) Upsert(ctx context.Context, where, data map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(where)+len(data))
	for k, v := range where {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	keys, values, err := t.filterColumns(merged)
	if err != nil {
		return nil, err
	}
	conflictKeys, _, err := t.filterColumns(where)
	if err != nil {
		return nil, err
	}
	placeholders := make([]string, len(keys))
	var updates []string
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if _, isConstraint := where[k]; !isConstraint {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(k), quoteIdent(k)))
		}
	}
	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s RETURNING *`,
		quoteIdent(t.cfg.Table), joinIdents(keys), strings.Join(placeholders, ", "),
		joinIdents(conflictKeys), action)
	rows, err := t.pool.Query(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	records, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

func (t *Table) attachRelation(ctx context.Context, records []map[string]any, name string) error {
	var rel *Relation
	for i := range t.cfg.Relations {
		if t.cfg.Relations[i].Name == name {
			rel = &t.cfg.Relations[i]
			break
		}
	}
	if rel == nil {
		return fmt.Errorf("%w: %s has no relation %q", ErrMethodUnavailable, t.cfg.Table, name)
	}
	if len(records) == 0 {
		return nil
	}
	ids := make([]any, 0, len(records))
	for _, record := range records {
		ids = append(ids, record[t.cfg.PrimaryKey])
	}
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = ANY($1)`,
		quoteIdent(rel.Table), quoteIdent(rel.ForeignKey))
	rows, err := t.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	related, err := rowsToMaps(rows)
	if err != nil {
		return err
	}
	grouped := make(map[any][]map[string]any, len(records))
	for _, child := range related {
		key := child[rel.ForeignKey]
		grouped[key] = append(grouped[key], child)
	}
	for _, record := range records {
		children := grouped[record[t.cfg.PrimaryKey]]
		if children == nil {
			children = []map[string]any{}
		}
		record[rel.Name] = children
	}
	return nil
}

// filterColumns splits a data map into sorted allow-listed columns and
// their values, rejecting unknown keys outright.
func (t *Table) filterColumns(data map[string]any) ([]string, []any, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		if _, ok := t.cols[k]; !ok {
			return nil, nil, fmt.Errorf("%w: %q on %s", ErrUnknownColumn, k, t.cfg.Table)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = data[k]
	}
	return keys, values, nil
}

func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()
	records := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(map[string]any, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return records, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

var (
	_ Collection = (*Table)(nil)
	_ Inserter   = (*Table)(nil)
	_ Finder     = (*Table)(nil)
	_ Updater    = (*Table)(nil)
	_ Deleter    = (*Table)(nil)
	_ Upserter   = (*Table)(nil)
)
