package crud

import (
	"context"
	"fmt"
)

// Collection is a named backing record set. Operation support is expressed
// through the optional interfaces below; a collection that does not
// implement one fails that operation with ErrMethodUnavailable.
type Collection interface {
	Name() string
}

// Inserter creates one record and returns it with generated fields.
type Inserter interface {
	Insert(ctx context.Context, data map[string]any) (map[string]any, error)
}

// Finder returns all records, eager-loading the named relations.
type Finder interface {
	FindMany(ctx context.Context, relations []string) ([]map[string]any, error)
}

// Updater applies data to the single record matching pk's value in data.
type Updater interface {
	Update(ctx context.Context, pk string, data map[string]any) (map[string]any, error)
}

// Deleter removes the single record matching pk's value in data.
type Deleter interface {
	Delete(ctx context.Context, pk string, data map[string]any) error
}

// Upserter updates the record matching where or creates it from data.
type Upserter interface {
	Upsert(ctx context.Context, where, data map[string]any) (map[string]any, error)
}

// Registry maps canonical table names and their accepted variants to
// collections. Registration happens once at startup; client input only ever
// resolves against it.
type Registry struct {
	byName  map[string]Collection
	aliases map[string]string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Collection),
		aliases: make(map[string]string),
	}
}

// Register adds a collection under its canonical name plus any alias
// variants (singular forms, legacy names). Names are normalized the same
// way client input is.
func (r *Registry) Register(coll Collection, aliases ...string) {
	canonical := normalizeTable(coll.Name())
	r.byName[canonical] = coll
	for _, alias := range aliases {
		r.aliases[normalizeTable(alias)] = canonical
	}
}

// Validate rejects a misassembled registry at startup: it must be non-empty
// and every alias must point at a registered collection.
func (r *Registry) Validate() error {
	if len(r.byName) == 0 {
		return fmt.Errorf("crud: registry has no collections")
	}
	for alias, canonical := range r.aliases {
		if _, ok := r.byName[canonical]; !ok {
			return fmt.Errorf("crud: alias %q points at unregistered collection %q", alias, canonical)
		}
	}
	return nil
}

// Resolve maps a client-supplied table name to its collection. Unknown
// names fail with ErrModelNotFound carrying the attempted name.
func (r *Registry) Resolve(table string) (Collection, error) {
	name := normalizeTable(table)
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	coll, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, table)
	}
	return coll, nil
}
