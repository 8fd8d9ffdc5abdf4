package crud

import (
	"context"
	"fmt"
)

// Dispatcher translates a table-agnostic request into a concrete collection
// operation. It performs no caching and no transaction management; callers
// needing multi-step atomicity wrap the storage layer directly.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher constructs a Dispatcher over a validated registry.
func NewDispatcher(registry *Registry) (*Dispatcher, error) {
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return &Dispatcher{registry: registry}, nil
}

// Dispatch resolves the request's table and runs the operation. Storage
// errors pass through unreinterpreted.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, error) {
	coll, err := d.registry.Resolve(req.Table)
	if err != nil {
		return nil, err
	}

	switch req.Operation {
	case OpInsert:
		if len(req.Data) == 0 {
			return nil, fmt.Errorf("%w: insert on %s", ErrMissingData, coll.Name())
		}
		ins, ok := coll.(Inserter)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not support insert", ErrMethodUnavailable, coll.Name())
		}
		return ins.Insert(ctx, req.Data)

	case OpGet:
		finder, ok := coll.(Finder)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not support get", ErrMethodUnavailable, coll.Name())
		}
		return finder.FindMany(ctx, req.requestedRelations())

	case OpUpdate:
		if err := requireKeyedData(req, coll, "update"); err != nil {
			return nil, err
		}
		upd, ok := coll.(Updater)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not support update", ErrMethodUnavailable, coll.Name())
		}
		return upd.Update(ctx, req.PrimaryKey, req.Data)

	case OpDelete:
		if err := requireKeyedData(req, coll, "delete"); err != nil {
			return nil, err
		}
		del, ok := coll.(Deleter)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not support delete", ErrMethodUnavailable, coll.Name())
		}
		if err := del.Delete(ctx, req.PrimaryKey, req.Data); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": true}, nil

	case OpUpsert:
		if len(req.Data) == 0 {
			return nil, fmt.Errorf("%w: upsert on %s", ErrMissingData, coll.Name())
		}
		if len(req.Where) == 0 {
			return nil, fmt.Errorf("%w: upsert on %s requires a unique constraint in where", ErrMissingPrimaryKey, coll.Name())
		}
		ups, ok := coll.(Upserter)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not support upsert", ErrMethodUnavailable, coll.Name())
		}
		return ups.Upsert(ctx, req.Where, req.Data)

	default:
		return nil, fmt.Errorf("%w: operation %q", ErrMethodUnavailable, req.Operation)
	}
}

func requireKeyedData(req Request, coll Collection, op string) error {
	if len(req.Data) == 0 {
		return fmt.Errorf("%w: %s on %s", ErrMissingData, op, coll.Name())
	}
	if req.PrimaryKey == "" {
		return fmt.Errorf("%w: %s on %s", ErrMissingPrimaryKey, op, coll.Name())
	}
	if _, ok := req.Data[req.PrimaryKey]; !ok {
		return fmt.Errorf("%w: %s on %s requires data.%s", ErrMissingPrimaryKey, op, coll.Name(), req.PrimaryKey)
	}
	return nil
}
