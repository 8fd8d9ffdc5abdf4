// Package crud implements the generic table-driven CRUD dispatcher: one
// entry point mapping (operation, table, data, where, primaryKey, relations)
// requests onto registered collections.
package crud

// Operation names a dispatcher operation.
type Operation string

const (
	// OpInsert creates one record from the data payload.
	OpInsert Operation = "insert"
	// OpGet returns all records, optionally eager-loading relations.
	OpGet Operation = "get"
	// OpUpdate applies data to the single record matching the primary key.
	OpUpdate Operation = "update"
	// OpDelete removes the single record matching the primary key.
	OpDelete Operation = "delete"
	// OpUpsert updates the record matching the where constraint or
	// creates it when absent.
	OpUpsert Operation = "upsert"
)

// Request is the value object accepted by the dispatcher. The HTTP layer
// validates its shape before dispatch; the dispatcher enforces the
// per-operation field requirements.
type Request struct {
	Operation  Operation       `json:"operation" validate:"required,oneof=insert get update delete upsert"`
	Table      string          `json:"table" validate:"required"`
	PrimaryKey string          `json:"primaryKey,omitempty"`
	Data       map[string]any  `json:"data,omitempty"`
	Where      map[string]any  `json:"where,omitempty"`
	Relations  map[string]bool `json:"relations,omitempty"`
}

// requestedRelations lists the relation names flagged true, in stable order
// only when the caller cares; dispatch order is irrelevant for loading.
func (r Request) requestedRelations() []string {
	if len(r.Relations) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Relations))
	for name, include := range r.Relations {
		if include {
			names = append(names, name)
		}
	}
	return names
}
