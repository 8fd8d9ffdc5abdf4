package crud

import "errors"

var (
	// ErrModelNotFound means the table name resolved to no registered
	// collection. The wrapped message carries the attempted name.
	ErrModelNotFound = errors.New("model not found")
	// ErrMethodUnavailable means the resolved collection does not support
	// the requested operation.
	ErrMethodUnavailable = errors.New("method unavailable")
	// ErrMissingPrimaryKey means update/delete was called without a
	// primary key, or without the key's value in the data payload.
	ErrMissingPrimaryKey = errors.New("missing primary key")
	// ErrMissingData means insert/update/delete was called without a
	// data payload.
	ErrMissingData = errors.New("missing data")
	// ErrUnknownColumn means the data or where payload named a column
	// outside the collection's allow-list.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotFound means the targeted record does not exist.
	ErrNotFound = errors.New("record not found")
)
