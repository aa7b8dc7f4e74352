package sqldb

import "errors"

// Errors returned when building or querying a Store.
var (
	// ErrEmptyTableName is returned by New when no table is named.
	ErrEmptyTableName = errors.New("sqldb: table name cannot be empty")

	// ErrNilRenderer is returned by New when no SQL renderer is supplied.
	ErrNilRenderer = errors.New("sqldb: renderer cannot be nil")

	// ErrNoColumns is returned by New when the record type has no db-tagged fields.
	ErrNoColumns = errors.New("sqldb: record type has no db columns")

	// ErrIncludeNotSupported is returned when a plan includes a path with no
	// registered relation loader.
	ErrIncludeNotSupported = errors.New("sqldb: include not supported")
)
