package sqldb

import "github.com/zoobzio/capitan"

// Query execution signals.
var (
	// QueryStarted is emitted when a database query begins execution.
	// Fields: TableKey, OperationKey, SQLKey.
	QueryStarted = capitan.NewSignal("sieve.sqldb.query.started", "Database query execution started")

	// QueryCompleted is emitted when a query completes successfully.
	// Fields: TableKey, OperationKey, DurationMsKey, RowsReturnedKey.
	QueryCompleted = capitan.NewSignal("sieve.sqldb.query.completed", "Database query completed successfully")

	// QueryFailed is emitted when a query fails with an error.
	// Fields: TableKey, OperationKey, DurationMsKey, ErrorKey.
	QueryFailed = capitan.NewSignal("sieve.sqldb.query.failed", "Database query failed with error")
)

// Event field keys for query operations.
var (
	// TableKey identifies the database table being queried.
	TableKey = capitan.NewStringKey("table")

	// OperationKey identifies the statement kind (SELECT or COUNT).
	OperationKey = capitan.NewStringKey("operation")

	// SQLKey contains the rendered SQL query string.
	SQLKey = capitan.NewStringKey("sql")

	// DurationMsKey contains the query execution duration in milliseconds.
	DurationMsKey = capitan.NewInt64Key("duration_ms")

	// RowsReturnedKey contains the number of rows returned, or the count for COUNT.
	RowsReturnedKey = capitan.NewIntKey("rows_returned")

	// ErrorKey contains the error message when a query fails.
	ErrorKey = capitan.NewStringKey("error")
)
