package sieve

import "github.com/zoobzio/capitan"

// Pagination signals.
var (
	// PageStarted is emitted once a request has compiled and before the store is queried.
	// Fields: SourceKey, TargetKey, PageNumberKey, PageSizeKey, FiltersKey, OrderKey.
	PageStarted = capitan.NewSignal("sieve.page.started", "Page request compiled and dispatched to the store")

	// PageCompleted is emitted when a page has been fetched and projected.
	// Fields: SourceKey, TargetKey, PageNumberKey, PageSizeKey, TotalRecordsKey, RowsReturnedKey, DurationMsKey.
	PageCompleted = capitan.NewSignal("sieve.page.completed", "Page request completed successfully")

	// PageFailed is emitted when the store returns an error.
	// Fields: SourceKey, TargetKey, DurationMsKey, ErrorKey.
	PageFailed = capitan.NewSignal("sieve.page.failed", "Page request failed in the store")

	// RequestRejected is emitted when a request fails to compile.
	// Fields: SourceKey, TargetKey, ErrorKey.
	RequestRejected = capitan.NewSignal("sieve.request.rejected", "Page request rejected during compilation")
)

// Event field keys.
var (
	// SourceKey names the record type queried.
	SourceKey = capitan.NewStringKey("source")

	// TargetKey names the projection type returned.
	TargetKey = capitan.NewStringKey("target")

	// PageNumberKey contains the 1-based page number.
	PageNumberKey = capitan.NewIntKey("page_number")

	// PageSizeKey contains the requested page size.
	PageSizeKey = capitan.NewIntKey("page_size")

	// FiltersKey contains the compiled predicate, criteria in request order.
	FiltersKey = capitan.NewStringKey("filters")

	// OrderKey contains the ordering applied, if any.
	OrderKey = capitan.NewStringKey("order")

	// TotalRecordsKey contains the match count before pagination.
	TotalRecordsKey = capitan.NewIntKey("total_records")

	// RowsReturnedKey contains the number of records on the page.
	RowsReturnedKey = capitan.NewIntKey("rows_returned")

	// DurationMsKey contains the store round-trip duration in milliseconds.
	DurationMsKey = capitan.NewInt64Key("duration_ms")

	// ErrorKey contains the error message.
	ErrorKey = capitan.NewStringKey("error")
)
