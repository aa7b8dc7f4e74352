package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sieve"
)

var errNoRows = errors.New("COUNT query returned no rows")

func (s *Store[T]) selectRows(ctx context.Context, q selectQuery) ([]T, error) {
	result, params, err := s.buildSelect(q)
	if err != nil {
		return nil, err
	}
	return execRows[T](ctx, s.db, result.SQL, params, s.tableName)
}

func (s *Store[T]) count(ctx context.Context, pushed []*sieve.Compare) (int, error) {
	result, params, err := s.buildCount(pushed)
	if err != nil {
		return 0, err
	}
	return execCount(ctx, s.db, result.SQL, params, s.tableName)
}

// execRows runs a SELECT and scans every row into T. Driver errors are
// returned unchanged.
func execRows[T any](ctx context.Context, execer sqlx.ExtContext, sql string, params map[string]any, tableName string) ([]T, error) {
	const operation = "SELECT"

	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	rows, err := sqlx.NamedQueryContext(ctx, execer, sql, params)
	if err != nil {
		queryFailed(ctx, tableName, operation, startTime, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []T
	for rows.Next() {
		var record T
		if err := rows.StructScan(&record); err != nil {
			queryFailed(ctx, tableName, operation, startTime, err)
			return nil, fmt.Errorf("scanning %s row: %w", tableName, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		queryFailed(ctx, tableName, operation, startTime, err)
		return nil, err
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(len(records)),
	)

	return records, nil
}

// execCount runs a COUNT query and scans its single value.
func execCount(ctx context.Context, execer sqlx.ExtContext, sql string, params map[string]any, tableName string) (int, error) {
	const operation = "COUNT"

	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	rows, err := sqlx.NamedQueryContext(ctx, execer, sql, params)
	if err != nil {
		queryFailed(ctx, tableName, operation, startTime, err)
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errNoRows
		}
		queryFailed(ctx, tableName, operation, startTime, err)
		return 0, err
	}

	var n int
	if err := rows.Scan(&n); err != nil {
		queryFailed(ctx, tableName, operation, startTime, err)
		return 0, fmt.Errorf("scanning COUNT result: %w", err)
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(n),
	)

	return n, nil
}

func queryFailed(ctx context.Context, tableName, operation string, startTime time.Time, err error) {
	capitan.Error(ctx, QueryFailed,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		ErrorKey.Field(err.Error()),
	)
}
