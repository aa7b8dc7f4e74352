package sieve

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// Paginate runs one page of q: it compiles the request's filters and sort,
// counts the matches, fetches the requested window and projects it.
//
// A request sort column replaces any ordering already on q. Without one, the
// ordering on q (or the store's natural order) is used, and pages are not
// guaranteed stable across concurrent writes.
//
// Compilation errors are returned before the store is touched. Store errors
// are returned unchanged.
func (s *Sieve[S, D]) Paginate(ctx context.Context, q *Query[S], req PageRequest) (*PageResult[D], error) {
	if q == nil || q.store == nil {
		return nil, ErrNilStore
	}

	q, req, err := s.compile(q, req)
	if err != nil {
		capitan.Error(ctx, RequestRejected,
			SourceKey.Field(s.source),
			TargetKey.Field(s.target),
			ErrorKey.Field(err.Error()),
		)
		return nil, err
	}

	plan := q.Plan()
	capitan.Debug(ctx, PageStarted,
		SourceKey.Field(s.source),
		TargetKey.Field(s.target),
		PageNumberKey.Field(req.PageNumber),
		PageSizeKey.Field(req.PageSize),
		FiltersKey.Field(exprString(plan.Criteria)),
		OrderKey.Field(orderString(plan.Order)),
	)

	startTime := time.Now()

	total, err := q.Count(ctx)
	if err != nil {
		s.failed(ctx, startTime, err)
		return nil, err
	}

	var records []S
	if total > req.Offset() {
		records, err = q.Skip(req.Offset()).Take(req.PageSize).List(ctx)
		if err != nil {
			s.failed(ctx, startTime, err)
			return nil, err
		}
	}

	result := NewPageResult(s.projector.MapAll(records), total, req)

	capitan.Info(ctx, PageCompleted,
		SourceKey.Field(s.source),
		TargetKey.Field(s.target),
		PageNumberKey.Field(req.PageNumber),
		PageSizeKey.Field(req.PageSize),
		TotalRecordsKey.Field(total),
		RowsReturnedKey.Field(len(result.Data)),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
	)

	return result, nil
}

// compile normalizes req and applies its filters and sort to q.
func (s *Sieve[S, D]) compile(q *Query[S], req PageRequest) (*Query[S], PageRequest, error) {
	if err := q.Err(); err != nil {
		return nil, req, err
	}
	req, err := req.Normalize()
	if err != nil {
		return nil, req, err
	}
	if s.maxPageSize > 0 && req.PageSize > s.maxPageSize {
		return nil, req, fmt.Errorf("%w: page size %d exceeds %d", ErrInvalidPageRequest, req.PageSize, s.maxPageSize)
	}

	filter, err := s.CompileFilters(req.Filters)
	if err != nil {
		return nil, req, err
	}
	q = q.Filter(filter)

	if req.SortColumn != "" {
		key, err := s.CompileSort(req.SortColumn, req.SortDescending)
		if err != nil {
			return nil, req, err
		}
		q = q.ReorderBy(key)
	}
	if err := q.Err(); err != nil {
		return nil, req, err
	}
	return q, req, nil
}

func (s *Sieve[S, D]) failed(ctx context.Context, startTime time.Time, err error) {
	capitan.Error(ctx, PageFailed,
		SourceKey.Field(s.source),
		TargetKey.Field(s.target),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		ErrorKey.Field(err.Error()),
	)
}

func orderString(keys []SortKey) string {
	if len(keys) == 0 {
		return "natural"
	}
	out := keys[0].String()
	for _, k := range keys[1:] {
		out += ", " + k.String()
	}
	return out
}
