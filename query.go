package sieve

import (
	"context"
	"fmt"
	"reflect"
	"slices"
)

// Plan is the store-facing description of a composed query. Stores apply it
// as: eager-load includes, filter by Criteria, order by Order in sequence,
// skip Offset, take Limit.
type Plan struct {
	Criteria       Expr
	Includes       []FieldPath
	IncludeStrings []string
	Order          []SortKey
	Offset         int
	// Limit caps the number of records; negative means no cap.
	Limit int
}

// Bounded reports whether the plan windows its results.
func (p Plan) Bounded() bool { return p.Offset > 0 || p.Limit >= 0 }

// Window applies Offset and Limit to a count of matching records.
func (p Plan) Window(total int) int {
	n := total - p.Offset
	if n < 0 {
		n = 0
	}
	if p.Limit >= 0 && n > p.Limit {
		n = p.Limit
	}
	return n
}

// IncludePaths returns every eager-load hint in dotted form, structured paths
// first, without duplicates.
func (p Plan) IncludePaths() []string {
	paths := make([]string, 0, len(p.Includes)+len(p.IncludeStrings))
	for _, fp := range p.Includes {
		paths = append(paths, fp.String())
	}
	return unionBy(paths, p.IncludeStrings, func(v string) string { return v })
}

func (p Plan) clone() Plan {
	p.Includes = slices.Clone(p.Includes)
	p.IncludeStrings = slices.Clone(p.IncludeStrings)
	p.Order = slices.Clone(p.Order)
	return p
}

// Store executes plans against a collection of T. Implementations must honor
// ctx cancellation and return their own errors unchanged.
type Store[T any] interface {
	Fetch(ctx context.Context, plan Plan) ([]T, error)
	Count(ctx context.Context, plan Plan) (int, error)
}

// Loader populates a relation on already-fetched records in place.
type Loader[T any] func(ctx context.Context, records []T) error

// Evaluate applies plan to records in memory. Includes are not applied.
func Evaluate[T any](plan Plan, records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if matches(plan.Criteria, reflect.ValueOf(r)) {
			out = append(out, r)
		}
	}
	SortRecords(out, plan.Order)

	if plan.Offset > 0 {
		if plan.Offset >= len(out) {
			return out[:0]
		}
		out = out[plan.Offset:]
	}
	if plan.Limit >= 0 && plan.Limit < len(out) {
		out = out[:plan.Limit]
	}
	return out
}

// Query composes filters, hints, ordering and windowing over a Store.
// Each method returns a new Query; the receiver is never modified.
type Query[T any] struct {
	store Store[T]
	plan  Plan
	err   error
}

// From starts a query over store.
func From[T any](store Store[T]) *Query[T] {
	return &Query[T]{store: store, plan: Plan{Limit: -1}}
}

// Plan returns a copy of the composed plan.
func (q *Query[T]) Plan() Plan { return q.plan.clone() }

// Err returns the first composition error recorded on q, if any.
func (q *Query[T]) Err() error { return q.err }

func (q *Query[T]) with(fn func(*Plan)) *Query[T] {
	if q.err != nil {
		return q
	}
	p := q.plan.clone()
	fn(&p)
	return &Query[T]{store: q.store, plan: p}
}

// reshape is like with for operations that change which records match or
// their order. Those cannot follow Skip or Take, since stores filter and
// order before windowing.
func (q *Query[T]) reshape(op string, fn func(*Plan)) *Query[T] {
	if q.err != nil {
		return q
	}
	if q.plan.Bounded() {
		return &Query[T]{store: q.store, plan: q.plan.clone(), err: fmt.Errorf("%w: %s", ErrWindowedQuery, op)}
	}
	return q.with(fn)
}

// Where applies a specification: its includes, its predicate ANDed with the
// existing criteria, then its ascending and descending sort keys.
func (q *Query[T]) Where(spec Specification[T]) *Query[T] {
	apply := q.with
	if spec.expr != nil || len(spec.orderBy)+len(spec.orderByDesc) > 0 {
		apply = func(fn func(*Plan)) *Query[T] { return q.reshape("Where", fn) }
	}
	return apply(func(p *Plan) {
		p.Includes = unionBy(p.Includes, spec.includes, FieldPath.String)
		p.IncludeStrings = unionBy(p.IncludeStrings, spec.includeStrings, func(v string) string { return v })
		p.Criteria = AllOf(p.Criteria, spec.expr)
		p.Order = append(p.Order, spec.SortKeys()...)
	})
}

// Filter ANDs e with the existing criteria.
func (q *Query[T]) Filter(e Expr) *Query[T] {
	if e == nil {
		return q
	}
	return q.reshape("Filter", func(p *Plan) { p.Criteria = AllOf(p.Criteria, e) })
}

// Include adds structured eager-load hints.
func (q *Query[T]) Include(paths ...FieldPath) *Query[T] {
	return q.with(func(p *Plan) { p.Includes = unionBy(p.Includes, paths, FieldPath.String) })
}

// IncludeString adds dotted eager-load hints.
func (q *Query[T]) IncludeString(paths ...string) *Query[T] {
	return q.with(func(p *Plan) {
		p.IncludeStrings = unionBy(p.IncludeStrings, paths, func(v string) string { return v })
	})
}

// OrderBy appends sort keys after any existing ones.
func (q *Query[T]) OrderBy(keys ...SortKey) *Query[T] {
	if len(keys) == 0 {
		return q
	}
	return q.reshape("OrderBy", func(p *Plan) { p.Order = append(p.Order, keys...) })
}

// ReorderBy replaces the ordering with keys.
func (q *Query[T]) ReorderBy(keys ...SortKey) *Query[T] {
	return q.reshape("ReorderBy", func(p *Plan) { p.Order = slices.Clone(keys) })
}

// Skip drops the first n records of the current window.
func (q *Query[T]) Skip(n int) *Query[T] {
	if n < 0 {
		n = 0
	}
	return q.with(func(p *Plan) {
		p.Offset += n
		if p.Limit >= 0 {
			p.Limit = max(0, p.Limit-n)
		}
	})
}

// Take keeps at most n records of the current window.
func (q *Query[T]) Take(n int) *Query[T] {
	if n < 0 {
		n = 0
	}
	return q.with(func(p *Plan) {
		if p.Limit < 0 || n < p.Limit {
			p.Limit = n
		}
	})
}

// List materializes the query.
func (q *Query[T]) List(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.store == nil {
		return nil, ErrNilStore
	}
	return q.store.Fetch(ctx, q.Plan())
}

// Count returns the number of records the query would list.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.store == nil {
		return 0, ErrNilStore
	}
	return q.store.Count(ctx, q.Plan())
}

// Any reports whether at least one record matches.
func (q *Query[T]) Any(ctx context.Context) (bool, error) {
	n, err := q.Take(1).Count(ctx)
	return n > 0, err
}

// All reports whether every record of the query satisfies spec. On a
// windowed query only the records inside the window are tested.
func (q *Query[T]) All(ctx context.Context, spec Specification[T]) (bool, error) {
	if !q.plan.Bounded() {
		n, err := q.Where(spec.Not()).Take(1).Count(ctx)
		return n == 0 && err == nil, err
	}

	records, err := q.Include(spec.includes...).IncludeString(spec.includeStrings...).List(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if !spec.IsSatisfiedBy(r) {
			return false, nil
		}
	}
	return true, nil
}

// First returns the first record, or ErrNotFound.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	var zero T
	records, err := q.Take(1).List(ctx)
	if err != nil {
		return zero, err
	}
	if len(records) == 0 {
		return zero, ErrNotFound
	}
	return records[0], nil
}

// FirstOrDefault returns the first record, or the zero value when nothing matches.
func (q *Query[T]) FirstOrDefault(ctx context.Context) (T, error) {
	var zero T
	records, err := q.Take(1).List(ctx)
	if err != nil || len(records) == 0 {
		return zero, err
	}
	return records[0], nil
}

// Single returns the only record, ErrNotFound when there is none and
// ErrMultipleRecords when there is more than one.
func (q *Query[T]) Single(ctx context.Context) (T, error) {
	var zero T
	records, err := q.Take(2).List(ctx)
	if err != nil {
		return zero, err
	}
	switch len(records) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return records[0], nil
	default:
		return zero, ErrMultipleRecords
	}
}

// SingleOrDefault is like Single but returns the zero value when nothing matches.
func (q *Query[T]) SingleOrDefault(ctx context.Context) (T, error) {
	var zero T
	records, err := q.Take(2).List(ctx)
	if err != nil {
		return zero, err
	}
	switch len(records) {
	case 0:
		return zero, nil
	case 1:
		return records[0], nil
	default:
		return zero, ErrMultipleRecords
	}
}

// ListAs materializes q and projects each record through p.
func ListAs[S, D any](ctx context.Context, q *Query[S], p *Projector[S, D]) ([]D, error) {
	records, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	return p.MapAll(records), nil
}
