// Package sqldb provides a sieve.Store backed by a SQL table.
//
// Plans are rendered to SQL through astql against a schema built from the
// record type's db tags. Top-level conjuncts that compare a single column are
// pushed into the WHERE clause; anything else (nested paths, OR, NOT, Go
// predicates, LIKE patterns needing escapes) is evaluated in memory after the
// fetch. Text conditions are pushed as LIKE and checked again in memory, so
// they match case-sensitively on every database. ORDER BY, LIMIT and OFFSET
// are pushed down only when the database result is final.
package sqldb

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/sentinel"
	"github.com/zoobzio/sieve"
)

// Store implements sieve.Store[T] over a database table.
type Store[T any] struct {
	db        sqlx.ExtContext
	tableName string
	instance  *astql.ASTQL
	renderer  astql.Renderer
	columns   []column
	byField   map[string]column
	relations map[string]sieve.Loader[T]
	mu        sync.RWMutex
}

// New creates a Store for T over tableName. T's fields map to columns through
// their db tags; type, constraints, default and references tags refine the
// schema. All inspection happens here, not per query.
//
// The db parameter accepts sqlx.ExtContext, which is satisfied by both
// *sqlx.DB and *sqlx.Tx.
//
// Available renderers from astql/pkg:
//   - postgres.New() for PostgreSQL
func New[T any](db sqlx.ExtContext, tableName string, renderer astql.Renderer) (*Store[T], error) {
	if tableName == "" {
		return nil, ErrEmptyTableName
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}

	sentinel.Tag("db")
	sentinel.Tag("type")
	sentinel.Tag("constraints")
	sentinel.Tag("default")
	sentinel.Tag("references")

	metadata := sentinel.Inspect[T]()

	project, columns, err := buildSchema(metadata, tableName)
	if err != nil {
		return nil, fmt.Errorf("sqldb: failed to build DBML: %w", err)
	}

	instance, err := astql.NewFromDBML(project)
	if err != nil {
		return nil, fmt.Errorf("sqldb: failed to create ASTQL instance: %w", err)
	}

	byField := make(map[string]column, len(columns))
	for _, c := range columns {
		byField[c.field] = c
	}

	return &Store[T]{
		db:        db,
		tableName: tableName,
		instance:  instance,
		renderer:  renderer,
		columns:   columns,
		byField:   byField,
		relations: make(map[string]sieve.Loader[T]),
	}, nil
}

// TableName returns the table this store reads.
func (s *Store[T]) TableName() string {
	return s.tableName
}

// Relation registers the loader that satisfies an include path. Plans that
// include a path with no loader fail with ErrIncludeNotSupported.
func (s *Store[T]) Relation(path string, loader sieve.Loader[T]) *Store[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.relations[path] = loader
	return s
}

// Fetch runs plan against the table.
func (s *Store[T]) Fetch(ctx context.Context, plan sieve.Plan) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loaders, err := s.loaders(plan)
	if err != nil {
		return nil, err
	}

	sp := s.split(plan)
	q := selectQuery{pushed: sp.pushed, limit: -1}
	if sp.ordered {
		q.order = plan.Order
	}

	final := sp.residual == nil && sp.ordered
	windowed := final && plan.Limit >= 0
	if windowed {
		q.offset, q.limit = plan.Offset, plan.Limit
	}

	records, err := s.selectRows(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := runLoaders(ctx, loaders, records); err != nil {
		return nil, err
	}
	if windowed {
		return records, nil
	}

	rest := sieve.Plan{Criteria: sp.residual, Offset: plan.Offset, Limit: plan.Limit}
	if !sp.ordered {
		rest.Order = plan.Order
	}
	return sieve.Evaluate(rest, records), nil
}

// Count returns the number of records Fetch would return for plan.
func (s *Store[T]) Count(ctx context.Context, plan sieve.Plan) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	loaders, err := s.loaders(plan)
	if err != nil {
		return 0, err
	}

	sp := s.split(plan)
	if sp.residual == nil {
		n, err := s.count(ctx, sp.pushed)
		if err != nil {
			return 0, err
		}
		return plan.Window(n), nil
	}

	records, err := s.selectRows(ctx, selectQuery{pushed: sp.pushed, limit: -1})
	if err != nil {
		return 0, err
	}
	if err := runLoaders(ctx, loaders, records); err != nil {
		return 0, err
	}
	matched := sieve.Evaluate(sieve.Plan{Criteria: sp.residual, Limit: -1}, records)
	return plan.Window(len(matched)), nil
}

// loaders resolves every include on plan to a registered relation.
func (s *Store[T]) loaders(plan sieve.Plan) ([]sieve.Loader[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []sieve.Loader[T]
	for _, path := range plan.IncludePaths() {
		l, ok := s.relations[path]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIncludeNotSupported, path)
		}
		out = append(out, l)
	}
	return out, nil
}

func runLoaders[T any](ctx context.Context, loaders []sieve.Loader[T], records []T) error {
	if len(records) == 0 {
		return nil
	}
	for _, l := range loaders {
		if err := l(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

var _ sieve.Store[struct{ ID int }] = (*Store[struct{ ID int }])(nil)
