// Package sieve composes filtered, sorted and paginated queries over typed
// records and projects the results into a target shape.
//
// Requests arrive as (column, value, condition) triples plus a page number,
// page size and optional sort column. Sieve resolves each column to a field
// path on the source record, coerces the raw value to the field's type,
// checks the condition against the field's kind and builds one predicate
// tree. Paths, projections and predicates are computed once per request
// (projections once per Sieve) and replayed against records; any resolution
// or parse failure rejects the request before the store is queried.
//
// # Quick Start
//
//	type Book struct {
//	    ID          int
//	    Title       string
//	    IsPublished bool
//	    Author      *Author
//	}
//
//	type BookDTO struct {
//	    ID              int
//	    Title           string
//	    AuthorFirstName string `sieve:"Author.FirstName"`
//	}
//
//	s, err := sieve.New[Book, BookDTO]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	page, err := s.Paginate(ctx, sieve.From[Book](store), sieve.PageRequest{
//	    PageNumber: 1,
//	    PageSize:   20,
//	    SortColumn: "title",
//	    Filters: []sieve.FilterCriterion{
//	        {Column: "AuthorFirstName", Value: "Omid", Condition: sieve.Contains},
//	    },
//	})
//
// Reusable predicates are expressed as Specifications and combined with
// And, Or and Not:
//
//	published := sieve.NewSpec[Book]().Where("IsPublished", sieve.Equals, "true").MustBuild()
//	byOmid := sieve.NewSpec[Book]().Include("Author").Where("Author.FirstName", sieve.Contains, "Omid").MustBuild()
//	books, err := sieve.From[Book](store).Where(published.And(byOmid)).List(ctx)
//
// Stores live under providers/: memory evaluates plans over a slice and
// sqldb renders them to SQL through astql.
package sieve

import (
	"fmt"
	"reflect"
)

// Sieve compiles page requests over source records S and projects results
// into D. It is immutable after New and safe for concurrent use.
type Sieve[S, D any] struct {
	mapping     Mapping
	coercer     Coercer
	projector   *Projector[S, D]
	maxPageSize int
	source      string
	target      string
}

type options struct {
	mapping     Mapping
	layouts     []string
	maxPageSize int
}

// Option configures a Sieve.
type Option func(*options)

// WithMapping maps a target field name to a dotted source path, overriding
// tags and registered mappings.
func WithMapping(field, path string) Option {
	return func(o *options) {
		if o.mapping == nil {
			o.mapping = make(Mapping)
		}
		o.mapping[exportName(field)] = path
	}
}

// WithTimeLayouts replaces DefaultTimeLayouts for date/time filter values.
func WithTimeLayouts(layouts ...string) Option {
	return func(o *options) { o.layouts = layouts }
}

// WithMaxPageSize rejects requests whose page size exceeds n.
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxPageSize = n }
}

// New builds a Sieve for source S and target D. Mapping tags are read and
// every projected field is resolved here, not per request.
func New[S, D any](opts ...Option) (*Sieve[S, D], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	source := reflect.TypeFor[S]()
	if leafType(source).Kind() != reflect.Struct {
		return nil, fmt.Errorf("sieve: source %s: %w", source, &UnsupportedFieldTypeError{Type: source})
	}

	if err := checkTarget[D](); err != nil {
		return nil, fmt.Errorf("sieve: %w", err)
	}

	mapping, excluded := targetMapping[D]()
	for field, path := range o.mapping {
		mapping[field] = path
		delete(excluded, field)
	}

	projector, err := newProjector[S, D](mapping, excluded)
	if err != nil {
		return nil, fmt.Errorf("sieve: %w", err)
	}

	return &Sieve[S, D]{
		mapping:     mapping,
		coercer:     NewCoercer(o.layouts...),
		projector:   projector,
		maxPageSize: o.maxPageSize,
		source:      source.String(),
		target:      reflect.TypeFor[D]().String(),
	}, nil
}

// Mapping returns a copy of the effective field mapping.
func (s *Sieve[S, D]) Mapping() Mapping { return s.mapping.clone() }

// Projector returns the projector from S to D.
func (s *Sieve[S, D]) Projector() *Projector[S, D] { return s.projector }

// Resolve maps a logical column to a field path on S.
func (s *Sieve[S, D]) Resolve(column string) (FieldPath, error) {
	return s.mapping.Resolve(reflect.TypeFor[S](), column)
}

// CompileFilters compiles and conjoins filters in order.
func (s *Sieve[S, D]) CompileFilters(filters []FilterCriterion) (Expr, error) {
	return ApplyFilters(reflect.TypeFor[S](), s.mapping, s.coercer, filters)
}

// CompileSort builds a sort key for a logical column.
func (s *Sieve[S, D]) CompileSort(column string, descending bool) (SortKey, error) {
	path, err := s.Resolve(column)
	if err != nil {
		return SortKey{}, err
	}
	return CompileSort(path, descending)
}

// Spec starts a specification over S that resolves columns through this
// Sieve's mapping and time layouts.
func (s *Sieve[S, D]) Spec() *SpecBuilder[S] {
	return &SpecBuilder[S]{mapping: s.mapping.clone(), coercer: s.coercer}
}
