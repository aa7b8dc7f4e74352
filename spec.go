package sieve

import (
	"reflect"
	"slices"
)

// Specification is a reusable, immutable predicate over T together with the
// eager-load hints and sort keys needed to evaluate it. The zero value
// matches every record and carries no hints.
type Specification[T any] struct {
	expr           Expr
	includes       []FieldPath
	includeStrings []string
	orderBy        []SortKey
	orderByDesc    []SortKey
}

// Expr returns the predicate tree.
func (s Specification[T]) Expr() Expr { return s.expr }

// Includes returns the structured eager-load paths.
func (s Specification[T]) Includes() []FieldPath { return slices.Clone(s.includes) }

// IncludeStrings returns the dotted eager-load paths.
func (s Specification[T]) IncludeStrings() []string { return slices.Clone(s.includeStrings) }

// OrderBy returns the ascending sort keys.
func (s Specification[T]) OrderBy() []SortKey { return slices.Clone(s.orderBy) }

// OrderByDescending returns the descending sort keys.
func (s Specification[T]) OrderByDescending() []SortKey { return slices.Clone(s.orderByDesc) }

// SortKeys returns the ascending keys followed by the descending keys.
func (s Specification[T]) SortKeys() []SortKey {
	keys := make([]SortKey, 0, len(s.orderBy)+len(s.orderByDesc))
	keys = append(keys, s.orderBy...)
	return append(keys, s.orderByDesc...)
}

// IsSatisfiedBy evaluates the predicate against candidate.
func (s Specification[T]) IsSatisfiedBy(candidate T) bool {
	return matches(s.expr, reflect.ValueOf(candidate))
}

func (s Specification[T]) String() string { return exprString(s.expr) }

// And returns a specification matching records that satisfy both s and other.
// Hints and sort keys are the union of both sides, s first.
func (s Specification[T]) And(other Specification[T]) Specification[T] {
	out := s.merge(other)
	out.expr = AllOf(s.expr, other.expr)
	return out
}

// Or returns a specification matching records that satisfy s or other.
// Hints and sort keys are the union of both sides, s first.
func (s Specification[T]) Or(other Specification[T]) Specification[T] {
	out := s.merge(other)
	out.expr = AnyOf(s.expr, other.expr)
	return out
}

// Not inverts the predicate and keeps hints and sort keys unchanged.
func (s Specification[T]) Not() Specification[T] {
	out := s.merge(Specification[T]{})
	out.expr = Negate(s.expr)
	return out
}

func (s Specification[T]) merge(other Specification[T]) Specification[T] {
	return Specification[T]{
		includes:       unionBy(s.includes, other.includes, FieldPath.String),
		includeStrings: unionBy(s.includeStrings, other.includeStrings, func(v string) string { return v }),
		orderBy:        unionBy(s.orderBy, other.orderBy, SortKey.String),
		orderByDesc:    unionBy(s.orderByDesc, other.orderByDesc, SortKey.String),
	}
}

// unionBy concatenates a and b, keeping the first occurrence of each key.
func unionBy[E any](a, b []E, key func(E) string) []E {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]E, 0, len(a)+len(b))
	for _, list := range [][]E{a, b} {
		for _, e := range list {
			k := key(e)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}
	return out
}

// SpecBuilder assembles a Specification. Methods record the first error and
// become no-ops afterwards; Build reports it.
type SpecBuilder[T any] struct {
	spec    Specification[T]
	mapping Mapping
	coercer Coercer
	err     error
}

// NewSpec starts a Specification over T with identity field names.
func NewSpec[T any]() *SpecBuilder[T] {
	return &SpecBuilder[T]{coercer: NewCoercer()}
}

func (b *SpecBuilder[T]) root() reflect.Type { return reflect.TypeFor[T]() }

// WithMapping resolves subsequent column names through m.
func (b *SpecBuilder[T]) WithMapping(m Mapping) *SpecBuilder[T] {
	b.mapping = m.clone()
	return b
}

// Where adds a (column, condition, value) comparison, ANDed with what is
// already there.
func (b *SpecBuilder[T]) Where(column string, cond Condition, raw string) *SpecBuilder[T] {
	if b.err != nil {
		return b
	}
	e, err := CompileCriterion(b.root(), b.mapping, b.coercer, FilterCriterion{Column: column, Value: raw, Condition: cond})
	if err != nil {
		b.err = err
		return b
	}
	b.spec.expr = AllOf(b.spec.expr, e)
	return b
}

// Match ANDs a prebuilt expression.
func (b *SpecBuilder[T]) Match(e Expr) *SpecBuilder[T] {
	if b.err != nil {
		return b
	}
	b.spec.expr = AllOf(b.spec.expr, e)
	return b
}

// Satisfies ANDs an opaque Go predicate.
func (b *SpecBuilder[T]) Satisfies(name string, fn func(T) bool) *SpecBuilder[T] {
	return b.Match(NewFunc(name, fn))
}

// Include adds an eager-load hint for a field path that must exist on T.
func (b *SpecBuilder[T]) Include(path string) *SpecBuilder[T] {
	if b.err != nil {
		return b
	}
	fp, err := Resolve(b.root(), path)
	if err != nil {
		b.err = err
		return b
	}
	b.spec.includes = unionBy(b.spec.includes, []FieldPath{fp}, FieldPath.String)
	return b
}

// IncludeString adds a dotted eager-load hint that is passed to the store as is.
func (b *SpecBuilder[T]) IncludeString(path string) *SpecBuilder[T] {
	if b.err != nil {
		return b
	}
	b.spec.includeStrings = unionBy(b.spec.includeStrings, []string{path}, func(v string) string { return v })
	return b
}

// OrderBy appends an ascending sort key.
func (b *SpecBuilder[T]) OrderBy(path string) *SpecBuilder[T] {
	return b.order(path, false)
}

// OrderByDesc appends a descending sort key.
func (b *SpecBuilder[T]) OrderByDesc(path string) *SpecBuilder[T] {
	return b.order(path, true)
}

func (b *SpecBuilder[T]) order(path string, desc bool) *SpecBuilder[T] {
	if b.err != nil {
		return b
	}
	fp, err := b.mapping.Resolve(b.root(), path)
	if err != nil {
		b.err = err
		return b
	}
	key, err := CompileSort(fp, desc)
	if err != nil {
		b.err = err
		return b
	}
	if desc {
		b.spec.orderByDesc = unionBy(b.spec.orderByDesc, []SortKey{key}, SortKey.String)
	} else {
		b.spec.orderBy = unionBy(b.spec.orderBy, []SortKey{key}, SortKey.String)
	}
	return b
}

// Build returns the specification or the first error recorded.
func (b *SpecBuilder[T]) Build() (Specification[T], error) {
	if b.err != nil {
		return Specification[T]{}, b.err
	}
	return Specification[T]{
		expr:           b.spec.expr,
		includes:       slices.Clone(b.spec.includes),
		includeStrings: slices.Clone(b.spec.includeStrings),
		orderBy:        slices.Clone(b.spec.orderBy),
		orderByDesc:    slices.Clone(b.spec.orderByDesc),
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *SpecBuilder[T]) MustBuild() Specification[T] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
