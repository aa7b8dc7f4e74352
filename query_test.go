package sieve

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestQuery_Window(t *testing.T) {
	tests := []struct {
		name      string
		build     func(q *Query[Book]) *Query[Book]
		offset    int
		limit     int
		wantIDs   []int
		wantCount int
	}{
		{"unbounded", func(q *Query[Book]) *Query[Book] { return q }, 0, -1, []int{1, 2, 3, 4, 5}, 5},
		{"skip", func(q *Query[Book]) *Query[Book] { return q.Skip(2) }, 2, -1, []int{3, 4, 5}, 3},
		{"take", func(q *Query[Book]) *Query[Book] { return q.Take(2) }, 0, 2, []int{1, 2}, 2},
		{"skip then take", func(q *Query[Book]) *Query[Book] { return q.Skip(1).Take(3) }, 1, 3, []int{2, 3, 4}, 3},
		{"take then skip", func(q *Query[Book]) *Query[Book] { return q.Take(3).Skip(1) }, 1, 2, []int{2, 3}, 2},
		{"take keeps smaller", func(q *Query[Book]) *Query[Book] { return q.Take(2).Take(4) }, 0, 2, []int{1, 2}, 2},
		{"skip accumulates", func(q *Query[Book]) *Query[Book] { return q.Skip(1).Skip(2) }, 3, -1, []int{4, 5}, 2},
		{"skip past end", func(q *Query[Book]) *Query[Book] { return q.Skip(10) }, 10, -1, []int{}, 0},
		{"skip past take", func(q *Query[Book]) *Query[Book] { return q.Take(2).Skip(5) }, 5, 0, []int{}, 0},
		{"negative clamps", func(q *Query[Book]) *Query[Book] { return q.Skip(-1).Take(-1) }, 0, 0, []int{}, 0},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build(From[Book](&sliceStore{records: library()}))
			plan := q.Plan()
			if plan.Offset != tt.offset || plan.Limit != tt.limit {
				t.Errorf("window = (%d, %d), want (%d, %d)", plan.Offset, plan.Limit, tt.offset, tt.limit)
			}

			books, err := q.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := ids(books); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("List() = %v, want %v", got, tt.wantIDs)
			}

			n, err := q.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != tt.wantCount {
				t.Errorf("Count() = %d, want %d", n, tt.wantCount)
			}
		})
	}
}

func TestQuery_Where(t *testing.T) {
	ctx := context.Background()
	store := &sliceStore{records: library()}

	q := From[Book](store).
		Where(byAuthorFirstName("Omid")).
		Where(published().Or(byTitle("Notes")))

	plan := q.Plan()
	if got := pathStrings(plan.Includes); !slices.Equal(got, []string{"Author"}) {
		t.Errorf("Includes = %v", got)
	}
	if got := specStrings(plan.Order); !slices.Equal(got, []string{"Title ASC", "ID DESC"}) {
		t.Errorf("Order = %v", got)
	}

	books, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := ids(books); !slices.Equal(got, []int{4, 1}) {
		t.Errorf("List() = %v, want [4 1]", got)
	}
}

func TestQuery_OrderingIsAppliedBeforeWindow(t *testing.T) {
	ctx := context.Background()
	q := From[Book](&sliceStore{records: library()}).
		OrderBy(sortKey(t, "Pages", false)).
		Take(2)

	books, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := ids(books); !slices.Equal(got, []int{4, 5}) {
		t.Errorf("List() = %v, want [4 5]", got)
	}
}

func TestQuery_ComposeAfterWindow(t *testing.T) {
	ctx := context.Background()
	windowed := From[Book](&sliceStore{records: library()}).Take(3)

	tests := []struct {
		name  string
		build func(*Query[Book]) *Query[Book]
	}{
		{"where", func(q *Query[Book]) *Query[Book] { return q.Where(published().Not()) }},
		{"filter", func(q *Query[Book]) *Query[Book] { return q.Filter(byTitle("Go").Expr()) }},
		{"order by", func(q *Query[Book]) *Query[Book] { return q.OrderBy(sortKey(t, "Pages", false)) }},
		{"reorder by", func(q *Query[Book]) *Query[Book] { return q.ReorderBy(sortKey(t, "Pages", true)) }},
		{"after skip", func(q *Query[Book]) *Query[Book] { return q.Skip(1).Filter(byTitle("Go").Expr()) }},
		{"error sticks", func(q *Query[Book]) *Query[Book] { return q.Filter(byTitle("Go").Expr()).Take(1).IncludeString("Author") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build(windowed)
			if !errors.Is(q.Err(), ErrWindowedQuery) {
				t.Errorf("Err() = %v, want ErrWindowedQuery", q.Err())
			}
			if _, err := q.List(ctx); !errors.Is(err, ErrWindowedQuery) {
				t.Errorf("List() error = %v, want ErrWindowedQuery", err)
			}
			if _, err := q.Count(ctx); !errors.Is(err, ErrWindowedQuery) {
				t.Errorf("Count() error = %v, want ErrWindowedQuery", err)
			}
			if _, err := q.First(ctx); !errors.Is(err, ErrWindowedQuery) {
				t.Errorf("First() error = %v, want ErrWindowedQuery", err)
			}
		})
	}

	t.Run("hints allowed", func(t *testing.T) {
		q := windowed.IncludeString("Author").Where(NewSpec[Book]().Include("Author").MustBuild()).Filter(nil).OrderBy()
		if q.Err() != nil {
			t.Fatalf("Err() = %v", q.Err())
		}
		books, err := q.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if got := ids(books); !slices.Equal(got, []int{1, 2, 3}) {
			t.Errorf("List() = %v, want [1 2 3]", got)
		}
	})
}

func TestQuery_AllRespectsWindow(t *testing.T) {
	ctx := context.Background()
	base := From[Book](&sliceStore{records: library()})

	tests := []struct {
		name string
		q    *Query[Book]
		spec Specification[Book]
		want bool
	}{
		{"take within published", base.Take(3), published(), true},
		{"skip into drafts", base.Skip(2), published(), false},
		{"whole library", base, published(), false},
		{"empty window", base.Skip(10), published(), true},
		{"related field", base.Take(1), byAuthorFirstName("Omid"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.q.All(ctx, tt.spec)
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("All() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuery_Immutable(t *testing.T) {
	base := From[Book](&sliceStore{records: library()}).IncludeString("Author")
	_ = base.OrderBy(sortKey(t, "ID", false)).Filter(byTitle("x").Expr()).Skip(2).Take(1).IncludeString("Reviews")

	plan := base.Plan()
	if plan.Offset != 0 || plan.Limit != -1 || plan.Criteria != nil || len(plan.Order) != 0 {
		t.Errorf("base plan changed: %+v", plan)
	}
	if !slices.Equal(plan.IncludeStrings, []string{"Author"}) {
		t.Errorf("IncludeStrings = %v", plan.IncludeStrings)
	}

	plan.IncludeStrings[0] = "mutated"
	if got := base.Plan().IncludeStrings[0]; got != "Author" {
		t.Errorf("Plan() exposed internal state: %q", got)
	}
}

func TestQuery_Terminals(t *testing.T) {
	ctx := context.Background()
	store := &sliceStore{records: library()}
	all := From[Book](store)
	omid := all.Where(byAuthorFirstName("Omid"))
	nobody := all.Where(byAuthorFirstName("Nobody"))
	carl := all.Where(byAuthorFirstName("Carl"))

	t.Run("first", func(t *testing.T) {
		b, err := omid.OrderBy(sortKey(t, "ID", true)).First(ctx)
		if err != nil || b.ID != 4 {
			t.Errorf("First() = %d, %v", b.ID, err)
		}
		if _, err := nobody.First(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("first or default", func(t *testing.T) {
		b, err := nobody.FirstOrDefault(ctx)
		if err != nil || b.ID != 0 {
			t.Errorf("FirstOrDefault() = %d, %v", b.ID, err)
		}
	})

	t.Run("single", func(t *testing.T) {
		b, err := carl.Single(ctx)
		if err != nil || b.ID != 3 {
			t.Errorf("Single() = %d, %v", b.ID, err)
		}
		if _, err := omid.Single(ctx); !errors.Is(err, ErrMultipleRecords) {
			t.Errorf("expected ErrMultipleRecords, got %v", err)
		}
		if _, err := nobody.Single(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("single or default", func(t *testing.T) {
		b, err := nobody.SingleOrDefault(ctx)
		if err != nil || b.ID != 0 {
			t.Errorf("SingleOrDefault() = %d, %v", b.ID, err)
		}
		if _, err := omid.SingleOrDefault(ctx); !errors.Is(err, ErrMultipleRecords) {
			t.Errorf("expected ErrMultipleRecords, got %v", err)
		}
	})

	t.Run("any", func(t *testing.T) {
		if ok, err := omid.Any(ctx); err != nil || !ok {
			t.Errorf("Any() = %v, %v", ok, err)
		}
		if ok, err := nobody.Any(ctx); err != nil || ok {
			t.Errorf("Any() = %v, %v", ok, err)
		}
	})

	t.Run("all", func(t *testing.T) {
		if ok, err := carl.All(ctx, published()); err != nil || !ok {
			t.Errorf("All() = %v, %v", ok, err)
		}
		if ok, err := omid.All(ctx, published()); err != nil || ok {
			t.Errorf("All() = %v, %v", ok, err)
		}
		if ok, err := nobody.All(ctx, published()); err != nil || !ok {
			t.Errorf("All() over no records = %v, %v", ok, err)
		}
	})
}

func TestQuery_StoreErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	q := From[Book](&sliceStore{records: library(), err: storeErr})

	if _, err := q.List(ctx); err != storeErr {
		t.Errorf("List() error = %v", err)
	}
	if _, err := q.Count(ctx); err != storeErr {
		t.Errorf("Count() error = %v", err)
	}
	if _, err := q.First(ctx); err != storeErr {
		t.Errorf("First() error = %v", err)
	}
	if _, err := q.SingleOrDefault(ctx); err != storeErr {
		t.Errorf("SingleOrDefault() error = %v", err)
	}
	if ok, err := q.All(ctx, published()); err != storeErr || ok {
		t.Errorf("All() = %v, %v", ok, err)
	}
}

func TestQuery_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := From[Book](&sliceStore{records: library()}).List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQuery_NilStore(t *testing.T) {
	ctx := context.Background()
	q := From[Book](nil)

	if _, err := q.List(ctx); !errors.Is(err, ErrNilStore) {
		t.Errorf("List() error = %v", err)
	}
	if _, err := q.Count(ctx); !errors.Is(err, ErrNilStore) {
		t.Errorf("Count() error = %v", err)
	}
}

func TestListAs(t *testing.T) {
	p, err := NewProjector[Book, BookDTO]()
	if err != nil {
		t.Fatalf("NewProjector() error = %v", err)
	}

	q := From[Book](&sliceStore{records: library()}).Where(byAuthorFirstName("Jane"))
	dtos, err := ListAs(context.Background(), q, p)
	if err != nil {
		t.Fatalf("ListAs() error = %v", err)
	}
	if len(dtos) != 1 || dtos[0].AuthorFirstName != "Jane" || dtos[0].Title != "Pride and Prejudice" {
		t.Errorf("ListAs() = %+v", dtos)
	}
}

func TestPlan_IncludePaths(t *testing.T) {
	plan := From[Book](nil).
		Where(byAuthorFirstName("x")).
		IncludeString("Author", "Author.Books").
		Plan()

	if got := plan.IncludePaths(); !slices.Equal(got, []string{"Author", "Author.Books"}) {
		t.Errorf("IncludePaths() = %v", got)
	}
}

func TestEvaluate(t *testing.T) {
	plan := Plan{
		Criteria: published().Expr(),
		Order:    []SortKey{sortKey(t, "Title", true)},
		Offset:   1,
		Limit:    1,
	}
	if got := ids(Evaluate(plan, library())); !slices.Equal(got, []int{1}) {
		t.Errorf("Evaluate() = %v, want [1]", got)
	}
}
