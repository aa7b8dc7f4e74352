// Package sievetest provides a conformance suite for sieve.Store
// implementations.
//
// A provider test builds a store over the fixture library and hands the
// factory to Run:
//
//	func TestConformance(t *testing.T) {
//		sievetest.Run(t, func(t *testing.T, books []sievetest.Book) sieve.Store[sievetest.Book] {
//			return memory.New(books...).WithLoader("Author", sievetest.AuthorLoader(sievetest.Authors()))
//		})
//	}
//
// The factory must register AuthorLoader for the "Author" include. Fixture
// values avoid relying on case folding or NULL ordering, which stores are free
// to define for themselves.
package sievetest

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/zoobzio/sieve"
)

// Author is the related record loaded through the "Author" include.
type Author struct {
	ID        int    `db:"id" constraints:"primary_key"`
	FirstName string `db:"first_name" constraints:"not_null"`
	LastName  string `db:"last_name" constraints:"not_null"`
}

// Book is the fixture record type.
type Book struct {
	ID          int     `db:"id" constraints:"primary_key"`
	Title       string  `db:"title" constraints:"not_null"`
	AuthorID    int     `db:"author_id" constraints:"not_null"`
	Pages       int     `db:"pages" constraints:"not_null"`
	Rating      float64 `db:"rating" constraints:"not_null"`
	IsPublished bool    `db:"is_published" constraints:"not_null"`
	Edition     *int64  `db:"edition"`
	Author      *Author `db:"-"`
}

// BookView is the projection used by the pagination cases.
type BookView struct {
	ID              int
	Title           string
	AuthorFirstName string `sieve:"Author.FirstName"`
	Edition         int64
}

// Factory builds a store holding books. Relations are not populated.
type Factory func(t *testing.T, books []Book) sieve.Store[Book]

func edition(n int64) *int64 { return &n }

// Library returns the fixture books in insertion order. Book 5 references an
// author that does not exist.
func Library() []Book {
	return []Book{
		{ID: 1, Title: "Go in Action", AuthorID: 1, Pages: 264, Rating: 4.5, IsPublished: true, Edition: edition(2)},
		{ID: 2, Title: "Pride and Prejudice", AuthorID: 2, Pages: 432, Rating: 4.8, IsPublished: true},
		{ID: 3, Title: "Cosmos", AuthorID: 3, Pages: 365, Rating: 4.7, IsPublished: true, Edition: edition(1)},
		{ID: 4, Title: "Draft Notes", AuthorID: 1, Pages: 12, Rating: 0, IsPublished: false},
		{ID: 5, Title: "snake_case Style", AuthorID: 4, Pages: 80, Rating: 3.1, IsPublished: false, Edition: edition(3)},
		{ID: 6, Title: "100% Go", AuthorID: 1, Pages: 150, Rating: 3.9, IsPublished: true},
	}
}

// Authors returns the fixture authors.
func Authors() []Author {
	return []Author{
		{ID: 1, FirstName: "Omid", LastName: "Ahmadi"},
		{ID: 2, FirstName: "Jane", LastName: "Austen"},
		{ID: 3, FirstName: "Carl", LastName: "Sagan"},
	}
}

// AuthorLoader populates Book.Author from authors by AuthorID. Books whose
// author is unknown keep a nil Author.
func AuthorLoader(authors []Author) sieve.Loader[Book] {
	byID := make(map[int]Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	return func(ctx context.Context, records []Book) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range records {
			if a, ok := byID[records[i].AuthorID]; ok {
				records[i].Author = &a
			}
		}
		return nil
	}
}

// IDs returns the ID of each book in order.
func IDs(books []Book) []int {
	out := make([]int, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

// Key compiles a sort key over a Book field path.
func Key(t *testing.T, path string, descending bool) sieve.SortKey {
	t.Helper()
	fp, err := sieve.Resolve(reflect.TypeFor[Book](), path)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", path, err)
	}
	key, err := sieve.CompileSort(fp, descending)
	if err != nil {
		t.Fatalf("CompileSort(%q) error = %v", path, err)
	}
	return key
}

// Run exercises store semantics against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Filters", func(t *testing.T) { testFilters(t, newStore) })
	t.Run("Order", func(t *testing.T) { testOrder(t, newStore) })
	t.Run("Window", func(t *testing.T) { testWindow(t, newStore) })
	t.Run("Terminals", func(t *testing.T) { testTerminals(t, newStore) })
	t.Run("Includes", func(t *testing.T) { testIncludes(t, newStore) })
	t.Run("Paginate", func(t *testing.T) { testPaginate(t, newStore) })
	t.Run("Cancelled", func(t *testing.T) { testCancelled(t, newStore) })
}

func where(column string, cond sieve.Condition, value string) *sieve.SpecBuilder[Book] {
	return sieve.NewSpec[Book]().Where(column, cond, value)
}

func testFilters(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		spec *sieve.SpecBuilder[Book]
		want []int
	}{
		{"text equals", where("Title", sieve.Equals, "Cosmos"), []int{3}},
		{"text contains", where("Title", sieve.Contains, "Go"), []int{1, 6}},
		{"text starts with", where("Title", sieve.StartsWith, "Pri"), []int{2}},
		{"text ends with", where("Title", sieve.EndsWith, "Notes"), []int{4}},
		{"contains percent literally", where("Title", sieve.Contains, "%"), []int{6}},
		{"contains underscore literally", where("Title", sieve.Contains, "_"), []int{5}},
		{"int greater", where("Pages", sieve.GreaterThan, "300"), []int{2, 3}},
		{"int greater or equal", where("Pages", sieve.GreaterOrEqual, "264"), []int{1, 2, 3}},
		{"int less", where("Pages", sieve.LessThan, "80"), []int{4}},
		{"int less or equal", where("Pages", sieve.LessOrEqual, "80"), []int{4, 5}},
		{"float greater", where("Rating", sieve.GreaterThan, "4.6"), []int{2, 3}},
		{"bool equals", where("IsPublished", sieve.Equals, "true"), []int{1, 2, 3, 6}},
		{"nullable equals", where("Edition", sieve.Equals, "1"), []int{3}},
		{"nullable greater", where("Edition", sieve.GreaterThan, "1"), []int{1, 5}},
		{"conjunction", where("IsPublished", sieve.Equals, "true").Where("Pages", sieve.LessThan, "300"), []int{1, 6}},
		{"related field", where("Author.FirstName", sieve.Equals, "Omid").Include("Author"), []int{1, 4, 6}},
		{"go predicate", sieve.NewSpec[Book]().Satisfies("odd", func(b Book) bool { return b.ID%2 == 1 }), []int{1, 3, 5}},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := tt.spec.Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			q := sieve.From(newStore(t, Library())).Where(spec).OrderBy(Key(t, "ID", false))

			books, err := q.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := IDs(books); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}

			n, err := q.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != len(tt.want) {
				t.Errorf("Count() = %d, want %d", n, len(tt.want))
			}
		})
	}

	t.Run("algebra", func(t *testing.T) {
		cosmos := where("Title", sieve.Equals, "Cosmos").MustBuild()
		short := where("Pages", sieve.LessThan, "20").MustBuild()
		published := where("IsPublished", sieve.Equals, "true").MustBuild()

		cases := []struct {
			name string
			spec sieve.Specification[Book]
			want []int
		}{
			{"or", cosmos.Or(short), []int{3, 4}},
			{"not", published.Not(), []int{4, 5}},
			{"and not", published.And(cosmos.Not()), []int{1, 2, 6}},
		}
		for _, tc := range cases {
			books, err := sieve.From(newStore(t, Library())).Where(tc.spec).OrderBy(Key(t, "ID", false)).List(ctx)
			if err != nil {
				t.Fatalf("%s: List() error = %v", tc.name, err)
			}
			if got := IDs(books); !slices.Equal(got, tc.want) {
				t.Errorf("%s: List() = %v, want %v", tc.name, got, tc.want)
			}
		}
	})
}

func testOrder(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		keys func(t *testing.T) []sieve.SortKey
		want []int
	}{
		{"text ascending", func(t *testing.T) []sieve.SortKey {
			return []sieve.SortKey{Key(t, "Title", false)}
		}, []int{6, 3, 4, 1, 2, 5}},
		{"int descending", func(t *testing.T) []sieve.SortKey {
			return []sieve.SortKey{Key(t, "Pages", true)}
		}, []int{2, 3, 1, 6, 5, 4}},
		{"multiple keys", func(t *testing.T) []sieve.SortKey {
			return []sieve.SortKey{Key(t, "IsPublished", false), Key(t, "Pages", true)}
		}, []int{5, 4, 2, 3, 1, 6}},
		{"nullable first", func(t *testing.T) []sieve.SortKey {
			return []sieve.SortKey{Key(t, "Edition", false), Key(t, "ID", false)}
		}, []int{2, 4, 6, 3, 1, 5}},
		{"nullable last descending", func(t *testing.T) []sieve.SortKey {
			return []sieve.SortKey{Key(t, "Edition", true), Key(t, "ID", false)}
		}, []int{5, 1, 3, 2, 4, 6}},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := sieve.From(newStore(t, Library())).OrderBy(tt.keys(t)...).List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := IDs(books); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testWindow(t *testing.T, newStore Factory) {
	odd := sieve.NewSpec[Book]().Satisfies("odd", func(b Book) bool { return b.ID%2 == 1 }).MustBuild()

	tests := []struct {
		name  string
		build func(q *sieve.Query[Book]) *sieve.Query[Book]
		want  []int
	}{
		{"skip and take", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Skip(2).Take(2) }, []int{3, 4}},
		{"take only", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Take(3) }, []int{1, 2, 3}},
		{"skip only", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Skip(4) }, []int{5, 6}},
		{"skip past end", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Skip(10) }, []int{}},
		{"take zero", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Take(0) }, []int{}},
		{"filtered window", func(q *sieve.Query[Book]) *sieve.Query[Book] {
			return q.Where(where("Pages", sieve.GreaterThan, "100").MustBuild()).Skip(1).Take(2)
		}, []int{2, 3}},
		{"window over go predicate", func(q *sieve.Query[Book]) *sieve.Query[Book] { return q.Where(odd).Skip(1).Take(1) }, []int{3}},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build(sieve.From(newStore(t, Library())).OrderBy(Key(t, "ID", false)))

			books, err := q.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := IDs(books); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}

			n, err := q.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != len(tt.want) {
				t.Errorf("Count() = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func testTerminals(t *testing.T, newStore Factory) {
	ctx := context.Background()
	all := sieve.From(newStore(t, Library()))
	published := where("IsPublished", sieve.Equals, "true").MustBuild()
	cosmos := where("Title", sieve.Equals, "Cosmos").MustBuild()
	missing := where("Title", sieve.Equals, "Missing").MustBuild()

	b, err := all.OrderBy(Key(t, "Pages", false)).First(ctx)
	if err != nil || b.ID != 4 {
		t.Errorf("First() = %d, %v", b.ID, err)
	}
	if _, err := all.Where(missing).First(ctx); !errors.Is(err, sieve.ErrNotFound) {
		t.Errorf("First() on no match: expected ErrNotFound, got %v", err)
	}

	b, err = all.Where(cosmos).Single(ctx)
	if err != nil || b.ID != 3 {
		t.Errorf("Single() = %d, %v", b.ID, err)
	}
	if _, err := all.Where(published).Single(ctx); !errors.Is(err, sieve.ErrMultipleRecords) {
		t.Errorf("Single() on many: expected ErrMultipleRecords, got %v", err)
	}

	if ok, err := all.Where(cosmos).Any(ctx); err != nil || !ok {
		t.Errorf("Any() = %v, %v", ok, err)
	}
	if ok, err := all.Where(missing).Any(ctx); err != nil || ok {
		t.Errorf("Any() on no match = %v, %v", ok, err)
	}

	if ok, err := all.Where(cosmos).All(ctx, published); err != nil || !ok {
		t.Errorf("All() = %v, %v", ok, err)
	}
	if ok, err := all.All(ctx, published); err != nil || ok {
		t.Errorf("All() over library = %v, %v", ok, err)
	}
	if ok, err := all.OrderBy(Key(t, "ID", false)).Take(3).All(ctx, published); err != nil || !ok {
		t.Errorf("All() over first three = %v, %v", ok, err)
	}
	if _, err := all.Take(3).Where(published).List(ctx); !errors.Is(err, sieve.ErrWindowedQuery) {
		t.Errorf("Where() after Take: expected ErrWindowedQuery, got %v", err)
	}
}

func testIncludes(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := newStore(t, Library())

	withAuthor, err := sieve.From(store).IncludeString("Author").OrderBy(Key(t, "ID", false)).List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := map[int]string{1: "Omid", 2: "Jane", 3: "Carl", 4: "Omid", 6: "Omid"}
	for _, b := range withAuthor {
		name, ok := want[b.ID]
		switch {
		case !ok && b.Author != nil:
			t.Errorf("book %d: expected no author, got %+v", b.ID, b.Author)
		case ok && (b.Author == nil || b.Author.FirstName != name):
			t.Errorf("book %d: expected author %s, got %+v", b.ID, name, b.Author)
		}
	}

	plain, err := sieve.From(store).List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, b := range plain {
		if b.Author != nil {
			t.Errorf("book %d: relation loaded without include", b.ID)
		}
	}
}

func testPaginate(t *testing.T, newStore Factory) {
	s, err := sieve.New[Book, BookView]()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	q := sieve.From(newStore(t, Library())).IncludeString("Author")

	page, err := s.Paginate(ctx, q, sieve.PageRequest{
		PageNumber: 1,
		PageSize:   2,
		SortColumn: "title",
		Filters: []sieve.FilterCriterion{
			{Column: "AuthorFirstName", Value: "Omid", Condition: sieve.Equals},
		},
	})
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if page.TotalRecords != 3 || page.TotalPages != 2 || page.PageNumber != 1 || page.PageSize != 2 {
		t.Errorf("page = %+v", page)
	}
	wantPage := []BookView{
		{ID: 6, Title: "100% Go", AuthorFirstName: "Omid"},
		{ID: 4, Title: "Draft Notes", AuthorFirstName: "Omid"},
	}
	if !slices.Equal(page.Data, wantPage) {
		t.Errorf("Data = %+v, want %+v", page.Data, wantPage)
	}

	page, err = s.Paginate(ctx, q, sieve.PageRequest{
		PageNumber:     2,
		PageSize:       4,
		SortColumn:     "Pages",
		SortDescending: true,
	})
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if page.TotalRecords != 6 || page.TotalPages != 2 {
		t.Errorf("page = %+v", page)
	}
	wantPage = []BookView{
		{ID: 5, Title: "snake_case Style", Edition: 3},
		{ID: 4, Title: "Draft Notes", AuthorFirstName: "Omid"},
	}
	if !slices.Equal(page.Data, wantPage) {
		t.Errorf("Data = %+v, want %+v", page.Data, wantPage)
	}
}

func testCancelled(t *testing.T, newStore Factory) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := sieve.From(newStore(t, Library()))
	if _, err := q.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("List() expected context.Canceled, got %v", err)
	}
	if _, err := q.Count(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Count() expected context.Canceled, got %v", err)
	}
}
