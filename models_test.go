package sieve

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Genre int

const (
	Fiction Genre = iota + 1
	Science
	History
)

func (g Genre) String() string {
	switch g {
	case Fiction:
		return "Fiction"
	case Science:
		return "Science"
	case History:
		return "History"
	}
	return "Unknown"
}

// Format decodes itself from text rather than being registered.
type Format int

const (
	Hardcover Format = iota + 1
	Paperback
)

func (f *Format) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "hardcover":
		*f = Hardcover
	case "paperback":
		*f = Paperback
	default:
		return errors.New("unknown format")
	}
	return nil
}

func init() {
	RegisterEnum(map[string]Genre{
		"Fiction": Fiction,
		"Science": Science,
		"History": History,
	})
}

type Author struct {
	ID        int
	FirstName string
	LastName  string
}

type Book struct {
	ID          int
	Title       string
	AuthorID    int
	IsPublished bool
	Published   time.Time
	Pages       int32
	Edition     *int64
	Rating      float64
	Genre       Genre
	Format      Format
	Author      *Author
}

type BookDTO struct {
	ID              int
	Title           string
	AuthorFirstName string `sieve:"Author.FirstName"`
	IsPublished     bool
	Internal        string `sieve:"-"`
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func library() []Book {
	omid := &Author{ID: 1, FirstName: "Omid", LastName: "Ahmadi"}
	jane := &Author{ID: 2, FirstName: "Jane", LastName: "Austen"}
	carl := &Author{ID: 3, FirstName: "Carl", LastName: "Sagan"}

	return []Book{
		{ID: 1, Title: "Go in Action", AuthorID: 1, IsPublished: true, Published: date("2016-01-10"), Pages: 264, Edition: ptr[int64](2), Genre: Science, Format: Paperback, Author: omid},
		{ID: 2, Title: "Pride and Prejudice", AuthorID: 2, IsPublished: true, Published: date("1813-01-28"), Pages: 432, Genre: Fiction, Format: Hardcover, Author: jane},
		{ID: 3, Title: "Cosmos", AuthorID: 3, IsPublished: true, Published: date("1980-10-01"), Pages: 365, Edition: ptr[int64](1), Genre: Science, Format: Hardcover, Author: carl},
		{ID: 4, Title: "Draft Notes", AuthorID: 1, IsPublished: false, Pages: 12, Genre: History, Format: Paperback, Author: omid},
		{ID: 5, Title: "Orphan Manuscript", IsPublished: false, Pages: 80, Genre: Fiction, Format: Paperback},
	}
}

// sliceStore evaluates plans over a slice and records what it was asked.
type sliceStore struct {
	records []Book
	err     error
	fetches []Plan
	counts  []Plan
}

func (s *sliceStore) Fetch(ctx context.Context, plan Plan) ([]Book, error) {
	s.fetches = append(s.fetches, plan)
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Evaluate(plan, s.records), nil
}

func (s *sliceStore) Count(ctx context.Context, plan Plan) (int, error) {
	s.counts = append(s.counts, plan)
	if s.err != nil {
		return 0, s.err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	all := plan
	all.Offset, all.Limit = 0, -1
	return plan.Window(len(Evaluate(all, s.records))), nil
}

func ids(books []Book) []int {
	out := make([]int, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}
