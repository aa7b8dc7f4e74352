package sieve

import (
	"errors"
	"testing"
)

type editionDTO struct {
	ID      int
	Edition int64
}

type badTypeDTO struct {
	Title int
}

type missingFieldDTO struct {
	Subtitle string
}

type registeredDTO struct {
	ID         int
	AuthorLast string
}

func TestProjector(t *testing.T) {
	p, err := NewProjector[Book, BookDTO]()
	if err != nil {
		t.Fatalf("NewProjector() error = %v", err)
	}

	books := library()

	t.Run("maps tagged path", func(t *testing.T) {
		dto := p.Map(books[0])
		want := BookDTO{ID: 1, Title: "Go in Action", AuthorFirstName: "Omid", IsPublished: true}
		if dto != want {
			t.Errorf("Map() = %+v, want %+v", dto, want)
		}
	})

	t.Run("nil path leaves zero value", func(t *testing.T) {
		dto := p.Map(books[4])
		if dto.AuthorFirstName != "" || dto.Title != "Orphan Manuscript" {
			t.Errorf("Map() = %+v", dto)
		}
	})

	t.Run("excluded field is untouched", func(t *testing.T) {
		for _, src := range p.Sources() {
			if src.String() == "Internal" {
				t.Error("excluded field was projected")
			}
		}
	})

	t.Run("map all keeps order", func(t *testing.T) {
		dtos := p.MapAll(books)
		if len(dtos) != len(books) {
			t.Fatalf("MapAll() returned %d records", len(dtos))
		}
		for i := range dtos {
			if dtos[i].ID != books[i].ID {
				t.Errorf("dtos[%d].ID = %d, want %d", i, dtos[i].ID, books[i].ID)
			}
		}
	})
}

func TestProjector_PointerSource(t *testing.T) {
	p, err := NewProjector[*Book, editionDTO]()
	if err != nil {
		t.Fatalf("NewProjector() error = %v", err)
	}

	books := library()
	if got := p.Map(&books[0]); got.Edition != 2 || got.ID != 1 {
		t.Errorf("Map() = %+v", got)
	}
	if got := p.Map(&books[1]); got.Edition != 0 {
		t.Errorf("nil edition should project as zero, got %d", got.Edition)
	}
	if got := p.Map(nil); got != (editionDTO{}) {
		t.Errorf("nil record should project as zero, got %+v", got)
	}
}

func TestProjector_Errors(t *testing.T) {
	t.Run("type mismatch", func(t *testing.T) {
		_, err := NewProjector[Book, badTypeDTO]()
		if !errors.Is(err, ErrFieldTypeMismatch) {
			t.Errorf("expected ErrFieldTypeMismatch, got %v", err)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := NewProjector[Book, missingFieldDTO]()
		if !errors.Is(err, ErrFieldNotFound) {
			t.Errorf("expected ErrFieldNotFound, got %v", err)
		}
	})

	t.Run("non-struct target", func(t *testing.T) {
		_, err := NewProjector[Book, string]()
		if !errors.Is(err, ErrUnsupportedFieldType) {
			t.Errorf("expected ErrUnsupportedFieldType, got %v", err)
		}
	})
}

func TestMap_Registered(t *testing.T) {
	Map[registeredDTO]("authorLast", "Author.LastName")

	p, err := NewProjector[Book, registeredDTO]()
	if err != nil {
		t.Fatalf("NewProjector() error = %v", err)
	}
	if got := p.Map(library()[1]); got.AuthorLast != "Austen" {
		t.Errorf("AuthorLast = %q, want Austen", got.AuthorLast)
	}
}

func TestMapping_Path(t *testing.T) {
	m := Mapping{"AuthorFirstName": "Author.FirstName"}

	tests := []struct {
		in, want string
	}{
		{"AuthorFirstName", "Author.FirstName"},
		{"authorFirstName", "Author.FirstName"},
		{"Title", "Title"},
		{"title", "title"},
	}
	for _, tt := range tests {
		if got := m.Path(tt.in); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	var empty Mapping
	if got := empty.Path("x"); got != "x" {
		t.Errorf("nil mapping Path() = %q", got)
	}
}
