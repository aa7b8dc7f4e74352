package sieve

import (
	"errors"
	"testing"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PageRequest
	}{
		{
			name:  "empty object uses defaults",
			input: `{}`,
			want:  PageRequest{PageNumber: 1, PageSize: 10},
		},
		{
			name:  "numeric condition",
			input: `{"pageNumber":2,"pageSize":25,"sortColumn":"title","sortDescending":true,"filters":[{"column":"AuthorFirstName","value":"Omid","condition":2}]}`,
			want: PageRequest{PageNumber: 2, PageSize: 25, SortColumn: "title", SortDescending: true, Filters: []FilterCriterion{
				{Column: "AuthorFirstName", Value: "Omid", Condition: Contains},
			}},
		},
		{
			name:  "named condition",
			input: `{"filters":[{"column":"Pages","value":"100","condition":"GreaterThan"}]}`,
			want: PageRequest{PageNumber: 1, PageSize: 10, Filters: []FilterCriterion{
				{Column: "Pages", Value: "100", Condition: GreaterThan},
			}},
		},
		{
			name:  "null members",
			input: `{"sortColumn":null,"filters":[{"column":"Title","value":null,"condition":"equals"}]}`,
			want: PageRequest{PageNumber: 1, PageSize: 10, Filters: []FilterCriterion{
				{Column: "Title", Condition: Equals},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRequest([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParsePageRequest() error = %v", err)
			}
			if got.PageNumber != tt.want.PageNumber || got.PageSize != tt.want.PageSize ||
				got.SortColumn != tt.want.SortColumn || got.SortDescending != tt.want.SortDescending {
				t.Errorf("ParsePageRequest() = %+v, want %+v", got, tt.want)
			}
			if len(got.Filters) != len(tt.want.Filters) {
				t.Fatalf("Filters = %+v, want %+v", got.Filters, tt.want.Filters)
			}
			for i := range got.Filters {
				if got.Filters[i] != tt.want.Filters[i] {
					t.Errorf("Filters[%d] = %+v, want %+v", i, got.Filters[i], tt.want.Filters[i])
				}
			}
		})
	}
}

func TestParsePageRequest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed json", `{"pageNumber":`},
		{"negative page", `{"pageNumber":-1}`},
		{"string page size", `{"pageSize":"10"}`},
		{"filter without column", `{"filters":[{"value":"x","condition":1}]}`},
		{"empty column", `{"filters":[{"column":"","condition":1}]}`},
		{"condition out of range", `{"filters":[{"column":"Title","condition":9}]}`},
		{"unknown condition name", `{"filters":[{"column":"Title","condition":"Between"}]}`},
		{"not an object", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePageRequest([]byte(tt.input))
			if !errors.Is(err, ErrInvalidPageRequest) {
				t.Errorf("expected ErrInvalidPageRequest, got %v", err)
			}
		})
	}
}
