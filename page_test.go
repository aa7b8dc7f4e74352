package sieve

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		req        PageRequest
		wantNumber int
		wantSize   int
		wantErr    bool
	}{
		{"defaults", PageRequest{}, 1, 10, false},
		{"explicit", PageRequest{PageNumber: 3, PageSize: 25}, 3, 25, false},
		{"size only", PageRequest{PageSize: 5}, 1, 5, false},
		{"negative number", PageRequest{PageNumber: -1}, 0, 0, true},
		{"negative size", PageRequest{PageSize: -5}, 0, 0, true},
		{"largest page", PageRequest{PageNumber: math.MaxInt/10 + 1, PageSize: 10}, math.MaxInt/10 + 1, 10, false},
		{"offset overflows", PageRequest{PageNumber: math.MaxInt/10 + 2, PageSize: 10}, 0, 0, true},
		{"offset overflows default size", PageRequest{PageNumber: math.MaxInt}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPageRequest) {
					t.Errorf("expected ErrInvalidPageRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got.PageNumber != tt.wantNumber || got.PageSize != tt.wantSize {
				t.Errorf("Normalize() = (%d, %d), want (%d, %d)", got.PageNumber, got.PageSize, tt.wantNumber, tt.wantSize)
			}
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	tests := []struct {
		number, size, want int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{5, 3, 12},
		{0, 10, 0},
	}

	for _, tt := range tests {
		if got := (PageRequest{PageNumber: tt.number, PageSize: tt.size}).Offset(); got != tt.want {
			t.Errorf("Offset(%d, %d) = %d, want %d", tt.number, tt.size, got, tt.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestPageResult_JSON(t *testing.T) {
	result := NewPageResult[int](nil, 11, PageRequest{PageNumber: 2, PageSize: 10})

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"data":[],"totalRecords":11,"totalPages":2,"pageNumber":2,"pageSize":10}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
