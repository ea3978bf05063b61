package repository

import (
	"errors"
	"testing"
	"time"
)

func TestCursor_RoundTrip(t *testing.T) {
	t.Parallel()

	in := &PaginationCursor{
		ID:        "01HQZX3J5W8Y6K7M9N2P4R6T8V",
		CreatedAt: time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC),
	}

	out, err := decodeCursor(encodeCursor(in))
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}
	if out.ID != in.ID || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("cursor mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "%%%"},
		{"not json", "bm90LWpzb24="},
		{"empty object", "e30="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := decodeCursor(tt.cursor); err == nil {
				t.Errorf("decodeCursor(%q) expected error", tt.cursor)
			}
		})
	}

	if _, err := decodeCursor("e30="); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("decodeCursor(empty object) = %v, want ErrInvalidCursor", err)
	}
}

func TestNonNil(t *testing.T) {
	t.Parallel()

	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v, want empty slice", got)
	}
	if got := nonNil([]string{"title"}); len(got) != 1 {
		t.Errorf("nonNil([title]) = %#v", got)
	}
}
