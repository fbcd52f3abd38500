package quizgen

import (
	"errors"
	"testing"
)

func TestQuota_NextBatch(t *testing.T) {
	q := DefaultQuota()
	tests := []struct {
		current int
		want    int
	}{
		{0, 10},
		{39, 10},
		{40, 10},
		{45, 5},
		{49, 1},
	}
	for _, tt := range tests {
		got, err := q.NextBatch("notes.txt", tt.current)
		if err != nil {
			t.Fatalf("NextBatch(%d) unexpected error: %v", tt.current, err)
		}
		if got != tt.want {
			t.Errorf("NextBatch(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestQuota_MaxReached(t *testing.T) {
	q := DefaultQuota()
	for _, current := range []int{50, 51} {
		n, err := q.NextBatch("notes.txt", current)
		var mr *MaxReachedError
		if !errors.As(err, &mr) {
			t.Fatalf("NextBatch(%d) expected MaxReachedError, got %v", current, err)
		}
		if n != 0 || mr.Total != current || mr.Max != 50 || mr.Source != "notes.txt" {
			t.Fatalf("unexpected result: n=%d err=%+v", n, mr)
		}
	}
	if got := (&MaxReachedError{Source: "a.pdf", Total: 50, Max: 50}).Error(); got != "Maximum 50 questions reached for 'a.pdf'." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestQuota_Remaining(t *testing.T) {
	q := DefaultQuota()
	if q.Remaining(45) != 5 || q.Remaining(60) != 0 {
		t.Fatal("unexpected remaining")
	}
}
