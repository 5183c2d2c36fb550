package probe

import (
	"errors"
	"testing"
)

func TestSummarize(t *testing.T) {
	cases := []struct {
		in   []int64
		want Summary
	}{
		{[]int64{5}, Summary{MinMS: 5, MaxMS: 5, AvgMS: 5, Attempts: 1}},
		{[]int64{3, 1, 2}, Summary{MinMS: 1, MaxMS: 3, AvgMS: 2, Attempts: 3}},
		{[]int64{10, 0, 0, 1}, Summary{MinMS: 0, MaxMS: 10, AvgMS: 2.75, Attempts: 4}},
	}
	for _, c := range cases {
		got, err := Summarize(c.in)
		if err != nil {
			t.Fatalf("Summarize(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Summarize(%v)=%+v want %+v", c.in, got, c.want)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	var ee *EmptyInputError
	if !errors.As(err, &ee) {
		t.Fatalf("want EmptyInputError, got %v", err)
	}
}
