package matching

import (
	"math"
	"testing"
	"time"
)

func TestJaccardScore(t *testing.T) {
	s := JaccardScorer{}

	cases := []struct {
		a, b string
		want float64
	}{
		{"OFFICE SUPPLIES CO", "office supplies co", 1},
		{"OFFICE SUPPLIES CO", "Office Supplies Co Invoice 112", 3.0 / 5.0},
		{"RENT PAYMENT", "utilities bill", 0},
		{"", "anything", 0},
		{"WIRE-TRANSFER", "wire transfer", 1}, // hyphen split
		{"A A A B", "a b", 1},                 // token set, not multiset
	}
	for _, c := range cases {
		got := s.Score(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Score(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestJaccardSymmetric(t *testing.T) {
	s := JaccardScorer{}
	a, b := "acme corp invoice 42", "payment acme corp"
	if s.Score(a, b) != s.Score(b, a) {
		t.Error("score should be symmetric")
	}
}

func TestDateProximityDecay(t *testing.T) {
	w := testWindow()
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

	if got := dateProximity(d(10), d(10), w); got != 1 {
		t.Errorf("same-day proximity = %v, want 1", got)
	}

	near := dateProximity(d(10), d(11), w)
	far := dateProximity(d(10), d(20), w)
	if near <= far {
		t.Errorf("proximity should decay with distance: near=%v far=%v", near, far)
	}

	// At the farthest window edge the score reaches zero. Item on Jan 10,
	// edge at Feb 5 is 26 days out.
	edge := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	if got := dateProximity(d(10), edge, w); got != 0 {
		t.Errorf("edge proximity = %v, want 0", got)
	}

	for _, tx := range []time.Time{d(10), d(12), d(25), edge} {
		got := dateProximity(d(10), tx, w)
		if got < 0 || got > 1 {
			t.Errorf("proximity %v out of [0,1]", got)
		}
	}
}
