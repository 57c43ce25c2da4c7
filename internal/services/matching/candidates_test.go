package matching

import (
	"testing"
	"time"

	"bank-reconciliation-backend/internal/models"
)

func TestGenerateCandidatesAmountAndWindow(t *testing.T) {
	it := item(10, "-150.00", "X")
	inWindow := ledgerTx(12, "-150.00", "a")
	wrongAmount := ledgerTx(12, "-150.01", "b")
	outOfWindow := ledgerTx(12, "-150.00", "c")
	outOfWindow.Date = time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	cands := GenerateCandidates(it, []*models.LedgerTransaction{inWindow, wrongAmount, outOfWindow}, testWindow())
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
	if cands[0] != inWindow {
		t.Error("wrong candidate selected")
	}
}

func TestWindowSlackEdges(t *testing.T) {
	w := NewWindow(periodStart, periodEnd, 5)

	cases := []struct {
		date time.Time
		in   bool
	}{
		{time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC), true},  // start - 5d
		{time.Date(2023, 12, 26, 0, 0, 0, 0, time.UTC), false}, // start - 6d
		{time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), true},    // end + 5d
		{time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), false},   // end + 6d
	}
	for _, c := range cases {
		if w.Contains(c.date) != c.in {
			t.Errorf("Contains(%s) = %v, want %v", c.date.Format("2006-01-02"), !c.in, c.in)
		}
	}
}

func TestEmptyCandidateSetIsValid(t *testing.T) {
	it := item(10, "-150.00", "X")
	if cands := GenerateCandidates(it, nil, testWindow()); len(cands) != 0 {
		t.Error("no pool should mean no candidates")
	}
}
