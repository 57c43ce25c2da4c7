package matching

import (
	"testing"
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	periodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func testWindow() Window {
	return NewWindow(periodStart, periodEnd, 5)
}

func item(day int, amount, desc string) *models.StatementItem {
	return &models.StatementItem{
		ID:          uuid.New(),
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Status:      models.ItemUnmatched,
	}
}

func ledgerTx(day int, amount, desc string) *models.LedgerTransaction {
	return &models.LedgerTransaction{
		ID:          uuid.New(),
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestExactPassMatch(t *testing.T) {
	// Same amount, same date, unique candidate: confidence exactly 100.
	it := item(5, "-150.00", "OFFICE SUPPLIES CO")
	tx := ledgerTx(5, "-150.00", "Office Supplies Co Invoice 112")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{it}, []*models.LedgerTransaction{tx}, testWindow())

	if len(res.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(res.Assignments))
	}
	a := res.Assignments[0]
	if a.Transaction.ID != tx.ID {
		t.Error("wrong transaction assigned")
	}
	if !a.Confidence.Equal(decimal.NewFromInt(100)) {
		t.Errorf("confidence = %s, want 100", a.Confidence)
	}
	if a.Breakdown.Pass != "exact" {
		t.Errorf("pass = %s, want exact", a.Breakdown.Pass)
	}
}

func TestDateProximityBreaksTie(t *testing.T) {
	// Two exact-amount candidates with identical descriptions; the
	// date-exact one must win.
	it := item(10, "-75.00", "Misc")
	far := ledgerTx(8, "-75.00", "Misc")
	near := ledgerTx(10, "-75.00", "Misc")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{it}, []*models.LedgerTransaction{far, near}, testWindow())

	if len(res.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(res.Assignments))
	}
	if res.Assignments[0].Transaction.ID != near.ID {
		t.Error("engine picked the farther-dated candidate")
	}
}

func TestScoredPassPrefersDescription(t *testing.T) {
	// Two candidates on the item's date, so the exact pass is ambiguous
	// and skips; the scored pass must pick the similar description.
	it := item(10, "-200.00", "ACME SUPPLIES INVOICE")
	good := ledgerTx(10, "-200.00", "acme supplies invoice")
	bad := ledgerTx(10, "-200.00", "completely unrelated payment")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{it}, []*models.LedgerTransaction{good, bad}, testWindow())

	if len(res.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(res.Assignments))
	}
	a := res.Assignments[0]
	if a.Transaction.ID != good.ID {
		t.Error("engine picked the dissimilar description")
	}
	if a.Breakdown.Pass != "scored" {
		t.Errorf("pass = %s, want scored", a.Breakdown.Pass)
	}
	if !a.Confidence.Equal(decimal.NewFromInt(100)) {
		t.Errorf("confidence = %s, want 100 (perfect date and description)", a.Confidence)
	}
}

func TestBelowThresholdRecordsSuggestion(t *testing.T) {
	// Far date, no description overlap: the item must stay unmatched with
	// its top candidate recorded as a suggestion.
	it := item(10, "-50.00", "WIRE TRANSFER OUT")
	tx := ledgerTx(14, "-50.00", "misc expense")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{it}, []*models.LedgerTransaction{tx}, testWindow())

	if len(res.Assignments) != 0 {
		t.Fatalf("assignments = %d, want 0", len(res.Assignments))
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(res.Suggestions))
	}
	s := res.Suggestions[0]
	if s.ItemID != it.ID || s.TransactionID != tx.ID {
		t.Error("suggestion references the wrong pair")
	}
	if s.Score.GreaterThanOrEqual(decimal.NewFromInt(70)) {
		t.Errorf("suggestion score %s should be below the threshold", s.Score)
	}
	if s.Score.IsNegative() || s.Score.GreaterThan(decimal.NewFromInt(100)) {
		t.Errorf("score %s out of [0,100]", s.Score)
	}
}

func TestInjectiveAssignment(t *testing.T) {
	// Two items competing for one transaction: exactly one wins.
	a := item(10, "-30.00", "FEE")
	b := item(10, "-30.00", "FEE")
	tx := ledgerTx(10, "-30.00", "FEE")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{a, b}, []*models.LedgerTransaction{tx}, testWindow())

	if len(res.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(res.Assignments))
	}
	seen := make(map[uuid.UUID]bool)
	for _, as := range res.Assignments {
		if seen[as.Transaction.ID] {
			t.Error("transaction assigned twice")
		}
		seen[as.Transaction.ID] = true
	}
}

func TestDeterministicAssignment(t *testing.T) {
	items := []*models.StatementItem{
		item(10, "-40.00", "POS PURCHASE"),
		item(10, "-40.00", "POS PURCHASE"),
	}
	pool := []*models.LedgerTransaction{
		ledgerTx(10, "-40.00", "POS PURCHASE"),
		ledgerTx(10, "-40.00", "POS PURCHASE"),
	}

	engine := NewEngine(DefaultConfig(), nil)
	first := engine.Run(items, pool, testWindow())
	if len(first.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(first.Assignments))
	}

	want := make(map[uuid.UUID]uuid.UUID)
	for _, a := range first.Assignments {
		want[a.Item.ID] = a.Transaction.ID
	}

	// Shuffled inputs must produce the identical pairing.
	for run := 0; run < 10; run++ {
		shuffledItems := []*models.StatementItem{items[1], items[0]}
		shuffledPool := []*models.LedgerTransaction{pool[1], pool[0]}
		res := engine.Run(shuffledItems, shuffledPool, testWindow())
		if len(res.Assignments) != 2 {
			t.Fatalf("run %d: assignments = %d, want 2", run, len(res.Assignments))
		}
		for _, a := range res.Assignments {
			if want[a.Item.ID] != a.Transaction.ID {
				t.Fatalf("run %d: pairing differs from first run", run)
			}
		}
	}
}

func TestNoPartialAmountMatching(t *testing.T) {
	it := item(10, "-100.00", "RENT")
	near := ledgerTx(10, "-99.99", "RENT")

	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run([]*models.StatementItem{it}, []*models.LedgerTransaction{near}, testWindow())

	if len(res.Assignments) != 0 || len(res.Suggestions) != 0 {
		t.Error("non-exact amounts must be excluded entirely")
	}
}

func TestRunOnEmptyInputs(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)
	res := engine.Run(nil, nil, testWindow())
	if len(res.Assignments) != 0 || len(res.Suggestions) != 0 {
		t.Error("empty inputs should produce an empty result")
	}
}
