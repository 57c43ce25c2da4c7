package reconciliation

import (
	"bank-reconciliation-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Epsilon is the largest absolute difference still considered balanced.
var Epsilon = decimal.RequireFromString("0.01")

// bookEndingBalance is the sum of every matched item's amount. Always
// recomputed from the item set, never cached.
func bookEndingBalance(items []*models.StatementItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Status == models.ItemMatched {
			sum = sum.Add(it.Amount)
		}
	}
	return sum
}

// difference is statement ending balance minus book ending balance, or nil
// while no statement balance has been supplied.
func difference(session *models.ReconciliationSession, items []*models.StatementItem) *decimal.Decimal {
	if session.StatementEndingBalance == nil {
		return nil
	}
	d := session.StatementEndingBalance.Sub(bookEndingBalance(items))
	return &d
}

func balanced(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}
