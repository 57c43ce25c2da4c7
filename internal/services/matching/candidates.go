package matching

import (
	"time"

	"bank-reconciliation-backend/internal/models"
)

// Window is the date range ledger transactions are considered in: the
// session period widened by the configured slack on both sides.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(periodStart, periodEnd time.Time, slackDays int) Window {
	slack := time.Duration(slackDays) * 24 * time.Hour
	return Window{
		Start: periodStart.Add(-slack),
		End:   periodEnd.Add(slack),
	}
}

func (w Window) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(dateOnly(w.Start)) && !d.After(dateOnly(w.End))
}

// maxDistanceDays is the largest date distance a candidate inside the
// window can have from the given date. Date-proximity scoring decays to
// zero at this edge.
func (w Window) maxDistanceDays(from time.Time) float64 {
	toStart := daysBetween(from, w.Start)
	toEnd := daysBetween(from, w.End)
	if toStart > toEnd {
		return toStart
	}
	return toEnd
}

// GenerateCandidates returns every pool transaction eligible to match the
// item: amount equal to the smallest currency unit and date inside the
// window. Pure read; an empty result just leaves the item unmatched.
func GenerateCandidates(item *models.StatementItem, pool []*models.LedgerTransaction, w Window) []*models.LedgerTransaction {
	var out []*models.LedgerTransaction
	for _, tx := range pool {
		if !tx.Amount.Equal(item.Amount) {
			continue
		}
		if !w.Contains(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the absolute whole-day distance between two dates,
// ignoring time of day.
func daysBetween(a, b time.Time) float64 {
	d := dateOnly(a).Sub(dateOnly(b)).Hours() / 24
	if d < 0 {
		d = -d
	}
	return d
}
