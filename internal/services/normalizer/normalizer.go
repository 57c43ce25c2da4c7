// Package normalizer converts raw extracted statement rows into canonical
// statement items. Format-specific parsing (PDF/CSV/Excel) happens upstream;
// this package only receives already-tabular rows.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/shopspring/decimal"
)

// RawRow is one row as produced by the upstream extractor. All fields are
// strings; normalization owns parsing and validation.
type RawRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
}

// RowError reports a single rejected row. The upload as a whole still
// succeeds for the remaining rows.
type RowError struct {
	Row   int            `json:"row"`
	Field string         `json:"field,omitempty"`
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code"`
}

var dateFormats = []string{"2006-01-02", "02-01-2006", "01/02/2006"}

// Normalize validates and converts rows into statement items. Rows failing
// validation are rejected individually; duplicates of an earlier row in the
// same upload are rejected with a duplicate_row error. Returned items carry
// no ID or session yet; the caller attaches them.
func Normalize(rows []RawRow) ([]*models.StatementItem, []RowError) {
	items := make([]*models.StatementItem, 0, len(rows))
	var rowErrs []RowError
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		item, field, err := normalizeRow(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{
				Row:   i + 1,
				Field: field,
				Error: err.Message,
				Code:  err.Code,
			})
			continue
		}

		key := dedupKey(item, row.Reference)
		if seen[key] {
			rowErrs = append(rowErrs, RowError{
				Row:   i + 1,
				Error: fmt.Sprintf("duplicate of an earlier row (%s %s %s)", row.Date, row.Amount, row.Description),
				Code:  apperrors.CodeDuplicateRow,
			})
			continue
		}
		seen[key] = true

		items = append(items, item)
	}

	return items, rowErrs
}

func normalizeRow(row RawRow) (*models.StatementItem, string, *apperrors.Error) {
	dateStr := strings.TrimSpace(row.Date)
	if dateStr == "" {
		return nil, "date", apperrors.New(apperrors.CodeValidation, "date is required")
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, "date", apperrors.Newf(apperrors.CodeValidation, "invalid date %q", dateStr)
	}

	amountStr := strings.TrimSpace(row.Amount)
	if amountStr == "" {
		return nil, "amount", apperrors.New(apperrors.CodeValidation, "amount is required")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, "amount", apperrors.Newf(apperrors.CodeValidation, "invalid amount %q", amountStr)
	}

	return &models.StatementItem{
		Date:        date,
		Description: strings.TrimSpace(row.Description),
		Amount:      amount,
		Reference:   strings.TrimSpace(row.Reference),
		Status:      models.ItemUnmatched,
	}, "", nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func dedupKey(item *models.StatementItem, reference string) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		item.Date.Format("2006-01-02"),
		item.Amount.String(),
		strings.ToLower(item.Description),
		strings.ToLower(strings.TrimSpace(reference)),
	)
}
