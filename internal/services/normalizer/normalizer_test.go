package normalizer

import (
	"fmt"
	"testing"

	"bank-reconciliation-backend/internal/apperrors"

	"github.com/shopspring/decimal"
)

func TestNormalizePartialSuccess(t *testing.T) {
	// 10 rows, row 4 missing its amount. The batch must not abort.
	rows := make([]RawRow, 0, 10)
	for i := 1; i <= 10; i++ {
		amount := fmt.Sprintf("-%d.00", i*10)
		if i == 4 {
			amount = ""
		}
		rows = append(rows, RawRow{
			Date:        "2024-01-05",
			Description: fmt.Sprintf("PAYMENT %d", i),
			Amount:      amount,
			Reference:   fmt.Sprintf("REF%03d", i),
		})
	}

	items, rowErrs := Normalize(rows)
	if len(items) != 9 {
		t.Fatalf("items = %d, want 9", len(items))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("row errors = %d, want 1", len(rowErrs))
	}
	if rowErrs[0].Row != 4 || rowErrs[0].Field != "amount" {
		t.Errorf("row error = %+v, want row 4 field amount", rowErrs[0])
	}
	if rowErrs[0].Code != apperrors.CodeValidation {
		t.Errorf("row error code = %s, want %s", rowErrs[0].Code, apperrors.CodeValidation)
	}
}

func TestNormalizeRejectsDuplicates(t *testing.T) {
	row := RawRow{Date: "2024-01-05", Description: "RENT", Amount: "-1200.00", Reference: "R1"}
	items, rowErrs := Normalize([]RawRow{row, row})

	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("row errors = %d, want 1", len(rowErrs))
	}
	if rowErrs[0].Code != apperrors.CodeDuplicateRow {
		t.Errorf("code = %s, want %s", rowErrs[0].Code, apperrors.CodeDuplicateRow)
	}
	if rowErrs[0].Row != 2 {
		t.Errorf("row = %d, want 2 (the later occurrence)", rowErrs[0].Row)
	}
}

func TestNormalizeDistinctReferenceNotDuplicate(t *testing.T) {
	rows := []RawRow{
		{Date: "2024-01-05", Description: "FEE", Amount: "-5.00", Reference: "A"},
		{Date: "2024-01-05", Description: "FEE", Amount: "-5.00", Reference: "B"},
	}
	items, rowErrs := Normalize(rows)
	if len(items) != 2 || len(rowErrs) != 0 {
		t.Fatalf("items=%d errs=%d, want 2 items and no errors", len(items), len(rowErrs))
	}
}

func TestNormalizeAmounts(t *testing.T) {
	cases := []struct {
		amount string
		want   string
		ok     bool
	}{
		{"-150.00", "-150", true},
		{"150.00", "150", true},
		{"0.01", "0.01", true},
		{"abc", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		items, rowErrs := Normalize([]RawRow{{Date: "2024-01-05", Description: "X", Amount: c.amount}})
		if c.ok {
			if len(items) != 1 {
				t.Errorf("amount %q rejected, want accepted", c.amount)
				continue
			}
			want := decimal.RequireFromString(c.want)
			if !items[0].Amount.Equal(want) {
				t.Errorf("amount %q parsed as %s, want %s", c.amount, items[0].Amount, want)
			}
		} else if len(rowErrs) != 1 {
			t.Errorf("amount %q accepted, want rejected", c.amount)
		}
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	for _, d := range []string{"2024-01-05", "05-01-2024", "01/05/2024"} {
		items, rowErrs := Normalize([]RawRow{{Date: d, Description: "X", Amount: "1.00"}})
		if len(rowErrs) != 0 {
			t.Errorf("date %q rejected: %+v", d, rowErrs)
			continue
		}
		got := items[0].Date
		if got.Year() != 2024 || got.Month() != 1 || got.Day() != 5 {
			t.Errorf("date %q parsed as %s", d, got.Format("2006-01-02"))
		}
	}

	if _, rowErrs := Normalize([]RawRow{{Date: "Jan 5", Description: "X", Amount: "1.00"}}); len(rowErrs) != 1 {
		t.Error("unparseable date should be rejected")
	}
}
