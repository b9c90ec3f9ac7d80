package finance

import (
	"reflect"
	"testing"
	"time"

	"stockbook/internal/domain/models"
)

func fixedClock(day string) func() time.Time {
	t, err := time.Parse(models.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func sampleInput() Input {
	return Input{
		Containers: []models.Container{
			{ID: "MSKU-1", Supplier: "Huangpu", PurchaseDate: "2026-08-20", TotalCost: 3100},
		},
		Sales: []models.Sale{
			{ID: 1, ProductName: "Rice", Quantity: 4, TotalAmount: 240, Date: "2026-08-21"},
			{ID: 2, ProductName: "Sugar", Quantity: 5, TotalAmount: 400, Date: "2026-08-21"},
			{ID: 3, ProductName: "Rice", Quantity: 2, TotalAmount: 124, Date: "2026-08-25"},
		},
		Expenses: []models.Expense{
			{ID: 1, Category: "transport", Description: "trucking", Amount: 100, Date: "2026-08-21"},
		},
		Withdrawals: []models.Withdrawal{
			{ID: 1, PartnerID: 1, Amount: 200, Date: "2026-08-25", Purpose: "personal"},
		},
		CashInjections: []models.CashInjection{
			{ID: 1, Date: "2026-08-20", Amount: 5000, Description: "seed capital"},
		},
	}
}

func TestRebuildRunningBalances(t *testing.T) {
	r := NewRebuilder(nil)
	r.now = fixedClock("2026-08-25")

	flows := r.Rebuild(sampleInput())
	if len(flows) != 3 {
		t.Fatalf("days = %d, want 3", len(flows))
	}

	d0 := flows[0] // 2026-08-20: +5000 injection, -3100 container
	if d0.OpeningBalance != 0 || d0.TheoreticalBalance != 1900 {
		t.Errorf("day0 = %+v", d0)
	}
	if d0.CashSales != 0 || d0.CashExpenses != 3100 {
		t.Errorf("day0 sales/expenses = %v/%v", d0.CashSales, d0.CashExpenses)
	}

	d1 := flows[1] // 2026-08-21: +240 +400 sales, -100 expense
	if d1.OpeningBalance != 1900 || d1.TheoreticalBalance != 2440 {
		t.Errorf("day1 = %+v", d1)
	}
	if d1.CashSales != 640 {
		t.Errorf("day1 cashSales = %v, want 640", d1.CashSales)
	}

	d2 := flows[2] // 2026-08-25 (today): +124 sale, -200 withdrawal
	if d2.OpeningBalance != 2440 || d2.TheoreticalBalance != 2364 {
		t.Errorf("day2 = %+v", d2)
	}
}

func TestRebuildReconciliationRule(t *testing.T) {
	r := NewRebuilder(nil)
	r.now = fixedClock("2026-08-25")

	flows := r.Rebuild(sampleInput())

	for _, cf := range flows[:2] {
		if !cf.Reconciled {
			t.Errorf("day %s not auto-reconciled", cf.Date)
		}
		if cf.ActualBalance != cf.TheoreticalBalance || cf.Discrepancy != 0 {
			t.Errorf("day %s actual/discrepancy = %v/%v", cf.Date, cf.ActualBalance, cf.Discrepancy)
		}
		if cf.ReconciledBy != "auto" {
			t.Errorf("day %s reconciledBy = %q", cf.Date, cf.ReconciledBy)
		}
	}

	today := flows[2]
	if today.Reconciled {
		t.Error("today's record must never be auto-reconciled")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	r := NewRebuilder(nil)
	r.now = fixedClock("2026-08-25")

	first := r.Rebuild(sampleInput())
	second := r.Rebuild(sampleInput())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("rebuild not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if second[len(second)-1].Reconciled {
		t.Error("today flipped to reconciled on second rebuild")
	}
}

func TestRebuildNeverFabricatesPartnerData(t *testing.T) {
	r := NewRebuilder(nil)
	r.now = fixedClock("2026-08-25")

	flows := r.Rebuild(Input{})
	if len(flows) != 0 {
		t.Errorf("rebuild of empty input produced %d records", len(flows))
	}
}

func TestRebuildDecimalPrecision(t *testing.T) {
	r := NewRebuilder(nil)
	r.now = fixedClock("2026-08-25")

	// 0.1+0.2-style floats must not drift through the running balance.
	in := Input{Sales: []models.Sale{}}
	for i := 1; i <= 10; i++ {
		in.Sales = append(in.Sales, models.Sale{ID: i, TotalAmount: 0.1, Date: "2026-08-20"})
	}

	flows := r.Rebuild(in)
	if got := flows[0].TheoreticalBalance; got != 1 {
		t.Errorf("balance = %v, want exactly 1", got)
	}
}
