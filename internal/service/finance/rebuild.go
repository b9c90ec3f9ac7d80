// Package finance rebuilds the daily cash-flow ledger from the transactional
// collections. The rebuild is a one-shot, stateless batch transform: every
// cash-affecting record becomes a signed delta, deltas are grouped by day,
// and the days are walked chronologically carrying a running balance.
// Balances accumulate in decimals so long histories cannot drift.
package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockbook/internal/domain/models"
)

// Input is the transactional data the rebuild reads. Partners are absent on
// purpose: partner records are only ever user-entered, never derived.
type Input struct {
	Containers     []models.Container
	Sales          []models.Sale
	Expenses       []models.Expense
	Withdrawals    []models.Withdrawal
	CashInjections []models.CashInjection
}

// Rebuilder produces the daily ledger.
type Rebuilder struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewRebuilder wires a rebuilder instance.
func NewRebuilder(logger *zap.Logger) *Rebuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebuilder{logger: logger, now: time.Now}
}

type dayEntry struct {
	tx     models.CashTransaction
	amount decimal.Decimal
}

// Rebuild reconstructs one CashFlow record per transaction date.
//
// Every day strictly before today is auto-reconciled with its actual balance
// set to the theoretical one. Today's record is never auto-reconciled, even
// when a previous run already produced matching balances: the day is still
// open and the till has not been counted.
func (r *Rebuilder) Rebuild(in Input) []models.CashFlow {
	byDate := make(map[string][]dayEntry)
	add := func(date string, tx models.CashTransaction, amount decimal.Decimal) {
		tx.Amount = amount.Round(2).InexactFloat64()
		byDate[date] = append(byDate[date], dayEntry{tx: tx, amount: amount})
	}

	for _, ci := range in.CashInjections {
		add(ci.Date, models.CashTransaction{
			Type:        models.CashTxInjection,
			ReferenceID: fmt.Sprintf("%d", ci.ID),
			Description: ci.Description,
		}, decimal.NewFromFloat(ci.Amount))
	}
	for _, s := range in.Sales {
		add(s.Date, models.CashTransaction{
			Type:        models.CashTxSale,
			ReferenceID: fmt.Sprintf("%d", s.ID),
			Description: fmt.Sprintf("sale of %d x %s", s.Quantity, s.ProductName),
		}, decimal.NewFromFloat(s.TotalAmount))
	}
	for _, c := range in.Containers {
		add(c.PurchaseDate, models.CashTransaction{
			Type:        models.CashTxContainer,
			ReferenceID: c.ID,
			Description: fmt.Sprintf("container %s from %s", c.ID, c.Supplier),
		}, decimal.NewFromFloat(c.TotalCost).Neg())
	}
	for _, e := range in.Expenses {
		add(e.Date, models.CashTransaction{
			Type:        models.CashTxExpense,
			ReferenceID: fmt.Sprintf("%d", e.ID),
			Description: e.Description,
		}, decimal.NewFromFloat(e.Amount).Neg())
	}
	for _, w := range in.Withdrawals {
		add(w.Date, models.CashTransaction{
			Type:        models.CashTxWithdrawal,
			ReferenceID: fmt.Sprintf("%d", w.ID),
			Description: w.Purpose,
		}, decimal.NewFromFloat(w.Amount).Neg())
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	today := r.now().Format(models.DateLayout)
	balance := decimal.Zero
	flows := make([]models.CashFlow, 0, len(dates))

	for _, date := range dates {
		entries := byDate[date]
		// Deterministic ordering inside a day so repeated rebuilds agree.
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].tx.Type != entries[j].tx.Type {
				return entries[i].tx.Type < entries[j].tx.Type
			}
			return entries[i].tx.ReferenceID < entries[j].tx.ReferenceID
		})

		opening := balance
		sales := decimal.Zero
		outflows := decimal.Zero
		txs := make([]models.CashTransaction, 0, len(entries))
		for _, e := range entries {
			balance = balance.Add(e.amount)
			if e.tx.Type == models.CashTxSale {
				sales = sales.Add(e.amount)
			}
			if e.amount.IsNegative() {
				outflows = outflows.Add(e.amount.Neg())
			}
			txs = append(txs, e.tx)
		}

		cf := models.CashFlow{
			Date:               date,
			OpeningBalance:     round2(opening),
			CashSales:          round2(sales),
			CashExpenses:       round2(outflows),
			TheoreticalBalance: round2(balance),
			Transactions:       txs,
		}

		if date < today {
			cf.Reconciled = true
			cf.ActualBalance = cf.TheoreticalBalance
			cf.Discrepancy = 0
			// No ReconciledAt stamp here: auto-reconciled rows must come out
			// byte-identical on every rebuild of the same input.
			cf.ReconciledBy = "auto"
		}

		flows = append(flows, cf)
	}

	r.logger.Info("cash-flow ledger rebuilt",
		zap.Int("days", len(flows)),
		zap.String("through", today))
	return flows
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
