package models

// CashTransaction is one signed cash movement folded into a daily record.
// Positive amounts are inflows, negative are outflows.
type CashTransaction struct {
	Type        string  `json:"type"`
	ReferenceID string  `json:"referenceId,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// Cash transaction types produced by the cash-flow rebuild.
const (
	CashTxSale       = "sale"
	CashTxExpense    = "expense"
	CashTxContainer  = "container"
	CashTxWithdrawal = "withdrawal"
	CashTxInjection  = "injection"
)

// CashFlow is the daily reconciliation record: the theoretical balance derived
// from transactions versus the physically counted one.
type CashFlow struct {
	ID                 int               `json:"id"`
	Date               string            `json:"date"`
	OpeningBalance     float64           `json:"openingBalance"`
	CashSales          float64           `json:"cashSales"`
	CashExpenses       float64           `json:"cashExpenses"`
	TheoreticalBalance float64           `json:"theoreticalBalance"`
	ActualBalance      float64           `json:"actualBalance"`
	Discrepancy        float64           `json:"discrepancy"`
	Reconciled         bool              `json:"reconciled"`
	ReconciledAt       string            `json:"reconciledAt,omitempty"`
	ReconciledBy       string            `json:"reconciledBy,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	Transactions       []CashTransaction `json:"transactions"`
}
