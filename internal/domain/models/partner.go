package models

// CapitalAccount tracks one partner's equity position.
type CapitalAccount struct {
	InitialInvestment float64 `json:"initialInvestment"`
	ProfitShare       float64 `json:"profitShare"`
	TotalWithdrawn    float64 `json:"totalWithdrawn"`
}

// Partner is an equity holder. Ownership percentages are user-entered and the
// sum across partners may not exceed 100; that rule is enforced at entry time.
type Partner struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	OwnershipPercent float64        `json:"ownershipPercent"`
	CapitalAccount   CapitalAccount `json:"capitalAccount"`
}

// Withdrawal is a partner taking cash out of the business.
type Withdrawal struct {
	ID        int     `json:"id"`
	PartnerID int     `json:"partnerId"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Type      string  `json:"type,omitempty"`
	Purpose   string  `json:"purpose,omitempty"`
}

// CashInjection is capital added to the business outside of sales revenue.
type CashInjection struct {
	ID          int     `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}
