package models

// ExpenseCategories is the closed set of categories an expense may carry.
var ExpenseCategories = []string{
	"purchase",
	"shipping",
	"customs",
	"transport",
	"storage",
	"salaries",
	"rent",
	"utilities",
	"marketing",
	"maintenance",
	"insurance",
	"taxes",
	"other",
}

// IsExpenseCategory reports whether the given category belongs to the allowed
// set.
func IsExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Expense is a single cash outflow, optionally tied to a container when the
// cost was incurred for a specific shipment.
type Expense struct {
	ID          int     `json:"id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	ContainerID string  `json:"containerId,omitempty"`
}
