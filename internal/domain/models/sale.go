package models

// Sale records selling a quantity of bags of one product. TotalAmount and
// Profit are stored denormalized but must satisfy the pricing identities
// (see the validate package); CostPerUnit is a snapshot of the product's
// weighted-average cost at the time of sale.
type Sale struct {
	ID           int     `json:"id"`
	ProductID    int     `json:"productId"`
	ProductName  string  `json:"productName,omitempty"`
	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
	TotalAmount  float64 `json:"totalAmount"`
	CostPerUnit  float64 `json:"costPerUnit"`
	Profit       float64 `json:"profit"`
	Date         string  `json:"date"`
	Customer     string  `json:"customer,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}
