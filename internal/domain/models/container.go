package models

// ContainerProduct is one line item of an import shipment: a quantity of bags
// of a single product received at a given cost.
type ContainerProduct struct {
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	BagQuantity int     `json:"bagQuantity"`
	CostPerKg   float64 `json:"costPerKg"`
	BagWeight   float64 `json:"bagWeight"`
}

// Container is one import shipment. Its ID is user-chosen (typically the
// shipping line's container number) and must be unique across the document.
type Container struct {
	ID            string             `json:"id"`
	Supplier      string             `json:"supplier"`
	PurchaseDate  string             `json:"purchaseDate"`
	ShippingDate  string             `json:"shippingDate,omitempty"`
	ArrivalDate   string             `json:"arrivalDate,omitempty"`
	InvoiceNumber string             `json:"invoiceNumber,omitempty"`
	ShippingCost  float64            `json:"shippingCost"`
	CustomsCost   float64            `json:"customsCost"`
	Products      []ContainerProduct `json:"products"`
	TotalCost     float64            `json:"totalCost"`
}

// ComputeTotalCost derives the container's landed cost: goods value across all
// line items plus shipping and customs.
func (c *Container) ComputeTotalCost() float64 {
	total := c.ShippingCost + c.CustomsCost
	for _, p := range c.Products {
		total += float64(p.BagQuantity) * p.BagWeight * p.CostPerKg
	}
	return total
}
