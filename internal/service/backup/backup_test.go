package backup

import (
	"testing"

	"stockbook/internal/domain/models"
)

func snapshot() *models.Document {
	src := models.NewEmptyDocument()
	src.Products = []models.Product{
		{ID: 5, Name: "Basmati Rice", CurrentStock: 40, CostPerKg: 1.8, BagWeight: 25},
	}
	src.Containers = []models.Container{
		{
			ID:           "C1",
			Supplier:     "Karachi Exports",
			PurchaseDate: "2026-05-01",
			Products: []models.ContainerProduct{
				{ProductID: 5, ProductName: "Basmati Rice", BagQuantity: 40, CostPerKg: 1.8, BagWeight: 25},
			},
		},
	}
	src.Sales = []models.Sale{
		{ID: 1, ProductID: 5, Quantity: 3, PricePerUnit: 55, TotalAmount: 165, CostPerUnit: 45, Profit: 30, Date: "2026-05-10"},
	}
	src.Expenses = []models.Expense{
		{ID: 1, Category: "customs", Description: "clearance C1", Amount: 900, Date: "2026-05-02", ContainerID: "C1"},
	}
	src.Partners = []models.Partner{{ID: 3, Name: "Mamadou", OwnershipPercent: 60}}
	src.Withdrawals = []models.Withdrawal{{ID: 1, PartnerID: 3, Amount: 500, Date: "2026-05-20"}}
	return src
}

func TestMergeRemapsRelationalReferences(t *testing.T) {
	dst := models.NewEmptyDocument()
	dst.Products = []models.Product{{ID: 1, Name: "Sugar", BagWeight: 20}}
	dst.Metadata.NextIDs["products"] = 2

	sum := Merge(dst, snapshot(), nil)
	if sum.Products != 1 || sum.Containers != 1 || sum.Sales != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	imported := dst.Products[1]
	if imported.ID != 2 {
		t.Errorf("imported product ID = %d, want 2 (from live sequence)", imported.ID)
	}
	if imported.ID == 5 {
		t.Error("imported product kept its original ID")
	}

	// Container line item must point at the new product ID, not the old 5.
	if got := dst.Containers[0].Products[0].ProductID; got != imported.ID {
		t.Errorf("container line productId = %d, want %d", got, imported.ID)
	}
	if got := dst.Sales[0].ProductID; got != imported.ID {
		t.Errorf("sale productId = %d, want %d", got, imported.ID)
	}
	if got := dst.Withdrawals[0].PartnerID; got != dst.Partners[0].ID {
		t.Errorf("withdrawal partnerId = %d, want %d", got, dst.Partners[0].ID)
	}

	if got := dst.Metadata.NextIDs["products"]; got != 3 {
		t.Errorf("products sequence = %d, want 3 (monotonic)", got)
	}
}

func TestMergeRenamesCollidingContainers(t *testing.T) {
	dst := models.NewEmptyDocument()
	dst.Containers = []models.Container{{ID: "C1", Supplier: "Existing", PurchaseDate: "2026-01-01"}}

	Merge(dst, snapshot(), nil)

	if len(dst.Containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(dst.Containers))
	}
	renamed := dst.Containers[1].ID
	if renamed == "C1" {
		t.Fatal("imported container kept a colliding ID")
	}
	// The expense referencing C1 follows the rename.
	if got := dst.Expenses[0].ContainerID; got != renamed {
		t.Errorf("expense containerId = %q, want %q", got, renamed)
	}
}

func TestMergeDoesNotCarryCashFlows(t *testing.T) {
	src := snapshot()
	src.CashFlows = []models.CashFlow{{ID: 1, Date: "2026-05-10", TheoreticalBalance: 165}}

	dst := models.NewEmptyDocument()
	Merge(dst, src, nil)

	if len(dst.CashFlows) != 0 {
		t.Errorf("cash flows merged; they are derived data and must be rebuilt")
	}
}

func TestRepeatedImportStaysCollisionFree(t *testing.T) {
	dst := models.NewEmptyDocument()
	Merge(dst, snapshot(), nil)
	Merge(dst, snapshot(), nil)

	seen := make(map[int]bool)
	for _, p := range dst.Products {
		if seen[p.ID] {
			t.Fatalf("duplicate product id %d after double import", p.ID)
		}
		seen[p.ID] = true
	}
	if dst.Containers[1].ID == dst.Containers[0].ID {
		t.Error("duplicate container ids after double import")
	}
}
