// Package backup implements the downloadable snapshot and its re-import. A
// snapshot mirrors the remote document schema; importing one merges it into
// the live document with every numeric ID re-assigned from the live
// sequences, and all relational references rewritten through the translation
// map built during the merge.
package backup

import (
	"fmt"

	"go.uber.org/zap"

	"stockbook/internal/domain/models"
)

// Summary counts what an import brought in.
type Summary struct {
	Products       int `json:"products"`
	Containers     int `json:"containers"`
	Sales          int `json:"sales"`
	Expenses       int `json:"expenses"`
	Partners       int `json:"partners"`
	Withdrawals    int `json:"withdrawals"`
	CashInjections int `json:"cashInjections"`
}

// Merge folds src into dst in place and returns what was added.
//
// Products come first so the old→new ID map exists before containers and
// sales are rewritten. Cash flows are deliberately not merged: they are
// derived data and must be rebuilt after an import. Sequence counters only
// ever move forward, so IDs stay collision-free across repeated imports.
func Merge(dst, src *models.Document, logger *zap.Logger) Summary {
	if logger == nil {
		logger = zap.NewNop()
	}
	dst.EnsureCollections()
	src.EnsureCollections()

	var sum Summary

	productIDs := make(map[int]int, len(src.Products))
	for _, p := range src.Products {
		oldID := p.ID
		p.ID = nextID(dst, "products")
		productIDs[oldID] = p.ID
		dst.Products = append(dst.Products, p)
		sum.Products++
	}

	containerIDs := make(map[string]string, len(src.Containers))
	for _, c := range src.Containers {
		oldID := c.ID
		c.ID = uniqueContainerID(dst, c.ID)
		containerIDs[oldID] = c.ID
		lines := make([]models.ContainerProduct, len(c.Products))
		copy(lines, c.Products)
		for i := range lines {
			if newID, ok := productIDs[lines[i].ProductID]; ok {
				lines[i].ProductID = newID
			}
		}
		c.Products = lines
		dst.Containers = append(dst.Containers, c)
		sum.Containers++
	}

	for _, s := range src.Sales {
		s.ID = nextID(dst, "sales")
		if newID, ok := productIDs[s.ProductID]; ok {
			s.ProductID = newID
		}
		dst.Sales = append(dst.Sales, s)
		sum.Sales++
	}

	for _, e := range src.Expenses {
		e.ID = nextID(dst, "expenses")
		if newID, ok := containerIDs[e.ContainerID]; ok {
			e.ContainerID = newID
		}
		dst.Expenses = append(dst.Expenses, e)
		sum.Expenses++
	}

	partnerIDs := make(map[int]int, len(src.Partners))
	for _, p := range src.Partners {
		oldID := p.ID
		p.ID = nextID(dst, "partners")
		partnerIDs[oldID] = p.ID
		dst.Partners = append(dst.Partners, p)
		sum.Partners++
	}

	for _, w := range src.Withdrawals {
		w.ID = nextID(dst, "withdrawals")
		if newID, ok := partnerIDs[w.PartnerID]; ok {
			w.PartnerID = newID
		}
		dst.Withdrawals = append(dst.Withdrawals, w)
		sum.Withdrawals++
	}

	for _, ci := range src.CashInjections {
		ci.ID = nextID(dst, "cashInjections")
		dst.CashInjections = append(dst.CashInjections, ci)
		sum.CashInjections++
	}

	logger.Info("backup merged",
		zap.Int("products", sum.Products),
		zap.Int("containers", sum.Containers),
		zap.Int("sales", sum.Sales))
	return sum
}

func nextID(doc *models.Document, seq string) int {
	id := doc.Metadata.NextIDs[seq]
	if id < 1 {
		id = 1
	}
	doc.Metadata.NextIDs[seq] = id + 1
	return id
}

// uniqueContainerID keeps the user-chosen string ID when it is free and
// suffixes it otherwise.
func uniqueContainerID(doc *models.Document, id string) string {
	taken := func(candidate string) bool {
		for _, c := range doc.Containers {
			if c.ID == candidate {
				return true
			}
		}
		return false
	}
	if !taken(id) {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
