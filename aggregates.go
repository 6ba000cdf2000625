package inventory

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// InventoryStats summarizes the products of a warehouse.
type InventoryStats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalValue    float64         `json:"totalValue"`
	LowStockCount int             `json:"lowStockCount"`
	Categories    []CategoryCount `json:"categories"`
}

// ComputeStats derives the dashboard stats from products. Categories keep the
// order in which they are first seen.
func ComputeStats(products []*Product) InventoryStats {
	stats := InventoryStats{
		TotalProducts: len(products),
		Categories:    []CategoryCount{},
	}

	index := map[string]int{}
	for _, p := range products {
		stats.TotalValue += float64(p.Quantity) * p.Price
		if p.IsLowStock() {
			stats.LowStockCount++
		}

		name := fallback(p.Category, "Uncategorized")
		if i, ok := index[name]; ok {
			stats.Categories[i].Value++
			continue
		}
		index[name] = len(stats.Categories)
		stats.Categories = append(stats.Categories, CategoryCount{Name: name, Value: 1})
	}

	return stats
}

// ProductUsage is the lifetime movement of a single product.
type ProductUsage struct {
	ProductID      uuid.UUID `json:"productId"`
	TotalInbound   int       `json:"totalInbound"`
	ActiveAssigned int       `json:"activeAssigned"`
	TotalScrapped  int       `json:"totalScrapped"`
}

// ComputeProductUsage sums logs, assignments and scrap records for product.
// Logs carry only the product name so inbound totals match on it.
func ComputeProductUsage(product *Product, logs []*StockLog, assignments []*Assignment, scrapped []*ScrappedItem) ProductUsage {
	usage := ProductUsage{ProductID: product.ID}

	for _, l := range logs {
		if l.ProductName != product.Name {
			continue
		}
		if l.Action == LogActionInbound || l.Action == LogActionCreate {
			usage.TotalInbound += l.Quantity
		}
	}

	for _, a := range assignments {
		if a.ProductID == product.ID && a.Status == AssignmentActive {
			usage.ActiveAssigned += a.Quantity
		}
	}

	for _, s := range scrapped {
		if s.ProductID == product.ID {
			usage.TotalScrapped += s.Quantity
		}
	}

	return usage
}

// UsageByProduct computes ProductUsage for every product keyed by id.
func UsageByProduct(products []*Product, logs []*StockLog, assignments []*Assignment, scrapped []*ScrappedItem) map[uuid.UUID]ProductUsage {
	out := make(map[uuid.UUID]ProductUsage, len(products))
	for _, p := range products {
		out[p.ID] = ComputeProductUsage(p, logs, assignments, scrapped)
	}
	return out
}

// CategoryAll disables category filtering.
const CategoryAll = "All"

// FilterProducts matches search against name, nameZh and sku, case
// insensitive, and keeps products in category.
func FilterProducts(products []*Product, search, category string) []*Product {
	search = strings.ToLower(strings.TrimSpace(search))
	category = strings.TrimSpace(category)

	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if search != "" &&
			!containsFold(p.Name, search) &&
			!containsFold(p.NameZh, search) &&
			!containsFold(p.SKU, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LogActionAll disables action filtering.
const LogActionAll = "ALL"

// FilterLogs keeps logs for action and search. INBOUND includes CREATE since
// a new product is its first inbound.
func FilterLogs(logs []*StockLog, action, search string) []*StockLog {
	action = strings.ToUpper(strings.TrimSpace(action))
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]*StockLog, 0, len(logs))
	for _, l := range logs {
		if !matchesAction(l.Action, action) {
			continue
		}
		if search != "" &&
			!containsFold(l.ProductName, search) &&
			!containsFold(l.PerformedBy, search) &&
			!containsFold(l.Details, search) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesAction(got LogAction, want string) bool {
	switch want {
	case "", LogActionAll:
		return true
	case string(LogActionInbound):
		return got == LogActionInbound || got == LogActionCreate
	default:
		return string(got) == want
	}
}

// LowStockProducts returns products at or below their minimum, lowest
// quantity first.
func LowStockProducts(products []*Product) []*Product {
	out := make([]*Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity < out[j].Quantity
	})
	return out
}

func containsFold(s, lowerSubstr string) bool {
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}
