package inventory_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inventory"
)

func sampleProducts() []*inventory.Product {
	return []*inventory.Product{
		{ID: uuid.New(), Name: "Laptop", NameZh: "笔记本电脑", SKU: "LAP-001", Category: "Electronics", Quantity: 10, Price: 1200, MinStock: 5},
		{ID: uuid.New(), Name: "Safety Vest", NameZh: "安全背心", SKU: "VST-002", Category: "Safety", Quantity: 3, Price: 15.5, MinStock: 5},
		{ID: uuid.New(), Name: "Monitor", NameZh: "显示器", SKU: "MON-003", Category: "Electronics", Quantity: 5, Price: 200, MinStock: 5},
		{ID: uuid.New(), Name: "Tape", SKU: "TAP-004", Quantity: 0, Price: 2, MinStock: 1},
	}
}

func TestComputeStats(t *testing.T) {
	stats := inventory.ComputeStats(sampleProducts())

	assert.Equal(t, 4, stats.TotalProducts)
	assert.InDelta(t, 10*1200+3*15.5+5*200, stats.TotalValue, 0.001)
	assert.Equal(t, 3, stats.LowStockCount)
	assert.Equal(t, []inventory.CategoryCount{
		{Name: "Electronics", Value: 2},
		{Name: "Safety", Value: 1},
		{Name: "Uncategorized", Value: 1},
	}, stats.Categories)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := inventory.ComputeStats(nil)
	assert.Zero(t, stats.TotalProducts)
	assert.Zero(t, stats.TotalValue)
	assert.NotNil(t, stats.Categories)
	assert.Empty(t, stats.Categories)
}

func TestComputeProductUsage(t *testing.T) {
	products := sampleProducts()
	laptop := products[0]
	other := products[1]

	logs := []*inventory.StockLog{
		{Action: inventory.LogActionCreate, ProductName: "Laptop", Quantity: 4},
		{Action: inventory.LogActionInbound, ProductName: "Laptop", Quantity: 6},
		{Action: inventory.LogActionAssign, ProductName: "Laptop", Quantity: 2},
		{Action: inventory.LogActionInbound, ProductName: "Safety Vest", Quantity: 9},
	}
	assignments := []*inventory.Assignment{
		{ProductID: laptop.ID, Quantity: 2, Status: inventory.AssignmentActive},
		{ProductID: laptop.ID, Quantity: 1, Status: inventory.AssignmentReturned},
		{ProductID: other.ID, Quantity: 7, Status: inventory.AssignmentActive},
	}
	scrapped := []*inventory.ScrappedItem{
		{ProductID: laptop.ID, Quantity: 1},
		{ProductID: laptop.ID, Quantity: 2},
	}

	usage := inventory.ComputeProductUsage(laptop, logs, assignments, scrapped)
	assert.Equal(t, laptop.ID, usage.ProductID)
	assert.Equal(t, 10, usage.TotalInbound)
	assert.Equal(t, 2, usage.ActiveAssigned)
	assert.Equal(t, 3, usage.TotalScrapped)

	all := inventory.UsageByProduct(products, logs, assignments, scrapped)
	require.Len(t, all, len(products))
	assert.Equal(t, 9, all[other.ID].TotalInbound)
	assert.Equal(t, 7, all[other.ID].ActiveAssigned)
	assert.Zero(t, all[products[3].ID].TotalInbound)
}

func TestFilterProducts(t *testing.T) {
	products := sampleProducts()

	cases := []struct {
		name     string
		search   string
		category string
		want     []string
	}{
		{"all", "", inventory.CategoryAll, []string{"LAP-001", "VST-002", "MON-003", "TAP-004"}},
		{"empty category", "", "", []string{"LAP-001", "VST-002", "MON-003", "TAP-004"}},
		{"category", "", "Electronics", []string{"LAP-001", "MON-003"}},
		{"name case insensitive", "LAPTOP", "", []string{"LAP-001"}},
		{"chinese name", "背心", "", []string{"VST-002"}},
		{"sku", "mon-", "", []string{"MON-003"}},
		{"search and category", "vest", "Electronics", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.FilterProducts(products, tc.search, tc.category)
			skus := make([]string, 0, len(got))
			for _, p := range got {
				skus = append(skus, p.SKU)
			}
			assert.Equal(t, tc.want, skus)
		})
	}
}

func TestFilterLogs(t *testing.T) {
	logs := []*inventory.StockLog{
		{Action: inventory.LogActionCreate, ProductName: "Laptop", PerformedBy: "ana"},
		{Action: inventory.LogActionInbound, ProductName: "Monitor", PerformedBy: "ben"},
		{Action: inventory.LogActionAssign, ProductName: "Laptop", PerformedBy: "ana", Details: "Assigned to Jane Doe"},
		{Action: inventory.LogActionScrap, ProductName: "Tape", PerformedBy: "ben", Details: "Reason: water damage"},
	}

	assert.Len(t, inventory.FilterLogs(logs, inventory.LogActionAll, ""), 4)
	assert.Len(t, inventory.FilterLogs(logs, "", ""), 4)

	inbound := inventory.FilterLogs(logs, "inbound", "")
	require.Len(t, inbound, 2)
	assert.Equal(t, inventory.LogActionCreate, inbound[0].Action)
	assert.Equal(t, inventory.LogActionInbound, inbound[1].Action)

	assert.Len(t, inventory.FilterLogs(logs, "CREATE", ""), 1)
	assert.Len(t, inventory.FilterLogs(logs, "", "BEN"), 2)
	assert.Len(t, inventory.FilterLogs(logs, "", "jane"), 1)
	assert.Len(t, inventory.FilterLogs(logs, "SCRAP", "water"), 1)
	assert.Empty(t, inventory.FilterLogs(logs, "RETURN", ""))
}

func TestLowStockProducts(t *testing.T) {
	low := inventory.LowStockProducts(sampleProducts())
	require.Len(t, low, 3)
	assert.Equal(t, "TAP-004", low[0].SKU)
	assert.Equal(t, "VST-002", low[1].SKU)
	assert.Equal(t, "MON-003", low[2].SKU)
}
