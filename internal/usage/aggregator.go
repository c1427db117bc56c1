// Package usage aggregates packing results into per-container usage
// statistics for reporting.
package usage

import (
	"log"
	"sort"

	"github.com/packsight/packsight/internal/models"
)

type orderInfo struct {
	index         interface{}
	productsCount int
	totalQuantity int
}

// BuildStatistics rolls the per-order packing results for one category up
// into per-container statistics, cross-referencing the category's order list
// by transaction id for enrichment. Results with a nil fit or an empty
// container key are silently excluded. The returned list is sorted by
// usage_count descending; ties keep first-encounter order.
func BuildStatistics(results []models.PackingResult, orders []models.Order, logger *log.Logger) []models.UsageStatistic {
	if logger == nil {
		logger = log.Default()
	}

	lookup := createOrderLookup(orders)

	statsByURL := make(map[string]*models.UsageStatistic)
	urlOrder := make([]string, 0)

	for _, result := range results {
		if result.Bin == nil {
			continue
		}
		url := result.Bin.URL
		if url == "" {
			continue
		}

		stats, ok := statsByURL[url]
		if !ok {
			stats = &models.UsageStatistic{Name: "bin", URL: url}
			statsByURL[url] = stats
			urlOrder = append(urlOrder, url)
		}
		// Container metadata is captured from the first result carrying real
		// dimensions and never corrected afterwards, even if later results
		// disagree.
		if stats.Length == 0 {
			stats.Name = result.Bin.Name
			stats.Length = result.Bin.Length
			stats.Width = result.Bin.Width
			stats.Height = result.Bin.Height
			stats.Volume = result.Bin.Volume
		}
		stats.UsageCount++

		index := result.OrderIndex
		detail := models.OrderDetail{
			OrderID:       result.OrderID,
			OrderIndex:    &index,
			ProductsCount: result.ProductsCount,
		}
		if result.OrderID != nil && *result.OrderID != "" {
			if info, found := lookup[*result.OrderID]; found {
				actual := info.productsCount
				quantity := info.totalQuantity
				detail.OrderIndexFromOrders = info.index
				detail.ActualProductsCount = &actual
				detail.TotalQuantity = &quantity
			}
		}
		stats.OrdersDetail = append(stats.OrdersDetail, detail)
	}

	out := make([]models.UsageStatistic, 0, len(urlOrder))
	for _, url := range urlOrder {
		out = append(out, finalize(*statsByURL[url], logger))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsageCount > out[j].UsageCount
	})
	return out
}

func createOrderLookup(orders []models.Order) map[string]orderInfo {
	lookup := make(map[string]orderInfo, len(orders))
	for _, order := range orders {
		if order.TransactionID == nil || *order.TransactionID == "" {
			continue
		}
		total := 0
		for _, line := range order.Products {
			if q, ok := models.ToInt(line.Quantity); ok {
				total += q
			}
		}
		lookup[*order.TransactionID] = orderInfo{
			index:         order.Index,
			productsCount: len(order.Products),
			totalQuantity: total,
		}
	}
	return lookup
}

// finalize sorts a container's order details and computes its totals. Details
// sort by order_index, falling back to order_index_from_orders; entries
// where both are absent go last.
func finalize(stats models.UsageStatistic, logger *log.Logger) models.UsageStatistic {
	type keyed struct {
		detail models.OrderDetail
		absent bool
		index  int
	}
	details := make([]keyed, len(stats.OrdersDetail))
	for i, d := range stats.OrdersDetail {
		details[i] = keyed{
			detail: d,
			absent: d.OrderIndex == nil && d.OrderIndexFromOrders == nil,
			index:  coalesceIndex(d, logger),
		}
	}
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].absent != details[j].absent {
			return details[j].absent
		}
		return details[i].index < details[j].index
	})

	uniqueIDs := make(map[string]struct{})
	totalProducts := 0
	totalActual := 0
	totalQuantity := 0
	sorted := make([]models.OrderDetail, len(details))
	for i, k := range details {
		sorted[i] = k.detail
		totalProducts += k.detail.ProductsCount
		if k.detail.OrderID != nil {
			uniqueIDs[*k.detail.OrderID] = struct{}{}
		}
		if k.detail.ActualProductsCount != nil {
			totalActual += *k.detail.ActualProductsCount
		}
		if k.detail.TotalQuantity != nil {
			totalQuantity += *k.detail.TotalQuantity
		}
	}

	stats.OrdersDetail = sorted
	stats.TotalUniqueOrders = len(uniqueIDs)
	stats.TotalProductsPacked = totalProducts
	if totalActual > 0 {
		stats.TotalActualProducts = &totalActual
		stats.TotalQuantity = &totalQuantity
	}
	return stats
}

func coalesceIndex(d models.OrderDetail, logger *log.Logger) int {
	if d.OrderIndex != nil {
		return *d.OrderIndex
	}
	if d.OrderIndexFromOrders != nil {
		if n, ok := models.ToInt(d.OrderIndexFromOrders); ok {
			return n
		}
		logger.Printf("usage: error coalescing index from %v", d.OrderIndexFromOrders)
	}
	return 0
}
