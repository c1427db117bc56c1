package packing

import (
	"math"

	"github.com/packsight/packsight/internal/models"
)

// ExpandOrderItems flattens an order's product lines into the discrete item
// set to pack, in canonical units. Lines with missing, non-numeric or
// non-positive measurements are dropped silently; a quantity that fails
// integer coercion defaults to 1. Each surviving line expands into
// max(1, quantity) identical items.
func ExpandOrderItems(order models.Order) []models.Item {
	items := make([]models.Item, 0, len(order.Products))
	for _, line := range order.Products {
		name := "item"
		if models.Truthy(line.Title) {
			name = models.ToString(line.Title)
		} else if models.Truthy(line.ID) {
			name = models.ToString(line.ID)
		}

		if line.Length == nil || line.Width == nil || line.Height == nil || line.Weight == nil {
			continue
		}
		l, okL := models.ToFloat(line.Length)
		w, okW := models.ToFloat(line.Width)
		h, okH := models.ToFloat(line.Height)
		weight, okWeight := models.ToFloat(line.Weight)
		if !okL || !okW || !okH || !okWeight {
			continue
		}
		if !finite(l) || !finite(w) || !finite(h) || !finite(weight) {
			continue
		}
		// Positivity is judged on the raw values, before unit conversion.
		if l <= 0 || w <= 0 || h <= 0 || weight < 0 {
			continue
		}

		quantity := 1
		if line.Quantity != nil {
			if q, ok := models.ToInt(line.Quantity); ok {
				quantity = q
			}
		}
		if quantity < 1 {
			quantity = 1
		}

		l, w, h = NormalizeDimensions(l, w, h, line.LengthUnit)
		weight = NormalizeWeight(weight, line.WeightUnit)

		for n := 0; n < quantity; n++ {
			items = append(items, models.Item{Name: name, Length: l, Width: w, Height: h, Weight: weight})
		}
	}
	return items
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
