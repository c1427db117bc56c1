package packing

import "strings"

// Canonical units are centimeters and grams. Source data tags each product
// line with its own units; anything unrecognized is taken to already be
// canonical.

// NormalizeDimensions converts a length/width/height triple to centimeters.
func NormalizeDimensions(l, w, h float64, unit string) (float64, float64, float64) {
	switch strings.ToLower(unit) {
	case "mm":
		return l / 10, w / 10, h / 10
	case "m", "meter", "metre":
		return l * 100, w * 100, h * 100
	default:
		return l, w, h
	}
}

// NormalizeWeight converts a weight to grams.
func NormalizeWeight(weight float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "kg":
		return weight * 1000
	case "mg":
		return weight / 1000
	default:
		return weight
	}
}
