package packing

import (
	"log"

	"github.com/packsight/packsight/internal/models"
)

// DefaultContainerMaxWeight is the weight capacity assumed for catalog
// records that do not specify one, in grams.
const DefaultContainerMaxWeight = 100000.0

// LoadContainers converts raw catalog records into packing candidates.
// Records with a missing, non-numeric or non-positive dimension are discarded
// with a logged error and processing continues. Ingestion order is preserved;
// the selector sorts its own copy.
func LoadContainers(records []models.CatalogRecord, logger *log.Logger) []models.Container {
	if logger == nil {
		logger = log.Default()
	}

	containers := make([]models.Container, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		name := "bin"
		if v, ok := rec["size_cm"]; ok && v != nil {
			name = models.ToString(v)
		}
		l, okL := rec.Float("length")
		w, okW := rec.Float("width")
		h, okH := rec.Float("height")
		if !okL || !okW || !okH {
			logger.Printf("catalog: discarding record with unusable dimensions: %v", rec)
			continue
		}
		if l <= 0 || w <= 0 || h <= 0 {
			logger.Printf("catalog: discarding record with non-positive dimensions: %v", rec)
			continue
		}
		maxWeight := DefaultContainerMaxWeight
		if mw, ok := rec.Float("max_weight"); ok && mw > 0 {
			maxWeight = mw
		}
		containers = append(containers, models.Container{
			Name:      name,
			URL:       models.ToString(rec["url"]),
			Length:    l,
			Width:     w,
			Height:    h,
			MaxWeight: maxWeight,
		})
	}
	return containers
}
