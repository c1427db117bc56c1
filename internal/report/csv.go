// Package report renders per-category usage statistics as CSV, joined
// against the raw container catalog by url.
package report

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/packsight/packsight/internal/models"
)

var csvHeader = []string{
	"PackageId",
	"URL",
	"Title",
	"Type",
	"OuterLength [cm]",
	"OuterWidth [cm]",
	"OuterHeight [cm]",
	"InnerLength [cm]",
	"InnerWidth [cm]",
	"InnerHeight [cm]",
	"MaxWeight [g]",
	"EmptyWeight [g]",
	"Cost",
	"Status",
	"Order count",
}

// BuildUsageCSV renders one category's usage statistics as CSV. Each
// statistic joins against the catalog record with the same trimmed url;
// statistics without a catalog match still emit a row with blank
// catalog-sourced columns. The MaxWeight and Cost columns are reserved for
// manual enrichment and always blank.
func BuildUsageCSV(category string, stats []models.UsageStatistic, records []models.CatalogRecord) (string, error) {
	byURL := make(map[string]models.CatalogRecord, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		var url string
		if v := rec["url"]; models.Truthy(v) {
			url = strings.TrimSpace(models.ToString(v))
		}
		if url != "" {
			byURL[url] = rec
		}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write %s report header: %w", category, err)
	}

	for _, stat := range stats {
		url := strings.TrimSpace(stat.URL)
		rec := byURL[url]

		row := []string{
			rec.StringField("packageId", "id", "sku", "code"),
			url,
			rec.StringField("title", "name", "size_cm"),
			"bin",
			floatColumn(rec["length"]),
			floatColumn(rec["width"]),
			floatColumn(rec["height"]),
			floatColumn(firstTruthy(rec["inner_length"], rec["innerLength"])),
			floatColumn(firstTruthy(rec["inner_width"], rec["innerWidth"])),
			floatColumn(firstTruthy(rec["inner_height"], rec["innerHeight"])),
			"",
			floatColumn(firstTruthy(rec["empty_weight"], rec["emptyWeight"])),
			"",
			rec.StringField("status"),
			strconv.Itoa(stat.UsageCount),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write %s report row: %w", category, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s report: %w", category, err)
	}
	return buf.String(), nil
}

// firstTruthy picks the first value carrying content, falling back to the
// last candidate so a trailing zero still renders as "0" rather than blank.
func firstTruthy(vals ...interface{}) interface{} {
	for _, v := range vals {
		if models.Truthy(v) {
			return v
		}
	}
	return vals[len(vals)-1]
}

// floatColumn renders a numeric value with up to six fractional digits,
// trailing zeros and dot stripped. Absent or non-numeric values render blank.
func floatColumn(v interface{}) string {
	if v == nil {
		return ""
	}
	f, ok := models.ToFloat(v)
	if !ok {
		return ""
	}
	s := fmt.Sprintf("%.6f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
