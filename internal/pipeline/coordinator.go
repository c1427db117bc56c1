// Package pipeline coordinates the per-category packing workflow: load
// orders and catalog, select containers, aggregate usage, build the report,
// and hand both artifacts to the configured sink and notification channels.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/packsight/packsight/internal/models"
	"github.com/packsight/packsight/internal/notify"
	"github.com/packsight/packsight/internal/packing"
	"github.com/packsight/packsight/internal/report"
	"github.com/packsight/packsight/internal/sink"
	"github.com/packsight/packsight/internal/source"
	"github.com/packsight/packsight/internal/usage"
)

// Coordinator runs the container selection pipeline across product
// categories. Each category is processed by its own worker; a worker failure
// marks only that category as failed.
type Coordinator struct {
	orders   source.OrderSource
	catalog  source.CatalogSource
	out      sink.Sink
	notifier notify.Notifier
	logger   *log.Logger
}

func NewCoordinator(orders source.OrderSource, catalog source.CatalogSource, out sink.Sink, notifier notify.Notifier, logger *log.Logger) *Coordinator {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[pipeline] ", log.LstdFlags)
	}
	return &Coordinator{
		orders:   orders,
		catalog:  catalog,
		out:      out,
		notifier: notifier,
		logger:   logger,
	}
}

// StatisticsName returns the statistics artifact name for a category.
func StatisticsName(category string) string {
	return fmt.Sprintf("bin_usage_statistics_%s.json", category)
}

// ReportName returns the CSV report artifact name for a category.
func ReportName(category string) string {
	return fmt.Sprintf("bin_usage_statistics_%s.csv", category)
}

// Run processes every category concurrently and returns one result per
// category, in input order. An empty category list and a missing or empty
// container catalog are the only errors surfaced to the caller; every fault
// past that boundary is absorbed into the affected category's result.
func (c *Coordinator) Run(ctx context.Context, categories []string, maxOrders int) ([]models.CategoryResult, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories to process")
	}

	// Probe the catalog before starting any worker. This also warms a caching
	// source, so the per-worker loads below are cheap.
	records, err := c.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load container catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("container catalog is empty")
	}

	c.logger.Printf("run start: categories=%v maxOrders=%d catalog=%d", categories, maxOrders, len(records))

	results := make([]models.CategoryResult, len(categories))
	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(slot int, category string) {
			defer wg.Done()
			results[slot] = c.processCategory(ctx, category, maxOrders)
		}(i, category)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Status == models.CategoryStatusSucceeded {
			succeeded++
		}
	}
	c.logger.Printf("run done: %d/%d categories succeeded", succeeded, len(results))
	return results, nil
}

// processCategory owns one category end to end. Panics from anywhere in the
// worker are converted into a failed result so sibling categories keep going.
func (c *Coordinator) processCategory(ctx context.Context, category string, maxOrders int) (result models.CategoryResult) {
	logger := log.New(c.logger.Writer(), fmt.Sprintf("[pipeline:%s] ", category), log.LstdFlags)
	defer func() {
		if r := recover(); r != nil {
			result = c.fail(logger, category, fmt.Sprintf("panic: %v", r))
		}
	}()

	records, err := c.catalog.Catalog(ctx)
	if err != nil {
		return c.fail(logger, category, fmt.Sprintf("load catalog: %v", err))
	}
	containers := packing.LoadContainers(records, logger)
	if len(containers) == 0 {
		return c.fail(logger, category, "no usable containers in catalog")
	}

	orders, err := c.orders.Orders(ctx, category)
	if err != nil {
		return c.fail(logger, category, fmt.Sprintf("load orders: %v", err))
	}
	logger.Printf("loaded %d orders", len(orders))

	orch := packing.NewOrchestrator(logger)
	summary, err := orch.PackOrderStream(ctx, source.NewSliceStream(orders), containers, maxOrders)
	if err != nil {
		return c.fail(logger, category, fmt.Sprintf("pack orders: %v", err))
	}

	stats := usage.BuildStatistics(summary.Summaries, orders, logger)

	statsName := StatisticsName(category)
	statsPayload, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return c.fail(logger, category, fmt.Sprintf("encode statistics: %v", err))
	}
	if err := c.out.Write(ctx, statsName, statsPayload); err != nil {
		return c.fail(logger, category, fmt.Sprintf("write statistics: %v", err))
	}
	logger.Printf("wrote %s", statsName)
	c.deliver(ctx, logger, statsName, statsPayload,
		fmt.Sprintf("Container usage statistics for %s: %d containers across %d processed orders", category, len(stats), summary.ProcessedOrders))

	csvText, err := report.BuildUsageCSV(category, stats, records)
	if err != nil {
		return c.fail(logger, category, fmt.Sprintf("build report: %v", err))
	}
	reportName := ReportName(category)
	if err := c.out.Write(ctx, reportName, []byte(csvText)); err != nil {
		return c.fail(logger, category, fmt.Sprintf("write report: %v", err))
	}
	logger.Printf("wrote %s", reportName)
	c.deliver(ctx, logger, reportName, []byte(csvText),
		fmt.Sprintf("Container usage report for %s", category))

	now := time.Now().UTC()
	return models.CategoryResult{
		Category:        category,
		Status:          models.CategoryStatusSucceeded,
		TotalOrders:     summary.TotalOrders,
		ProcessedOrders: summary.ProcessedOrders,
		ContainersUsed:  len(stats),
		StatisticsName:  statsName,
		ReportName:      reportName,
		FinishedAt:      &now,
	}
}

func (c *Coordinator) fail(logger *log.Logger, category, msg string) models.CategoryResult {
	logger.Printf("category failed: %s", msg)
	now := time.Now().UTC()
	return models.CategoryResult{
		Category:   category,
		Status:     models.CategoryStatusFailed,
		Error:      msg,
		FinishedAt: &now,
	}
}

// deliver hands an artifact to the notification channel. Delivery failures
// are logged and never change the category's outcome.
func (c *Coordinator) deliver(ctx context.Context, logger *log.Logger, name string, payload []byte, message string) {
	if err := c.notifier.SendFile(ctx, name, payload, message); err != nil {
		logger.Printf("deliver %s: %v", name, err)
		return
	}
	logger.Printf("delivered %s", name)
}

// OverallStatus reduces per-category outcomes to a run status.
func OverallStatus(results []models.CategoryResult) string {
	if len(results) == 0 {
		return models.RunStatusFailed
	}
	failures := 0
	for _, r := range results {
		if r.Status != models.CategoryStatusSucceeded {
			failures++
		}
	}
	switch failures {
	case 0:
		return models.RunStatusCompleted
	case len(results):
		return models.RunStatusFailed
	default:
		return models.RunStatusPartial
	}
}
