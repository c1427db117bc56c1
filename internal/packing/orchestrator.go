package packing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/packsight/packsight/internal/models"
)

const progressLogStep = 100

// OrderStream is a lazy sequence of orders. Next returns io.EOF after the
// final order.
type OrderStream interface {
	Next(ctx context.Context) (models.Order, error)
}

// Orchestrator runs container selection across whole order sets, isolating
// per-order faults so one bad order never takes down a run.
type Orchestrator struct {
	logger *log.Logger
}

func NewOrchestrator(logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(os.Stdout, "[packing] ", log.LstdFlags)
	}
	return &Orchestrator{logger: logger}
}

// PackOrders processes a materialized order list in index order, up to
// maxOrders entries. A negative maxOrders means no cap. Orders whose
// processing faults are logged and omitted from the summaries; orders that
// merely found no container still produce a result with a nil fit.
func (o *Orchestrator) PackOrders(orders []models.Order, catalog []models.Container, maxOrders int) models.PackingSummary {
	limit := len(orders)
	if maxOrders >= 0 && maxOrders < limit {
		limit = maxOrders
	}
	o.logger.Printf("pack start: orders=%d containers=%d limit=%d", len(orders), len(catalog), limit)

	summaries := make([]models.PackingResult, 0, limit)
	successes := 0
	for index := 0; index < limit; index++ {
		result, err := o.packOrder(orders[index], catalog, index)
		if err != nil {
			o.logger.Printf("pack: failed to build summary for order index %d: %v", index, err)
			continue
		}
		summaries = append(summaries, result)
		if result.Bin != nil {
			successes++
			if successes%progressLogStep == 0 {
				o.logger.Printf("pack: processing %d/%d", successes, limit)
			}
		}
	}

	o.logger.Printf("pack done: produced %d summaries (processed=%d)", len(summaries), limit)
	return models.PackingSummary{
		TotalOrders:     len(orders),
		ProcessedOrders: limit,
		TotalSummaries:  len(summaries),
		Summaries:       summaries,
	}
}

// PackOrderStream consumes orders lazily, stopping once maxOrders orders have
// been attempted. A negative maxOrders means no cap. The cap counts attempts:
// the cursor advances before an order's outcome is known, so faulted orders
// still consume budget. A stream error aborts the run; per-order faults do
// not.
func (o *Orchestrator) PackOrderStream(ctx context.Context, stream OrderStream, catalog []models.Container, maxOrders int) (models.PackingSummary, error) {
	if maxOrders >= 0 {
		o.logger.Printf("pack stream start: limit=%d containers=%d", maxOrders, len(catalog))
	} else {
		o.logger.Printf("pack stream start: no limit, containers=%d", len(catalog))
	}

	summaries := make([]models.PackingResult, 0)
	processed := 0
	successes := 0
	for {
		if maxOrders >= 0 && processed >= maxOrders {
			break
		}
		order, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.PackingSummary{}, fmt.Errorf("advance order stream: %w", err)
		}

		index := processed
		processed++
		result, err := o.packOrder(order, catalog, index)
		if err != nil {
			o.logger.Printf("pack: failed to build summary for order index %d: %v", index, err)
			continue
		}
		summaries = append(summaries, result)
		if result.Bin != nil {
			successes++
			if successes%progressLogStep == 0 {
				if maxOrders >= 0 {
					o.logger.Printf("pack: processing %d/%d", successes, maxOrders)
				} else {
					o.logger.Printf("pack: processing %d", successes)
				}
			}
		}
	}

	o.logger.Printf("pack stream done: produced %d summaries (processed=%d)", len(summaries), processed)
	return models.PackingSummary{
		TotalOrders:     processed,
		ProcessedOrders: processed,
		TotalSummaries:  len(summaries),
		Summaries:       summaries,
	}, nil
}

// packOrder builds the per-order result. Panics from the placement machinery
// surface as errors so the caller can drop just this order.
func (o *Orchestrator) packOrder(order models.Order, catalog []models.Container, index int) (result models.PackingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pack order %d: %v", index, r)
		}
	}()

	items := ExpandOrderItems(order)
	fit := SelectContainer(items, catalog)
	return models.PackingResult{
		OrderIndex:    index,
		OrderID:       order.TransactionID,
		ProductsCount: len(order.Products),
		Bin:           fit,
	}, nil
}
