// Package source loads orders and container catalogs from the collaborator
// systems feeding the packing pipeline: data files (plain or OpenSSL
// encrypted), Postgres, and an optional Redis read-through cache for
// catalogs.
package source

import (
	"context"
	"errors"
	"io"

	"github.com/packsight/packsight/internal/models"
)

var ErrNotFound = errors.New("not found")

// OrderSource supplies one category's orders, materialized. The aggregation
// stage cross-references the full list, so sources hand it over whole; the
// orchestrator consumes it lazily through a SliceStream.
type OrderSource interface {
	Orders(ctx context.Context, category string) ([]models.Order, error)
}

// CatalogSource supplies raw container catalog records in ingestion order.
type CatalogSource interface {
	Catalog(ctx context.Context) ([]models.CatalogRecord, error)
}

// SliceStream adapts a materialized order list to the orchestrator's lazy
// stream contract. Next returns io.EOF after the final order.
type SliceStream struct {
	orders []models.Order
	pos    int
}

func NewSliceStream(orders []models.Order) *SliceStream {
	return &SliceStream{orders: orders}
}

func (s *SliceStream) Next(ctx context.Context) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	if s.pos >= len(s.orders) {
		return models.Order{}, io.EOF
	}
	order := s.orders[s.pos]
	s.pos++
	return order, nil
}
