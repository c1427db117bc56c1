package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/packsight/packsight/internal/models"
)

// PGOrderSource reads orders from Postgres. One row per order; product lines
// live in a JSONB column so the loose source typing survives the round trip.
type PGOrderSource struct {
	db *sql.DB
}

func NewPGOrderSource(db *sql.DB) *PGOrderSource {
	return &PGOrderSource{db: db}
}

func (s *PGOrderSource) Orders(ctx context.Context, category string) ([]models.Order, error) {
	const query = `
		SELECT transaction_id, order_index, products
		FROM orders
		WHERE category = $1
		ORDER BY order_index
	`
	rows, err := s.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("list %s orders: %w", category, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			txID     sql.NullString
			index    sql.NullInt64
			products []byte
		)
		if err := rows.Scan(&txID, &index, &products); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		var order models.Order
		if txID.Valid {
			v := txID.String
			order.TransactionID = &v
		}
		if index.Valid {
			order.Index = int(index.Int64)
		}
		if len(products) > 0 {
			if err := json.Unmarshal(products, &order.Products); err != nil {
				return nil, fmt.Errorf("decode order products: %w", err)
			}
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// PGCatalogSource reads container catalog records from Postgres. Each row
// keeps the raw record as JSONB; position preserves ingestion order.
type PGCatalogSource struct {
	db *sql.DB
}

func NewPGCatalogSource(db *sql.DB) *PGCatalogSource {
	return &PGCatalogSource{db: db}
}

func (s *PGCatalogSource) Catalog(ctx context.Context) ([]models.CatalogRecord, error) {
	const query = `
		SELECT record
		FROM catalog_containers
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var records []models.CatalogRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan catalog record: %w", err)
		}
		var rec models.CatalogRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode catalog record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return records, nil
}
