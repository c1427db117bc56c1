package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductLine is one raw line of an order as received from an order source.
// Measurement fields stay loosely typed until normalization; sources routinely
// deliver numbers as strings or omit them entirely.
type ProductLine struct {
	Title      interface{} `json:"title,omitempty"`
	ID         interface{} `json:"id,omitempty"`
	Length     interface{} `json:"length,omitempty"`
	Width      interface{} `json:"width,omitempty"`
	Height     interface{} `json:"height,omitempty"`
	Weight     interface{} `json:"weight,omitempty"`
	Quantity   interface{} `json:"quantity,omitempty"`
	LengthUnit string      `json:"length_unit,omitempty"`
	WeightUnit string      `json:"weight_unit,omitempty"`
}

// Order is one customer order. TransactionID may be nil when the source never
// assigned one; Index is the source-side position hint, loosely typed for the
// same reason the line measurements are.
type Order struct {
	TransactionID *string       `json:"transaction_id,omitempty"`
	Index         interface{}   `json:"index,omitempty"`
	Products      []ProductLine `json:"products"`
}

// CatalogRecord is one raw container record. Records keep their source shape;
// field aliases (packageId/id/sku/code, title/name/size_cm) are resolved at
// use sites, so the record stays a plain map.
type CatalogRecord map[string]interface{}

// Item is a single physical unit to pack, in canonical units (cm, g).
type Item struct {
	Name   string
	Length float64
	Width  float64
	Height float64
	Weight float64
}

// Container is a candidate shipping container in canonical units.
type Container struct {
	Name      string
	URL       string
	Length    float64
	Width     float64
	Height    float64
	MaxWeight float64
}

func (c Container) Volume() float64 {
	return c.Length * c.Width * c.Height
}

// ContainerFit describes the container chosen for one order.
type ContainerFit struct {
	Name        string  `json:"name"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Volume      float64 `json:"volume"`
	FittedItems int     `json:"fitted_items"`
	URL         string  `json:"url,omitempty"`
}

// PackingResult is the per-order outcome. Bin is nil when no candidate
// container held every item; that is a result, not an error.
type PackingResult struct {
	OrderIndex    int           `json:"order_index"`
	OrderID       *string       `json:"order_id"`
	ProductsCount int           `json:"products_count"`
	Bin           *ContainerFit `json:"bin"`
}

// PackingSummary is the aggregate outcome of one packing run.
type PackingSummary struct {
	TotalOrders     int             `json:"total_orders"`
	ProcessedOrders int             `json:"processed_orders"`
	TotalSummaries  int             `json:"total_summaries"`
	Summaries       []PackingResult `json:"summaries"`
}

// OrderDetail is one order's contribution to a container's usage statistics.
// Index fields are pointers (or loosely typed) because aggregation also runs
// over results reloaded from disk, where either index may be missing.
type OrderDetail struct {
	OrderID              *string     `json:"order_id"`
	OrderIndex           *int        `json:"order_index,omitempty"`
	ProductsCount        int         `json:"products_count"`
	OrderIndexFromOrders interface{} `json:"order_index_from_orders,omitempty"`
	ActualProductsCount  *int        `json:"actual_products_count,omitempty"`
	TotalQuantity        *int        `json:"total_quantity,omitempty"`
}

// UsageStatistic is the per-container aggregate over a packing run.
type UsageStatistic struct {
	Name                string        `json:"name"`
	Length              float64       `json:"length"`
	Width               float64       `json:"width"`
	Height              float64       `json:"height"`
	Volume              float64       `json:"volume"`
	URL                 string        `json:"url,omitempty"`
	UsageCount          int           `json:"usage_count"`
	OrdersDetail        []OrderDetail `json:"orders_detail"`
	TotalUniqueOrders   int           `json:"total_unique_orders"`
	TotalProductsPacked int           `json:"total_products_packed"`
	TotalActualProducts *int          `json:"total_actual_products,omitempty"`
	TotalQuantity       *int          `json:"total_quantity,omitempty"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"

	CategoryStatusSucceeded = "succeeded"
	CategoryStatusFailed    = "failed"
)

// PipelineRun records one coordinator invocation across categories.
type PipelineRun struct {
	ID         uuid.UUID        `json:"id"`
	Pipeline   string           `json:"pipeline"`
	Categories []string         `json:"categories"`
	MaxOrders  int              `json:"maxOrders"`
	Status     string           `json:"status"`
	Results    []CategoryResult `json:"results,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// CategoryResult is the outcome of one category worker within a run.
type CategoryResult struct {
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	Error           string     `json:"error,omitempty"`
	TotalOrders     int        `json:"totalOrders"`
	ProcessedOrders int        `json:"processedOrders"`
	ContainersUsed  int        `json:"containersUsed"`
	StatisticsName  string     `json:"statisticsName,omitempty"`
	ReportName      string     `json:"reportName,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}
