package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventStockUpdate = "stock_update"
	EventStockAlert  = "stock_alert"
)

// StockEvent is pushed to websocket clients and the event stream after a commit.
type StockEvent struct {
	Type        string             `json:"type"`
	Action      string             `json:"action"`
	OperationID uuid.UUID          `json:"operation_id,omitempty"`
	ActorID     string             `json:"actor_id,omitempty"`
	Entries     []StockLedgerEntry `json:"entries,omitempty"`
	Breaches    []AlertBreach      `json:"breaches,omitempty"`
	Message     string             `json:"message"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Key is used for partitioning on the event stream.
func (e StockEvent) Key() string {
	if e.OperationID != uuid.Nil {
		return e.OperationID.String()
	}
	return e.Type
}

// AlertBreach reports a balance strictly below its configured minimum.
type AlertBreach struct {
	WarehouseCode string          `json:"warehouse_code"`
	ProductCode   string          `json:"product_code"`
	Current       decimal.Decimal `json:"current"`
	Min           decimal.Decimal `json:"min"`
}
