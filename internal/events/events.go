// Package events publishes inventory and sales events to interested consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	// Amounts marshal as JSON numbers.
	_ "github.com/foso7/wings-cafe-inventory/internal/money"
)

const (
	TopicSaleRecorded  = "sale.recorded"
	TopicStockAdjusted = "stock.adjusted"
	TopicStockLow      = "stock.low"
)

// Topics lists every topic this service publishes to.
var Topics = []string{TopicSaleRecorded, TopicStockAdjusted, TopicStockLow}

// Publisher delivers an event payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// SaleRecorded is emitted once per recorded sale line.
type SaleRecorded struct {
	SaleID      string          `json:"saleId"`
	ProductID   string          `json:"productId"`
	CustomerID  string          `json:"customerId,omitempty"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	SaleDate    time.Time       `json:"saleDate"`
}

// StockAdjusted is emitted whenever a product's quantity changes.
type StockAdjusted struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Delta     int    `json:"delta"`
	Quantity  int    `json:"quantity"`
}

// StockLow is emitted when a product's quantity drops below the threshold.
type StockLow struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, topic string, payload interface{}) error { return nil }
func (Noop) Close() error                                                      { return nil }

// Event is a published topic and payload as seen by Recorder.
type Event struct {
	Topic   string
	Payload interface{}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Topic: topic, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Topic returns the payloads published to topic, in order.
func (r *Recorder) Topic(topic string) []interface{} {
	var out []interface{}
	for _, e := range r.Events() {
		if e.Topic == topic {
			out = append(out, e.Payload)
		}
	}
	return out
}
