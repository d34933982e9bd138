package economy

import (
	"context"

	"dodge-and-deal/server/logging"
)

const (
	// EventCurrencyDropped is emitted when a customer leaves payment on the floor.
	EventCurrencyDropped logging.EventType = "economy.currency_dropped"
	// EventCurrencyStolen is emitted when a thief picks up floor currency.
	EventCurrencyStolen logging.EventType = "economy.currency_stolen"
	// EventLitterDropped is emitted for every piece of litter a customer drops.
	EventLitterDropped logging.EventType = "economy.litter_dropped"
)

// CurrencyDroppedPayload describes a payment left on the floor.
type CurrencyDroppedPayload struct {
	ItemID string  `json:"itemId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// CurrencyStolenPayload describes a theft of floor currency.
type CurrencyStolenPayload struct {
	ItemID string  `json:"itemId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// LitterDroppedPayload describes one piece of dropped litter.
type LitterDroppedPayload struct {
	ItemID string  `json:"itemId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// CurrencyDropped publishes a currency drop event.
func CurrencyDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CurrencyDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCurrencyDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// CurrencyStolen publishes a theft event.
func CurrencyStolen(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CurrencyStolenPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCurrencyStolen,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// LitterDropped publishes a litter drop event.
func LitterDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LitterDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLitterDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}
