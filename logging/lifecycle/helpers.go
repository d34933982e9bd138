package lifecycle

import (
	"context"

	"dodge-and-deal/server/logging"
)

const (
	// EventCustomerEntered is emitted when a customer spawns at the door.
	EventCustomerEntered logging.EventType = "lifecycle.customer_entered"
	// EventCustomerLeft is emitted when a customer walks out for good.
	EventCustomerLeft logging.EventType = "lifecycle.customer_left"
	// EventCustomerStruck is emitted when the player strikes a customer.
	EventCustomerStruck logging.EventType = "lifecycle.customer_struck"
	// EventCustomerDefeated is emitted when a strike drops a customer's health to zero.
	EventCustomerDefeated logging.EventType = "lifecycle.customer_defeated"
)

// CustomerEnteredPayload records who walked in.
type CustomerEnteredPayload struct {
	Archetype string `json:"archetype"`
}

// CustomerLeftPayload records how the visit ended.
type CustomerLeftPayload struct {
	Archetype string `json:"archetype"`
	Forced    bool   `json:"forced,omitempty"`
}

// CustomerStruckPayload records a strike landing.
type CustomerStruckPayload struct {
	Damage    int `json:"damage"`
	Remaining int `json:"remaining"`
}

// CustomerEntered publishes a spawn event.
func CustomerEntered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CustomerEnteredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCustomerEntered,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// CustomerLeft publishes a departure event.
func CustomerLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CustomerLeftPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCustomerLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// CustomerStruck publishes a strike event; defeated selects the stronger type.
func CustomerStruck(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CustomerStruckPayload, defeated bool) {
	if pub == nil {
		return
	}
	eventType := EventCustomerStruck
	severity := logging.SeverityInfo
	if defeated {
		eventType = EventCustomerDefeated
		severity = logging.SeverityWarn
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
