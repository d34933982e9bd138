package simulation

import (
	"context"

	"dodge-and-deal/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a simulation tick exceeds its frame budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventDayEnded is emitted when the store closes and remaining customers are sent out.
	EventDayEnded logging.EventType = "simulation.day_ended"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// TickBudgetOverrun publishes a warning when the loop falls behind.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// DayEndedPayload counts what the close-out swept up.
type DayEndedPayload struct {
	CustomersSentOut int `json:"customersSentOut"`
}

// DayEnded publishes the store-close event.
func DayEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload DayEndedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDayEnded,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
