package sim

import (
	"context"
	"fmt"
	"math/rand"

	"dodge-and-deal/server/internal/ai"
	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
	"dodge-and-deal/server/logging"
	"dodge-and-deal/server/logging/economy"
	"dodge-and-deal/server/logging/lifecycle"
	"dodge-and-deal/server/logging/simulation"
)

// Config assembles a store world. Zero values fall back to the shipped
// layout, a fixed seed, and a nop publisher.
type Config struct {
	Layout    []string
	Seed      int64
	Publisher logging.Publisher
	Tuning    ai.Tuning
	Spawn     SpawnConfig
}

// World owns the store state: the tile grid, every active customer, and the
// items on the floor. It is single-goroutine; the loop serializes access.
type World struct {
	grid          *grid.Map
	layout        []string
	doorPos       geom.Vec2
	shelfGroups   []grid.ShelfGroup
	nodePositions []geom.Vec2

	agents []*ai.Agent
	items  itemStore

	rng       *rand.Rand
	publisher logging.Publisher
	tuning    ai.Tuning
	spawner   spawner

	tick         uint64
	nextCustomer uint64
	closed       bool
}

// NewWorld parses the layout and precomputes the navigation artifacts every
// customer shares: the door position, shelf groups, and buy nodes.
func NewWorld(cfg Config) *World {
	layout := cfg.Layout
	if len(layout) == 0 {
		layout = grid.StoreLayout
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	tuning := cfg.Tuning
	if tuning.StuckRecomputeAfter == 0 {
		tuning = ai.DefaultTuning()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}

	m := grid.Parse(layout)
	w := &World{
		grid:          m,
		layout:        layout,
		shelfGroups:   m.ShelfGroups(),
		nodePositions: m.CentersOf(grid.KindNode),
		items:         newItemStore(),
		rng:           rand.New(rand.NewSource(seed)),
		publisher:     publisher,
		tuning:        tuning,
		spawner:       newSpawner(cfg.Spawn),
	}

	doors := m.CentersOf(grid.KindDoor)
	if len(doors) > 0 {
		w.doorPos = doors[0]
	} else {
		w.doorPos = geom.Vec2{X: m.Width() / 2, Y: m.Height() / 2}
	}
	return w
}

// Grid exposes the tile map for transports and debug overlays.
func (w *World) Grid() *grid.Map { return w.grid }

// Layout returns the ASCII rows the map was parsed from, for client replay.
func (w *World) Layout() []string { return w.layout }

// DoorPos is where customers enter and exit.
func (w *World) DoorPos() geom.Vec2 { return w.doorPos }

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 { return w.tick }

// Agents returns the live customer list in update order.
func (w *World) Agents() []*ai.Agent { return w.agents }

// Items returns a copy of the floor items in drop order.
func (w *World) Items() []Item { return w.items.all() }

// ObstaclesNear implements ai.WorldView.
func (w *World) ObstaclesNear(box geom.Rect) (obstacles, doors []geom.Rect) {
	return w.grid.SolidRectsAround(box)
}

// CurrencyItems implements ai.WorldView.
func (w *World) CurrencyItems() []ai.CurrencyRef {
	currency := w.items.ofKind(ItemCurrency)
	refs := make([]ai.CurrencyRef, 0, len(currency))
	for _, item := range currency {
		refs = append(refs, ai.CurrencyRef{ID: item.ID, Pos: item.Pos})
	}
	return refs
}

// Step advances the world one tick: maybe spawn, update every customer in
// list order, apply their side effects, then drop the finished ones. Items a
// customer drops are visible to customers updated later in the same tick.
func (w *World) Step(dt float64) {
	w.tick++
	if !w.closed {
		w.spawner.step(w, dt)
	}
	for _, agent := range w.agents {
		effect := agent.Update(dt, w)
		w.applyEffect(agent, effect)
	}
	w.pruneFinished()
}

func (w *World) applyEffect(agent *ai.Agent, effect ai.Effect) {
	ctx := context.Background()
	actor := logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindCustomer}
	switch effect.Kind {
	case ai.EffectDropCurrency:
		item := w.items.add(ItemCurrency, effect.Pos)
		economy.CurrencyDropped(ctx, w.publisher, w.tick, actor, economy.CurrencyDroppedPayload{
			ItemID: item.ID,
			X:      item.Pos.X,
			Y:      item.Pos.Y,
		})
	case ai.EffectDropLitter:
		item := w.items.add(ItemLitter, effect.Pos)
		economy.LitterDropped(ctx, w.publisher, w.tick, actor, economy.LitterDroppedPayload{
			ItemID: item.ID,
			X:      item.Pos.X,
			Y:      item.Pos.Y,
		})
	case ai.EffectStoleItem:
		if item, ok := w.items.remove(effect.ItemID); ok {
			economy.CurrencyStolen(ctx, w.publisher, w.tick, actor, economy.CurrencyStolenPayload{
				ItemID: item.ID,
				X:      item.Pos.X,
				Y:      item.Pos.Y,
			})
		}
	}
}

func (w *World) pruneFinished() {
	kept := w.agents[:0]
	for _, agent := range w.agents {
		if !agent.Finished() {
			kept = append(kept, agent)
			continue
		}
		lifecycle.CustomerLeft(context.Background(), w.publisher, w.tick,
			logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindCustomer},
			lifecycle.CustomerLeftPayload{Archetype: agent.Archetype.String(), Forced: w.closed})
	}
	for i := len(kept); i < len(w.agents); i++ {
		w.agents[i] = nil
	}
	w.agents = kept
}

// SpawnCustomer places a new customer of the given archetype at the door.
func (w *World) SpawnCustomer(archetype ai.Archetype) *ai.Agent {
	w.nextCustomer++
	agent := ai.NewAgent(ai.Config{
		ID:            fmt.Sprintf("customer-%d", w.nextCustomer),
		Archetype:     archetype,
		Grid:          w.grid,
		DoorPos:       w.doorPos,
		ShelfGroups:   w.shelfGroups,
		NodePositions: w.nodePositions,
		RNG:           w.rng,
		Tuning:        w.tuning,
	})
	w.agents = append(w.agents, agent)
	lifecycle.CustomerEntered(context.Background(), w.publisher, w.tick,
		logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindCustomer},
		lifecycle.CustomerEnteredPayload{Archetype: archetype.String()})
	return agent
}

// Strike lands a player hit on the identified customer, knocking it back and
// applying damage. A defeated thief triggers the spawn ban so the store gets
// a quiet moment. Returns false when no such customer is active.
func (w *World) Strike(agentID string, direction geom.Vec2, force float64, damage int) bool {
	for _, agent := range w.agents {
		if agent.ID != agentID {
			continue
		}
		agent.ApplyKnockback(direction, force)
		survived := agent.TakeDamage(damage)
		lifecycle.CustomerStruck(context.Background(), w.publisher, w.tick,
			logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindCustomer},
			lifecycle.CustomerStruckPayload{Damage: damage, Remaining: agent.Health},
			!survived)
		if !survived {
			w.spawner.ban()
		}
		return true
	}
	return false
}

// EndDay closes the store: spawning stops and every remaining customer is
// sent to the exit.
func (w *World) EndDay() {
	if w.closed {
		return
	}
	w.closed = true
	sent := 0
	for _, agent := range w.agents {
		if !agent.Finished() {
			agent.ForceLeave()
			sent++
		}
	}
	simulation.DayEnded(context.Background(), w.publisher, w.tick,
		simulation.DayEndedPayload{CustomersSentOut: sent})
}

// Closed reports whether the day has ended.
func (w *World) Closed() bool { return w.closed }

// CustomerSnapshot is the wire view of one customer.
type CustomerSnapshot struct {
	ID        string    `json:"id"`
	Archetype string    `json:"archetype"`
	State     string    `json:"state"`
	Pos       geom.Vec2 `json:"pos"`
	Health    int       `json:"health,omitempty"`
}

// Snapshot is the full observable world state for one tick.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Customers []CustomerSnapshot `json:"customers"`
	Items     []Item             `json:"items"`
	Closed    bool               `json:"closed,omitempty"`
}

// Snapshot captures the current state for broadcast.
func (w *World) Snapshot() Snapshot {
	customers := make([]CustomerSnapshot, 0, len(w.agents))
	for _, agent := range w.agents {
		customers = append(customers, CustomerSnapshot{
			ID:        agent.ID,
			Archetype: agent.Archetype.String(),
			State:     agent.State().String(),
			Pos:       agent.Pos,
			Health:    agent.Health,
		})
	}
	return Snapshot{
		Tick:      w.tick,
		Customers: customers,
		Items:     w.items.all(),
		Closed:    w.closed,
	}
}
