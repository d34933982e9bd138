package ai

import (
	"math/rand"
	"testing"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

const testDT = 1.0 / 60.0

var storeLayout = []string{
	"##########",
	"#........#",
	"#..SS....#",
	"#........D",
	"#...N....#",
	"#........#",
	"##########",
}

type stubView struct {
	grid     *grid.Map
	currency []CurrencyRef
}

func (v *stubView) ObstaclesNear(box geom.Rect) (obstacles, doors []geom.Rect) {
	return v.grid.SolidRectsAround(box)
}

func (v *stubView) CurrencyItems() []CurrencyRef {
	return v.currency
}

// blockingView pins the agent in place so the stuck detector has to fire.
type blockingView struct{}

func (blockingView) ObstaclesNear(box geom.Rect) (obstacles, doors []geom.Rect) {
	return []geom.Rect{{X: -1e6, Y: -1e6, Width: 2e6, Height: 2e6}}, nil
}

func (blockingView) CurrencyItems() []CurrencyRef { return nil }

func testAgent(t *testing.T, archetype Archetype, shelves bool, nodes bool, seed int64) (*Agent, *stubView) {
	t.Helper()
	m := grid.Parse(storeLayout)
	doors := m.CentersOf(grid.KindDoor)
	if len(doors) != 1 {
		t.Fatalf("test layout has %d doors", len(doors))
	}
	cfg := Config{
		ID:        "customer-test",
		Archetype: archetype,
		Grid:      m,
		DoorPos:   doors[0],
		RNG:       rand.New(rand.NewSource(seed)),
	}
	if shelves {
		cfg.ShelfGroups = m.ShelfGroups()
	}
	if nodes {
		cfg.NodePositions = m.CentersOf(grid.KindNode)
	}
	return NewAgent(cfg), &stubView{grid: m}
}

func runUntilFinished(t *testing.T, agent *Agent, view WorldView, maxTicks int) []Effect {
	t.Helper()
	effects := make([]Effect, 0)
	for i := 0; i < maxTicks; i++ {
		if agent.Finished() {
			return effects
		}
		if effect := agent.Update(testDT, view); effect.Kind != EffectNone {
			effects = append(effects, effect)
		}
	}
	t.Fatalf("agent still in state %v after %d ticks", agent.State(), maxTicks)
	return nil
}

func countKind(effects []Effect, kind EffectKind) int {
	n := 0
	for _, effect := range effects {
		if effect.Kind == kind {
			n++
		}
	}
	return n
}

func TestRegularShelfVisitDropsOneCurrency(t *testing.T) {
	agent, view := testAgent(t, ArchetypeRegular, true, false, 7)

	effects := runUntilFinished(t, agent, view, 20000)
	if got := countKind(effects, EffectDropCurrency); got != 1 {
		t.Fatalf("regular customer dropped %d currency items, want 1", got)
	}
	if countKind(effects, EffectDropLitter) != 0 {
		t.Fatal("regular customer dropped litter")
	}
	if countKind(effects, EffectStoleItem) != 0 {
		t.Fatal("regular customer stole something")
	}
}

func TestRegularNodeVisitDropsOneCurrency(t *testing.T) {
	agent, view := testAgent(t, ArchetypeRegular, false, true, 11)

	sawNode := false
	effects := make([]Effect, 0)
	for i := 0; i < 30000 && !agent.Finished(); i++ {
		if agent.State() == StateToNode || agent.State() == StateBuying {
			sawNode = true
		}
		if effect := agent.Update(testDT, view); effect.Kind != EffectNone {
			effects = append(effects, effect)
		}
	}
	if !agent.Finished() {
		t.Fatalf("agent still in state %v", agent.State())
	}
	if !sawNode {
		t.Fatal("agent never visited the buy node")
	}
	if got := countKind(effects, EffectDropCurrency); got != 1 {
		t.Fatalf("node visit dropped %d currency items, want 1", got)
	}
}

func TestThiefLeavesEmptyHandedWithoutCurrency(t *testing.T) {
	agent, view := testAgent(t, ArchetypeThief, true, false, 3)

	sawSearch := false
	for i := 0; i < 20000 && !agent.Finished(); i++ {
		if agent.State() == StateSearching {
			sawSearch = true
		}
		if effect := agent.Update(testDT, view); effect.Kind == EffectStoleItem {
			t.Fatal("thief stole from an empty floor")
		}
	}
	if !agent.Finished() {
		t.Fatalf("thief still in state %v", agent.State())
	}
	if !sawSearch {
		t.Fatal("thief never searched the floor")
	}
}

func TestThiefNodeVisitLeavesWithoutStealing(t *testing.T) {
	agent, view := testAgent(t, ArchetypeThief, false, true, 11)
	view.currency = []CurrencyRef{{ID: "currency-1", Pos: grid.CellCenter(6, 5)}}

	sawBuying := false
	for i := 0; i < 30000 && !agent.Finished(); i++ {
		switch agent.State() {
		case StateBuying:
			sawBuying = true
		case StateSearching, StateStealing:
			t.Fatalf("thief hunts the floor after a node visit, state %v", agent.State())
		}
		if effect := agent.Update(testDT, view); effect.Kind == EffectStoleItem {
			t.Fatal("thief stole after buying at a node")
		}
	}
	if !agent.Finished() {
		t.Fatalf("thief still in state %v", agent.State())
	}
	if !sawBuying {
		t.Fatal("thief never bought at the node")
	}
}

func TestThiefStealsFloorCurrency(t *testing.T) {
	agent, view := testAgent(t, ArchetypeThief, true, false, 5)
	view.currency = []CurrencyRef{{ID: "currency-1", Pos: grid.CellCenter(6, 4)}}

	effects := runUntilFinished(t, agent, view, 30000)
	steals := countKind(effects, EffectStoleItem)
	if steals != 1 {
		t.Fatalf("thief reported %d steals, want 1", steals)
	}
	for _, effect := range effects {
		if effect.Kind == EffectStoleItem && effect.ItemID != "currency-1" {
			t.Fatalf("thief stole %q, want currency-1", effect.ItemID)
		}
	}
}

func TestThiefStealTargetRemovedAborts(t *testing.T) {
	agent, view := testAgent(t, ArchetypeThief, true, false, 5)
	view.currency = []CurrencyRef{{ID: "currency-1", Pos: grid.CellCenter(6, 4)}}

	for i := 0; i < 30000 && !agent.Finished(); i++ {
		if agent.State() == StateStealing {
			view.currency = nil
		}
		if effect := agent.Update(testDT, view); effect.Kind == EffectStoleItem {
			t.Fatal("thief stole an item that was already gone")
		}
	}
	if !agent.Finished() {
		t.Fatalf("thief still in state %v", agent.State())
	}
}

func TestLittererDropsSpacedLitter(t *testing.T) {
	agent, view := testAgent(t, ArchetypeLitterer, true, false, 13)

	effects := runUntilFinished(t, agent, view, 40000)
	positions := make([]geom.Vec2, 0)
	for _, effect := range effects {
		if effect.Kind == EffectDropLitter {
			positions = append(positions, effect.Pos)
		}
	}
	if len(positions) == 0 {
		t.Fatal("litterer dropped nothing")
	}
	if len(positions) > agent.Profile.LitterTargetMax {
		t.Fatalf("litterer dropped %d pieces, cap is %d", len(positions), agent.Profile.LitterTargetMax)
	}
	minGap := grid.TileSize * 0.8
	for i := 1; i < len(positions); i++ {
		if positions[i].DistanceTo(positions[i-1]) < minGap-1e-9 {
			t.Fatalf("drops %d and %d are %.1f apart, want at least %.1f",
				i-1, i, positions[i].DistanceTo(positions[i-1]), minGap)
		}
	}
	if countKind(effects, EffectDropCurrency) != 0 {
		t.Fatal("litterer paid for something")
	}
}

func TestLitterCapHaltsDrops(t *testing.T) {
	agent, _ := testAgent(t, ArchetypeLitterer, true, false, 13)
	agent.Pos = grid.CellCenter(6, 5)
	agent.litterTimer = 100

	agent.litterDropped = agent.litterTarget
	if effect := agent.maybeDropLitter(); effect.Kind != EffectNone {
		t.Fatalf("dropped past the target count: %v", effect)
	}

	agent.litterDropped = 0
	agent.litterTimer = 100
	if effect := agent.maybeDropLitter(); effect.Kind != EffectDropLitter {
		t.Fatalf("no drop under the target count: %v", effect)
	}
}

func TestStuckAgentRecomputesPath(t *testing.T) {
	agent, view := testAgent(t, ArchetypeRegular, true, false, 7)

	for i := 0; i < 5000; i++ {
		if agent.State() == StateToShelf && agent.PathGeneration() > 0 {
			break
		}
		agent.Update(testDT, view)
	}
	if agent.State() != StateToShelf {
		t.Fatalf("agent never headed for a shelf, state %v", agent.State())
	}
	before := agent.PathGeneration()
	if before == 0 {
		t.Fatal("agent heading to a shelf holds no path")
	}

	// Freeze the agent; after the stuck window it must ask the planner
	// again.
	blocked := blockingView{}
	for i := 0; i < 60; i++ {
		agent.Update(testDT, blocked)
	}
	if agent.PathGeneration() <= before {
		t.Fatalf("path generation stayed at %d while stuck", before)
	}
}

func TestDamageAndKnockback(t *testing.T) {
	agent, view := testAgent(t, ArchetypeThief, true, false, 9)

	if agent.Health != 3 {
		t.Fatalf("thief spawned with %d health, want 3", agent.Health)
	}
	if !agent.TakeDamage(1) {
		t.Fatal("thief died to a single hit")
	}
	agent.ApplyKnockback(geom.Vec2{X: -1, Y: 0}, 6)
	if !agent.KnockedBack() {
		t.Fatal("knockback did not arm")
	}
	posBefore := agent.Pos
	stateBefore := agent.State()
	agent.Update(testDT, view)
	if agent.Pos.X >= posBefore.X {
		t.Fatalf("knockback did not push the agent: %v -> %v", posBefore, agent.Pos)
	}
	if agent.State() != stateBefore {
		t.Fatal("state advanced while knocked back")
	}

	if agent.TakeDamage(2) {
		t.Fatal("thief survived lethal damage")
	}
	if !agent.Finished() {
		t.Fatal("defeated thief is not finished")
	}
}

func TestRegularIgnoresDamage(t *testing.T) {
	agent, _ := testAgent(t, ArchetypeRegular, true, false, 7)
	if !agent.TakeDamage(100) {
		t.Fatal("regular customer has no health pool and should shrug off damage")
	}
	if agent.Finished() {
		t.Fatal("regular customer despawned from damage")
	}
}

func TestForceLeaveAbortsVisit(t *testing.T) {
	agent, view := testAgent(t, ArchetypeLitterer, true, false, 17)

	for i := 0; i < 600; i++ {
		agent.Update(testDT, view)
	}
	agent.recomputedBefore = true
	agent.ForceLeave()
	if agent.State() != StateLeaving {
		t.Fatalf("state after ForceLeave = %v, want leaving", agent.State())
	}
	if agent.recomputedBefore {
		t.Fatal("stale recompute gate survived ForceLeave")
	}
	for i := 0; i < 20000 && !agent.Finished(); i++ {
		agent.Update(testDT, view)
	}
	if !agent.Finished() {
		t.Fatalf("forced-out agent still in state %v", agent.State())
	}
}
