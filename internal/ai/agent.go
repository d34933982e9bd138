package ai

import (
	"math/rand"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
	"dodge-and-deal/server/internal/nav"
	"dodge-and-deal/server/internal/world"
)

// Config is everything needed to place a new customer in the store.
type Config struct {
	ID        string
	Archetype Archetype
	Grid      *grid.Map
	DoorPos   geom.Vec2
	// ShelfGroups supplies the browsing targets; NodePositions the buy nodes.
	ShelfGroups   []grid.ShelfGroup
	NodePositions []geom.Vec2
	RNG           *rand.Rand
	// Profile overrides the archetype default when non-nil.
	Profile *Profile
	Tuning  Tuning
}

// Agent is one customer: position, health, a finite-state machine, and the
// navigation scratch state the machine drives.
type Agent struct {
	ID        string
	Archetype Archetype
	Profile   Profile
	Pos       geom.Vec2
	Health    int

	state  State
	grid   *grid.Map
	rng    *rand.Rand
	tuning Tuning

	doorPos geom.Vec2
	exitPos geom.Vec2

	shelfPos          geom.Vec2
	browsingPositions []geom.Vec2
	nodePos           geom.Vec2
	hasNode           bool

	path             []geom.Vec2
	pathIndex        int
	pathGen          uint64
	lastPos          geom.Vec2
	stuckTimer       float64
	recomputePos     geom.Vec2
	recomputedBefore bool

	browseElapsed  float64
	browseDuration float64
	browseTarget   geom.Vec2
	hasBrowseTgt   bool
	shelfTarget    geom.Vec2
	hasShelfTgt    bool

	lookTimer   float64
	lookDelay   float64
	pauseTimer  float64
	paused      bool
	approaching bool

	buyElapsed  float64
	buyDuration float64

	litterTarget  int
	litterDropped int
	litterTimer   float64
	litterDelay   float64
	lastLitterPos geom.Vec2
	hasLastLitter bool

	stealTargetID  string
	stealTargetPos geom.Vec2

	knockback world.Knockback
}

const (
	doorProximityTiles    = 0.3
	nodeProximityTiles    = 0.5
	browseProximityTiles  = 0.4
	exitThresholdTiles    = 2.5
	litterMinGapTiles     = 0.8
	sameSideDotThreshold  = 0.3
	initialLookDelayMin   = 0.5
	initialLookDelayMax   = 2.0
	fallbackBrowseMinDist = 1.5
	fallbackBrowseMaxDist = 2.5
)

// NewAgent spawns a customer at the door and picks its destination: a random
// choice among all shelf groups and buy nodes, falling back to the door itself
// when the store has neither.
func NewAgent(cfg Config) *Agent {
	profile := ProfileFor(cfg.Archetype)
	if cfg.Profile != nil {
		profile = *cfg.Profile
	}
	tuning := cfg.Tuning
	if tuning.StuckRecomputeAfter == 0 {
		tuning = DefaultTuning()
	}
	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	a := &Agent{
		ID:        cfg.ID,
		Archetype: cfg.Archetype,
		Profile:   profile,
		Pos:       cfg.DoorPos,
		Health:    profile.MaxHealth,
		state:     StateEntering,
		grid:      cfg.Grid,
		rng:       rng,
		tuning:    tuning,
		doorPos:   cfg.DoorPos,
		exitPos:   geom.Vec2{X: cfg.DoorPos.X + 2*grid.TileSize, Y: cfg.DoorPos.Y},
		lastPos:   cfg.DoorPos,
		lookDelay: uniform(rng, initialLookDelayMin, initialLookDelayMax),
	}

	a.chooseDestination(cfg.ShelfGroups, cfg.NodePositions)

	if cfg.Archetype == ArchetypeLitterer {
		span := profile.LitterTargetMax - profile.LitterTargetMin
		a.litterTarget = profile.LitterTargetMin
		if span > 0 {
			a.litterTarget += rng.Intn(span + 1)
		}
		a.litterDelay = uniform(rng, profile.LitterDelayMin, profile.LitterDelayMax)
	}
	return a
}

func (a *Agent) chooseDestination(shelves []grid.ShelfGroup, nodes []geom.Vec2) {
	total := len(shelves) + len(nodes)
	if total == 0 {
		a.shelfPos = a.doorPos
		return
	}
	pick := a.rng.Intn(total)
	if pick < len(shelves) {
		group := shelves[pick]
		a.shelfPos = group.Center
		a.browsingPositions = group.BrowsingPositions
		return
	}
	a.nodePos = nodes[pick-len(shelves)]
	a.hasNode = true
}

// State returns the machine's current state.
func (a *Agent) State() State { return a.state }

// Finished reports whether the agent has left the store for good.
func (a *Agent) Finished() bool { return a.state == StateFinished }

// Path returns the current waypoint route, nil when none is held.
func (a *Agent) Path() []geom.Vec2 { return a.path }

// PathGeneration increments every time a path is recomputed; tests and
// debug overlays use it to observe recomputation.
func (a *Agent) PathGeneration() uint64 { return a.pathGen }

// ForceLeave aborts whatever the agent is doing and sends it to the exit.
// Finished agents are left alone.
func (a *Agent) ForceLeave() {
	if a.state == StateFinished || a.state == StateLeaving {
		return
	}
	a.startLeaving()
}

// TakeDamage reduces health and reports whether the agent survives. Agents
// without health pools ignore damage entirely.
func (a *Agent) TakeDamage(amount int) bool {
	if a.Profile.MaxHealth == 0 {
		return true
	}
	a.Health -= amount
	if a.Health <= 0 {
		a.Health = 0
		a.state = StateFinished
		return false
	}
	return true
}

// ApplyKnockback arms a decaying impulse away from the strike.
func (a *Agent) ApplyKnockback(direction geom.Vec2, force float64) {
	a.knockback.Apply(direction, force)
}

// KnockedBack reports whether a knockback impulse is still in flight.
func (a *Agent) KnockedBack() bool { return a.knockback.Active() }

func uniform(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func (a *Agent) clearPath() {
	a.path = nil
	a.pathIndex = 0
}

// computePath discards any held route before asking the planner, so a failed
// request never leaves a stale path behind.
func (a *Agent) computePath(target geom.Vec2) {
	a.clearPath()
	if path, ok := nav.FindPath(a.grid, a.Pos, target); ok {
		a.path = path
	}
	a.pathGen++
	a.stuckTimer = 0
	a.lastPos = a.Pos
}

func (a *Agent) obstaclesAround(view WorldView) []geom.Rect {
	obstacles, _ := view.ObstaclesNear(geom.RectAround(a.Pos, a.Profile.Radius))
	return obstacles
}

func (a *Agent) moveTowards(target geom.Vec2, dt float64, obstacles []geom.Rect, proximity float64, cornerCutting bool) bool {
	params := world.MoveParams{
		Speed:               a.Profile.Speed,
		Radius:              a.Profile.Radius,
		Proximity:           proximity,
		CornerCutting:       cornerCutting,
		PhaseAmount:         a.tuning.PhaseAmount,
		RadiusFloorFraction: a.tuning.RadiusFloorFraction,
	}
	next, reached := world.Advance(a.Pos, target, dt, params, obstacles)
	a.Pos = next
	return reached
}

// followPath walks the held waypoint route toward target, recomputing when
// stuck or when the route runs out away from the goal. Returns true once the
// final target is within proximity.
func (a *Agent) followPath(dt float64, obstacles []geom.Rect, target geom.Vec2, proximity float64, cornerCutting bool) bool {
	if a.Pos.DistanceTo(target) < proximity {
		a.stuckTimer = 0
		return true
	}

	if a.Pos.DistanceTo(a.lastPos) < a.tuning.StuckEpsilon {
		a.stuckTimer += dt
	} else {
		a.stuckTimer = 0
		a.lastPos = a.Pos
	}
	if a.stuckTimer > a.tuning.StuckRecomputeAfter {
		a.computePath(target)
	}

	if a.pathIndex < len(a.path) {
		waypoint := a.path[a.pathIndex]
		threshold := proximity
		if a.tuning.WaypointThreshold > threshold {
			threshold = a.tuning.WaypointThreshold
		}
		if a.Pos.DistanceTo(waypoint) < threshold {
			a.pathIndex++
			if a.pathIndex >= len(a.path) {
				return a.Pos.DistanceTo(target) < proximity
			}
			waypoint = a.path[a.pathIndex]
		}
		a.moveTowards(waypoint, dt, obstacles, threshold, cornerCutting)
		return false
	}

	// Route absent or exhausted. Only retry the planner once the agent has
	// moved meaningfully since the previous attempt; meanwhile steer
	// straight at the target and let collision resolution do what it can.
	if !a.recomputedBefore || a.Pos.DistanceTo(a.recomputePos) > a.tuning.RecomputeDistance {
		a.computePath(target)
		a.recomputePos = a.Pos
		a.recomputedBefore = true
	}
	return a.moveTowards(target, dt, obstacles, proximity, cornerCutting)
}
