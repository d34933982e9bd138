package ai

import (
	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

// Archetype selects which customer variant an agent behaves as.
type Archetype uint8

const (
	ArchetypeRegular Archetype = iota
	ArchetypeThief
	ArchetypeLitterer
)

// String names the archetype for snapshots and logging.
func (a Archetype) String() string {
	switch a {
	case ArchetypeThief:
		return "thief"
	case ArchetypeLitterer:
		return "litterer"
	default:
		return "regular"
	}
}

// State identifies the agent's current activity. Every archetype shares the
// same machine; Searching and Stealing are only reachable by thieves.
type State uint8

const (
	StateEntering State = iota
	StateToShelf
	StateToNode
	StateBrowsing
	StateLookingAtNode
	StateBuying
	StateSearching
	StateStealing
	StateLeaving
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateEntering:
		return "entering"
	case StateToShelf:
		return "to_shelf"
	case StateToNode:
		return "to_node"
	case StateBrowsing:
		return "browsing"
	case StateLookingAtNode:
		return "looking_at_node"
	case StateBuying:
		return "buying"
	case StateSearching:
		return "searching"
	case StateStealing:
		return "stealing"
	case StateLeaving:
		return "leaving"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Profile is the per-archetype strategy record: speeds, dwell ranges, the
// node-approach micro-behavior tuning, and capability flags. All durations
// are seconds, all distances world units.
type Profile struct {
	Speed         float64
	Radius        float64
	CornerCutting bool

	BrowseMin float64
	BrowseMax float64

	ApproachBand          float64
	ApproachSpeedFraction float64
	PauseMin              float64
	PauseMax              float64
	LookDelayMin          float64
	LookDelayMax          float64
	NodeLookMin           float64
	NodeLookMax           float64
	BuyMin                float64
	BuyMax                float64

	LitterTargetMin int
	LitterTargetMax int
	LitterDelayMin  float64
	LitterDelayMax  float64

	// MaxHealth above zero makes the agent damageable (thief only).
	MaxHealth int
}

const (
	customerRadius = 42.0
	customerSpeed  = 4.5
)

// ProfileFor returns the tuned strategy record for an archetype. The thief is
// slow and cautious around nodes, the litterer quick and careless, the
// regular customer in between.
func ProfileFor(archetype Archetype) Profile {
	switch archetype {
	case ArchetypeThief:
		return Profile{
			Speed:                 customerSpeed,
			Radius:                customerRadius,
			CornerCutting:         true,
			BrowseMin:             2.0,
			BrowseMax:             5.0,
			ApproachBand:          grid.TileSize * 2.5,
			ApproachSpeedFraction: 0.6,
			PauseMin:              0.4,
			PauseMax:              1.0,
			LookDelayMin:          0.6,
			LookDelayMax:          2.5,
			NodeLookMin:           0.8,
			NodeLookMax:           2.0,
			BuyMin:                1.5,
			BuyMax:                3.5,
			MaxHealth:             3,
		}
	case ArchetypeLitterer:
		return Profile{
			Speed:                 customerSpeed,
			Radius:                customerRadius,
			CornerCutting:         true,
			BrowseMin:             10.0,
			BrowseMax:             20.0,
			ApproachBand:          grid.TileSize * 2.0,
			ApproachSpeedFraction: 0.85,
			PauseMin:              0.2,
			PauseMax:              0.5,
			LookDelayMin:          0.3,
			LookDelayMax:          1.5,
			NodeLookMin:           0.3,
			NodeLookMax:           1.0,
			BuyMin:                2.0,
			BuyMax:                4.0,
			LitterTargetMin:       5,
			LitterTargetMax:       10,
			LitterDelayMin:        0.8,
			LitterDelayMax:        2.0,
		}
	default:
		return Profile{
			Speed:                 customerSpeed,
			Radius:                customerRadius,
			BrowseMin:             3.0,
			BrowseMax:             8.0,
			ApproachBand:          grid.TileSize * 2.0,
			ApproachSpeedFraction: 0.8,
			PauseMin:              0.3,
			PauseMax:              0.7,
			LookDelayMin:          0.4,
			LookDelayMax:          1.5,
			NodeLookMin:           0.5,
			NodeLookMax:           1.5,
			BuyMin:                2.0,
			BuyMax:                4.0,
		}
	}
}

// Tuning carries the empirically-chosen navigation thresholds. The values
// were tuned by eye rather than derived, so they stay configurable.
type Tuning struct {
	// StuckRecomputeAfter is how long negligible displacement is tolerated
	// before forcing a path recomputation.
	StuckRecomputeAfter float64
	// StuckEpsilon is the displacement below which an agent counts as not
	// moving.
	StuckEpsilon float64
	// RecomputeDistance gates recomputation of an exhausted path on having
	// moved since the previous attempt.
	RecomputeDistance float64
	// WaypointThreshold is the minimum arrival radius for intermediate
	// waypoints; generous so corners do not trap agents.
	WaypointThreshold float64
	// PhaseAmount and RadiusFloorFraction feed the resolver's
	// corner-cutting tolerances; zero values use the resolver defaults.
	PhaseAmount         float64
	RadiusFloorFraction float64
}

// DefaultTuning mirrors the shipped configuration.
func DefaultTuning() Tuning {
	return Tuning{
		StuckRecomputeAfter: 0.2,
		StuckEpsilon:        grid.TileSize * 0.1,
		RecomputeDistance:   grid.TileSize * 2,
		WaypointThreshold:   grid.TileSize * 0.5,
	}
}

// CurrencyRef identifies a currency item lying in the world; thieves read
// these to pick steal targets.
type CurrencyRef struct {
	ID  string
	Pos geom.Vec2
}

// WorldView is the read-only slice of the world an agent consults each tick.
type WorldView interface {
	// ObstaclesNear returns solid rects around the query box, door rects
	// split out so NPC collision can ignore them.
	ObstaclesNear(box geom.Rect) (obstacles, doors []geom.Rect)
	// CurrencyItems lists the currency currently on the floor.
	CurrencyItems() []CurrencyRef
}

// EffectKind tags the side effect an agent reports from one update.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectDropCurrency
	EffectDropLitter
	EffectStoleItem
)

// Effect is the agent's intent record for one tick. The driver owns turning
// it into world mutations; the agent never touches item collections itself.
type Effect struct {
	Kind   EffectKind
	Pos    geom.Vec2
	ItemID string
}
