package world

import (
	"math"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

const (
	// TickRate converts per-tick speeds into per-second movement; dt is
	// multiplied back by it so motion stays identical across update rates.
	TickRate = 60.0

	// DefaultPhaseAmount is how far corner-cutting movement may sink into
	// obstacle geometry before counting as a collision.
	DefaultPhaseAmount = grid.TileSize * 0.3

	// DefaultRadiusFloorFraction keeps the shrunken collision body from
	// collapsing entirely when the phase amount exceeds the radius.
	DefaultRadiusFloorFraction = 0.4

	// snapEpsilon is the distance below which normalization is skipped and
	// the mover snaps straight onto the target.
	snapEpsilon = 1e-3
)

// MoveParams bundles the per-call inputs to Advance.
type MoveParams struct {
	Speed         float64
	Radius        float64
	Proximity     float64
	CornerCutting bool

	// PhaseAmount and RadiusFloorFraction override the corner-cutting
	// tolerances when positive; zero values fall back to the defaults.
	PhaseAmount         float64
	RadiusFloorFraction float64
}

func (p MoveParams) phaseAmount() float64 {
	if p.PhaseAmount > 0 {
		return p.PhaseAmount
	}
	return DefaultPhaseAmount
}

func (p MoveParams) radiusFloor() float64 {
	fraction := p.RadiusFloorFraction
	if fraction <= 0 {
		fraction = DefaultRadiusFloorFraction
	}
	return p.Radius * fraction
}

func collides(pos geom.Vec2, radius float64, obstacles []geom.Rect) bool {
	box := geom.RectAround(pos, radius)
	for _, obs := range obstacles {
		if box.Overlaps(obs) {
			return true
		}
	}
	return false
}

// Advance moves pos one time step toward target, resolving collisions against
// the supplied obstacle rects, and reports whether the target is within the
// proximity threshold afterwards. Already-close positions are reported
// reached without moving.
//
// Two policies: strict axis-separated movement (X attempted and reverted
// independently of Y, which yields wall sliding), and corner-cutting, which
// shrinks the collision body to tolerate grazing corners and probes
// diagonal, dominant-axis, other-axis, then perpendicular half-step slides
// before giving up for the tick.
func Advance(pos, target geom.Vec2, dt float64, params MoveParams, obstacles []geom.Rect) (geom.Vec2, bool) {
	delta := target.Sub(pos)
	distance := delta.Length()
	if distance < params.Proximity {
		return pos, true
	}
	if distance < snapEpsilon {
		return target, true
	}

	direction := delta.Scale(1 / distance)
	step := params.Speed * dt * TickRate

	if params.CornerCutting {
		pos = advanceCornerCutting(pos, direction, step, params, obstacles)
	} else {
		pos = advanceAxisSeparated(pos, direction, step, params.Radius, obstacles)
	}

	return pos, target.Sub(pos).Length() < params.Proximity
}

// advanceAxisSeparated attempts each axis alone, reverting any axis move that
// collides at the full radius.
func advanceAxisSeparated(pos, direction geom.Vec2, step, radius float64, obstacles []geom.Rect) geom.Vec2 {
	next := geom.Vec2{X: pos.X + direction.X*step, Y: pos.Y}
	if collides(next, radius, obstacles) {
		next.X = pos.X
	}
	next.Y = pos.Y + direction.Y*step
	if collides(next, radius, obstacles) {
		next.Y = pos.Y
	}
	return next
}

// advanceCornerCutting probes full diagonal motion first, then the larger
// axis component, then the other axis, then half-step perpendicular slides
// in both directions. A tick where every probe collides leaves the position
// unchanged.
func advanceCornerCutting(pos, direction geom.Vec2, step float64, params MoveParams, obstacles []geom.Rect) geom.Vec2 {
	radius := math.Max(params.Radius-params.phaseAmount(), params.radiusFloor())
	moveX := direction.X * step
	moveY := direction.Y * step

	diagonal := geom.Vec2{X: pos.X + moveX, Y: pos.Y + moveY}
	if !collides(diagonal, radius, obstacles) {
		return diagonal
	}

	first := geom.Vec2{X: pos.X + moveX, Y: pos.Y}
	second := geom.Vec2{X: pos.X, Y: pos.Y + moveY}
	if math.Abs(moveX) <= math.Abs(moveY) {
		first, second = second, first
	}
	if !collides(first, radius, obstacles) {
		return first
	}
	if !collides(second, radius, obstacles) {
		return second
	}

	perpX := -direction.Y * step * 0.5
	perpY := direction.X * step * 0.5
	slide := geom.Vec2{X: pos.X + perpX, Y: pos.Y + perpY}
	if !collides(slide, radius, obstacles) {
		return slide
	}
	slide = geom.Vec2{X: pos.X - perpX, Y: pos.Y - perpY}
	if !collides(slide, radius, obstacles) {
		return slide
	}

	return pos
}

const (
	knockbackDuration = 0.3
	knockbackDecay    = 0.9
)

// Knockback is a decaying impulse applied to struck agents. The impulse is
// collision-tested each tick and cancels outright on impact.
type Knockback struct {
	Velocity geom.Vec2
	Timer    float64
}

// Apply arms the knockback with an initial velocity along direction.
func (k *Knockback) Apply(direction geom.Vec2, force float64) {
	if direction.LengthSq() == 0 {
		return
	}
	k.Velocity = direction.Normalized().Scale(force)
	k.Timer = knockbackDuration
}

// Active reports whether the impulse still has time remaining.
func (k *Knockback) Active() bool { return k.Timer > 0 }

// Step advances pos under the impulse for one tick, decaying the velocity
// geometrically and cancelling on obstacle impact. Returns the new position.
func (k *Knockback) Step(pos geom.Vec2, dt, radius float64, obstacles []geom.Rect) geom.Vec2 {
	if k.Timer <= 0 {
		return pos
	}
	distance := k.Velocity.Length() * dt * TickRate
	if distance > 0 {
		next := pos.Add(k.Velocity.Normalized().Scale(distance))
		if collides(next, radius, obstacles) {
			k.Velocity = geom.Vec2{}
			k.Timer = 0
			return pos
		}
		pos = next
	}
	k.Timer -= dt
	if k.Timer <= 0 {
		k.Velocity = geom.Vec2{}
		k.Timer = 0
	} else {
		k.Velocity = k.Velocity.Scale(knockbackDecay)
	}
	return pos
}
