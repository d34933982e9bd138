package ai

import (
	"math"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

// Update advances the agent one tick and reports at most one side effect.
// Knockback suppresses all behavior until the impulse runs out.
func (a *Agent) Update(dt float64, view WorldView) Effect {
	if a.state == StateFinished {
		return Effect{}
	}

	obstacles := a.obstaclesAround(view)

	if a.knockback.Active() {
		a.Pos = a.knockback.Step(a.Pos, dt, a.Profile.Radius, obstacles)
		return Effect{}
	}

	switch a.state {
	case StateEntering:
		a.updateEntering(dt, obstacles)
	case StateToShelf:
		a.updateToShelf(dt, obstacles)
	case StateToNode:
		a.updateToNode(dt, obstacles)
	case StateBrowsing:
		return a.updateBrowsing(dt, obstacles)
	case StateLookingAtNode:
		a.updateLookingAtNode(dt)
	case StateBuying:
		return a.updateBuying(dt)
	case StateSearching:
		a.updateSearching(view)
	case StateStealing:
		return a.updateStealing(dt, obstacles, view)
	case StateLeaving:
		a.updateLeaving(dt, obstacles)
	}
	return Effect{}
}

// updateEntering walks straight in from the door; no path is needed because
// the doorway is clear by construction.
func (a *Agent) updateEntering(dt float64, obstacles []geom.Rect) {
	inside := geom.Vec2{X: a.doorPos.X - grid.TileSize, Y: a.doorPos.Y}
	if a.moveTowards(inside, dt, obstacles, grid.TileSize*doorProximityTiles, true) {
		if a.hasNode {
			a.state = StateToNode
			a.computePath(a.nodePos)
			return
		}
		a.state = StateToShelf
	}
}

func (a *Agent) updateToShelf(dt float64, obstacles []geom.Rect) {
	if !a.hasShelfTgt {
		a.shelfTarget = a.pickShelfApproach()
		a.hasShelfTgt = true
		a.computePath(a.shelfTarget)
	}
	if a.followPath(dt, obstacles, a.shelfTarget, grid.TileSize*browseProximityTiles, a.Profile.CornerCutting) {
		a.state = StateBrowsing
		a.clearPath()
		a.browseElapsed = 0
		a.browseDuration = uniform(a.rng, a.Profile.BrowseMin, a.Profile.BrowseMax)
		a.hasBrowseTgt = false
	}
}

func (a *Agent) pickShelfApproach() geom.Vec2 {
	if len(a.browsingPositions) > 0 {
		return a.browsingPositions[a.rng.Intn(len(a.browsingPositions))]
	}
	return a.shelfPos
}

// updateToNode approaches a buy node with the hesitant window-shopping
// behavior: inside the approach band the agent alternates short pauses with
// slowed movement, outside it walks normally.
func (a *Agent) updateToNode(dt float64, obstacles []geom.Rect) {
	proximity := grid.TileSize * nodeProximityTiles
	if a.Pos.DistanceTo(a.nodePos) < a.Profile.ApproachBand {
		a.approaching = true
		a.lookTimer += dt
		if a.lookTimer >= a.lookDelay && !a.paused {
			a.paused = true
			a.pauseTimer = uniform(a.rng, a.Profile.PauseMin, a.Profile.PauseMax)
			a.lookTimer = 0
			a.lookDelay = uniform(a.rng, a.Profile.LookDelayMin, a.Profile.LookDelayMax)
		}
		if a.paused {
			a.pauseTimer -= dt
			if a.pauseTimer <= 0 {
				a.paused = false
			}
			return
		}
		if a.followPath(dt*a.Profile.ApproachSpeedFraction, obstacles, a.nodePos, proximity, a.Profile.CornerCutting) {
			a.arriveAtNode()
		}
		return
	}
	a.approaching = false
	a.paused = false
	if a.followPath(dt, obstacles, a.nodePos, proximity, a.Profile.CornerCutting) {
		a.arriveAtNode()
	}
}

func (a *Agent) arriveAtNode() {
	a.state = StateLookingAtNode
	a.clearPath()
	a.lookTimer = 0
	a.lookDelay = uniform(a.rng, a.Profile.NodeLookMin, a.Profile.NodeLookMax)
}

func (a *Agent) updateLookingAtNode(dt float64) {
	a.lookTimer += dt
	if a.lookTimer >= a.lookDelay {
		a.state = StateBuying
		a.buyElapsed = 0
		a.buyDuration = uniform(a.rng, a.Profile.BuyMin, a.Profile.BuyMax)
	}
}

// updateBuying runs out the purchase timer. Regulars pay on completion;
// everyone else just walks off. Thieves only hunt the floor after
// shelf-browsing, never after a node visit.
func (a *Agent) updateBuying(dt float64) Effect {
	a.buyElapsed += dt
	var effect Effect
	if a.Archetype == ArchetypeLitterer {
		a.litterTimer += dt
		effect = a.maybeDropLitter()
	}
	if a.buyElapsed < a.buyDuration {
		return effect
	}
	if a.Archetype == ArchetypeRegular {
		a.startLeaving()
		return Effect{Kind: EffectDropCurrency, Pos: a.Pos}
	}
	a.startLeaving()
	return effect
}

func (a *Agent) updateBrowsing(dt float64, obstacles []geom.Rect) Effect {
	a.browseElapsed += dt

	switch a.Archetype {
	case ArchetypeRegular:
		if a.browseElapsed >= a.browseDuration {
			a.startLeaving()
			return Effect{Kind: EffectDropCurrency, Pos: a.Pos}
		}
	case ArchetypeThief:
		if a.browseElapsed >= a.browseDuration {
			a.state = StateSearching
			a.clearPath()
			return Effect{}
		}
	case ArchetypeLitterer:
		if a.litterDropped >= a.litterTarget {
			a.startLeaving()
			return Effect{}
		}
		a.litterTimer += dt
		if effect := a.maybeDropLitter(); effect.Kind != EffectNone {
			a.browseStep(dt, obstacles)
			return effect
		}
		if a.browseElapsed >= a.browseDuration {
			a.startLeaving()
			return Effect{}
		}
	}

	a.browseStep(dt, obstacles)
	return Effect{}
}

// browseStep wanders between browsing positions on the shelf's near side.
func (a *Agent) browseStep(dt float64, obstacles []geom.Rect) {
	if !a.hasBrowseTgt {
		a.pickBrowseTarget()
		return
	}
	if a.followPath(dt, obstacles, a.browseTarget, grid.TileSize*browseProximityTiles, a.Profile.CornerCutting) {
		a.hasBrowseTgt = false
	}
}

// pickBrowseTarget prefers positions on the same side of the shelf group as
// the agent, judged by the dot product of the shelf-to-agent and
// shelf-to-candidate directions. When nothing qualifies the whole pool is
// used, and with no pool at all a nearby offset point is synthesized.
func (a *Agent) pickBrowseTarget() {
	if len(a.browsingPositions) == 0 {
		a.browseTarget = a.synthesizeBrowsePoint()
		a.hasBrowseTgt = true
		a.computePath(a.browseTarget)
		return
	}

	toAgent := a.Pos.Sub(a.shelfPos).Normalized()
	sameSide := make([]geom.Vec2, 0, len(a.browsingPositions))
	for _, candidate := range a.browsingPositions {
		toCandidate := candidate.Sub(a.shelfPos).Normalized()
		if toAgent.Dot(toCandidate) > sameSideDotThreshold {
			sameSide = append(sameSide, candidate)
		}
	}
	pool := sameSide
	if len(pool) == 0 {
		pool = a.browsingPositions
	}
	a.browseTarget = pool[a.rng.Intn(len(pool))]
	a.hasBrowseTgt = true
	a.computePath(a.browseTarget)
}

func (a *Agent) synthesizeBrowsePoint() geom.Vec2 {
	angle := uniform(a.rng, -math.Pi/3, math.Pi/3)
	distance := uniform(a.rng, fallbackBrowseMinDist, fallbackBrowseMaxDist) * grid.TileSize
	direction := a.Pos.Sub(a.shelfPos).Normalized()
	if direction.LengthSq() == 0 {
		direction = geom.Vec2{X: 1}
	}
	sin, cos := math.Sincos(angle)
	rotated := geom.Vec2{
		X: direction.X*cos - direction.Y*sin,
		Y: direction.X*sin + direction.Y*cos,
	}
	return a.shelfPos.Add(rotated.Scale(distance))
}

// maybeDropLitter drops one piece when the target count has not been hit,
// the cadence timer has elapsed, the agent stands on a floor tile, and the
// last piece is far enough away.
func (a *Agent) maybeDropLitter() Effect {
	if a.litterDropped >= a.litterTarget {
		return Effect{}
	}
	if a.litterTimer < a.litterDelay {
		return Effect{}
	}
	col, row := a.grid.Locate(a.Pos)
	if a.grid.TileAt(col, row) != grid.KindFloor {
		return Effect{}
	}
	if a.hasLastLitter && a.Pos.DistanceTo(a.lastLitterPos) < grid.TileSize*litterMinGapTiles {
		return Effect{}
	}
	a.litterTimer = 0
	a.litterDelay = uniform(a.rng, a.Profile.LitterDelayMin, a.Profile.LitterDelayMax)
	a.litterDropped++
	a.lastLitterPos = a.Pos
	a.hasLastLitter = true
	return Effect{Kind: EffectDropLitter, Pos: a.Pos}
}

// updateSearching scans the floor for currency. Empty floor means there is
// nothing worth stealing and the thief leaves empty-handed.
func (a *Agent) updateSearching(view WorldView) {
	currency := view.CurrencyItems()
	if len(currency) == 0 {
		a.startLeaving()
		return
	}
	target := currency[a.rng.Intn(len(currency))]
	a.stealTargetID = target.ID
	a.stealTargetPos = target.Pos
	a.state = StateStealing
	a.computePath(a.stealTargetPos)
}

func (a *Agent) updateStealing(dt float64, obstacles []geom.Rect, view WorldView) Effect {
	found := false
	for _, item := range view.CurrencyItems() {
		if item.ID == a.stealTargetID {
			a.stealTargetPos = item.Pos
			found = true
			break
		}
	}
	if !found {
		a.startLeaving()
		return Effect{}
	}
	if a.followPath(dt, obstacles, a.stealTargetPos, grid.TileSize*browseProximityTiles, a.Profile.CornerCutting) {
		id := a.stealTargetID
		a.startLeaving()
		return Effect{Kind: EffectStoleItem, Pos: a.stealTargetPos, ItemID: id}
	}
	return Effect{}
}

func (a *Agent) startLeaving() {
	a.state = StateLeaving
	a.clearPath()
	a.recomputedBefore = false
}

// updateLeaving routes back to the door, then walks straight out to the exit
// point two tiles past it.
func (a *Agent) updateLeaving(dt float64, obstacles []geom.Rect) {
	if a.Pos.DistanceTo(a.doorPos) < grid.TileSize*exitThresholdTiles {
		if a.moveTowards(a.exitPos, dt, obstacles, grid.TileSize*nodeProximityTiles, true) {
			a.state = StateFinished
		}
		return
	}
	if a.pathIndex >= len(a.path) {
		a.computePath(a.doorPos)
	}
	a.followPath(dt, obstacles, a.doorPos, grid.TileSize*nodeProximityTiles, a.Profile.CornerCutting)
}
