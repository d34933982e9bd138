package nav

import (
	"container/heap"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

const (
	// MaxPathLength caps reconstructed paths; anything longer is treated as
	// a pathfinding failure rather than a usable route.
	MaxPathLength = 1000

	// nearestWalkableRadius bounds the expanding ring searched when a start
	// or goal cell is not walkable.
	nearestWalkableRadius = 4
)

type navPoint struct {
	col int
	row int
}

var neighborOffsets = [...]navPoint{
	{col: 0, row: 1},
	{col: 0, row: -1},
	{col: 1, row: 0},
	{col: -1, row: 0},
}

func heuristic(a, b navPoint) float64 {
	dc := a.col - b.col
	if dc < 0 {
		dc = -dc
	}
	dr := a.row - b.row
	if dr < 0 {
		dr = -dr
	}
	return float64(dc + dr)
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// nearestWalkable scans expanding square rings (radius 1..4) around the cell
// and returns the first NPC-walkable perimeter cell found.
func nearestWalkable(m *grid.Map, col, row int) (int, int, bool) {
	for radius := 1; radius <= nearestWalkableRadius; radius++ {
		for dc := -radius; dc <= radius; dc++ {
			for dr := -radius; dr <= radius; dr++ {
				if dc != -radius && dc != radius && dr != -radius && dr != radius {
					continue
				}
				if m.WalkableForNPC(col+dc, row+dr) {
					return col + dc, row + dr, true
				}
			}
		}
	}
	return 0, 0, false
}

// FindPath runs A* over 4-directional neighbors with unit edge cost and a
// Manhattan heuristic, returning tile-center waypoints from start to goal.
// Unwalkable endpoints are substituted with the nearest walkable cell within
// four tiles; when no substitute exists, or the route exceeds MaxPathLength
// nodes, it reports failure.
func FindPath(m *grid.Map, start, goal geom.Vec2) ([]geom.Vec2, bool) {
	if m == nil {
		return nil, false
	}
	startCol, startRow := m.Locate(start)
	goalCol, goalRow := m.Locate(goal)

	if !m.WalkableForNPC(startCol, startRow) {
		var ok bool
		startCol, startRow, ok = nearestWalkable(m, startCol, startRow)
		if !ok {
			return nil, false
		}
	}
	if !m.WalkableForNPC(goalCol, goalRow) {
		var ok bool
		goalCol, goalRow, ok = nearestWalkable(m, goalCol, goalRow)
		if !ok {
			return nil, false
		}
	}

	if startCol == goalCol && startRow == goalRow {
		return []geom.Vec2{grid.CellCenter(goalCol, goalRow)}, true
	}

	startPoint := navPoint{col: startCol, row: startRow}
	goalPoint := navPoint{col: goalCol, row: goalRow}

	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: startPoint, g: 0, f: heuristic(startPoint, goalPoint)})
	closed := make(map[navPoint]struct{})
	bestF := map[navPoint]float64{startPoint: heuristic(startPoint, goalPoint)}

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.point]; seen {
			continue
		}
		closed[current.point] = struct{}{}

		if current.point == goalPoint {
			return reconstructPath(current)
		}

		for _, delta := range neighborOffsets {
			next := navPoint{col: current.point.col + delta.col, row: current.point.row + delta.row}
			if !m.WalkableForNPC(next.col, next.row) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			g := current.g + 1
			f := g + heuristic(next, goalPoint)
			if prev, ok := bestF[next]; ok && prev <= f {
				continue
			}
			bestF[next] = f
			heap.Push(open, &pathNode{point: next, g: g, f: f, parent: current})
		}
	}

	return nil, false
}

func reconstructPath(end *pathNode) ([]geom.Vec2, bool) {
	path := make([]geom.Vec2, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, grid.CellCenter(node.point.col, node.point.row))
		if len(path) > MaxPathLength {
			return nil, false
		}
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
