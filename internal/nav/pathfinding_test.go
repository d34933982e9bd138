package nav

import (
	"testing"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/grid"
)

var testLayout = []string{
	"##########",
	"#........#",
	"#.####...#",
	"#.#..#.#.#",
	"#.#..#.#.#",
	"#....#.#.#",
	"#.####.#.#",
	"#........#",
	"##########",
}

func testMap(t *testing.T) *grid.Map {
	t.Helper()
	return grid.Parse(testLayout)
}

// bfsDistance is the independent shortest-path oracle: unit-cost BFS over the
// same walkability predicate the planner uses.
func bfsDistance(m *grid.Map, startCol, startRow, goalCol, goalRow int) (int, bool) {
	type cell struct{ col, row int }
	start := cell{startCol, startRow}
	goal := cell{goalCol, goalRow}
	dist := map[cell]int{start: 0}
	queue := []cell{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			return dist[current], true
		}
		for _, d := range [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
			next := cell{current.col + d[0], current.row + d[1]}
			if !m.WalkableForNPC(next.col, next.row) {
				continue
			}
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return 0, false
}

func TestFindPathMatchesBFSLength(t *testing.T) {
	m := testMap(t)
	cases := []struct {
		name               string
		startCol, startRow int
		goalCol, goalRow   int
	}{
		{"across the ring", 1, 1, 8, 7},
		{"into the pocket", 1, 1, 3, 4},
		{"along the corridor", 8, 1, 8, 6},
		{"short hop", 1, 1, 2, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := grid.CellCenter(tc.startCol, tc.startRow)
			goal := grid.CellCenter(tc.goalCol, tc.goalRow)
			path, ok := FindPath(m, start, goal)
			if !ok {
				t.Fatalf("FindPath failed for %v -> %v", start, goal)
			}
			want, reachable := bfsDistance(m, tc.startCol, tc.startRow, tc.goalCol, tc.goalRow)
			if !reachable {
				t.Fatalf("bfs oracle says unreachable")
			}
			if len(path) != want+1 {
				t.Fatalf("path has %d waypoints, want %d", len(path), want+1)
			}
		})
	}
}

func TestFindPathWaypointsAreAdjacentAndWalkable(t *testing.T) {
	m := testMap(t)
	path, ok := FindPath(m, grid.CellCenter(1, 1), grid.CellCenter(8, 7))
	if !ok {
		t.Fatal("FindPath failed")
	}
	for i, waypoint := range path {
		col, row := m.Locate(waypoint)
		if !m.WalkableForNPC(col, row) {
			t.Fatalf("waypoint %d at (%d,%d) is not walkable", i, col, row)
		}
		if center := grid.CellCenter(col, row); center != waypoint {
			t.Fatalf("waypoint %d is %v, not a tile center", i, waypoint)
		}
		if i == 0 {
			continue
		}
		prevCol, prevRow := m.Locate(path[i-1])
		manhattan := abs(col-prevCol) + abs(row-prevRow)
		if manhattan != 1 {
			t.Fatalf("waypoints %d and %d are not adjacent", i-1, i)
		}
	}
}

func TestFindPathSameCell(t *testing.T) {
	m := testMap(t)
	start := grid.CellCenter(1, 1)
	inSameCell := geom.Vec2{X: start.X + 10, Y: start.Y - 10}
	path, ok := FindPath(m, start, inSameCell)
	if !ok {
		t.Fatal("FindPath failed for same-cell request")
	}
	if len(path) != 1 {
		t.Fatalf("same-cell path has %d waypoints, want 1", len(path))
	}
	if path[0] != start {
		t.Fatalf("same-cell path ends at %v, want %v", path[0], start)
	}
}

func TestFindPathSubstitutesUnwalkableGoal(t *testing.T) {
	m := testMap(t)
	// (2,2) is a wall; the planner should route to a nearby walkable cell.
	path, ok := FindPath(m, grid.CellCenter(1, 1), grid.CellCenter(2, 2))
	if !ok {
		t.Fatal("FindPath failed for wall goal")
	}
	endCol, endRow := m.Locate(path[len(path)-1])
	if !m.WalkableForNPC(endCol, endRow) {
		t.Fatalf("substituted goal (%d,%d) is not walkable", endCol, endRow)
	}
	if abs(endCol-2) > 4 || abs(endRow-2) > 4 {
		t.Fatalf("substituted goal (%d,%d) is outside the search ring", endCol, endRow)
	}
}

func TestFindPathUnreachableGoal(t *testing.T) {
	sealed := []string{
		"#########",
		"#...#...#",
		"#...#...#",
		"#########",
	}
	m := grid.Parse(sealed)
	if _, ok := FindPath(m, grid.CellCenter(1, 1), grid.CellCenter(6, 1)); ok {
		t.Fatal("expected failure across a sealed wall")
	}
}

func TestFindPathDeepInsideSolidBlock(t *testing.T) {
	block := []string{
		"#############",
		"#...........#",
		"#.SSSSSSSSSS#",
		"#.SSSSSSSSSS#",
		"#.SSSSSSSSSS#",
		"#.SSSSSSSSSS#",
		"#.SSSSSSSSSS#",
		"#.SSSSSSSSSS#",
		"#############",
	}
	m := grid.Parse(block)
	// (8,6) is more than four tiles from any walkable cell.
	if _, ok := FindPath(m, grid.CellCenter(1, 1), grid.CellCenter(8, 6)); ok {
		t.Fatal("expected failure for a goal beyond the substitution ring")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
