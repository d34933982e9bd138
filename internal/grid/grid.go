package grid

import (
	"dodge-and-deal/server/internal/geom"
)

// TileSize is the edge length of one tile in world units.
const TileSize = 120.0

// Kind classifies a tile. The set is closed; unknown map runes parse to
// KindOther, which behaves like floor.
type Kind uint8

const (
	KindFloor Kind = iota
	KindWall
	KindShelf
	KindCounter
	KindDoor
	KindOfficeDoor
	KindNode
	KindComputer
	KindActivation
	KindOther
)

// String names the kind for logging and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindFloor:
		return "floor"
	case KindWall:
		return "wall"
	case KindShelf:
		return "shelf"
	case KindCounter:
		return "counter"
	case KindDoor:
		return "door"
	case KindOfficeDoor:
		return "office-door"
	case KindNode:
		return "node"
	case KindComputer:
		return "computer"
	case KindActivation:
		return "activation"
	default:
		return "other"
	}
}

// SolidForPlayer reports whether the tile blocks the player.
func (k Kind) SolidForPlayer() bool {
	switch k {
	case KindWall, KindShelf, KindCounter, KindDoor:
		return true
	default:
		return false
	}
}

// SolidForNPC reports whether the tile blocks customers. Customers pass
// through regular doors but never through office doors.
func (k Kind) SolidForNPC() bool {
	switch k {
	case KindWall, KindShelf, KindCounter, KindOfficeDoor:
		return true
	default:
		return false
	}
}

func kindForRune(r rune) Kind {
	switch r {
	case '.':
		return KindFloor
	case '#':
		return KindWall
	case 'S':
		return KindShelf
	case 'C':
		return KindCounter
	case 'D':
		return KindDoor
	case 'O':
		return KindOfficeDoor
	case 'N':
		return KindNode
	case 'P':
		return KindComputer
	case '1', '2', '3':
		return KindActivation
	default:
		return KindOther
	}
}

// Map is the read-only tile grid every navigation layer queries.
type Map struct {
	cols, rows int
	tiles      []Kind
}

// StoreLayout is the default shop floor: outer walls, shelf aisles, a
// counter, buy nodes, the customer door on the east wall, and the office
// door on the north wall.
var StoreLayout = []string{
	"################O###",
	"#..................#",
	"#...N.......CCCCC..#",
	"#.SSSS........N....#",
	"#..................#",
	"#...N..............D",
	"#.SSSS....SSSS.....#",
	"#...........N......#",
	"#....N......N......#",
	"#.SSSS....SSSS.....#",
	"#..................#",
	"####################",
}

// Parse builds a map from a row-major string layout.
func Parse(layout []string) *Map {
	rows := len(layout)
	cols := 0
	if rows > 0 {
		cols = len(layout[0])
	}
	m := &Map{cols: cols, rows: rows, tiles: make([]Kind, cols*rows)}
	for row, line := range layout {
		for col, r := range line {
			if col >= cols {
				break
			}
			m.tiles[row*cols+col] = kindForRune(r)
		}
	}
	return m
}

// Cols returns the number of tile columns.
func (m *Map) Cols() int { return m.cols }

// Rows returns the number of tile rows.
func (m *Map) Rows() int { return m.rows }

// Width returns the map width in world units.
func (m *Map) Width() float64 { return float64(m.cols) * TileSize }

// Height returns the map height in world units.
func (m *Map) Height() float64 { return float64(m.rows) * TileSize }

// TileAt returns the kind at (col, row). Out-of-bounds reads are walls so
// nothing ever navigates off the map.
func (m *Map) TileAt(col, row int) Kind {
	if m == nil || col < 0 || row < 0 || col >= m.cols || row >= m.rows {
		return KindWall
	}
	return m.tiles[row*m.cols+col]
}

// Locate converts a world position to tile coordinates.
func (m *Map) Locate(pos geom.Vec2) (int, int) {
	return int(pos.X / TileSize), int(pos.Y / TileSize)
}

// CellCenter returns the world-space center of a tile.
func CellCenter(col, row int) geom.Vec2 {
	return geom.Vec2{
		X: float64(col)*TileSize + TileSize/2,
		Y: float64(row)*TileSize + TileSize/2,
	}
}

// CentersOf returns the world centers of every tile of the given kind, in
// row-major order.
func (m *Map) CentersOf(kind Kind) []geom.Vec2 {
	centers := make([]geom.Vec2, 0)
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			if m.TileAt(col, row) == kind {
				centers = append(centers, CellCenter(col, row))
			}
		}
	}
	return centers
}

// WalkableForNPC reports whether customers may occupy the tile at (col, row).
func (m *Map) WalkableForNPC(col, row int) bool {
	return !m.TileAt(col, row).SolidForNPC()
}

// FloorTilesAround returns the centers of floor tiles within search radius
// (in tiles) of a world-space center.
func (m *Map) FloorTilesAround(center geom.Vec2, radius int) []geom.Vec2 {
	centerCol, centerRow := m.Locate(center)
	positions := make([]geom.Vec2, 0)
	for rowOffset := -radius; rowOffset <= radius; rowOffset++ {
		for colOffset := -radius; colOffset <= radius; colOffset++ {
			col := centerCol + colOffset
			row := centerRow + rowOffset
			if m.TileAt(col, row) == KindFloor {
				positions = append(positions, CellCenter(col, row))
			}
		}
	}
	return positions
}

// ShelfGroup is a connected block of shelf tiles treated as one browsing
// target: its world center plus the floor tiles customers may stand on while
// shopping around it.
type ShelfGroup struct {
	Center            geom.Vec2
	BrowsingPositions []geom.Vec2
}

// ShelfGroups flood-fills connected shelf tiles (4-directional) and returns
// one group per block. Browsing positions search radius 3 first, widening to
// 5 when a group is fully enclosed.
func (m *Map) ShelfGroups() []ShelfGroup {
	groups := make([]ShelfGroup, 0)
	visited := make(map[[2]int]struct{})

	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			key := [2]int{col, row}
			if _, seen := visited[key]; seen {
				continue
			}
			if m.TileAt(col, row) != KindShelf {
				continue
			}

			stack := [][2]int{key}
			cells := make([][2]int, 0, 4)
			for len(stack) > 0 {
				cell := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if _, seen := visited[cell]; seen {
					continue
				}
				if m.TileAt(cell[0], cell[1]) != KindShelf {
					continue
				}
				visited[cell] = struct{}{}
				cells = append(cells, cell)
				for _, delta := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					stack = append(stack, [2]int{cell[0] + delta[0], cell[1] + delta[1]})
				}
			}
			if len(cells) == 0 {
				continue
			}

			var sumX, sumY float64
			for _, cell := range cells {
				center := CellCenter(cell[0], cell[1])
				sumX += center.X
				sumY += center.Y
			}
			count := float64(len(cells))
			center := geom.Vec2{X: sumX / count, Y: sumY / count}

			browsing := m.FloorTilesAround(center, 3)
			if len(browsing) == 0 {
				browsing = m.FloorTilesAround(center, 5)
			}
			groups = append(groups, ShelfGroup{Center: center, BrowsingPositions: browsing})
		}
	}
	return groups
}

// SolidRectsAround collects tile rects near the query box for customer
// collision tests, one tile of margin on every side. Door tiles are returned
// separately so callers can exclude them from NPC collision entirely.
func (m *Map) SolidRectsAround(box geom.Rect) (obstacles, doors []geom.Rect) {
	left := int(box.X/TileSize) - 1
	if left < 0 {
		left = 0
	}
	right := int((box.X+box.Width)/TileSize) + 1
	if right > m.cols-1 {
		right = m.cols - 1
	}
	top := int(box.Y/TileSize) - 1
	if top < 0 {
		top = 0
	}
	bottom := int((box.Y+box.Height)/TileSize) + 1
	if bottom > m.rows-1 {
		bottom = m.rows - 1
	}

	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			kind := m.TileAt(col, row)
			rect := geom.Rect{
				X:      float64(col) * TileSize,
				Y:      float64(row) * TileSize,
				Width:  TileSize,
				Height: TileSize,
			}
			if kind == KindDoor {
				doors = append(doors, rect)
			} else if kind.SolidForNPC() {
				obstacles = append(obstacles, rect)
			}
		}
	}
	return obstacles, doors
}
