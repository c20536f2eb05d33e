package terrain

import "github.com/talgya/room-planner/internal/geom"

const satSide = geom.Size + 1

// WallMap is a boolean wall bitmap of a room plus its summed-area table, so the
// number of walls in any axis-aligned rectangle is an O(1) query.
type WallMap struct {
	walls [geom.Size * geom.Size]bool
	sat   [satSide * satSide]int32
}

// NewWallMap samples the oracle once and builds the summed-area table.
func NewWallMap(o Oracle) *WallMap {
	w := &WallMap{}
	for y := 0; y < geom.Size; y++ {
		for x := 0; x < geom.Size; x++ {
			wall := o.At(x, y) == Wall
			w.walls[y*geom.Size+x] = wall
			v := int32(0)
			if wall {
				v = 1
			}
			// sat[y+1][x+1] covers [0..x] x [0..y]
			w.sat[(y+1)*satSide+x+1] = v +
				w.sat[y*satSide+x+1] +
				w.sat[(y+1)*satSide+x] -
				w.sat[y*satSide+x]
		}
	}
	return w
}

// IsWall reports whether the cell is a terrain wall.
func (w *WallMap) IsWall(c geom.Cell) bool {
	return w.walls[c.Index()]
}

// Wall reports whether (x, y) is a wall; coordinates outside the room count as walls.
func (w *WallMap) Wall(x, y int) bool {
	if !geom.InRoom(x, y) {
		return true
	}
	return w.walls[y*geom.Size+x]
}

// CountWalls returns the number of wall cells inside r, clipped to the room.
func (w *WallMap) CountWalls(r geom.Rect) int {
	x0 := geom.Clamp(r.X0, 0, geom.Size)
	y0 := geom.Clamp(r.Y0, 0, geom.Size)
	x1 := geom.Clamp(r.X1+1, 0, geom.Size)
	y1 := geom.Clamp(r.Y1+1, 0, geom.Size)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return int(w.sat[y1*satSide+x1] - w.sat[y0*satSide+x1] - w.sat[y1*satSide+x0] + w.sat[y0*satSide+x0])
}
