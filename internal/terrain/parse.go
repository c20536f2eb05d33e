package terrain

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/talgya/room-planner/internal/geom"
)

// Parse builds a room from an ASCII picture, one string per row:
//
//	'#' wall, '~' swamp, '.' or ' ' plain.
//
// Letters and digits are plain tiles whose positions are returned in marks,
// keyed by the rune, in row-major order. Rows shorter than the room are padded
// with plain; missing rows are plain too.
func Parse(name string, rows []string) (*Room, map[rune][]geom.Cell, error) {
	if len(rows) > geom.Size {
		return nil, nil, fmt.Errorf("parse %s: %d rows, max %d", name, len(rows), geom.Size)
	}
	room := NewRoom(name)
	marks := make(map[rune][]geom.Cell)
	for y, row := range rows {
		row = strings.TrimRight(row, "\r")
		if len([]rune(row)) > geom.Size {
			return nil, nil, fmt.Errorf("parse %s: row %d has %d columns, max %d", name, y, len([]rune(row)), geom.Size)
		}
		for x, ch := range []rune(row) {
			c := geom.Cell{X: uint8(x), Y: uint8(y)}
			switch {
			case ch == '#':
				room.Set(c, Wall)
			case ch == '~':
				room.Set(c, Swamp)
			case ch == '.' || ch == ' ':
			case unicode.IsLetter(ch) || unicode.IsDigit(ch):
				marks[ch] = append(marks[ch], c)
			default:
				return nil, nil, fmt.Errorf("parse %s: unexpected %q at %v", name, ch, c)
			}
		}
	}
	return room, marks, nil
}

// Render draws the room in the Parse format.
func (r *Room) Render() []string {
	rows := make([]string, geom.Size)
	var b strings.Builder
	for y := 0; y < geom.Size; y++ {
		b.Reset()
		for x := 0; x < geom.Size; x++ {
			switch r.At(x, y) {
			case Wall:
				b.WriteByte('#')
			case Swamp:
				b.WriteByte('~')
			default:
				b.WriteByte('.')
			}
		}
		rows[y] = b.String()
	}
	return rows
}
