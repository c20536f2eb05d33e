package planner

import (
	"fmt"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/terrain"
)

// Object marks understood by ParseInput.
const (
	MarkController = 'C'
	MarkSource     = 'E'
	MarkMineral    = 'M'
	MarkSpawn      = 'S'
)

// ParseInput reads a room picture in terrain.Parse format where the fixed
// objects are drawn with the Mark* letters.
func ParseInput(name string, rows []string) (Input, *terrain.Room, error) {
	room, marks, err := terrain.Parse(name, rows)
	if err != nil {
		return Input{}, nil, err
	}
	in := Input{Name: name, Terrain: room, Sources: marks[MarkSource]}

	single := func(mark rune) (*geom.Cell, error) {
		switch cells := marks[mark]; len(cells) {
		case 0:
			return nil, nil
		case 1:
			return &cells[0], nil
		default:
			return nil, fmt.Errorf("parse %s: %d %q marks, want at most one", name, len(cells), mark)
		}
	}
	if in.Controller, err = single(MarkController); err != nil {
		return Input{}, nil, err
	}
	if in.Mineral, err = single(MarkMineral); err != nil {
		return Input{}, nil, err
	}
	if in.Spawn, err = single(MarkSpawn); err != nil {
		return Input{}, nil, err
	}
	for mark := range marks {
		switch mark {
		case MarkController, MarkSource, MarkMineral, MarkSpawn:
		default:
			return Input{}, nil, fmt.Errorf("parse %s: unknown mark %q", name, mark)
		}
	}
	return in, room, nil
}

// GeneratedInput wraps a generated room.
func GeneratedInput(room *terrain.Room, f terrain.Features) Input {
	ctrl, mineral := f.Controller, f.Mineral
	return Input{
		Name:       room.Name,
		Terrain:    room,
		Controller: &ctrl,
		Sources:    f.Sources,
		Mineral:    &mineral,
	}
}

// RenderInput draws the room with its objects marked, so that ParseInput reads
// back the same Input.
func RenderInput(in Input, room *terrain.Room) []string {
	rows := make([][]byte, 0, geom.Size)
	for _, r := range room.Render() {
		rows = append(rows, []byte(r))
	}
	mark := func(c *geom.Cell, m byte) {
		if c != nil {
			rows[c.Y][c.X] = m
		}
	}
	mark(in.Controller, MarkController)
	mark(in.Mineral, MarkMineral)
	mark(in.Spawn, MarkSpawn)
	for _, s := range in.Sources {
		mark(&s, MarkSource)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r)
	}
	return out
}
