// Room generation using layered simplex noise.
// Produces natural-looking wall masses with exits cut into the room edge, then
// seeds the fixed objects (controller, sources, mineral) on open ground.
package terrain

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/room-planner/internal/geom"
)

// GenConfig holds room generation parameters.
type GenConfig struct {
	Name     string
	Seed     int64   // Random seed (0 = random)
	WallLvl  float64 // Noise threshold above which a tile becomes wall (0.0–1.0)
	SwampLvl float64 // Second-layer threshold above which a tile becomes swamp
	EdgeBias float64 // Extra wall weight near the room edge
	Exits    int     // Number of exit gaps per edge
	Sources  int     // Number of energy sources to seed
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Name:     "W1N1",
		Seed:     0,
		WallLvl:  0.68,
		SwampLvl: 0.72,
		EdgeBias: 0.25,
		Exits:    2,
		Sources:  2,
	}
}

// SmallTestConfig returns a mostly open room for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Name:     "sim",
		Seed:     42,
		WallLvl:  0.85,
		SwampLvl: 0.9,
		EdgeBias: 0.1,
		Exits:    3,
		Sources:  2,
	}
}

// Features are the fixed objects of a generated room.
type Features struct {
	Controller geom.Cell   `json:"controller"`
	Sources    []geom.Cell `json:"sources"`
	Mineral    geom.Cell   `json:"mineral"`
}

// Generate creates a room and places its fixed objects.
func Generate(cfg GenConfig) (*Room, Features) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Two noise generators for independent layers.
	wallNoise := opensimplex.NewNormalized(seed)
	swampNoise := opensimplex.NewNormalized(seed + 1)

	room := NewRoom(cfg.Name)
	for y := 0; y < geom.Size; y++ {
		for x := 0; x < geom.Size; x++ {
			fx, fy := float64(x), float64(y)

			// Multi-octave noise for natural-looking rock masses.
			w := octaveNoise(wallNoise, fx, fy, 4, 0.07, 0.5)
			s := octaveNoise(swampNoise, fx, fy, 3, 0.09, 0.5)

			// Rooms close in towards their edge.
			edge := float64(min(x, y, geom.Size-1-x, geom.Size-1-y))
			w += cfg.EdgeBias * math.Exp(-edge/3)

			c := geom.Cell{X: uint8(x), Y: uint8(y)}
			switch {
			case w > cfg.WallLvl:
				room.Set(c, Wall)
			case s > cfg.SwampLvl:
				room.Set(c, Swamp)
			}
		}
	}

	rng := rand.New(rand.NewSource(seed + 100))
	sealEdges(room, rng, cfg.Exits)

	return room, placeFeatures(room, rng, cfg.Sources)
}

// sealEdges walls the room edge and reopens a few exit gaps on every side.
func sealEdges(room *Room, rng *rand.Rand, exits int) {
	last := geom.Size - 1
	for i := 0; i < geom.Size; i++ {
		room.Set(geom.Cell{X: uint8(i), Y: 0}, Wall)
		room.Set(geom.Cell{X: uint8(i), Y: uint8(last)}, Wall)
		room.Set(geom.Cell{X: 0, Y: uint8(i)}, Wall)
		room.Set(geom.Cell{X: uint8(last), Y: uint8(i)}, Wall)
	}

	for side := 0; side < 4; side++ {
		for e := 0; e < exits; e++ {
			start := 3 + rng.Intn(geom.Size-12)
			length := 2 + rng.Intn(5)
			for i := start; i < start+length; i++ {
				var outer, inner geom.Cell
				switch side {
				case 0:
					outer, inner = geom.Cell{X: uint8(i), Y: 0}, geom.Cell{X: uint8(i), Y: 1}
				case 1:
					outer, inner = geom.Cell{X: uint8(last), Y: uint8(i)}, geom.Cell{X: uint8(last - 1), Y: uint8(i)}
				case 2:
					outer, inner = geom.Cell{X: uint8(i), Y: uint8(last)}, geom.Cell{X: uint8(i), Y: uint8(last - 1)}
				default:
					outer, inner = geom.Cell{X: 0, Y: uint8(i)}, geom.Cell{X: 1, Y: uint8(i)}
				}
				room.Set(outer, Plain)
				room.Set(inner, Plain)
			}
		}
	}
}

// placeFeatures scatters the controller, sources and mineral on open tiles at
// least 3 tiles from the edge and 5 tiles from each other.
func placeFeatures(room *Room, rng *rand.Rand, sources int) Features {
	var taken []geom.Cell
	pick := func() geom.Cell {
		for attempt := 0; attempt < 2000; attempt++ {
			c := geom.Cell{X: uint8(3 + rng.Intn(geom.Size-6)), Y: uint8(3 + rng.Intn(geom.Size-6))}
			if room.Get(c) == Wall || openNeighbors(room, c) < 3 {
				continue
			}
			if tooClose(c, taken, 5) {
				continue
			}
			taken = append(taken, c)
			return c
		}
		// Carve a spot rather than fail; generation never errors.
		c := geom.Cell{X: uint8(5 + rng.Intn(geom.Size-10)), Y: uint8(5 + rng.Intn(geom.Size-10))}
		room.Fill(geom.Rect{X0: int(c.X) - 1, Y0: int(c.Y) - 1, X1: int(c.X) + 1, Y1: int(c.Y) + 1}, Plain)
		taken = append(taken, c)
		return c
	}

	f := Features{Controller: pick()}
	for i := 0; i < sources; i++ {
		f.Sources = append(f.Sources, pick())
	}
	f.Mineral = pick()
	return f
}

func openNeighbors(room *Room, c geom.Cell) int {
	n := 0
	for _, nc := range c.Neighbors() {
		if room.Get(nc) != Wall {
			n++
		}
	}
	return n
}

func tooClose(c geom.Cell, existing []geom.Cell, minDist int) bool {
	for _, e := range existing {
		if geom.Range(c, e) < minDist {
			return true
		}
	}
	return false
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
