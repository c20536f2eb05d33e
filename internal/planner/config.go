package planner

import "github.com/talgya/room-planner/internal/plan"

// Levels holds the build level of every structure the planner places.
// List-valued entries are indexed by placement order; the last entry repeats.
type Levels struct {
	Road           uint8
	SourceRoad     uint8
	ControllerRoad uint8
	MineralRoad    uint8
	Rampart        uint8

	Spawns []uint8 // the first entry is used only when no spawn exists yet
	Towers []uint8

	Storage    uint8
	Terminal   uint8
	Factory    uint8
	PowerSpawn uint8
	Nuker      uint8
	Observer   uint8
	Extractor  uint8

	SenderLink   uint8
	ReceiverLink uint8
	SourceLinks  []uint8

	LabInput  uint8
	LabOutput []uint8
	LabBoost  uint8

	SourceContainer          uint8
	ControllerContainer      uint8
	ControllerContainerUntil uint8 // retired once the receiver link runs
	MineralContainer         uint8

	// ExtensionQuota[l] is the number of extensions allowed once level l is reached.
	ExtensionQuota [plan.MaxLevel + 1]int
}

// Config holds the layout planner parameters.
type Config struct {
	Margin       int // cells between the perimeter and the safe core
	MinCoreSide  int // core side band, inclusive
	MaxCoreSide  int
	MaxAspect    int // largest allowed |width - height| of the core
	MinSafeCells int // non-wall cells required in the core
	EdgeGap      int // minimum distance between the perimeter and the room edge
	CutDepth     int // deepest corner cut through walls; must stay below Margin

	Spawns       int // total spawns wanted, including an existing one
	SpawnSpacing int // chosen spawns are pairwise farther than this
	SpawnShift   int // spawn search centre, this many cells from the crossroad towards the guide
	SpawnSquares int // nearest squares searched for spawn cells

	Towers          int
	TowerSpacing    int // towers are pairwise farther than this
	TowerReach      int // exposed cells within this range count towards a tower's score
	TowerCandidates int // best-scoring candidates kept for the exact search

	Extensions int

	RemoteBandStep  int // road-distance band growth per remote search round
	RemoteRadius    int // initial scan radius (path cost) of a remote search
	RemoteMaxRadius int

	Levels Levels
}

// DefaultConfig returns the parameters used for owned rooms.
func DefaultConfig() Config {
	return Config{
		Margin:       3,
		MinCoreSide:  12,
		MaxCoreSide:  25,
		MaxAspect:    2,
		MinSafeCells: 180,
		EdgeGap:      2,
		CutDepth:     2,

		Spawns:       3,
		SpawnSpacing: 2,
		SpawnShift:   4,
		SpawnSquares: 4,

		Towers:          6,
		TowerSpacing:    3,
		TowerReach:      3,
		TowerCandidates: 24,

		Extensions: 60,

		RemoteBandStep:  10,
		RemoteRadius:    40,
		RemoteMaxRadius: 640,

		Levels: DefaultLevels(),
	}
}

// DefaultLevels follows the per-level structure allowances of the game.
func DefaultLevels() Levels {
	return Levels{
		Road:           3,
		SourceRoad:     2,
		ControllerRoad: 2,
		MineralRoad:    6,
		Rampart:        4,

		Spawns: []uint8{1, 7, 8},
		Towers: []uint8{3, 5, 7, 8, 8, 8},

		Storage:    4,
		Terminal:   6,
		Factory:    7,
		PowerSpawn: 8,
		Nuker:      8,
		Observer:   8,
		Extractor:  6,

		SenderLink:   5,
		ReceiverLink: 5,
		SourceLinks:  []uint8{6, 7, 8},

		LabInput:  6,
		LabOutput: []uint8{6, 7, 7, 7},
		LabBoost:  8,

		SourceContainer:          1,
		ControllerContainer:      2,
		ControllerContainerUntil: 6,
		MineralContainer:         6,

		ExtensionQuota: [plan.MaxLevel + 1]int{0, 0, 5, 10, 20, 30, 40, 50, 60},
	}
}

// nth returns list[i], repeating the last entry past the end.
func nth(list []uint8, i int) uint8 {
	if len(list) == 0 {
		return plan.MaxLevel
	}
	if i >= len(list) {
		return list[len(list)-1]
	}
	return list[i]
}
