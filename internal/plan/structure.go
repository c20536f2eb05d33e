// Package plan holds the output of the layout planner: the set of planned
// structures of a room with their build levels, and the read-only queries the
// rest of the bot runs against it.
package plan

import "fmt"

// Kind is the structure variant tag. Identity of a planned cell is (position, Kind).
type Kind uint8

const (
	Spawn Kind = iota
	Extension
	Road
	Wall
	Rampart
	Link
	Storage
	Tower
	Observer
	PowerSpawn
	Extractor
	Lab
	Terminal
	Container
	Nuker
	Factory
	kindCount // sentinel
)

var kindNames = [kindCount]string{
	"spawn", "extension", "road", "wall", "rampart", "link", "storage", "tower",
	"observer", "power_spawn", "extractor", "lab", "terminal", "container", "nuker", "factory",
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", k)
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown structure kind %q", s)
}

// Walkable reports whether units can stand on the structure.
func (k Kind) Walkable() bool {
	return k == Road || k == Container || k == Rampart
}

// LinkRole says what a link does in the energy network.
type LinkRole uint8

const (
	LinkSender   LinkRole = iota // Hub link next to storage
	LinkReceiver                 // Controller link
	LinkSource                   // Next to a source container
)

// LabRole says how a lab takes part in reactions.
type LabRole uint8

const (
	LabOutput LabRole = iota
	LabInput
	LabBoost
)

// Structure is a tagged variant: Kind plus the payload meaningful for that kind.
// Payload never takes part in identity.
type Structure struct {
	Kind Kind     `json:"kind"`
	Link LinkRole `json:"link,omitempty"` // Link only
	Lab  LabRole  `json:"lab,omitempty"`  // Lab only
	Of   uint8    `json:"of,omitempty"`   // index of the source served, for links and containers
}

// Of returns a payload-free structure of kind k.
func Of(k Kind) Structure { return Structure{Kind: k} }

// LinkOf returns a link structure with the given role.
func LinkOf(role LinkRole, source uint8) Structure {
	return Structure{Kind: Link, Link: role, Of: source}
}

// LabOf returns a lab structure with the given role.
func LabOf(role LabRole) Structure { return Structure{Kind: Lab, Lab: role} }

func (s Structure) String() string {
	switch s.Kind {
	case Link:
		return fmt.Sprintf("link[%s]", [...]string{"sender", "receiver", "source"}[s.Link%3])
	case Lab:
		return fmt.Sprintf("lab[%s]", [...]string{"output", "input", "boost"}[s.Lab%3])
	default:
		return s.Kind.String()
	}
}
