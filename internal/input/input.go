// Package input models the spatial input sources a host reports against an
// interaction handler, along with their auxiliary datamaps.
package input

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind classifies an input source.
type Kind uint8

const (
	KindPointer Kind = iota // ray/cursor-like
	KindHand
	KindTip
)

func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindHand:
		return "hand"
	case KindTip:
		return "tip"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts a wire name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pointer":
		return KindPointer, nil
	case "hand":
		return KindHand, nil
	case "tip":
		return KindTip, nil
	default:
		return 0, fmt.Errorf("unknown input kind %q", s)
	}
}

// Source is one spatial input as seen by a single handler in one frame.
// Origin and Direction are in the handler's local space; Direction is only
// meaningful for pointers. Hovering and Active are the host's membership for
// this frame.
type Source struct {
	ID        string
	Kind      Kind
	Distance  float32
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	Hovering  bool
	Active    bool
	Datamap   Datamap
}

// IsPointer reports whether the source is ray/cursor-like.
func (s Source) IsPointer() bool {
	return s.Kind == KindPointer
}

// Closest returns the source with the smallest distance among those accepted
// by keep. Ties go to the first encountered.
func Closest(sources []Source, keep func(Source) bool) (Source, bool) {
	var best Source
	found := false
	for _, s := range sources {
		if keep != nil && !keep(s) {
			continue
		}
		if !found || s.Distance < best.Distance {
			best = s
			found = true
		}
	}
	return best, found
}
