package collision

import (
	"cmp"
	"slices"

	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type Mask uint32

const (
	MaskGround Mask = 1 << iota
	MaskObstacle

	MaskNone Mask = 0
	MaskAll  Mask = ^Mask(0)
)

// Solid is a probe shape expressed in the probe node's local space.
type Solid interface {
	isSolid()
}

// Ray starts at Origin and extends without limit along Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (Ray) isSolid()    {}
func (Sphere) isSolid() {}

// Probe is a query solid carried by a scene node. Probes start hidden.
type Probe struct {
	Node  *scene.Node
	Solid Solid
	Mask  Mask
}

func NewProbe(owner *scene.Node, name string, solid Solid, mask Mask) *Probe {
	node := owner.AttachNewNode(name)
	node.Hide()
	return &Probe{Node: node, Solid: solid, Mask: mask}
}

// ToggleVisible flips the probe's debug visibility.
func (p *Probe) ToggleVisible() {
	if p.Node.IsHidden() {
		p.Node.Show()
	} else {
		p.Node.Hide()
	}
}

// Hit is one contact between a probe and a surface. Point and Normal are in
// the reference frame passed to the query.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Into     string
	IntoID   uuid.UUID
	Distance float64
}

// Engine answers probe queries against world geometry. Pushers registered with
// AddPusher are resolved on every Traverse.
type Engine interface {
	Query(p *Probe, root *scene.Node) []Hit
	AddPusher(p *Probe, target *scene.Node, horizontal bool)
	Traverse(root *scene.Node)
}

func FilterInto(hits []Hit, into string) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Into == into {
			out = append(out, h)
		}
	}
	return out
}

// SortByElevation orders hits highest first. Equal elevations fall back to
// X then Y so the result never depends on the engine's report order.
func SortByElevation(hits []Hit) {
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Point[2], a.Point[2]); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Point[0], b.Point[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.Point[1], b.Point[1])
	})
}

func Highest(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	sorted := slices.Clone(hits)
	SortByElevation(sorted)
	return sorted[0], true
}

func Nearest(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.Distance < best.Distance ||
			(h.Distance == best.Distance && h.Into < best.Into) {
			best = h
		}
	}
	return best, true
}
