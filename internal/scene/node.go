// Package scene is a minimal transform hierarchy: Z-up, right-handed, and every
// node looks along its local +Y axis. Angles are in degrees.
package scene

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type Node struct {
	id       uuid.UUID
	name     string
	parent   *Node
	children []*Node

	pos     mgl64.Vec3
	heading float64
	pitch   float64
	hidden  bool
}

func NewRoot(name string) *Node {
	return &Node{id: uuid.New(), name: name}
}

func (n *Node) AttachNewNode(name string) *Node {
	child := &Node{id: uuid.New(), name: name, parent: n}
	n.children = append(n.children, child)
	return child
}

func (n *Node) ID() uuid.UUID     { return n.id }
func (n *Node) Name() string      { return n.name }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// ReparentTo moves n under parent and keeps its local transform.
func (n *Node) ReparentTo(parent *Node) {
	if parent == n.parent {
		return
	}
	n.detach()
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

// WrtReparentTo moves n under parent and keeps its world transform.
func (n *Node) WrtReparentTo(parent *Node) {
	world := n.worldMat()
	n.ReparentTo(parent)
	local := world
	if parent != nil {
		local = parent.worldMat().Inv().Mul4(world)
	}
	n.pos = local.Col(3).Vec3()
	n.heading, n.pitch = anglesFromForward(mgl64.TransformNormal(mgl64.Vec3{0, 1, 0}, local))
}

func (n *Node) Detach() {
	n.detach()
	n.parent = nil
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	n.parent.children = slices.DeleteFunc(n.parent.children, func(c *Node) bool { return c == n })
}

// Find returns the first descendant (depth first) with the given name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) Pos() mgl64.Vec3       { return n.pos }
func (n *Node) SetPos(pos mgl64.Vec3) { n.pos = pos }
func (n *Node) H() float64            { return n.heading }
func (n *Node) SetH(h float64)        { n.heading = normalizeAngle(h) }
func (n *Node) P() float64            { return n.pitch }
func (n *Node) SetP(p float64)        { n.pitch = p }

// Mat returns the transform of n expressed in ref's coordinate space. A nil
// ref means the top of n's hierarchy.
func (n *Node) Mat(ref *Node) mgl64.Mat4 {
	world := n.worldMat()
	if ref == nil {
		return world
	}
	return ref.worldMat().Inv().Mul4(world)
}

func (n *Node) PosIn(ref *Node) mgl64.Vec3 {
	return n.Mat(ref).Col(3).Vec3()
}

// SetPosIn places n so that its origin lands on pos measured in ref's space.
// Passing n itself as ref moves n relative to its current frame.
func (n *Node) SetPosIn(ref *Node, pos mgl64.Vec3) {
	world := pos
	if ref != nil {
		world = mgl64.TransformCoordinate(pos, ref.worldMat())
	}
	if n.parent != nil {
		world = mgl64.TransformCoordinate(world, n.parent.worldMat().Inv())
	}
	n.pos = world
}

func (n *Node) SetZIn(ref *Node, z float64) {
	pos := n.PosIn(ref)
	pos[2] = z
	n.SetPosIn(ref, pos)
}

// Forward is n's +Y axis expressed in ref's space.
func (n *Node) Forward(ref *Node) mgl64.Vec3 {
	return mgl64.TransformNormal(mgl64.Vec3{0, 1, 0}, n.Mat(ref))
}

// HIn is n's heading measured in ref's space.
func (n *Node) HIn(ref *Node) float64 {
	h, _ := anglesFromForward(n.Forward(ref))
	return h
}

// LookAt turns n so its +Y axis points at target, given in ref's space.
// A target at n's own origin leaves the orientation unchanged.
func (n *Node) LookAt(target mgl64.Vec3, ref *Node) {
	if ref != nil {
		target = mgl64.TransformCoordinate(target, ref.worldMat())
	}
	if n.parent != nil {
		target = mgl64.TransformCoordinate(target, n.parent.worldMat().Inv())
	}
	dir := target.Sub(n.pos)
	if dir.Len() < 1e-9 {
		return
	}
	n.heading, n.pitch = anglesFromForward(dir)
}

func (n *Node) Show()          { n.hidden = false }
func (n *Node) Hide()          { n.hidden = true }
func (n *Node) IsHidden() bool { return n.hidden }

func (n *Node) localMat() mgl64.Mat4 {
	return mgl64.Translate3D(n.pos[0], n.pos[1], n.pos[2]).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(n.heading))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(n.pitch)))
}

func (n *Node) worldMat() mgl64.Mat4 {
	m := n.localMat()
	for p := n.parent; p != nil; p = p.parent {
		m = p.localMat().Mul4(m)
	}
	return m
}

func anglesFromForward(dir mgl64.Vec3) (heading, pitch float64) {
	heading = mgl64.RadToDeg(math.Atan2(-dir[0], dir[1]))
	pitch = mgl64.RadToDeg(math.Atan2(dir[2], math.Hypot(dir[0], dir[1])))
	return normalizeAngle(heading), pitch
}

func normalizeAngle(v float64) float64 {
	v = math.Mod(v, 360)
	if v <= -180 {
		v += 360
	}
	if v > 180 {
		v -= 360
	}
	return v
}
