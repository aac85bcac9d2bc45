package actor

import (
	"github.com/Versifine/roam/internal/anim"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// Actor is the controlled character: a scene node plus the clip player that
// shows its current animation.
type Actor struct {
	Node *scene.Node
	Anim *anim.Player
}

// Spawn attaches a new actor under parent at pos (in parent space) facing heading.
func Spawn(parent *scene.Node, name string, pos mgl64.Vec3, heading float64) *Actor {
	node := parent.AttachNewNode(name)
	node.SetPos(pos)
	node.SetH(heading)
	return &Actor{Node: node, Anim: anim.NewPlayer()}
}

type Snapshot struct {
	Position mgl64.Vec3
	Heading  float64
	Clip     string
	Rate     float64
}

func (a *Actor) Snapshot(root *scene.Node) Snapshot {
	clip, rate := a.Anim.Current()
	return Snapshot{
		Position: a.Node.PosIn(root),
		Heading:  a.Node.HIn(root),
		Clip:     clip,
		Rate:     rate,
	}
}
