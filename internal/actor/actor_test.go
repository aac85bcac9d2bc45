package actor

import (
	"math"
	"testing"

	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

func TestSpawnAndSnapshot(t *testing.T) {
	root := scene.NewRoot("render")
	parent := root.AttachNewNode("level")
	parent.SetPos(mgl64.Vec3{10, 0, 0})

	a := Spawn(parent, "actor", mgl64.Vec3{1, 2, 3}, 180)
	a.Anim.Loop("run")
	a.Anim.SetPlayRate(-1, "run")

	snap := a.Snapshot(root)
	if !snap.Position.ApproxEqualThreshold(mgl64.Vec3{11, 2, 3}, 1e-9) {
		t.Fatalf("position = %v, want (11,2,3)", snap.Position)
	}
	if math.Abs(math.Abs(snap.Heading)-180) > 1e-9 {
		t.Fatalf("heading = %.6f, want 180", snap.Heading)
	}
	if snap.Clip != "run" || snap.Rate != -1 {
		t.Fatalf("clip = %q rate = %v, want run -1", snap.Clip, snap.Rate)
	}
	if a.Node.Parent() != parent || a.Node.Name() != "actor" {
		t.Fatalf("actor node not attached under parent")
	}
}
