package rig

import (
	"math"
	"testing"

	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/intent"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

type mockEngine struct {
	hits map[*collision.Probe][]collision.Hit
}

func newMockEngine() *mockEngine {
	return &mockEngine{hits: make(map[*collision.Probe][]collision.Hit)}
}

func (m *mockEngine) Query(p *collision.Probe, root *scene.Node) []collision.Hit {
	return m.hits[p]
}

func (m *mockEngine) AddPusher(p *collision.Probe, target *scene.Node, horizontal bool) {}

func (m *mockEngine) Traverse(root *scene.Node) {}

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func newFollowFixture() (*FollowRig, *scene.Node, *scene.Node, *mockEngine) {
	root := scene.NewRoot("render")
	target := root.AttachNewNode("actor")
	camera := root.AttachNewNode("camera")
	engine := newMockEngine()
	return NewFollow(camera, target, engine, DefaultFollowConfig()), root, target, engine
}

func TestFollowPullsCameraInToMaxRadius(t *testing.T) {
	r, root, _, _ := newFollowFixture()
	r.Camera().SetPos(mgl64.Vec3{8.4, 11.2, 0})

	r.Update(0.016, root)

	pos := r.Camera().PosIn(root)
	approxEqual(t, pos.X(), 6, 1e-9, "camera.x")
	approxEqual(t, pos.Y(), 8, 1e-9, "camera.y")
	approxEqual(t, r.Distance(root), 10, 1e-9, "distance")
}

func TestFollowPushesCameraOutToMinRadius(t *testing.T) {
	r, root, _, _ := newFollowFixture()
	r.Camera().SetPos(mgl64.Vec3{3, 0, 0})

	r.Update(0.016, root)

	pos := r.Camera().PosIn(root)
	approxEqual(t, pos.X(), 5, 1e-9, "camera.x")
	approxEqual(t, pos.Y(), 0, 1e-9, "camera.y")
}

func TestFollowHeightFloor(t *testing.T) {
	tests := []struct {
		name  string
		hits  []collision.Hit
		wantZ float64
	}{
		{"no hits", nil, 6},
		{"terrain above floor", []collision.Hit{{Point: mgl64.Vec3{0, 0, 10}, Into: "terrain"}}, 11.5},
		{"terrain below floor", []collision.Hit{{Point: mgl64.Vec3{0, 0, 1}, Into: "terrain"}}, 6},
		{"only foliage", []collision.Hit{{Point: mgl64.Vec3{0, 0, 20}, Into: "foliage"}}, 6},
		{"highest terrain wins", []collision.Hit{
			{Point: mgl64.Vec3{0, 0, 5}, Into: "terrain"},
			{Point: mgl64.Vec3{0, 0, 7}, Into: "terrain"},
			{Point: mgl64.Vec3{0, 0, 6}, Into: "terrain"},
		}, 8.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, root, target, engine := newFollowFixture()
			target.SetPos(mgl64.Vec3{0, 0, 4})
			r.Camera().SetPos(mgl64.Vec3{0, -7, -3})
			engine.hits[r.Probe()] = tt.hits

			r.Update(0.016, root)

			approxEqual(t, r.Camera().PosIn(root).Z(), tt.wantZ, 1e-9, "camera.z")
		})
	}
}

func TestFollowLooksAtTarget(t *testing.T) {
	r, root, target, engine := newFollowFixture()
	target.SetPos(mgl64.Vec3{2, 3, 0})
	r.Camera().SetPos(mgl64.Vec3{2, -4, 0})
	engine.hits[r.Probe()] = []collision.Hit{{Point: mgl64.Vec3{2, -4, 5}, Into: "terrain"}}

	r.Update(0.016, root)

	fwd := r.Camera().Forward(root)
	approxEqual(t, fwd.X(), 0, 1e-9, "forward.x")
	if fwd.Y() <= 0 {
		t.Fatalf("camera should face +Y toward target, forward = %v", fwd)
	}
	if r.Camera().P() >= 0 {
		t.Fatalf("camera above target should pitch down, pitch = %.4f", r.Camera().P())
	}
}

func TestFollowOrbitKeepsAim(t *testing.T) {
	r, root, _, _ := newFollowFixture()
	r.Camera().SetPos(mgl64.Vec3{0, -7, 0})
	r.Commands().Press(intent.CameraLeft)

	r.Update(1.0, root)

	pos := r.Camera().PosIn(root)
	approxEqual(t, pos.X(), 7, 1e-9, "camera.x")
	approxEqual(t, pos.Y(), 0, 1e-9, "camera.y")
	approxEqual(t, r.Camera().H(), 90, 1e-9, "camera.h")

	fwd := r.Camera().Forward(root)
	if fwd.X() >= 0 {
		t.Fatalf("camera should still face the target, forward = %v", fwd)
	}

	r.Commands().Release(intent.CameraLeft)
	r.Update(1.0, root)
	if m := r.Intent(); !m.IsZero() {
		t.Fatalf("intent = %+v, want zero", m)
	}
}

func newAttachedFixture(cfg AttachedConfig) (*AttachedRig, *scene.Node, *scene.Node, *mockEngine) {
	root := scene.NewRoot("render")
	target := root.AttachNewNode("actor")
	camera := root.AttachNewNode("camera")
	engine := newMockEngine()
	return NewAttached(camera, target, engine, cfg), root, target, engine
}

func TestAttachedPlacesCameraBehindTarget(t *testing.T) {
	cfg := DefaultAttachedConfig()
	cfg.MaxDistance = 10
	r, root, _, _ := newAttachedFixture(cfg)

	pos := r.Camera().PosIn(root)
	approxEqual(t, pos.X(), 0, 1e-9, "camera.x")
	approxEqual(t, pos.Y(), 10, 1e-9, "camera.y")
	approxEqual(t, pos.Z(), 2, 1e-9, "camera.z")

	fwd := r.Camera().Forward(root)
	approxEqual(t, fwd.Y(), -1, 1e-9, "camera forward.y")
}

func TestAttachedSmoothsTowardObstacle(t *testing.T) {
	cfg := DefaultAttachedConfig()
	cfg.MaxDistance = 10
	cfg.SmoothingGain = 3
	cfg.SmoothingCap = 0.5
	r, root, _, engine := newAttachedFixture(cfg)
	engine.hits[r.Probe()] = []collision.Hit{{Distance: 2, Into: "rock"}}

	r.Update(0.1, root)

	approxEqual(t, r.Distance(root), 7.6, 1e-12, "distance")
	approxEqual(t, r.Camera().Pos().Y(), -7.6, 1e-12, "camera local y")
}

func TestAttachedBlendIsCapped(t *testing.T) {
	cfg := DefaultAttachedConfig()
	cfg.MaxDistance = 10
	cfg.SmoothingGain = 10
	cfg.SmoothingCap = 0.5
	r, root, _, engine := newAttachedFixture(cfg)
	engine.hits[r.Probe()] = []collision.Hit{{Distance: 2, Into: "rock"}}

	r.Update(0.1, root)

	approxEqual(t, r.Distance(root), 6, 1e-12, "distance")
}

func TestAttachedDesiredDistance(t *testing.T) {
	cfg := DefaultAttachedConfig()
	cfg.MinDistance = 1
	cfg.MaxDistance = 8
	cfg.IgnoreTags = []string{"foliage"}
	r, root, _, engine := newAttachedFixture(cfg)

	tests := []struct {
		name string
		hits []collision.Hit
		want float64
	}{
		{"no hit", nil, 8},
		{"nearest wins", []collision.Hit{{Distance: 6, Into: "rock"}, {Distance: 3, Into: "wall"}}, 3},
		{"clamped to min", []collision.Hit{{Distance: 0.2, Into: "rock"}}, 1},
		{"clamped to max", []collision.Hit{{Distance: 30, Into: "rock"}}, 8},
		{"ignored tag", []collision.Hit{{Distance: 2, Into: "foliage"}}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine.hits[r.Probe()] = tt.hits
			approxEqual(t, r.DesiredDistance(root), tt.want, 1e-12, "desired")
		})
	}
}

func TestAttachedReturnsToMaxWhenClear(t *testing.T) {
	r, root, _, engine := newAttachedFixture(DefaultAttachedConfig())
	engine.hits[r.Probe()] = []collision.Hit{{Distance: 2, Into: "rock"}}
	for i := 0; i < 60; i++ {
		r.Update(0.05, root)
	}
	approxEqual(t, r.Distance(root), 2, 1e-3, "distance near obstacle")

	engine.hits[r.Probe()] = nil
	prev := r.Distance(root)
	for i := 0; i < 60; i++ {
		r.Update(0.05, root)
		if d := r.Distance(root); d < prev {
			t.Fatalf("distance shrank from %.4f to %.4f with no obstacle", prev, d)
		}
		prev = r.Distance(root)
	}
	approxEqual(t, r.Distance(root), 8, 1e-3, "distance when clear")
}

func TestToggleDebugFlipsProbeVisibility(t *testing.T) {
	f, _, _, _ := newFollowFixture()
	a, _, _, _ := newAttachedFixture(DefaultAttachedConfig())
	for _, r := range []interface {
		Rig
		Probe() *collision.Probe
	}{f, a} {
		r.ToggleDebug()
		if r.Probe().Node.IsHidden() {
			t.Fatalf("probe should be visible after toggle")
		}
		r.ToggleDebug()
		if !r.Probe().Node.IsHidden() {
			t.Fatalf("probe should be hidden after second toggle")
		}
	}
}
