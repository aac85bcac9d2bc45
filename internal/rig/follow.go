// Package rig keeps a camera trailing the controlled actor. FollowRig moves a
// free camera, AttachedRig slides a camera parented to the actor.
package rig

import (
	"math"

	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/intent"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-9

type Rig interface {
	Update(dt float64, root *scene.Node)
	Camera() *scene.Node
	Distance(root *scene.Node) float64
	ToggleDebug()
}

type FollowConfig struct {
	MinRadius     float64
	MaxRadius     float64
	TurnSpeed     float64 // orbit degrees per second
	GroundTag     string
	GroundRay     collision.Ray
	TerrainOffset float64
	TargetMargin  float64
	LookOffset    mgl64.Vec3
}

func DefaultFollowConfig() FollowConfig {
	return FollowConfig{
		MinRadius: 5,
		MaxRadius: 10,
		TurnSpeed: 90,
		GroundTag: "terrain",
		GroundRay: collision.Ray{
			Origin:    mgl64.Vec3{0, 0, 9},
			Direction: mgl64.Vec3{0, 0, -1},
		},
		TerrainOffset: 1.5,
		TargetMargin:  2.0,
		LookOffset:    mgl64.Vec3{0, 0, 2},
	}
}

// FollowRig drives a camera that is not parented to its target.
type FollowRig struct {
	cfg       FollowConfig
	camera    *scene.Node
	target    *scene.Node
	engine    collision.Engine
	groundRay *collision.Probe

	queue *intent.Queue
	acc   intent.Accumulator
}

var _ Rig = (*FollowRig)(nil)

func NewFollow(camera, target *scene.Node, engine collision.Engine, cfg FollowConfig) *FollowRig {
	return &FollowRig{
		cfg:       cfg,
		camera:    camera,
		target:    target,
		engine:    engine,
		groundRay: collision.NewProbe(camera, "camera_ground_ray", cfg.GroundRay, collision.MaskGround),
		queue:     intent.NewQueue(intent.DefaultQueueSize),
	}
}

func (r *FollowRig) Camera() *scene.Node     { return r.camera }
func (r *FollowRig) Commands() *intent.Queue { return r.queue }
func (r *FollowRig) Intent() intent.Motion   { return r.acc.Motion() }
func (r *FollowRig) ToggleDebug()            { r.groundRay.ToggleVisible() }
func (r *FollowRig) Probe() *collision.Probe { return r.groundRay }

// Distance is the horizontal camera to target distance.
func (r *FollowRig) Distance(root *scene.Node) float64 {
	v := r.target.PosIn(root).Sub(r.camera.PosIn(root))
	return math.Hypot(v[0], v[1])
}

func (r *FollowRig) Update(dt float64, root *scene.Node) {
	r.queue.Drain(&r.acc)
	turn := r.acc.Motion().Turn

	target := r.target.PosIn(root)
	r.camera.SetPosIn(root, r.clampRadius(r.camera.PosIn(root), target))

	pos := r.camera.PosIn(root)
	hits := collision.FilterInto(r.engine.Query(r.groundRay, root), r.cfg.GroundTag)
	if best, ok := collision.Highest(hits); ok {
		pos[2] = best.Point[2] + r.cfg.TerrainOffset
	}
	if floor := target[2] + r.cfg.TargetMargin; pos[2] < floor {
		pos[2] = floor
	}
	r.camera.SetPosIn(root, pos)

	r.camera.LookAt(target.Add(r.cfg.LookOffset), root)

	if turn != 0 {
		r.orbit(turn*r.cfg.TurnSpeed*dt, target, root)
	}
}

func (r *FollowRig) clampRadius(cam, target mgl64.Vec3) mgl64.Vec3 {
	v := target.Sub(cam)
	v[2] = 0
	dist := v.Len()
	var dir mgl64.Vec3
	if dist > tolerance {
		dir = v.Mul(1 / dist)
	} else {
		dir = mgl64.Vec3{0, 1, 0}
	}
	switch {
	case dist > r.cfg.MaxRadius:
		return cam.Add(dir.Mul(dist - r.cfg.MaxRadius))
	case dist < r.cfg.MinRadius:
		return cam.Sub(dir.Mul(r.cfg.MinRadius - dist))
	}
	return cam
}

// orbit swings the camera about the vertical axis through target and turns it
// by the same angle so it keeps facing the look-at point.
func (r *FollowRig) orbit(degrees float64, target mgl64.Vec3, root *scene.Node) {
	rad := mgl64.DegToRad(degrees)
	sin, cos := math.Sincos(rad)
	rel := r.camera.PosIn(root).Sub(target)
	rotated := mgl64.Vec3{
		rel[0]*cos - rel[1]*sin,
		rel[0]*sin + rel[1]*cos,
		rel[2],
	}
	r.camera.SetPosIn(root, target.Add(rotated))
	r.camera.SetH(r.camera.H() + degrees)
}
