package rig

import (
	"math"
	"slices"

	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

type AttachedConfig struct {
	Offset        mgl64.Vec3
	MinDistance   float64
	MaxDistance   float64
	SmoothingGain float64
	SmoothingCap  float64
	IgnoreTags    []string
}

func DefaultAttachedConfig() AttachedConfig {
	return AttachedConfig{
		Offset:        mgl64.Vec3{0, 0, 2},
		MinDistance:   1,
		MaxDistance:   8,
		SmoothingGain: 5,
		SmoothingCap:  0.5,
	}
}

// AttachedRig hangs the camera off a pivot parented to the target. The pivot
// faces the target's forward (-Y), the camera sits distance units behind it
// and the distance eases toward the nearest obstacle along that line.
type AttachedRig struct {
	cfg      AttachedConfig
	camera   *scene.Node
	pivot    *scene.Node
	engine   collision.Engine
	probe    *collision.Probe
	distance float64
}

var _ Rig = (*AttachedRig)(nil)

func NewAttached(camera, target *scene.Node, engine collision.Engine, cfg AttachedConfig) *AttachedRig {
	pivot := target.AttachNewNode("camera_pivot")
	pivot.SetPos(cfg.Offset)
	pivot.SetH(180)

	camera.ReparentTo(pivot)
	camera.SetH(0)
	camera.SetP(0)

	r := &AttachedRig{
		cfg:      cfg,
		camera:   camera,
		pivot:    pivot,
		engine:   engine,
		distance: cfg.MaxDistance,
		probe: collision.NewProbe(pivot, "camera_ray", collision.Ray{
			Direction: mgl64.Vec3{0, -1, 0},
		}, collision.MaskObstacle),
	}
	r.placeCamera()
	return r
}

func (r *AttachedRig) Camera() *scene.Node               { return r.camera }
func (r *AttachedRig) Distance(root *scene.Node) float64 { return r.distance }
func (r *AttachedRig) ToggleDebug()                      { r.probe.ToggleVisible() }
func (r *AttachedRig) Probe() *collision.Probe           { return r.probe }

// DesiredDistance is the nearest obstacle distance behind the pivot clamped to
// [MinDistance, MaxDistance], or MaxDistance when nothing is in the way.
func (r *AttachedRig) DesiredDistance(root *scene.Node) float64 {
	hits := r.engine.Query(r.probe, root)
	if len(r.cfg.IgnoreTags) > 0 {
		hits = slices.DeleteFunc(slices.Clone(hits), func(h collision.Hit) bool {
			return slices.Contains(r.cfg.IgnoreTags, h.Into)
		})
	}
	nearest, ok := collision.Nearest(hits)
	if !ok {
		return r.cfg.MaxDistance
	}
	return math.Min(math.Max(nearest.Distance, r.cfg.MinDistance), r.cfg.MaxDistance)
}

func (r *AttachedRig) Update(dt float64, root *scene.Node) {
	desired := r.DesiredDistance(root)
	blend := math.Min(r.cfg.SmoothingGain*dt, r.cfg.SmoothingCap)
	r.distance += blend * (desired - r.distance)
	r.placeCamera()
}

func (r *AttachedRig) placeCamera() {
	r.camera.SetPos(mgl64.Vec3{0, -r.distance, 0})
}
