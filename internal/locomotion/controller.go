// Package locomotion turns held movement intent into motion of the controlled
// actor: ground snap, heading-relative translation, turning and clip selection.
package locomotion

import (
	"log/slog"

	"github.com/Versifine/roam/internal/anim"
	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/intent"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	MoveSpeed      float64
	TurnSpeed      float64 // degrees per second
	GroundTag      string
	GroundRay      collision.Ray
	ObstacleSphere collision.Sphere
	Clips          anim.Clips
}

func DefaultConfig() Config {
	return Config{
		MoveSpeed: 20,
		TurnSpeed: 300,
		GroundTag: "terrain",
		GroundRay: collision.Ray{
			Origin:    mgl64.Vec3{0, 0, 2.5},
			Direction: mgl64.Vec3{0, 0, -1},
		},
		ObstacleSphere: collision.Sphere{
			Center: mgl64.Vec3{0, 0, 1.25},
			Radius: 0.75,
		},
		Clips: anim.DefaultClips(),
	}
}

type Controller struct {
	cfg      Config
	target   *scene.Node
	animator anim.Animator
	engine   collision.Engine

	groundRay *collision.Probe
	obstacle  *collision.Probe

	queue *intent.Queue
	acc   intent.Accumulator
	prev  intent.Motion
	state anim.State

	onChange func(anim.Change)
}

// New attaches the ground ray and obstacle sphere to target, registers the
// sphere as a horizontal pusher with engine and starts the idle clip.
func New(target *scene.Node, animator anim.Animator, engine collision.Engine, cfg Config) *Controller {
	c := &Controller{
		cfg:      cfg,
		target:   target,
		animator: animator,
		engine:   engine,
		queue:    intent.NewQueue(intent.DefaultQueueSize),
		state:    anim.Idle,
	}
	c.groundRay = collision.NewProbe(target, "ground_ray", cfg.GroundRay, collision.MaskGround)
	c.obstacle = collision.NewProbe(target, "obstacle_sphere", cfg.ObstacleSphere, collision.MaskObstacle)
	engine.AddPusher(c.obstacle, target, true)
	anim.Apply(animator, cfg.Clips, anim.Idle)
	return c
}

func (c *Controller) Commands() *intent.Queue { return c.queue }
func (c *Controller) Intent() intent.Motion   { return c.acc.Motion() }
func (c *Controller) State() anim.State       { return c.state }
func (c *Controller) Target() *scene.Node     { return c.target }

// OnTransition registers fn to be called after every clip change.
func (c *Controller) OnTransition(fn func(anim.Change)) {
	c.onChange = fn
}

func (c *Controller) ToggleDebug() {
	c.groundRay.ToggleVisible()
	c.obstacle.ToggleVisible()
}

func (c *Controller) Probes() []*collision.Probe {
	return []*collision.Probe{c.groundRay, c.obstacle}
}

// Update advances the actor by one frame of dt seconds, measuring positions
// in root's space.
func (c *Controller) Update(dt float64, root *scene.Node) {
	c.queue.Drain(&c.acc)
	cur := c.acc.Motion()

	c.snapToGround(root)

	offset := mgl64.Vec3{
		cur.Move[0] * c.cfg.MoveSpeed * dt,
		cur.Move[1] * c.cfg.MoveSpeed * dt,
		0,
	}
	c.target.SetPosIn(c.target, offset)
	c.target.SetH(c.target.H() + cur.Turn*c.cfg.TurnSpeed*dt)

	if next, ok := anim.Next(c.prev, cur); ok {
		clip, rate := anim.Apply(c.animator, c.cfg.Clips, next)
		change := anim.Change{From: c.state, To: next, Clip: clip, Rate: rate}
		c.state = next
		slog.Debug("Locomotion transition", "from", change.From.String(), "to", change.To.String(), "clip", clip, "rate", rate)
		if c.onChange != nil {
			c.onChange(change)
		}
	}

	c.prev = cur
}

func (c *Controller) snapToGround(root *scene.Node) {
	hits := collision.FilterInto(c.engine.Query(c.groundRay, root), c.cfg.GroundTag)
	best, ok := collision.Highest(hits)
	if !ok {
		return
	}
	c.target.SetZIn(root, best.Point[2])
}
