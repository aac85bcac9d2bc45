// Package app assembles the scene, collision world, actor, locomotion
// controller, camera rig and frame loop, and routes bus events into them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Versifine/roam/internal/actor"
	"github.com/Versifine/roam/internal/anim"
	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/config"
	"github.com/Versifine/roam/internal/debug"
	"github.com/Versifine/roam/internal/event"
	"github.com/Versifine/roam/internal/frame"
	"github.com/Versifine/roam/internal/intent"
	"github.com/Versifine/roam/internal/level"
	"github.com/Versifine/roam/internal/locomotion"
	"github.com/Versifine/roam/internal/rig"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

const spawnHeading = 180

var ErrOutsideTerrain = errors.New("position is outside the terrain")

type Game struct {
	cfg   config.Config
	bus   *event.Bus
	root  *scene.Node
	world *collision.World
	level *level.Level

	actor      *actor.Actor
	camera     *scene.Node
	controller *locomotion.Controller
	rig        rig.Rig
	follow     *rig.FollowRig
	loop       *frame.Loop

	statusMu sync.Mutex
	status   debug.Status

	quitOnce sync.Once
	quit     chan struct{}
}

var _ debug.StateProvider = (*Game)(nil)

func New(cfg config.Config, lvl *level.Level, bus *event.Bus) (*Game, error) {
	if lvl == nil {
		return nil, fmt.Errorf("level is nil")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus is nil")
	}

	g := &Game{
		cfg:   cfg,
		bus:   bus,
		root:  scene.NewRoot("render"),
		world: collision.NewWorld(),
		level: lvl,
		quit:  make(chan struct{}),
	}
	lvl.Build(g.root, g.world)

	g.actor = actor.Spawn(g.root, "actor", lvl.Start(), spawnHeading)
	g.controller = locomotion.New(g.actor.Node, g.actor.Anim, g.world, locomotionConfig(cfg.Character))

	g.camera = g.root.AttachNewNode("camera")
	switch cfg.Camera.Mode {
	case config.CameraAttached:
		g.rig = rig.NewAttached(g.camera, g.actor.Node, g.world, attachedConfig(cfg))
	case config.CameraFollow:
		f := cfg.Camera.Follow
		g.camera.SetPosIn(g.root, lvl.Start().Add(mgl64.Vec3{0, -(f.MinRadius + f.MaxRadius) / 2, f.TargetMargin}))
		g.follow = rig.NewFollow(g.camera, g.actor.Node, g.world, followConfig(cfg))
		g.rig = g.follow
	default:
		return nil, fmt.Errorf("unknown camera mode %q", cfg.Camera.Mode)
	}

	g.loop = frame.New(g.root, g.controller, g.world, g.rig, frame.Config{
		TickInterval: cfg.Frame.TickInterval,
		MaxDT:        cfg.Frame.MaxDT,
	})
	g.loop.AfterFrame(g.recordStatus)
	g.controller.OnTransition(g.publishTransition)
	g.subscribe()
	g.recordStatus(0)

	slog.Info("Game assembled", "level", lvl.Name, "camera", cfg.Camera.Mode, "start", lvl.Start())
	return g, nil
}

func (g *Game) Root() *scene.Node                  { return g.root }
func (g *Game) World() *collision.World            { return g.world }
func (g *Game) Actor() *actor.Actor                { return g.actor }
func (g *Game) Controller() *locomotion.Controller { return g.controller }
func (g *Game) Rig() rig.Rig                       { return g.rig }
func (g *Game) Loop() *frame.Loop                  { return g.loop }
func (g *Game) Done() <-chan struct{}              { return g.quit }

// Run drives the frame loop until ctx is cancelled or a quit event arrives.
func (g *Game) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-g.quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	return g.loop.Run(ctx)
}

func (g *Game) Status() debug.Status {
	g.statusMu.Lock()
	defer g.statusMu.Unlock()
	return g.status
}

// Teleport schedules the actor to move onto the terrain at (x, y) on the
// next frame.
func (g *Game) Teleport(x, y float64) error {
	z, ok := g.level.HeightAt(x, y)
	if !ok {
		return fmt.Errorf("teleport to (%.2f, %.2f): %w", x, y, ErrOutsideTerrain)
	}
	if !g.loop.Do(func() {
		g.actor.Node.SetPosIn(g.root, mgl64.Vec3{x, y, z})
	}) {
		return fmt.Errorf("teleport to (%.2f, %.2f): frame task queue full", x, y)
	}
	return nil
}

func (g *Game) subscribe() {
	var names []string
	for _, sig := range intent.Signals() {
		names = append(names, sig.StartEvent(), sig.StopEvent())
	}
	g.bus.SubscribeAll(names, func(name string, _ any) {
		g.route(name)
	})
	g.bus.Subscribe(event.EventToggleDebug, func(any) {
		g.loop.Do(g.toggleDebug)
	})
	g.bus.Subscribe(event.EventQuit, func(any) {
		g.quitOnce.Do(func() { close(g.quit) })
	})
}

// route hands an intent event to the queue that owns its signal. Camera
// signals only steer the follow rig.
func (g *Game) route(name string) {
	cmd, ok := intent.ParseEvent(name)
	if !ok {
		return
	}
	if !cmd.Signal.IsCamera() {
		g.controller.Commands().Push(cmd)
		return
	}
	if g.follow == nil {
		slog.Debug("Camera intent ignored by attached rig", "event", name)
		return
	}
	g.follow.Commands().Push(cmd)
}

func (g *Game) toggleDebug() {
	g.controller.ToggleDebug()
	g.rig.ToggleDebug()
	g.world.ShowCollisions(!g.world.CollisionsShown())
	slog.Info("Debug visualization toggled", "collisions", g.world.CollisionsShown())
}

func (g *Game) publishTransition(ch anim.Change) {
	g.bus.Publish(event.EventAnimChange, event.AnimChangeEvent{
		From:  ch.From.String(),
		To:    ch.To.String(),
		Clip:  ch.Clip,
		Rate:  ch.Rate,
		Frame: g.loop.Frames() + 1,
	})
}

func (g *Game) recordStatus(frameNo uint64) {
	snap := g.actor.Snapshot(g.root)
	s := debug.Status{
		X:              snap.Position.X(),
		Y:              snap.Position.Y(),
		Z:              snap.Position.Z(),
		Heading:        snap.Heading,
		Clip:           snap.Clip,
		Rate:           snap.Rate,
		CameraMode:     g.cfg.Camera.Mode,
		CameraDistance: g.rig.Distance(g.root),
		Frame:          frameNo,
	}
	g.statusMu.Lock()
	g.status = s
	g.statusMu.Unlock()
}

func locomotionConfig(c config.CharacterConfig) locomotion.Config {
	cfg := locomotion.DefaultConfig()
	cfg.MoveSpeed = c.MoveSpeed
	cfg.TurnSpeed = c.TurnSpeed
	if c.GroundTag != "" {
		cfg.GroundTag = c.GroundTag
	}
	if c.IdleClip != "" {
		cfg.Clips.Idle = c.IdleClip
	}
	if c.RunClip != "" {
		cfg.Clips.Run = c.RunClip
	}
	return cfg
}

func followConfig(c config.Config) rig.FollowConfig {
	f := c.Camera.Follow
	cfg := rig.DefaultFollowConfig()
	cfg.MinRadius = f.MinRadius
	cfg.MaxRadius = f.MaxRadius
	cfg.TurnSpeed = f.TurnSpeed
	cfg.TerrainOffset = f.TerrainOffset
	cfg.TargetMargin = f.TargetMargin
	cfg.LookOffset = mgl64.Vec3{0, 0, f.LookHeight}
	if c.Character.GroundTag != "" {
		cfg.GroundTag = c.Character.GroundTag
	}
	return cfg
}

func attachedConfig(c config.Config) rig.AttachedConfig {
	a := c.Camera.Attached
	cfg := rig.DefaultAttachedConfig()
	cfg.Offset = mgl64.Vec3{0, 0, a.Height}
	cfg.MinDistance = a.MinDistance
	cfg.MaxDistance = a.MaxDistance
	cfg.SmoothingGain = a.SmoothingGain
	cfg.SmoothingCap = a.SmoothingCap
	cfg.IgnoreTags = a.IgnoreTags
	return cfg
}
