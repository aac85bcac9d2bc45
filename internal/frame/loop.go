// Package frame runs the per-frame update pipeline: locomotion, then the
// collision push-out traversal, then the camera rig.
package frame

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Versifine/roam/internal/scene"
)

const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultMaxDT        = 0.1
	taskChanSize        = 64
)

type Updater interface {
	Update(dt float64, root *scene.Node)
}

type UpdaterFunc func(dt float64, root *scene.Node)

func (f UpdaterFunc) Update(dt float64, root *scene.Node) { f(dt, root) }

// Traverser resolves registered pushers against the scene under root.
type Traverser interface {
	Traverse(root *scene.Node)
}

type Config struct {
	TickInterval time.Duration
	MaxDT        float64 // seconds; larger frame gaps are clamped
}

func DefaultConfig() Config {
	return Config{TickInterval: DefaultTickInterval, MaxDT: DefaultMaxDT}
}

type Loop struct {
	cfg        Config
	root       *scene.Node
	locomotion Updater
	pushes     Traverser
	camera     Updater

	tasks chan func()

	hookMu sync.Mutex
	after  []func(frame uint64)

	frames atomic.Uint64
}

func New(root *scene.Node, locomotion Updater, pushes Traverser, camera Updater, cfg Config) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.MaxDT <= 0 {
		cfg.MaxDT = DefaultMaxDT
	}
	return &Loop{
		cfg:        cfg,
		root:       root,
		locomotion: locomotion,
		pushes:     pushes,
		camera:     camera,
		tasks:      make(chan func(), taskChanSize),
	}
}

func (l *Loop) Root() *scene.Node { return l.root }
func (l *Loop) Frames() uint64    { return l.frames.Load() }

// Do schedules fn to run on the loop goroutine at the start of the next
// frame. It never blocks and reports false when the task queue is full.
func (l *Loop) Do(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		slog.Warn("Frame task queue full, dropping task")
		return false
	}
}

// AfterFrame registers fn to run on the loop goroutine after every frame.
func (l *Loop) AfterFrame(fn func(frame uint64)) {
	if fn == nil {
		return
	}
	l.hookMu.Lock()
	l.after = append(l.after, fn)
	l.hookMu.Unlock()
}

// Step advances one frame of dt seconds.
func (l *Loop) Step(dt float64) {
	l.runTasks()

	if dt < 0 {
		dt = 0
	}
	if dt > l.cfg.MaxDT {
		dt = l.cfg.MaxDT
	}

	if l.locomotion != nil {
		l.locomotion.Update(dt, l.root)
	}
	if l.pushes != nil {
		l.pushes.Traverse(l.root)
	}
	if l.camera != nil {
		l.camera.Update(dt, l.root)
	}

	frame := l.frames.Add(1)

	l.hookMu.Lock()
	hooks := append([]func(uint64){}, l.after...)
	l.hookMu.Unlock()
	for _, fn := range hooks {
		fn(frame)
	}
}

// Run steps the loop on a ticker until ctx is cancelled. dt is the monotonic
// time since the previous frame.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	slog.Info("Frame loop started", "tick", l.cfg.TickInterval, "max_dt", l.cfg.MaxDT)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Frame loop stopped", "frames", l.Frames())
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			l.Step(dt)
		}
	}
}

func (l *Loop) runTasks() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		default:
			return
		}
	}
}
