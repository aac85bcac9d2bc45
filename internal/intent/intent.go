package intent

import (
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Motion is accumulated movement intent. Move.X is lateral (+ = left),
// Move.Y is the forward axis (- = forward travel, + = backward travel) and
// Turn is signed yaw intent (+ = left).
type Motion struct {
	Move mgl64.Vec2
	Turn float64
}

func (m Motion) IsZero() bool {
	return m.Move[0] == 0 && m.Move[1] == 0 && m.Turn == 0
}

func (m Motion) Translating() bool {
	return m.Move[0] != 0 || m.Move[1] != 0
}

type Signal int

const (
	MoveForward Signal = iota
	MoveBackward
	StrafeLeft
	StrafeRight
	TurnLeft
	TurnRight
	CameraLeft
	CameraRight
	signalCount
)

// stopSuffix marks the release event of a signal, e.g. "turn-left-up".
const stopSuffix = "-up"

var signalNames = [signalCount]string{
	MoveForward:  "move-forward",
	MoveBackward: "move-backward",
	StrafeLeft:   "strafe-left",
	StrafeRight:  "strafe-right",
	TurnLeft:     "turn-left",
	TurnRight:    "turn-right",
	CameraLeft:   "camera-left",
	CameraRight:  "camera-right",
}

var contributions = [signalCount]Motion{
	MoveForward:  {Move: mgl64.Vec2{0, -1}},
	MoveBackward: {Move: mgl64.Vec2{0, 1}},
	StrafeLeft:   {Move: mgl64.Vec2{1, 0}},
	StrafeRight:  {Move: mgl64.Vec2{-1, 0}},
	TurnLeft:     {Turn: 1},
	TurnRight:    {Turn: -1},
	CameraLeft:   {Turn: 1},
	CameraRight:  {Turn: -1},
}

func (s Signal) String() string {
	if s < 0 || s >= signalCount {
		return "unknown"
	}
	return signalNames[s]
}

func (s Signal) StartEvent() string { return s.String() }
func (s Signal) StopEvent() string  { return s.String() + stopSuffix }
func (s Signal) IsCamera() bool     { return s == CameraLeft || s == CameraRight }

// Contribution is what holding s adds to a Motion.
func (s Signal) Contribution() Motion {
	if s < 0 || s >= signalCount {
		return Motion{}
	}
	return contributions[s]
}

func Signals() []Signal {
	out := make([]Signal, 0, signalCount)
	for s := Signal(0); s < signalCount; s++ {
		out = append(out, s)
	}
	return out
}

type Command struct {
	Signal  Signal
	Pressed bool
}

// ParseEvent maps a named input event ("turn-left", "turn-left-up") to a command.
func ParseEvent(name string) (Command, bool) {
	pressed := true
	if base, ok := strings.CutSuffix(name, stopSuffix); ok {
		name = base
		pressed = false
	}
	for s, n := range signalNames {
		if n == name {
			return Command{Signal: Signal(s), Pressed: pressed}, true
		}
	}
	return Command{}, false
}

// Accumulator tracks which signals are held. Start and stop are
// level-triggered: a repeated start or a stop with no matching start is
// dropped, so the resulting Motion is always the sum of the signals that are
// currently held.
type Accumulator struct {
	held [signalCount]bool
}

// Apply reports whether cmd changed the held set.
func (a *Accumulator) Apply(cmd Command) bool {
	if cmd.Signal < 0 || cmd.Signal >= signalCount {
		return false
	}
	if a.held[cmd.Signal] == cmd.Pressed {
		if !cmd.Pressed {
			slog.Debug("Dropping unpaired stop event", "signal", cmd.Signal.String())
		}
		return false
	}
	a.held[cmd.Signal] = cmd.Pressed
	return true
}

func (a *Accumulator) Held(s Signal) bool {
	if s < 0 || s >= signalCount {
		return false
	}
	return a.held[s]
}

func (a *Accumulator) Motion() Motion {
	var m Motion
	for s, on := range a.held {
		if !on {
			continue
		}
		c := contributions[s]
		m.Move = m.Move.Add(c.Move)
		m.Turn += c.Turn
	}
	return m
}

func (a *Accumulator) Reset() {
	a.held = [signalCount]bool{}
}
