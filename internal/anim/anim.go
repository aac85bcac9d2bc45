package anim

import "github.com/Versifine/roam/internal/intent"

// Animator is the clip player the locomotion controller drives. Loop restarts
// the named clip and keeps it looping.
type Animator interface {
	Loop(clip string)
	SetPlayRate(rate float64, clip string)
}

type State int

const (
	Idle State = iota
	RunForward
	RunBackward
	TurningInPlace
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RunForward:
		return "run_forward"
	case RunBackward:
		return "run_backward"
	case TurningInPlace:
		return "turning_in_place"
	default:
		return "unknown"
	}
}

// Clips names the two clips every state maps onto.
type Clips struct {
	Idle string `yaml:"idle"`
	Run  string `yaml:"run"`
}

func DefaultClips() Clips {
	return Clips{Idle: "idle", Run: "run"}
}

// For returns the clip and playback rate that express s. Backward travel
// plays the run clip in reverse.
func (c Clips) For(s State) (string, float64) {
	switch s {
	case RunForward, TurningInPlace:
		return c.Run, 1
	case RunBackward:
		return c.Run, -1
	default:
		return c.Idle, 1
	}
}

type Change struct {
	From State
	To   State
	Clip string
	Rate float64
}

// Next computes the edge-triggered transition between two consecutive intent
// samples. Checks run in order, so starting to translate while also turning
// never selects TurningInPlace.
func Next(prev, cur intent.Motion) (State, bool) {
	switch {
	case cur.IsZero() && !prev.IsZero():
		return Idle, true
	case cur.Move[1] < 0 && prev.Move[1] == 0:
		return RunForward, true
	case cur.Move[1] > 0 && prev.Move[1] == 0:
		return RunBackward, true
	case cur.Turn != 0 && prev.Turn == 0 && !cur.Translating():
		return TurningInPlace, true
	}
	return 0, false
}

// Apply writes the clip for s to a.
func Apply(a Animator, clips Clips, s State) (string, float64) {
	clip, rate := clips.For(s)
	a.Loop(clip)
	a.SetPlayRate(rate, clip)
	return clip, rate
}
