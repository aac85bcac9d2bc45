package event

const (
	EventToggleDebug = "toggle-debug-vis"
	EventQuit        = "quit"
	EventAnimChange  = "anim.change"
)

// AnimChangeEvent is published after every locomotion clip transition.
type AnimChangeEvent struct {
	From  string
	To    string
	Clip  string
	Rate  float64
	Frame uint64
}
