package intent

import "log/slog"

const DefaultQueueSize = 64

// Queue carries commands from input callbacks to the frame update that owns
// the Accumulator. Push never blocks.
type Queue struct {
	ch chan Command
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Command, size)}
}

// Push reports false when the queue is full and the command was dropped.
func (q *Queue) Push(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		slog.Warn("Intent queue full, dropping command", "signal", cmd.Signal.String(), "pressed", cmd.Pressed)
		return false
	}
}

func (q *Queue) Press(s Signal)   { q.Push(Command{Signal: s, Pressed: true}) }
func (q *Queue) Release(s Signal) { q.Push(Command{Signal: s, Pressed: false}) }

// Drain applies every pending command to acc and returns how many were read.
func (q *Queue) Drain(acc *Accumulator) int {
	n := 0
	for {
		select {
		case cmd := <-q.ch:
			acc.Apply(cmd)
			n++
		default:
			return n
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }
