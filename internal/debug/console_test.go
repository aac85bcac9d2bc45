package debug

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Versifine/roam/internal/event"
)

type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) Publish(name string, evt any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, name)
}

func (b *recordingBus) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

type fakeState struct {
	status   Status
	tpX, tpY float64
	tpErr    error
	tpCalls  int
}

func (f *fakeState) Status() Status { return f.status }

func (f *fakeState) Teleport(x, y float64) error {
	f.tpCalls++
	f.tpX, f.tpY = x, y
	return f.tpErr
}

func newTestConsole() (*Console, *recordingBus, *fakeState, *bytes.Buffer) {
	bus := &recordingBus{}
	state := &fakeState{status: Status{Clip: "idle", Rate: 1, CameraMode: "follow", CameraDistance: 7}}
	c := NewConsole(bus, state, 100*time.Millisecond)
	var out bytes.Buffer
	c.out = &out
	return c, bus, state, &out
}

func press(c *Console, keys string) bool {
	reader := bufio.NewReader(strings.NewReader(keys))
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return true
		}
		if !c.handleKey(reader, b) {
			return false
		}
	}
}

func assertEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestPulseStartsOnceAndExpires(t *testing.T) {
	c, bus, _, _ := newTestConsole()

	press(c, "ww")
	assertEvents(t, bus.take(), "move-forward")

	c.expire(time.Now())
	assertEvents(t, bus.take())

	c.expire(time.Now().Add(time.Second))
	assertEvents(t, bus.take(), "move-forward-up")
}

func TestPulseReleasesOpposite(t *testing.T) {
	c, bus, _, _ := newTestConsole()

	press(c, "W")
	press(c, "s")

	assertEvents(t, bus.take(), "move-forward", "move-forward-up", "move-backward")
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want []string
	}{
		{"turn", "ad", []string{"turn-left", "turn-left-up", "turn-right"}},
		{"strafe", "qe", []string{"strafe-left", "strafe-left-up", "strafe-right"}},
		{"camera arrows", "\x1b[D\x1b[C", []string{"camera-left", "camera-left-up", "camera-right"}},
		{"up arrow ignored", "\x1b[A", nil},
		{"toggle debug", "v", []string{event.EventToggleDebug}},
		{"release all", "wax", []string{"move-forward", "turn-left", "move-forward-up", "turn-left-up"}},
		{"unbound key", "z", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus, _, _ := newTestConsole()
			press(c, tt.keys)
			assertEvents(t, bus.take(), tt.want...)
		})
	}
}

func TestCtrlCQuitsAndReleases(t *testing.T) {
	c, bus, _, _ := newTestConsole()

	if !press(c, "w") {
		t.Fatal("w should not quit")
	}
	if press(c, "\x03") {
		t.Fatal("Ctrl-C should quit")
	}
	assertEvents(t, bus.take(), "move-forward", "move-forward-up", event.EventQuit)
}

func TestCommandMode(t *testing.T) {
	c, bus, state, out := newTestConsole()

	press(c, ":tp 3 -4.5\r")
	if state.tpCalls != 1 || state.tpX != 3 || state.tpY != -4.5 {
		t.Fatalf("teleport = %d calls (%v,%v)", state.tpCalls, state.tpX, state.tpY)
	}

	press(c, ":tp 1\r")
	if state.tpCalls != 1 || !strings.Contains(out.String(), "usage: :tp") {
		t.Fatalf("bad tp args should print usage, out = %q", out.String())
	}

	state.tpErr = errors.New("outside terrain")
	press(c, ":tp 100 100\r")
	if !strings.Contains(out.String(), "tp failed: outside terrain") {
		t.Fatalf("out = %q", out.String())
	}

	press(c, ":w\x7f\x7fstate\r")
	if !strings.Contains(out.String(), "clip=idle") {
		t.Fatalf("state output missing, out = %q", out.String())
	}
	assertEvents(t, bus.take())

	if press(c, ":quit\r") {
		t.Fatal(":quit should stop the console")
	}
	assertEvents(t, bus.take(), event.EventQuit)
}

func TestCommandModeEscCancels(t *testing.T) {
	c, bus, state, _ := newTestConsole()
	press(c, ":tp 1 1\x1bw")
	if state.tpCalls != 0 {
		t.Fatalf("cancelled command ran")
	}
	assertEvents(t, bus.take(), "move-forward")
}

func TestStatusLine(t *testing.T) {
	c, _, state, _ := newTestConsole()
	state.status = Status{X: 1, Y: 2, Z: 3.5, Heading: 180, Clip: "run", Rate: -1, CameraMode: "attached", CameraDistance: 7.6}
	press(c, "s")

	line := c.statusLine()
	for _, want := range []string{"run x-1", "Z:3.50", "H:180.0", "CAM:attached 7.60", "held:move-backward"} {
		if !strings.Contains(line, want) {
			t.Fatalf("status line %q missing %q", line, want)
		}
	}
}
