package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/roam/internal/event"
	"github.com/Versifine/roam/internal/intent"
	"golang.org/x/term"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMovePulse    = 180 * time.Millisecond
)

type Publisher interface {
	Publish(eventName string, evt any)
}

// Status is the latest frame state shown on the status line.
type Status struct {
	X, Y, Z        float64
	Heading        float64
	Clip           string
	Rate           float64
	CameraMode     string
	CameraDistance float64
	Frame          uint64
}

type StateProvider interface {
	Status() Status
	Teleport(x, y float64) error
}

var keySignals = map[byte]intent.Signal{
	'w': intent.MoveForward,
	's': intent.MoveBackward,
	'a': intent.TurnLeft,
	'd': intent.TurnRight,
	'q': intent.StrafeLeft,
	'e': intent.StrafeRight,
}

var arrowSignals = map[byte]intent.Signal{
	'D': intent.CameraLeft,
	'C': intent.CameraRight,
}

var opposite = map[intent.Signal]intent.Signal{
	intent.MoveForward:  intent.MoveBackward,
	intent.MoveBackward: intent.MoveForward,
	intent.TurnLeft:     intent.TurnRight,
	intent.TurnRight:    intent.TurnLeft,
	intent.StrafeLeft:   intent.StrafeRight,
	intent.StrafeRight:  intent.StrafeLeft,
	intent.CameraLeft:   intent.CameraRight,
	intent.CameraRight:  intent.CameraLeft,
}

// Console turns raw terminal key presses into intent events on the bus.
// Terminals report no key release, so every press holds its signal for one
// move pulse and the matching stop event is published when the pulse lapses.
type Console struct {
	bus          Publisher
	state        StateProvider
	out          io.Writer
	tickInterval time.Duration
	movePulse    time.Duration

	mu          sync.Mutex
	until       map[intent.Signal]time.Time
	commandMode bool
	commandBuf  []rune
	statusWidth int

	restoreOnce sync.Once
	restore     func()
}

func NewConsole(bus Publisher, state StateProvider, movePulse time.Duration) *Console {
	if movePulse <= 0 {
		movePulse = defaultMovePulse
	}
	return &Console{
		bus:          bus,
		state:        state,
		out:          os.Stdout,
		tickInterval: defaultTickInterval,
		movePulse:    movePulse,
		until:        make(map[intent.Signal]time.Time),
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.bus == nil {
		return fmt.Errorf("console bus is nil")
	}
	if c.state == nil {
		return fmt.Errorf("console state provider is nil")
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("console needs a terminal on stdin")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	c.mu.Lock()
	c.restore = func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}
	c.mu.Unlock()
	defer c.Close()

	fmt.Fprint(c.out, "[debug] console started (W/S move, A/D turn, Q/E strafe, arrows camera, V debug, X release, : command)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if !c.handleKey(reader, b) {
			return nil
		}
	}
}

// Close restores the terminal. A read blocked in Start is not interrupted,
// so callers that stop on ctx call Close before exiting.
func (c *Console) Close() {
	c.mu.Lock()
	restore := c.restore
	c.mu.Unlock()
	if restore == nil {
		return
	}
	c.restoreOnce.Do(restore)
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.releaseAll()
			return
		case now := <-ticker.C:
			c.expire(now)
			c.renderStatusLine()
		}
	}
}

// handleKey reacts to one input byte. It returns false once the user quits.
func (c *Console) handleKey(reader *bufio.Reader, b byte) bool {
	if c.isCommandMode() {
		return c.handleCommandByte(b)
	}

	switch b {
	case 3: // Ctrl-C
		c.quit()
		return false
	case ':':
		c.enterCommandMode()
		return true
	case 'v', 'V':
		c.bus.Publish(event.EventToggleDebug, nil)
	case 'x', 'X':
		c.releaseAll()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return true
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return true
		}
		if sig, ok := arrowSignals[arrow]; ok {
			c.pulse(sig, time.Now())
		}
	default:
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if sig, ok := keySignals[b]; ok {
			c.pulse(sig, time.Now())
		}
	}
	c.renderStatusLine()
	return true
}

// pulse holds sig until now+movePulse, publishing its start event only when
// it was not already held. The opposite signal is released first.
func (c *Console) pulse(sig intent.Signal, now time.Time) {
	c.mu.Lock()
	var events []string
	if opp, ok := opposite[sig]; ok {
		if _, held := c.until[opp]; held {
			delete(c.until, opp)
			events = append(events, opp.StopEvent())
		}
	}
	if _, held := c.until[sig]; !held {
		events = append(events, sig.StartEvent())
	}
	c.until[sig] = now.Add(c.movePulse)
	c.mu.Unlock()

	for _, name := range events {
		c.bus.Publish(name, nil)
	}
}

func (c *Console) expire(now time.Time) {
	c.mu.Lock()
	var events []string
	for _, sig := range intent.Signals() {
		until, held := c.until[sig]
		if held && !now.Before(until) {
			delete(c.until, sig)
			events = append(events, sig.StopEvent())
		}
	}
	c.mu.Unlock()

	for _, name := range events {
		c.bus.Publish(name, nil)
	}
}

func (c *Console) releaseAll() {
	c.mu.Lock()
	var events []string
	for _, sig := range intent.Signals() {
		if _, held := c.until[sig]; held {
			events = append(events, sig.StopEvent())
		}
	}
	clear(c.until)
	c.mu.Unlock()

	for _, name := range events {
		c.bus.Publish(name, nil)
	}
}

func (c *Console) quit() {
	c.releaseAll()
	slog.Info("Console quit requested")
	c.bus.Publish(event.EventQuit, nil)
}

func (c *Console) held() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for _, sig := range intent.Signals() {
		if _, ok := c.until[sig]; ok {
			names = append(names, sig.String())
		}
	}
	return names
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) bool {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" && !c.executeCommand(cmd) {
			return false
		}
		c.renderStatusLine()
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
	default:
		if b < 32 || b > 126 {
			return true
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
	return true
}

// executeCommand runs one ':' command. It returns false for :quit.
func (c *Console) executeCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		s := c.state.Status()
		fmt.Fprintf(c.out, "[debug] frame=%d pos=(%.3f,%.3f,%.3f) h=%.1f clip=%s rate=%.0f camera=%s dist=%.2f held=%v\r\n",
			s.Frame, s.X, s.Y, s.Z, s.Heading, s.Clip, s.Rate, s.CameraMode, s.CameraDistance, c.held())
	case "tp":
		if len(parts) != 3 {
			fmt.Fprint(c.out, "[debug] usage: :tp <x> <y>\r\n")
			return true
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			fmt.Fprint(c.out, "[debug] invalid tp args\r\n")
			return true
		}
		if err := c.state.Teleport(x, y); err != nil {
			fmt.Fprintf(c.out, "[debug] tp failed: %v\r\n", err)
			return true
		}
		fmt.Fprintf(c.out, "[debug] tp to (%.3f, %.3f)\r\n", x, y)
	case "quit", "q":
		c.quit()
		return false
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprint(c.out, "  W/S: move forward/backward (pulse)\r\n")
	fmt.Fprint(c.out, "  A/D: turn left/right (pulse)\r\n")
	fmt.Fprint(c.out, "  Q/E: strafe left/right (pulse)\r\n")
	fmt.Fprint(c.out, "  Arrow Left/Right: orbit camera\r\n")
	fmt.Fprint(c.out, "  V: toggle collision probe visibility\r\n")
	fmt.Fprint(c.out, "  X: release all held input\r\n")
	fmt.Fprint(c.out, "  Ctrl-C: quit\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :tp <x> <y>\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
	fmt.Fprint(c.out, "  :quit\r\n")
}

func (c *Console) statusLine() string {
	s := c.state.Status()
	return fmt.Sprintf(
		"[%s x%.0f | X:%.2f Y:%.2f Z:%.2f H:%.1f | CAM:%s %.2f | held:%s]",
		s.Clip,
		s.Rate,
		s.X,
		s.Y,
		s.Z,
		s.Heading,
		s.CameraMode,
		s.CameraDistance,
		strings.Join(c.held(), ","),
	)
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	width := c.statusWidth
	c.mu.Unlock()

	line := c.statusLine()
	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}
