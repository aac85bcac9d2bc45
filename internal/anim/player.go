package anim

import "sync"

// Player is an Animator that only records what it was asked to play.
type Player struct {
	mu      sync.Mutex
	clip    string
	rates   map[string]float64
	history []string
}

var _ Animator = (*Player)(nil)

func NewPlayer() *Player {
	return &Player{rates: make(map[string]float64)}
}

func (p *Player) Loop(clip string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clip = clip
	p.history = append(p.history, clip)
}

func (p *Player) SetPlayRate(rate float64, clip string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[clip] = rate
}

// Current returns the looping clip and its playback rate.
func (p *Player) Current() (string, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rate, ok := p.rates[p.clip]
	if !ok {
		rate = 1
	}
	return p.clip, rate
}

func (p *Player) History() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.history...)
}
