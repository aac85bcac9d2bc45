package event

import (
	"log/slog"
	"sync"
)

type HandlerFunc func(raw any)

// Bus delivers each published event to every handler subscribed to its name.
// Handlers run on their own goroutines.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
	}
}

func (b *Bus) Subscribe(eventName string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// SubscribeAll registers handler under every name in eventNames.
func (b *Bus) SubscribeAll(eventNames []string, handler func(name string, raw any)) {
	for _, name := range eventNames {
		b.Subscribe(name, func(raw any) { handler(name, raw) })
	}
}

func (b *Bus) Publish(eventName string, evt any) {
	b.mu.RLock()
	handlers := make([]HandlerFunc, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		slog.Debug("Event has no subscribers", "event", eventName)
		return
	}

	b.inflight.Add(len(handlers))
	for _, handler := range handlers {
		go func(h HandlerFunc) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Event handler panicked", "event", eventName, "panic", r)
				}
			}()
			h(evt)
		}(handler)
	}
}

// Wait blocks until every handler started by Publish so far has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}
