package feed

import (
	"fmt"
	"sync"
	"time"

	"paper-trader/internal/models"
)

// HubConfig holds configuration for the tick hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Hub fans ticks from a single feed out to multiple consumers via channels.
// Slow consumers have ticks dropped rather than blocking the feed.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	tickChan    chan models.Tick
	done        chan struct{}
	started     bool

	ticksReceived uint64
	ticksDropped  uint64
}

type subscriber struct {
	id      string
	channel chan models.Tick
	created time.Time
}

// NewHub creates a new tick hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new tick hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*subscriber),
		tickChan:    make(chan models.Tick, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins the broadcast loop. Safe to call once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop()
}

// Stop terminates the broadcast loop and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return
	}
	h.started = false
	close(h.done)

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.channel)
		}
		delete(h.subscribers, symbol)
	}
}

// Publish queues a tick for broadcast. Ticks are dropped when the internal
// buffer is full.
func (h *Hub) Publish(tick models.Tick) {
	select {
	case h.tickChan <- tick:
	default:
		h.mu.Lock()
		h.ticksDropped++
		h.mu.Unlock()
	}
}

// Subscribe returns a channel receiving all ticks for the symbol.
func (h *Hub) Subscribe(symbol string) <-chan models.Tick {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{
		id:      fmt.Sprintf("%s-%d", symbol, time.Now().UnixNano()),
		channel: make(chan models.Tick, h.config.SubscriberBufferSize),
		created: time.Now(),
	}
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	return sub.channel
}

func (h *Hub) broadcastLoop() {
	for {
		select {
		case <-h.done:
			return
		case tick := <-h.tickChan:
			h.broadcast(tick)
		}
	}
}

func (h *Hub) broadcast(tick models.Tick) {
	h.mu.RLock()
	subs := h.subscribers[tick.Symbol]
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- tick:
		default:
			h.mu.Lock()
			h.ticksDropped++
			h.mu.Unlock()
		}
	}

	h.mu.Lock()
	h.ticksReceived++
	h.mu.Unlock()
}

// Stats returns received and dropped tick counts.
func (h *Hub) Stats() (received, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ticksReceived, h.ticksDropped
}
