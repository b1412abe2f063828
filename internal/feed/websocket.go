package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// WSFeedConfig holds configuration for the websocket feed.
type WSFeedConfig struct {
	URL               string
	ReconnectInterval time.Duration
	MaxReconnects     int
	PingInterval      time.Duration
}

// DefaultWSFeedConfig returns the default websocket feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectInterval: 5 * time.Second,
		MaxReconnects:     10,
		PingInterval:      20 * time.Second,
	}
}

// WSFeed streams ticks from an external websocket endpoint. The wire format
// is a JSON object per message: {"symbol": "...", "price": 123.4}.
type WSFeed struct {
	cfg    WSFeedConfig
	logger zerolog.Logger
	dialer *websocket.Dialer

	mu         sync.RWMutex
	conn       *websocket.Conn
	symbols    []string
	handler    PriceCallback
	reconnects int
	cancel     context.CancelFunc
	done       chan struct{}
	started    bool
}

type wsTickMessage struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type wsSubscribeMessage struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// NewWSFeed creates a websocket-backed feed.
func NewWSFeed(cfg WSFeedConfig, logger zerolog.Logger) *WSFeed {
	def := DefaultWSFeedConfig()
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = def.ReconnectInterval
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = def.MaxReconnects
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = def.PingInterval
	}

	return &WSFeed{
		cfg:    cfg,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Subscribe registers symbols; if connected, a subscribe message is sent
// immediately, otherwise it goes out on the next (re)connect.
func (f *WSFeed) Subscribe(symbols []string) error {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbols...)
	conn := f.conn
	f.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(wsSubscribeMessage{Op: "subscribe", Symbols: symbols})
}

// OnTick registers the tick handler.
func (f *WSFeed) OnTick(handler PriceCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

// Start connects and launches the read loop with reconnection.
func (f *WSFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	f.mu.Unlock()

	if err := f.connect(); err != nil {
		f.mu.Lock()
		f.started = false
		f.mu.Unlock()
		f.cancel()
		close(f.done)
		return err
	}

	go f.run(ctx)
	return nil
}

// Stop closes the connection and terminates the read loop.
func (f *WSFeed) Stop() error {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = false
	cancel := f.cancel
	done := f.done
	conn := f.conn
	f.mu.Unlock()

	cancel()
	if conn != nil {
		conn.Close()
	}
	<-done
	return nil
}

func (f *WSFeed) connect() error {
	conn, _, err := f.dialer.Dial(f.cfg.URL, nil)
	if err != nil {
		return apperrors.ErrConnectionFailed
	}

	f.mu.Lock()
	f.conn = conn
	f.reconnects = 0
	symbols := f.symbols
	f.mu.Unlock()

	f.logger.Info().Str("url", f.cfg.URL).Msg("Feed connected")

	if len(symbols) > 0 {
		return conn.WriteJSON(wsSubscribeMessage{Op: "subscribe", Symbols: symbols})
	}
	return nil
}

func (f *WSFeed) run(ctx context.Context) {
	defer close(f.done)

	pinger := time.NewTicker(f.cfg.PingInterval)
	defer pinger.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pinger.C:
				f.mu.RLock()
				conn := f.conn
				f.mu.RUnlock()
				if conn != nil {
					conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !f.reconnect(ctx) {
				return
			}
			continue
		}

		var msg wsTickMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Symbol == "" {
			continue
		}

		f.mu.RLock()
		handler := f.handler
		f.mu.RUnlock()
		if handler != nil {
			handler(models.Tick{Symbol: msg.Symbol, LTP: msg.Price, Timestamp: time.Now()})
		}
	}
}

// reconnect retries the connection with a fixed interval up to the
// configured maximum. Returns false once the budget is exhausted.
func (f *WSFeed) reconnect(ctx context.Context) bool {
	for {
		f.mu.Lock()
		f.reconnects++
		attempts := f.reconnects
		f.mu.Unlock()

		if attempts > f.cfg.MaxReconnects {
			f.logger.Error().Int("attempts", attempts-1).Msg("Feed reconnect budget exhausted")
			return false
		}

		f.logger.Warn().Int("attempt", attempts).Msg("Feed disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return false
		case <-time.After(f.cfg.ReconnectInterval):
		}

		if err := f.connect(); err == nil {
			return true
		}
	}
}

// Ensure WSFeed implements Feed
var _ Feed = (*WSFeed)(nil)
