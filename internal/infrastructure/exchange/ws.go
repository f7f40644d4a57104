package exchange

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PriceFeed keeps a live map of mid prices from the allMids websocket
// channel. It backs the status endpoint only; order placement always fetches
// fresh REST data, so a lagging feed can never misprice an order.
type PriceFeed struct {
	wsURL  string
	logger *zap.Logger

	mu      sync.RWMutex
	mids    map[string]float64
	updated time.Time

	conn *websocket.Conn
	done chan struct{}
}

func NewPriceFeed(wsURL string, logger *zap.Logger) *PriceFeed {
	return &PriceFeed{
		wsURL:  wsURL,
		logger: logger,
		mids:   make(map[string]float64),
		done:   make(chan struct{}),
	}
}

// Start dials the websocket and runs the read loop in the background,
// redialing with a growing pause until Close is called.
func (f *PriceFeed) Start() {
	go f.run()
}

func (f *PriceFeed) run() {
	backoff := time.Second
	for {
		select {
		case <-f.done:
			return
		default:
		}

		conn, err := f.connect()
		if err != nil {
			f.logger.Warn("Price feed dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-time.After(backoff):
			case <-f.done:
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		f.readLoop(conn)
	}
}

func (f *PriceFeed) connect() (*websocket.Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		return nil, err
	}
	sub := map[string]any{
		"method": "subscribe",
		"subscription": map[string]any{
			"type": "allMids",
		},
	}
	if err := c.WriteJSON(sub); err != nil {
		c.Close()
		return nil, err
	}
	f.mu.Lock()
	f.conn = c
	f.mu.Unlock()
	return c, nil
}

// readLoop consumes one connection until it dies. The connection is passed
// in rather than read from the shared field, which Close may nil out
// concurrently.
func (f *PriceFeed) readLoop(c *websocket.Conn) {
	defer func() {
		c.Close()
		f.mu.Lock()
		if f.conn == c {
			f.conn = nil
		}
		f.mu.Unlock()
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
			default:
				f.logger.Warn("Price feed read error", zap.Error(err))
			}
			return
		}

		var event struct {
			Channel string `json:"channel"`
			Data    struct {
				Mids map[string]string `json:"mids"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			f.logger.Debug("Price feed unmarshal error", zap.Error(err))
			continue
		}
		if event.Channel != "allMids" {
			continue
		}

		f.mu.Lock()
		for symbol, px := range event.Data.Mids {
			if strings.HasPrefix(symbol, "@") {
				continue
			}
			if v, err := strconv.ParseFloat(px, 64); err == nil {
				f.mids[symbol] = v
			}
		}
		f.updated = time.Now()
		f.mu.Unlock()
	}
}

// Mid returns the last seen mid price for a symbol.
func (f *PriceFeed) Mid(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.mids[symbol]
	return v, ok
}

// Snapshot returns a copy of all known mids and the last update time.
func (f *PriceFeed) Snapshot() (map[string]float64, time.Time) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]float64, len(f.mids))
	for k, v := range f.mids {
		out[k] = v
	}
	return out, f.updated
}

// Close stops the feed and closes the connection.
func (f *PriceFeed) Close() {
	close(f.done)
	f.mu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.mu.Unlock()
}
