package exchange

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// midsServer upgrades every connection and immediately pushes one allMids
// frame, then holds the connection open until the client drops it.
func midsServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		// Drain the subscribe request.
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		frame := `{"channel":"allMids","data":{"mids":{"BTC":"43250.5","ETH":"2500.5","@107":"1.0"}}}`
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForMid(t *testing.T, feed *PriceFeed, symbol string) float64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := feed.Mid(symbol); ok {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no mid for %s before deadline", symbol)
	return 0
}

func TestPriceFeed_ReceivesMids(t *testing.T) {
	srv := midsServer(t)
	defer srv.Close()

	feed := NewPriceFeed(wsURL(srv), zap.NewNop())
	feed.Start()
	defer feed.Close()

	if v := waitForMid(t, feed, "BTC"); v != 43250.5 {
		t.Errorf("expected BTC mid 43250.5, got %v", v)
	}
	mids, updated := feed.Snapshot()
	if updated.IsZero() {
		t.Error("expected a non-zero update time")
	}
	if _, ok := mids["@107"]; ok {
		t.Error("index symbols must be filtered out")
	}
	if mids["ETH"] != 2500.5 {
		t.Errorf("expected ETH mid 2500.5, got %v", mids["ETH"])
	}
}

func TestPriceFeed_CloseWhileReading(t *testing.T) {
	// Closing must not race the read loop's use of the connection, even when
	// the loop is mid-read or between frames.
	for i := 0; i < 20; i++ {
		srv := midsServer(t)
		feed := NewPriceFeed(wsURL(srv), zap.NewNop())
		feed.Start()
		waitForMid(t, feed, "BTC")
		feed.Close()
		srv.Close()
	}
}
