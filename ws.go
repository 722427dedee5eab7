package walletd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zyedidia/generic/mapset"
)

// Feed pushes a wallet snapshot to every websocket client whenever the
// engine changes. It is the UI binding layer on top of Engine.Subscribe.
type Feed struct {
	engine      *Engine
	unsubscribe func()
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	clients mapset.Set[*websocket.Conn]
}

type walletSnapshot struct {
	Type      string      `json:"type"`
	Assets    []*Asset    `json:"assets"`
	Stats     WalletStats `json:"stats"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewFeed(engine *Engine) *Feed {
	f := &Feed{
		engine:  engine,
		clients: mapset.New[*websocket.Conn](),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	f.unsubscribe = engine.Subscribe(f.broadcast)
	return f
}

func (f *Feed) Close() {
	f.unsubscribe()
}

func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}

	f.mu.Lock()
	f.clients.Put(conn)
	n := f.clients.Size()
	f.mu.Unlock()

	slog.Info("wallet feed client connected", "clients", n)

	_ = conn.WriteJSON(f.snapshot())

	defer func() {
		f.mu.Lock()
		f.clients.Remove(conn)
		f.mu.Unlock()
		_ = conn.Close()
	}()

	// drain until disconnect; clients do not send anything we act on
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) snapshot() walletSnapshot {
	return walletSnapshot{
		Type:      "wallet",
		Assets:    f.engine.Assets(),
		Stats:     f.engine.Stats(),
		Timestamp: f.engine.clock.Now(),
	}
}

func (f *Feed) broadcast() {
	data, err := json.Marshal(f.snapshot())
	if err != nil {
		slog.Error("snapshot marshal failed", "err", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var dead []*websocket.Conn
	f.clients.Each(func(conn *websocket.Conn) {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			dead = append(dead, conn)
		}
	})

	for _, conn := range dead {
		f.clients.Remove(conn)
	}
}
