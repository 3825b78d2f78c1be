package comfy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Listener mirrors the backend's push events into the log. Push delivery is
// best-effort and purely for progress observability; job completion is
// always decided by Client.Poll.
type Listener struct {
	wsURL  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewListener builds a Listener for the backend behind baseURL, scoped to
// the given client (session) id.
func NewListener(baseURL, clientID string, logger *slog.Logger) *Listener {
	ws := strings.Replace(baseURL, "http://", "ws://", 1)
	ws = strings.Replace(ws, "https://", "wss://", 1)
	return &Listener{
		wsURL:  ws + "/ws?clientId=" + url.QueryEscape(clientID),
		logger: logger,
	}
}

type pushEvent struct {
	Type string `json:"type"`
	Data struct {
		Node     *string `json:"node"`
		PromptID string  `json:"prompt_id"`
		Value    int     `json:"value"`
		Max      int     `json:"max"`
	} `json:"data"`
}

// Listen connects and consumes events until the context ends or the
// connection drops. A dropped connection is not an error condition for the
// batch; callers just lose progress visibility.
func (l *Listener) Listen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.wsURL, nil)
	if err != nil {
		return fmt.Errorf("push listener dial: %w", err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("push listener read: %w", err)
		}

		var ev pushEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue // binary preview frames and other non-JSON payloads
		}
		switch ev.Type {
		case "progress":
			l.logger.Debug("backend progress", "value", ev.Data.Value, "max", ev.Data.Max)
		case "executing":
			if ev.Data.Node != nil {
				l.logger.Debug("backend executing", "node", *ev.Data.Node, "prompt_id", ev.Data.PromptID)
			}
		case "execution_error":
			l.logger.Warn("backend reported execution error", "prompt_id", ev.Data.PromptID)
		}
	}
}

// Close tears down the connection, unblocking Listen.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}
