package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// latest is a one-slot mailbox holding the newest pending snapshot.
type latest chan view.Snapshot

// offer stores snap unless the slot already holds a newer version.
func (l latest) offer(snap view.Snapshot) {
	for {
		select {
		case l <- snap:
			return
		default:
		}
		select {
		case old := <-l:
			if old.Version > snap.Version {
				snap = old
			}
		default:
		}
	}
}

// stream sends a snapshot on connect and after every transition of the
// session. Only the latest pending snapshot is kept for slow clients.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("server: websocket upgrade", zap.Error(err))
		return
	}
	defer ws.Close() //nolint:errcheck

	updates := make(latest, 1)
	unsubscribe := c.Subscribe(updates.offer)
	defer unsubscribe()
	updates.offer(c.Snapshot())

	// The read loop only services control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var last uint64
	sent := false
	for {
		select {
		case snap := <-updates:
			if sent && snap.Version < last {
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(snap); err != nil {
				zap.L().Debug("server: websocket write", zap.Error(err))
				return
			}
			last, sent = snap.Version, true
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
