package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"lotto/domain/events"

	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Frame is the JSON message written to websocket clients
type Frame struct {
	Type string       `json:"type"`
	Data events.Event `json:"data"`
}

// FrameType returns the client facing name of an event
func FrameType(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeDraw:
		return "draw"
	case events.EventTypeSettlementResult:
		return "settlementResult"
	case events.EventTypeBetPlaced:
		return "betPlaced"
	case events.EventTypeBetCancelled:
		return "betCancelled"
	case events.EventTypeBalanceChange:
		return "balanceChange"
	default:
		return string(eventType)
	}
}

// WebsocketHub streams every broadcast event to connected websocket clients.
// Clients filter settlement results by their own player id.
type WebsocketHub struct {
	broadcaster    *Broadcaster
	originPatterns []string
	buffer         int
	writeTimeout   time.Duration
	connections    atomic.Uint64
}

// NewWebsocketHub creates a hub. buffer bounds each client's queue.
func NewWebsocketHub(broadcaster *Broadcaster, originPatterns []string, buffer int) *WebsocketHub {
	return &WebsocketHub{
		broadcaster:    broadcaster,
		originPatterns: originPatterns,
		buffer:         buffer,
		writeTimeout:   5 * time.Second,
	}
}

// ServeHTTP upgrades the request and streams events until either side goes away
func (h *WebsocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	name := fmt.Sprintf("ws-%d", h.connections.Add(1))
	sub, err := h.broadcaster.Subscribe(name, h.buffer)
	if err != nil {
		conn.Close(websocket.StatusTryAgainLater, "not accepting subscribers")
		return
	}
	defer sub.Close()

	log.WithFields(log.Fields{
		"subscriber": name,
		"remote":     r.RemoteAddr,
	}).Info("Websocket client connected")

	// Clients never send; CloseRead handles control frames and cancels ctx on disconnect
	ctx := conn.CloseRead(r.Context())

	if err := h.stream(ctx, conn, sub); err != nil {
		log.WithFields(log.Fields{
			"subscriber": name,
			"error":      err,
		}).Debug("Websocket stream ended")
	}
	log.WithField("subscriber", name).Info("Websocket client disconnected")
}

func (h *WebsocketHub) stream(ctx context.Context, conn *websocket.Conn, sub *Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			if err := h.write(ctx, conn, event); err != nil {
				return err
			}
		}
	}
}

func (h *WebsocketHub) write(ctx context.Context, conn *websocket.Conn, event events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()

	return wsjson.Write(writeCtx, conn, Frame{
		Type: FrameType(event.Type()),
		Data: event,
	})
}
