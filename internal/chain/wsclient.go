package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadLimit        = 1 << 20 // 1MB per frame
	wsPingInterval     = 25 * time.Second
	wsPongWait         = 60 * time.Second
	wsEventBuffer      = 256
)

// eventSubscription is a websocket-backed push feed of protocol events.
type eventSubscription struct {
	conn   *websocket.Conn
	events chan RawEvent
	errc   chan error
	done   chan struct{}
}

// dialEventSubscription opens the websocket, sends the subscribe request and
// starts the read pump.
func dialEventSubscription(ctx context.Context, wsURL, packageID string) (Subscription, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrPushUnsupported, wsURL, err)
	}

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "subscribeEvent",
		"params":  []any{map[string]any{"MoveModule": map[string]any{"package": packageID, "module": "events"}}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe: %v", ErrPushUnsupported, err)
	}

	// First frame is the subscription confirmation.
	conn.SetReadDeadline(time.Now().Add(wsHandshakeTimeout))
	var ack struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe ack: %v", ErrPushUnsupported, err)
	}
	if ack.Error != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe rejected: %s", ErrPushUnsupported, ack.Error.Message)
	}

	s := &eventSubscription{
		conn:   conn,
		events: make(chan RawEvent, wsEventBuffer),
		errc:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go s.readPump()
	go s.pingPump()
	return s, nil
}

func (s *eventSubscription) Events() <-chan RawEvent { return s.events }
func (s *eventSubscription) Err() <-chan error       { return s.errc }

func (s *eventSubscription) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
		s.conn.Close()
	}
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result RawEvent `json:"result"`
	} `json:"params"`
}

func (s *eventSubscription) readPump() {
	defer close(s.events)
	s.conn.SetReadLimit(wsReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case s.errc <- err:
			default:
			}
			return
		}
		var note wsNotification
		if err := json.Unmarshal(msg, &note); err != nil {
			log.Printf("chain: ws: dropping undecodable frame: %v", err)
			continue
		}
		if note.Method == "" {
			// Response frame (e.g. unsubscribe ack), not a notification.
			continue
		}
		select {
		case s.events <- note.Params.Result:
		case <-s.done:
			return
		}
	}
}

func (s *eventSubscription) pingPump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(wsHandshakeTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
