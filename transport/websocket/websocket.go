// Package websocket is the default transport.Sender implementation,
// carrying the wamp.2.json subprotocol over a real WebSocket connection
// via gorilla/websocket — the same library nexus's own transport layer and
// politeiawww's websockets package are built on.
package websocket

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/recordevolution/wampcore/transport"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Subprotocol is the WebSocket subprotocol token this transport
// negotiates, per spec §6.
const Subprotocol = "wamp.2.json"

// Transport adapts a gorilla/websocket connection to transport.Sender. A
// single read loop goroutine classifies inbound frames and drives the
// configured transport.Listener; writes are serialized with writeMu since
// gorilla/websocket forbids concurrent writers on one connection.
type Transport struct {
	conn     *gorilla.Conn
	listener transport.Listener

	writeMu  sync.Mutex
	closeMu  sync.Mutex
	closed   bool
}

// Dial opens a WebSocket connection to url advertising the wamp.2.json
// subprotocol, and starts the read loop that drives listener. The caller
// owns the returned *Transport and must eventually Close it.
func Dial(ctx context.Context, url string, tlsCfg *tls.Config, listener transport.Listener) (*Transport, error) {
	dialer := gorilla.Dialer{
		Subprotocols:    []string{Subprotocol},
		TLSClientConfig: tlsCfg,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket: dial %s: %w", url, err)
	}
	if resp != nil && conn.Subprotocol() != Subprotocol {
		_ = conn.Close()
		return nil, fmt.Errorf("websocket: router did not negotiate %s (got %q)", Subprotocol, conn.Subprotocol())
	}

	t := &Transport{conn: conn, listener: listener}
	listener.OnOpen()

	go t.readLoop()

	return t, nil
}

// Send transmits text as a single WebSocket text frame.
func (t *Transport) Send(text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(gorilla.TextMessage, []byte(text))
}

// Close initiates the close handshake with the given WebSocket close code
// and reason, then tears down the underlying connection. Close is
// idempotent.
func (t *Transport) Close(code int, reason string) error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	t.writeMu.Lock()
	deadline := gorilla.FormatCloseMessage(code, reason)
	_ = t.conn.WriteMessage(gorilla.CloseMessage, deadline)
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *Transport) readLoop() {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				t.listener.OnClosed(gorilla.CloseNormalClosure, "")
				return
			}
			log.Debug().Err(err).Msg("websocket read loop terminated")
			t.listener.OnFailure(err)
			return
		}

		switch msgType {
		case gorilla.TextMessage:
			t.listener.OnText(string(data))
		case gorilla.BinaryMessage:
			t.listener.OnBinary(data)
		case gorilla.CloseMessage:
			t.listener.OnClosing(gorilla.CloseNormalClosure, string(data))
		}
	}
}
