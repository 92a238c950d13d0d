// Package wsconn opens the client WebSocket connection and exposes it as an
// inbound event stream plus an outbound Send.
package wsconn

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/z0gSh1u/wscrab/internal/frame"
)

// writeWait bounds every write, data and control alike.
var writeWait = 5 * time.Second

// Event is one item of the inbound stream: a frame, or the terminal read
// error. The stream is closed after a Close frame or an error.
type Event struct {
	Frame frame.Frame
	Err   error
}

// Conn is the transport handle for one session.
type Conn struct {
	ws     *websocket.Conn
	events chan Event

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:     ws,
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	// Ping and pong are surfaced to the session instead of being answered
	// here; the session sends the pong reply itself.
	ws.SetPingHandler(func(data string) error {
		c.emit(Event{Frame: frame.NewPing([]byte(data))})
		return nil
	})
	ws.SetPongHandler(func(data string) error {
		c.emit(Event{Frame: frame.NewPong([]byte(data))})
		return nil
	})
	go c.readLoop()
	return c
}

// Inbound returns the receive half.
func (c *Conn) Inbound() <-chan Event { return c.events }

// Subprotocol returns the negotiated subprotocol, if any.
func (c *Conn) Subprotocol() string { return c.ws.Subprotocol() }

func (c *Conn) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				c.emit(Event{Frame: frame.NewClose(ce.Code, ce.Text)})
				return
			}
			c.emit(Event{Err: err})
			return
		}

		var f frame.Frame
		if msgType == websocket.TextMessage {
			f = frame.Frame{Kind: frame.Text, Payload: data}
		} else {
			f = frame.NewBinary(data)
		}
		if !c.emit(Event{Frame: f}) {
			return
		}
	}
}

// Send writes one frame. Data frames must only be sent from one goroutine;
// control frames may be sent from anywhere.
func (c *Conn) Send(f frame.Frame) error {
	switch f.Kind {
	case frame.Text:
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		return c.ws.WriteMessage(websocket.TextMessage, f.Payload)
	case frame.Binary:
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		return c.ws.WriteMessage(websocket.BinaryMessage, f.Payload)
	case frame.Ping:
		return c.ws.WriteControl(websocket.PingMessage, f.Payload, time.Now().Add(writeWait))
	case frame.Pong:
		return c.ws.WriteControl(websocket.PongMessage, f.Payload, time.Now().Add(writeWait))
	case frame.Close:
		code := f.Code
		if code == 0 {
			code = websocket.CloseNormalClosure
		}
		msg := websocket.FormatCloseMessage(code, f.Reason)
		return c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	return errors.New("wsconn: unknown frame kind " + f.Kind.String())
}

// Close releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// IsClosed reports whether a Send error means the connection is gone, as
// opposed to a failure of that single frame.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	// a timed out write leaves the frame half sent; the stream is unusable
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
