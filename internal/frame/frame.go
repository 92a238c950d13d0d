// Package frame holds the values exchanged between the session loop, the
// slash interpreter and the transport: WebSocket frames and the control
// commands a user can type.
package frame

import "fmt"

// Kind discriminates the frame variants.
type Kind int

const (
	Text Kind = iota + 1
	Binary
	Ping
	Pong
	Close
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Binary:
		return "binary"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	case Close:
		return "close"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Close status codes used by the client (RFC 6455 section 7.4.1).
const (
	CloseNormal     = 1000
	CloseNoStatus   = 1005
	CloseAbnormal   = 1006
	MaxControlBytes = 125
)

// Frame is one WebSocket message. Code and Reason are only meaningful for
// Close frames; a Close with Code 0 carries no status.
type Frame struct {
	Kind    Kind
	Payload []byte
	Code    int
	Reason  string
}

func NewText(s string) Frame { return Frame{Kind: Text, Payload: []byte(s)} }

func NewBinary(b []byte) Frame { return Frame{Kind: Binary, Payload: b} }

func NewPing(b []byte) Frame { return Frame{Kind: Ping, Payload: b} }

func NewPong(b []byte) Frame { return Frame{Kind: Pong, Payload: b} }

func NewClose(code int, reason string) Frame {
	return Frame{Kind: Close, Code: code, Reason: reason}
}

// HasStatus reports whether a Close frame carried a status code.
func (f Frame) HasStatus() bool {
	return f.Kind == Close && f.Code != 0 && f.Code != CloseNoStatus
}

// CommandKind discriminates the control commands.
type CommandKind int

const (
	CmdPing CommandKind = iota + 1
	CmdPong
	CmdClose
)

func (k CommandKind) String() string {
	switch k {
	case CmdPing:
		return "ping"
	case CmdPong:
		return "pong"
	case CmdClose:
		return "close"
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Command is a user request to emit a control frame instead of text.
// Code 0 on a close command means the protocol default.
type Command struct {
	Kind    CommandKind
	Payload string
	Code    int
	Reason  string
}
