package session

import (
	"fmt"

	"github.com/z0gSh1u/wscrab/internal/frame"
	"github.com/z0gSh1u/wscrab/internal/slash"
	"github.com/z0gSh1u/wscrab/internal/wsconn"
)

// Sender is the outbound half of a transport.
type Sender interface {
	Send(frame.Frame) error
}

// SendError reports a frame that could not be written. Closed is set when
// the transport says the connection is gone, which ends the session.
type SendError struct {
	Kind   frame.Kind
	Closed bool
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s frame: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Outbound converts interpreted input into the frame to send.
func Outbound(in slash.Input) frame.Frame {
	if !in.IsCommand() {
		return frame.NewText(in.Text)
	}
	cmd := in.Command
	switch cmd.Kind {
	case frame.CmdPing:
		return frame.NewPing([]byte(cmd.Payload))
	case frame.CmdPong:
		return frame.NewPong([]byte(cmd.Payload))
	case frame.CmdClose:
		return frame.NewClose(cmd.Code, cmd.Reason)
	}
	panic("session: unknown command kind " + cmd.Kind.String())
}

// Dispatcher sends frames and wraps failures as *SendError.
type Dispatcher struct {
	Sender Sender
}

func (d Dispatcher) Send(f frame.Frame) error {
	if err := d.Sender.Send(f); err != nil {
		return &SendError{Kind: f.Kind, Closed: wsconn.IsClosed(err), Err: err}
	}
	return nil
}

// Dispatch sends the frame for one interpreted input line.
func (d Dispatcher) Dispatch(in slash.Input) error {
	return d.Send(Outbound(in))
}
