// Package session runs the interactive loop of one WebSocket connection:
// it races stdin lines, inbound frames and interrupts, and handles the
// winner before waiting again.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/z0gSh1u/wscrab/internal/console"
	"github.com/z0gSh1u/wscrab/internal/frame"
	"github.com/z0gSh1u/wscrab/internal/slash"
	"github.com/z0gSh1u/wscrab/internal/wsconn"
)

// DefaultGracePeriod bounds the wait for the peer's Close after we sent ours.
const DefaultGracePeriod = 3 * time.Second

// State of the session loop.
type State int

const (
	Running State = iota
	Closing
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Closing:
		return "closing"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transport is the connection handle the session owns for its lifetime.
type Transport interface {
	Sender
	Inbound() <-chan wsconn.Event
	Close() error
}

// ReadError is a transport failure while reading. It ends the session.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("connection lost: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

type Options struct {
	ShowPingPong bool
	Slash        bool
	GracePeriod  time.Duration
}

// Session is one interactive connection.
type Session struct {
	opts       Options
	conn       Transport
	out        Dispatcher
	lines      console.LineReader
	interrupts <-chan os.Signal
	printer    *Printer

	state State
	err   error
}

func New(conn Transport, lines console.LineReader, interrupts <-chan os.Signal, printer *Printer, opts Options) *Session {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &Session{
		opts:       opts,
		conn:       conn,
		out:        Dispatcher{Sender: conn},
		lines:      lines,
		interrupts: interrupts,
		printer:    printer,
	}
}

// State returns the current loop state. Only meaningful from the goroutine
// running Run, or after Run returned.
func (s *Session) State() State { return s.state }

type lineResult struct {
	line string
	err  error
}

// pumpLines reads stdin on its own goroutine. The channel is unbuffered so
// each line is handed over exactly once.
func (s *Session) pumpLines(done <-chan struct{}) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		for {
			line, err := s.lines.ReadLine()
			select {
			case ch <- lineResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// Run drives the session until it terminates and closes the transport.
// It returns nil for closes initiated by either side or by an interrupt,
// and the transport error otherwise.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	done := make(chan struct{})
	defer close(done)

	lines := s.pumpLines(done)
	inbound := s.conn.Inbound()
	var (
		grace <-chan time.Time
		timer *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	s.state = Running
	for s.state != Terminated {
		select {
		case res := <-lines:
			s.onLine(res)
		case ev, ok := <-inbound:
			s.onEvent(ev, ok)
		case <-s.interrupts:
			s.interrupt()
		case <-grace:
			s.state = Terminated
		case <-ctx.Done():
			s.interrupt()
			s.err = ctx.Err()
		}

		if s.state == Closing && grace == nil {
			// stop taking input; wait for the peer's close
			lines = nil
			timer = time.NewTimer(s.opts.GracePeriod)
			grace = timer.C
		}
	}
	return s.err
}

func (s *Session) terminate(err error) {
	s.state = Terminated
	s.err = err
}

func (s *Session) onLine(res lineResult) {
	switch {
	case errors.Is(res.err, console.ErrInterrupt):
		s.interrupt()
		return
	case errors.Is(res.err, io.EOF):
		s.beginClose(frame.NewClose(0, ""))
		return
	case res.err != nil:
		s.printer.Errorf("read input: %v", res.err)
		s.beginClose(frame.NewClose(0, ""))
		return
	}

	in, err := slash.Parse(res.line, s.opts.Slash)
	if err != nil {
		s.printer.Errorf("%v", err)
		return
	}
	if in.IsCommand() && in.Command.Kind == frame.CmdClose {
		s.beginClose(Outbound(in))
		return
	}
	if !in.IsCommand() {
		s.printer.Outbound(in.Text)
	}
	if err := s.out.Dispatch(in); err != nil {
		s.onSendError(err)
	}
}

func (s *Session) onEvent(ev wsconn.Event, ok bool) {
	if !ok {
		if s.state == Closing {
			s.terminate(nil)
			return
		}
		s.terminate(&ReadError{Err: io.ErrUnexpectedEOF})
		return
	}
	if ev.Err != nil {
		// the peer may drop the socket instead of answering our close
		if s.state == Closing {
			s.terminate(nil)
			return
		}
		s.terminate(&ReadError{Err: ev.Err})
		return
	}

	r := Classify(ev.Frame, s.opts.ShowPingPong)
	if r.Print {
		if r.Notice {
			s.printer.Notice("%s", r.Line)
		} else {
			s.printer.Inbound(r.Line)
		}
	}
	// nothing more may follow our own close
	if r.Reply != nil && s.state == Running {
		if err := s.out.Send(*r.Reply); err != nil {
			s.onSendError(err)
		}
	}
	if r.Terminate {
		s.terminate(nil)
	}
}

// onSendError reports a failed send. Only a closed connection is fatal.
func (s *Session) onSendError(err error) {
	s.printer.Errorf("%v", err)
	var se *SendError
	if errors.As(err, &se) && se.Closed {
		s.terminate(err)
	}
}

// beginClose sends our Close and moves to Closing. If the close cannot be
// sent there is nothing left to wait for.
func (s *Session) beginClose(f frame.Frame) {
	if err := s.out.Send(f); err != nil {
		var se *SendError
		if errors.As(err, &se) && !se.Closed {
			s.printer.Errorf("%v", err)
		}
		s.terminate(nil)
		return
	}
	s.state = Closing
}

// interrupt makes one best-effort attempt to say goodbye and terminates.
func (s *Session) interrupt() {
	if s.state == Running {
		_ = s.conn.Send(frame.NewClose(0, ""))
	}
	s.terminate(nil)
}
