package session

import (
	"fmt"

	"github.com/z0gSh1u/wscrab/internal/frame"
)

// Reaction is what the session does with one inbound frame.
type Reaction struct {
	// Print is set when Line should be written to the transcript.
	Print     bool
	Notice    bool // Line is a status notice rather than peer content
	Line      string
	Reply     *frame.Frame
	Terminate bool
}

// Classify decides how to react to f. Pings are always answered with a pong
// carrying the same payload; showPingPong only controls the notice.
func Classify(f frame.Frame, showPingPong bool) Reaction {
	switch f.Kind {
	case frame.Text:
		return Reaction{Print: true, Line: string(f.Payload)}
	case frame.Binary:
		return Reaction{Print: true, Notice: true, Line: fmt.Sprintf("Received binary data (%d bytes)", len(f.Payload))}
	case frame.Ping:
		pong := frame.NewPong(f.Payload)
		return Reaction{
			Print:  showPingPong,
			Notice: true,
			Line:   fmt.Sprintf("Received ping (data: %q)", f.Payload),
			Reply:  &pong,
		}
	case frame.Pong:
		return Reaction{
			Print:  showPingPong,
			Notice: true,
			Line:   fmt.Sprintf("Received pong (data: %q)", f.Payload),
		}
	case frame.Close:
		return Reaction{Print: true, Notice: true, Line: closeNotice(f), Terminate: true}
	}
	return Reaction{Print: true, Notice: true, Line: fmt.Sprintf("Received unexpected %s frame", f.Kind)}
}

func closeNotice(f frame.Frame) string {
	switch {
	case f.HasStatus() && f.Reason != "":
		return fmt.Sprintf("Disconnected (code: %d, reason: %q)", f.Code, f.Reason)
	case f.HasStatus():
		return fmt.Sprintf("Disconnected (code: %d)", f.Code)
	}
	return "Disconnected"
}
