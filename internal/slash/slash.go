// Package slash turns "/ping data"-style input lines into control commands.
package slash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/z0gSh1u/wscrab/internal/frame"
)

// Prefix marks a line as a command in slash mode.
const Prefix = "/"

// Input is the interpretation of one line: either literal text to send as a
// Text frame, or a control command.
type Input struct {
	Text    string
	Command *frame.Command
}

// IsCommand reports whether the line was parsed as a control command.
func (in Input) IsCommand() bool { return in.Command != nil }

// CommandParseError is a rejected slash command. It is reported to the user
// and the session goes on.
type CommandParseError struct {
	Line   string
	Reason string
}

func (e *CommandParseError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Line)
}

// Parse interprets line. With enabled false every line is literal text.
//
// The command name runs from the prefix to the first space and must match
// exactly; the payload is whatever follows that one space, verbatim. A line
// "/ping a/b" therefore pings with payload "a/b", and "/ping " pings with an
// empty payload.
func Parse(line string, enabled bool) (Input, error) {
	if !enabled || !strings.HasPrefix(line, Prefix) {
		return Input{Text: line}, nil
	}

	name, payload, _ := strings.Cut(strings.TrimPrefix(line, Prefix), " ")
	switch name {
	case "ping", "pong":
		if len(payload) > frame.MaxControlBytes {
			return Input{}, &CommandParseError{Line: line, Reason: fmt.Sprintf("payload exceeds %d bytes", frame.MaxControlBytes)}
		}
		kind := frame.CmdPing
		if name == "pong" {
			kind = frame.CmdPong
		}
		return Input{Command: &frame.Command{Kind: kind, Payload: payload}}, nil
	case "close":
		cmd, err := parseClose(line, payload)
		if err != nil {
			return Input{}, err
		}
		return Input{Command: cmd}, nil
	}
	return Input{}, &CommandParseError{Line: line, Reason: "unrecognized slash command"}
}

// parseClose reads "[code [reason...]]". An empty payload is a plain close.
func parseClose(line, payload string) (*frame.Command, error) {
	cmd := &frame.Command{Kind: frame.CmdClose}
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return cmd, nil
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil || !validCloseCode(code) {
		return nil, &CommandParseError{Line: line, Reason: "invalid close code"}
	}
	cmd.Code = code
	cmd.Reason = strings.Join(fields[1:], " ")
	// code is two bytes of the control payload
	if len(cmd.Reason)+2 > frame.MaxControlBytes {
		return nil, &CommandParseError{Line: line, Reason: "close reason too long"}
	}
	return cmd, nil
}

// validCloseCode accepts the codes an endpoint may put on the wire.
func validCloseCode(code int) bool {
	switch {
	case code >= 3000 && code <= 4999:
		return true
	case code >= 1000 && code <= 1014:
		return code != 1004 && code != 1005 && code != 1006
	}
	return false
}
