package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	EnvConnect = "WSCRAB_CONNECT"
	EnvNoColor = "NO_COLOR"

	DefaultHandshakeTimeout = 45 * time.Second
)

// Header is one custom handshake header. Order and duplicates are kept.
type Header struct {
	Name  string
	Value string
}

// Config is the session configuration. It is built once by Load and treated
// as read-only afterwards.
type Config struct {
	URL              string
	Headers          []Header
	CertPath         string
	Insecure         bool
	ShowPingPong     bool
	Slash            bool
	Subprotocol      string
	Auth             string
	HandshakeTimeout time.Duration
	Verbose          bool
	Color            bool
}

// headerList collects repeated -H flags.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ", ") }

func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

// Flags holds the raw flag values between RegisterFlags and Load.
type Flags struct {
	connect          string
	headers          headerList
	cert             string
	noCheck          bool
	showPingPong     bool
	slash            bool
	subprotocol      string
	auth             string
	handshakeTimeout time.Duration
	noColor          bool
	verbose          bool
	Version          bool
}

// RegisterFlags binds the client flags onto fs. Short and long spellings
// share one destination.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.connect, "connect", "", "connect to a WebSocket server")
	fs.StringVar(&f.connect, "c", "", "shorthand for --connect")
	fs.Var(&f.headers, "header", "set an HTTP header `name:value` (repeatable)")
	fs.Var(&f.headers, "H", "shorthand for --header")
	fs.StringVar(&f.cert, "cert", "", "client certificate file (PEM/DER)")
	fs.BoolVar(&f.noCheck, "no-check", false, "skip server certificate verification (insecure)")
	fs.BoolVar(&f.showPingPong, "show-ping-pong", false, "print notifications for ping/pong")
	fs.BoolVar(&f.slash, "slash", false, "enable slash commands (/ping, /pong, /close)")
	fs.StringVar(&f.subprotocol, "subprotocol", "", "request a WebSocket subprotocol")
	fs.StringVar(&f.subprotocol, "s", "", "shorthand for --subprotocol")
	fs.StringVar(&f.auth, "auth", "", "basic auth credentials `user:password`")
	fs.DurationVar(&f.handshakeTimeout, "handshake-timeout", DefaultHandshakeTimeout, "opening handshake timeout")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&f.verbose, "verbose", false, "log connection details to stderr")
	fs.BoolVar(&f.verbose, "v", false, "shorthand for --verbose")
	fs.BoolVar(&f.Version, "version", false, "print version and exit")
	return f
}

// ErrNoTarget is returned when neither --connect nor WSCRAB_CONNECT is set.
var ErrNoTarget = errors.New("no target URL")

// Load turns parsed flags into a Config. getenv is usually os.Getenv;
// tty reports whether stdout is a terminal and decides the color default.
func (f *Flags) Load(getenv func(string) string, tty bool) (Config, error) {
	target := f.connect
	if target == "" {
		target = getenv(EnvConnect)
	}
	if target == "" {
		return Config{}, ErrNoTarget
	}
	u, err := NormalizeURL(target)
	if err != nil {
		return Config{}, err
	}

	headers := make([]Header, 0, len(f.headers))
	for _, raw := range f.headers {
		h, err := ParseHeader(raw)
		if err != nil {
			return Config{}, err
		}
		headers = append(headers, h)
	}

	if f.auth != "" && !strings.Contains(f.auth, ":") {
		return Config{}, fmt.Errorf("invalid --auth %q: expected user:password", f.auth)
	}

	timeout := f.handshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	return Config{
		URL:              u,
		Headers:          headers,
		CertPath:         f.cert,
		Insecure:         f.noCheck,
		ShowPingPong:     f.showPingPong,
		Slash:            f.slash,
		Subprotocol:      f.subprotocol,
		Auth:             f.auth,
		HandshakeTimeout: timeout,
		Verbose:          f.verbose,
		Color:            tty && !f.noColor && getenv(EnvNoColor) == "",
	}, nil
}

// NormalizeURL defaults a missing scheme to ws:// and rejects anything that
// is not ws or wss.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid url %q: scheme must be ws or wss", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u.String(), nil
}

// ParseHeader splits "Name:Value" on the first colon and trims both sides.
func ParseHeader(raw string) (Header, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok {
		return Header{}, fmt.Errorf("invalid header %q: must contain ':'", raw)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return Header{}, fmt.Errorf("invalid header name in %q", raw)
	}
	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}
