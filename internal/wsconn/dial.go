package wsconn

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/z0gSh1u/wscrab/internal/config"
)

// Connection failure stages.
const (
	StageDNS       = "dns"
	StageTCP       = "tcp"
	StageTLS       = "tls"
	StageHandshake = "handshake"
)

// ConnectionError reports a failed connection attempt.
type ConnectionError struct {
	URL    string
	Stage  string
	Status int // HTTP status of a rejected upgrade, 0 otherwise
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("connect %s: %s failed (status %d): %v", e.URL, e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("connect %s: %s failed: %v", e.URL, e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Dial performs the opening handshake. tlsConfig is used for wss:// only.
// logger may be nil.
func Dial(ctx context.Context, cfg config.Config, tlsConfig *tls.Config, logger *log.Logger) (*Conn, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
		TLSClientConfig:  tlsConfig,
	}
	if cfg.Subprotocol != "" {
		dialer.Subprotocols = []string{cfg.Subprotocol}
	}

	header := RequestHeader(cfg)
	logger.Printf("dialing %s", cfg.URL)

	ws, resp, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		ce := &ConnectionError{URL: cfg.URL, Stage: classify(err), Err: err}
		if resp != nil {
			ce.Status = resp.StatusCode
			ce.Stage = StageHandshake
		}
		return nil, ce
	}

	logger.Printf("handshake complete: %s", resp.Status)
	if p := ws.Subprotocol(); p != "" {
		logger.Printf("subprotocol: %s", p)
	}
	if tc, ok := ws.NetConn().(*tls.Conn); ok {
		logger.Printf("tls: %s", tls.VersionName(tc.ConnectionState().Version))
	}
	return newConn(ws), nil
}

// RequestHeader builds the handshake headers in the order given, keeping
// repeated names.
func RequestHeader(cfg config.Config) http.Header {
	header := http.Header{}
	for _, h := range cfg.Headers {
		header.Add(h.Name, h.Value)
	}
	if cfg.Auth != "" {
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.Auth)))
	}
	return header
}

func classify(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return StageDNS
	}

	var (
		recErr   tls.RecordHeaderError
		verifErr *tls.CertificateVerificationError
		unkAuth  x509.UnknownAuthorityError
		hostErr  x509.HostnameError
		invalid  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &recErr), errors.As(err, &verifErr), errors.As(err, &unkAuth),
		errors.As(err, &hostErr), errors.As(err, &invalid):
		return StageTLS
	}

	if errors.Is(err, websocket.ErrBadHandshake) {
		return StageHandshake
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// alerts sent by the server during the TLS handshake
		if opErr.Op == "remote error" {
			return StageTLS
		}
		return StageTCP
	}
	return StageHandshake
}
