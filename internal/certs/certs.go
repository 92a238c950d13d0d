// Package certs builds the TLS trust policy for the client: system roots by
// default, an accept-everything mode for --no-check, and an optional client
// certificate file in PEM or DER form.
package certs

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// CertError reports a certificate file that could not be read or parsed.
type CertError struct {
	Path string
	Err  error
}

func (e *CertError) Error() string {
	return fmt.Sprintf("certificate %s: %v", e.Path, e.Err)
}

func (e *CertError) Unwrap() error { return e.Err }

// Bundle is the parsed content of a certificate file.
type Bundle struct {
	Certs []*x509.Certificate
	Key   crypto.PrivateKey // nil for DER files and key-less PEM files
}

// Raw returns the DER bytes of the chain, leaf first.
func (b *Bundle) Raw() [][]byte {
	out := make([][]byte, 0, len(b.Certs))
	for _, c := range b.Certs {
		out = append(out, c.Raw)
	}
	return out
}

var pemMarker = []byte("-----BEGIN")

// Load reads a certificate file. The encoding is picked from the content:
// anything containing a PEM marker is PEM, everything else is one DER cert.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CertError{Path: path, Err: err}
	}
	b, err := Parse(data)
	if err != nil {
		return nil, &CertError{Path: path, Err: err}
	}
	return b, nil
}

// Parse decodes PEM or DER certificate material.
func Parse(data []byte) (*Bundle, error) {
	if !bytes.Contains(data, pemMarker) {
		c, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("parse DER certificate: %w", err)
		}
		return &Bundle{Certs: []*x509.Certificate{c}}, nil
	}

	b := &Bundle{}
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			c, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PEM certificate: %w", err)
			}
			b.Certs = append(b.Certs, c)
		case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
			// first key wins
			if b.Key != nil {
				continue
			}
			key, err := parseKey(block)
			if err != nil {
				return nil, err
			}
			b.Key = key
		}
	}
	if len(b.Certs) == 0 {
		return nil, errors.New("no certificate found in PEM data")
	}
	return b, nil
}

func parseKey(block *pem.Block) (crypto.PrivateKey, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		return k, nil
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
	}
	switch k.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		return k, nil
	}
	return nil, fmt.Errorf("unsupported private key type %T", k)
}

// Build returns the client TLS configuration.
//
// insecure disables server certificate verification entirely. It exists for
// self-signed test servers and must never be the default.
//
// When certPath is set the file is loaded before anything touches the
// network. Its certificates are trusted in addition to the system roots
// (unless insecure), and if it carries a private key the chain is presented
// as the client certificate.
func Build(certPath string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if insecure {
		cfg.InsecureSkipVerify = true
	}
	if certPath == "" {
		return cfg, nil
	}

	b, err := Load(certPath)
	if err != nil {
		return nil, err
	}

	if !insecure {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		for _, c := range b.Certs {
			pool.AddCert(c)
		}
		cfg.RootCAs = pool
	}

	if b.Key != nil {
		cfg.Certificates = []tls.Certificate{{
			Certificate: b.Raw(),
			PrivateKey:  b.Key,
			Leaf:        b.Certs[0],
		}}
	}
	return cfg, nil
}
