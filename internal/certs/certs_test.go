package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// selfSigned returns the DER certificate and PKCS#8 key for a localhost cert.
func selfSigned(t *testing.T) ([]byte, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return der, keyDER
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDetectsEncodingByContent(t *testing.T) {
	der, keyDER := selfSigned(t)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	tests := []struct {
		name    string
		file    string
		data    []byte
		wantKey bool
	}{
		{"der", "cert.der", der, false},
		{"pem cert only", "cert.pem", certPEM, false},
		{"pem with key", "bundle.pem", append(append([]byte{}, certPEM...), keyPEM...), true},
		// extension lies, content wins
		{"der named pem", "cert.pem", der, false},
		{"pem named der", "cert.der", certPEM, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Load(writeFile(t, tt.file, tt.data))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(b.Certs) != 1 {
				t.Fatalf("expected 1 cert, got %d", len(b.Certs))
			}
			if (b.Key != nil) != tt.wantKey {
				t.Errorf("expected key=%v, got %v", tt.wantKey, b.Key != nil)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.pem") }},
		{"garbage der", func(t *testing.T) string { return writeFile(t, "bad.der", []byte("not a certificate")) }},
		{"pem without certificate", func(t *testing.T) string {
			return writeFile(t, "bad.pem", []byte("-----BEGIN NOTHING-----\n-----END NOTHING-----\n"))
		}},
		{"corrupt pem body", func(t *testing.T) string {
			return writeFile(t, "bad.pem", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			_, err := Load(path)
			var ce *CertError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CertError, got %v", err)
			}
			if ce.Path != path {
				t.Errorf("expected path %s, got %s", path, ce.Path)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	der, keyDER := selfSigned(t)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	bundle := writeFile(t, "bundle.pem", append(append([]byte{}, certPEM...), keyPEM...))

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Build("", false)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if cfg.InsecureSkipVerify {
			t.Error("verification must be on by default")
		}
		if cfg.RootCAs != nil {
			t.Error("expected system roots (nil RootCAs)")
		}
	})

	t.Run("insecure", func(t *testing.T) {
		cfg, err := Build("", true)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if !cfg.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify")
		}
	})

	t.Run("client cert", func(t *testing.T) {
		cfg, err := Build(bundle, false)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if len(cfg.Certificates) != 1 {
			t.Fatalf("expected client certificate, got %d", len(cfg.Certificates))
		}
		if cfg.RootCAs == nil {
			t.Error("expected file certificates in the trust pool")
		}
	})

	t.Run("malformed cert aborts", func(t *testing.T) {
		_, err := Build(writeFile(t, "bad.pem", []byte("-----BEGIN CERTIFICATE-----\nxx\n")), false)
		var ce *CertError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *CertError, got %v", err)
		}
	})
}
