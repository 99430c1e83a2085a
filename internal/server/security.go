// Package server provides the listeners the HTTP server accepts
// connections on: plain TCP or TLS.
package server

import (
	"crypto/tls"
	"fmt"
	"net"
)

// defaultProtocol is used when a caller passes an empty protocol.
const defaultProtocol = "tcp"

// TLSListener serves HTTPS with a certificate and key read from disk.
// The pair is reloaded on every Listen call, so a restarted server
// picks up a renewed certificate.
type TLSListener struct {
	certFileName       string
	privateKeyFileName string
}

// NewTLSListener creates a new TLSListener instance.
//
// Parameters:
//   - certFileName: Path to the PEM encoded certificate chain
//   - privateKeyFileName: Path to the PEM encoded private key
//
// Returns a pointer to the newly created TLSListener instance.
// The files are not read until Listen or Config is called.
func NewTLSListener(certFileName, privateKeyFileName string) *TLSListener {
	return &TLSListener{
		certFileName:       certFileName,
		privateKeyFileName: privateKeyFileName,
	}
}

// Config loads the key pair and builds the server TLS configuration.
// Clients are held to TLS 1.2 or newer and offered HTTP/1.1 via ALPN,
// which is the only protocol the REST router speaks.
//
// Returns the configuration or an error if the key pair cannot be loaded.
func (l *TLSListener) Config() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(l.certFileName, l.privateKeyFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1"},
	}, nil
}

// Listen opens a TLS listener on addr.
//
// Parameters:
//   - protocol: The network protocol; empty means "tcp"
//   - addr: The address to listen on, e.g. ":8087"
//
// Returns a TLS-enabled network listener or an error if the certificate
// cannot be loaded or the address cannot be bound.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cfg, err := l.Config()
	if err != nil {
		return nil, err
	}

	inner, err := listen(protocol, addr)
	if err != nil {
		return nil, err
	}

	return tls.NewListener(inner, cfg), nil
}

// PlainListener serves unencrypted HTTP.
type PlainListener struct{}

// NewPlainListener creates a new PlainListener instance.
//
// Returns a pointer to the newly created PlainListener instance.
func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

// Listen opens a plain listener on addr.
//
// Parameters:
//   - protocol: The network protocol; empty means "tcp"
//   - addr: The address to listen on, e.g. ":8087"
//
// Returns a plain network listener or an error if the address cannot
// be bound.
func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return listen(protocol, addr)
}

func listen(protocol, addr string) (net.Listener, error) {
	if protocol == "" {
		protocol = defaultProtocol
	}

	ln, err := net.Listen(protocol, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return ln, nil
}
