// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "audiobackend/internal/log"
)

// Sender handles sending data packets over UDP.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // Protects conn during Close
	closed bool
}

// NewSender creates a Sender targeting the specified address.
// The address should be in the format "host:port", e.g., "127.0.0.1:9090".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("udp: sending to %s", conn.RemoteAddr())
	return &Sender{conn: conn}, nil
}

// Send transmits data as a single datagram.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("UDP sender is closed")
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection. Closing twice is a no-op.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
