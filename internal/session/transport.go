// Package session drives one RealWorld terminal connection through the
// order-reset procedure and reports a structured outcome.
package session

import (
	"errors"
	"time"
)

// ErrExpectTimeout is returned by Transport.Expect when the prompt did not
// appear within the wait window.
var ErrExpectTimeout = errors.New("timed out waiting for prompt")

// Transport is one interactive terminal connection. The remote protocol has
// no structured framing, so every read is bounded by a timeout and the engine
// works on whatever text accumulated in the window.
type Transport interface {
	// Send writes raw keystrokes. No line ending is appended; callers send
	// exactly the bytes the procedure calls for.
	Send(keys string) error

	// Expect reads until prompt appears in the incoming stream or the timeout
	// elapses. It returns all text consumed, including the prompt itself. On
	// timeout the consumed text is still returned along with ErrExpectTimeout.
	Expect(prompt string, timeout time.Duration) (string, error)

	// Drain collects whatever output arrives during the window. The remote
	// side offers no ready signal; a settle pause is the only way to let a
	// screen finish painting. Never an error: silence is a valid answer.
	Drain(window time.Duration) string

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Dialer opens a Transport to the remote terminal service.
type Dialer func(host string, port int, timeout time.Duration) (Transport, error)
