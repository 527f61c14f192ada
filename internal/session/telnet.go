package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ziutek/telnet"
)

// telnetTransport adapts a telnet connection to the Transport interface.
// Reads are deadline-driven: Expect and Drain set a read deadline and consume
// bytes until the deadline fires or (for Expect) the prompt shows up.
type telnetTransport struct {
	conn *telnet.Conn

	mu         sync.Mutex
	transcript io.Writer
	closed     bool
}

// TelnetDialer returns a Dialer that opens telnet connections, optionally
// copying all traffic to transcript.
func TelnetDialer(transcript io.Writer) Dialer {
	return func(host string, port int, timeout time.Duration) (Transport, error) {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		conn, err := telnet.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		conn.SetUnixWriteMode(true)
		return &telnetTransport{conn: conn, transcript: transcript}, nil
	}
}

func (t *telnetTransport) Send(keys string) error {
	t.record("TX", keys)
	if _, err := t.conn.Write([]byte(keys)); err != nil {
		return fmt.Errorf("send keystrokes: %w", err)
	}
	return nil
}

func (t *telnetTransport) Expect(prompt string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("set read deadline: %w", err)
	}

	var buf strings.Builder
	for {
		b, err := t.conn.ReadByte()
		if err != nil {
			out := buf.String()
			t.record("RX", out)
			if isTimeout(err) {
				return out, fmt.Errorf("%w: %q", ErrExpectTimeout, prompt)
			}
			return out, fmt.Errorf("read while waiting for %q: %w", prompt, err)
		}
		buf.WriteByte(b)
		if strings.Contains(buf.String(), prompt) {
			out := buf.String()
			t.record("RX", out)
			return out, nil
		}
	}
}

func (t *telnetTransport) Drain(window time.Duration) string {
	deadline := time.Now().Add(window)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return ""
	}

	var buf strings.Builder
	for {
		b, err := t.conn.ReadByte()
		if err != nil {
			out := buf.String()
			t.record("RX", out)
			return out
		}
		buf.WriteByte(b)
	}
}

func (t *telnetTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

// record appends a traffic line to the transcript, if one is attached.
func (t *telnetTransport) record(dir, data string) {
	if t.transcript == nil || data == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.transcript, "%s %s %q\n", time.Now().Format("2006-01-02 15:04:05"), dir, data)
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
