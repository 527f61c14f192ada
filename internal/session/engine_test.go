package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncdist/rw-automator/internal/domain/model"
)

// streamTransport scripts the remote side with stream semantics: every send
// appends the next queued reply for those keystrokes to a shared buffer, and
// Expect and Drain both consume from that buffer exactly once. Output eaten
// by a misplaced drain is gone for good, the same as on a live connection.
type streamTransport struct {
	pending string
	replies map[string][]string
	sent    []string
	closed  int
}

func (s *streamTransport) Send(keys string) error {
	s.sent = append(s.sent, keys)
	if q := s.replies[keys]; len(q) > 0 {
		s.pending += q[0]
		s.replies[keys] = q[1:]
	}
	return nil
}

func (s *streamTransport) Expect(prompt string, _ time.Duration) (string, error) {
	if i := strings.Index(s.pending, prompt); i >= 0 {
		matched := s.pending[:i+len(prompt)]
		s.pending = s.pending[i+len(prompt):]
		return matched, nil
	}
	s.pending = ""
	return "", fmt.Errorf("%w: %q", ErrExpectTimeout, prompt)
}

func (s *streamTransport) Drain(_ time.Duration) string {
	out := s.pending
	s.pending = ""
	return out
}

func (s *streamTransport) Close() error {
	s.closed++
	return nil
}

func (s *streamTransport) sentContains(keys string) bool {
	for _, k := range s.sent {
		if k == keys {
			return true
		}
	}
	return false
}

// successScript replays a full healthy run of the menu tree. Every reply is
// queued at the keystroke that triggers it, so prompts arrive as soon as the
// selection is sent rather than politely waiting out the pauses.
func successScript() *streamTransport {
	return &streamTransport{
		pending: "\r\nSCO OpenServer Release 5\r\n\r\nlogin:",
		replies: map[string][]string{
			"autom\n":  {" autom\r\nPassword:"},
			"secret\n": {"\r\nWelcome to RealWorld\r\nLast login: Mon Aug 31\r\n"},
			"1\n":      {"\x1b[2J\x1b[1;1HPlease enter company-ID: "},
			"00\r":     {"00\r\nRight company ? "},
			keyEnter: {
				"\x1b[2JPress ENTER to continue",
				"\x1b[2JPlease enter your employee #: ",
				"\x1b[2JPlease enter password: ",
				"\x1b[2JRESET ORDER ENTRY\r\n",
			},
			"543\r":        {"***\r\nAny change ? "},
			"emp-secret\r": {"\x1b[2JRW MAIN MENU\r\n"},
			"3\r":          {"\x1b[2JORDER PROCESSING\r\n"},
			"2\r":          {"\x1b[2JVIEW ORDERS\r\n"},
			keyEnter + keyEnter: {
				"\x1b[2JEnter order number:\r\n",
				"",
			},
			"408516\r": {
				"\x1b[2JVIEW ORDER 408516\r\nCustomer: ACME SUPPLY\r\n",
				"",
			},
			keyF3:      {"\x1b[20;1HShip total      123.45\r\n"},
			keyNavBack: {"\x1b[2JRW MAIN MENU\r\n"},
			"8\r":      {"\x1b[2JUTILITIES\r\n"},
			"22\r":     {"\x1b[2JRESET ORDER FILES\r\n"},
			"123.45\r": {"amount accepted\r\n"},
			"Y\r": {
				"ARE YOU SURE ?\r\n",
				"working...\r\nProcedure Complete\r\n",
			},
		},
	}
}

func newTestEngine(t *testing.T, fake *streamTransport) (*Engine, *int) {
	t.Helper()
	dials := 0
	cfg := Config{
		Host:             "rw.example.internal",
		Port:             23,
		Username:         "autom",
		Password:         "secret",
		EmployeeNumber:   "543",
		EmployeePassword: "emp-secret",
		Timings:          DefaultTimings(),
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dialer: func(host string, port int, timeout time.Duration) (Transport, error) {
			dials++
			return fake, nil
		},
	}
	return NewEngine(cfg), &dials
}

func TestResetOrderRejectsInvalidDistributionCenter(t *testing.T) {
	engine, dials := newTestEngine(t, successScript())

	out := engine.ResetOrder(context.Background(), "408516", "99", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Invalid company / distribution center", out.Message)
	assert.Zero(t, *dials, "no connection may be attempted for a bad DC")
}

func TestResetOrderRejectsMissingOrderNumber(t *testing.T) {
	engine, dials := newTestEngine(t, successScript())

	out := engine.ResetOrder(context.Background(), "   ", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Zero(t, *dials)
}

func TestResetOrderDialFailureIsTechnical(t *testing.T) {
	cfg := Config{
		Host:    "rw.example.internal",
		Port:    23,
		Timings: DefaultTimings(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dialer: func(host string, port int, timeout time.Duration) (Transport, error) {
			return nil, errors.New("connection refused")
		},
	}
	out := NewEngine(cfg).ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeTechnicalFailure, out.Kind)
	assert.Contains(t, out.Message, "connect failed")
}

func TestResetOrderLoginIncorrect(t *testing.T) {
	fake := successScript()
	fake.replies["secret\n"] = []string{"\r\nLogin incorrect\r\nlogin:"}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Login incorrect", out.Message)
	assert.Equal(t, 1, fake.closed, "connection must be closed on abort")
}

// The rejection banner appears right after the order number goes in, within
// the first settle window. It must survive until the not-on-file check runs.
func TestResetOrderNotOnFile(t *testing.T) {
	fake := successScript()
	fake.replies["408516\r"] = []string{"\x1b[5;10HOrder not on file\x1b[0m"}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Order not found in system", out.Message)
}

func TestResetOrderMissingShipTotal(t *testing.T) {
	fake := successScript()
	fake.replies[keyF3] = []string{"order summary with no totals line"}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Could not find a ship total", out.Message)
}

func TestResetOrderZeroShipTotalAborts(t *testing.T) {
	fake := successScript()
	fake.replies[keyF3] = []string{"Ship total 0.00"}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Could not find a ship total", out.Message)
}

// Every prompt in the script lands the instant its keystroke is sent, the
// way a fast remote answers. The run only succeeds if no intermediate pause
// swallows a prompt before the engine looks for it.
func TestResetOrderSuccess(t *testing.T) {
	fake := successScript()
	engine, dials := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	require.Equal(t, model.OutcomeSuccess, out.Kind, "message: %s", out.Message)
	assert.Equal(t, "Reset completed successfully", out.Message)
	assert.Equal(t, 1, *dials)
	assert.Equal(t, 1, fake.closed)
	assert.True(t, fake.sentContains("123.45\r"), "scraped ship total must be submitted as confirmation amount")
	assert.True(t, fake.sentContains("00\r"), "distribution center must be selected")
	assert.Empty(t, fake.replies["Y\r"], "both confirmations must be consumed")
}

// The company prompt arrives immediately after the accounting selection. It
// has to remain buffered through the paint pause for the following expect.
func TestResetOrderCompanyPromptArrivingEarly(t *testing.T) {
	fake := successScript()
	fake.replies["1\n"] = []string{"Please enter company-ID: "}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	require.Equal(t, model.OutcomeSuccess, out.Kind, "message: %s", out.Message)
}

func TestResetOrderCompletionMarkerAbsent(t *testing.T) {
	fake := successScript()
	fake.replies["Y\r"] = []string{
		"ARE YOU SURE ?\r\n",
		// final confirmation produces output, but never the completion banner
		"RESET ORDER FILE REBUILD IN PROGRESS",
	}
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeBusinessFailure, out.Kind)
	assert.Equal(t, "Reset failed", out.Message)
}

func TestResetOrderExpectTimeoutIsTechnical(t *testing.T) {
	fake := successScript()
	delete(fake.replies, "1\n")
	engine, _ := newTestEngine(t, fake)

	out := engine.ResetOrder(context.Background(), "408516", "00", nil)

	assert.Equal(t, model.OutcomeTechnicalFailure, out.Kind)
	assert.Contains(t, out.Message, "company-ID")
	assert.Equal(t, 1, fake.closed)
}

func TestResetOrderHonorsContextCancellation(t *testing.T) {
	engine, _ := newTestEngine(t, successScript())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := engine.ResetOrder(ctx, "408516", "00", nil)

	assert.Equal(t, model.OutcomeTechnicalFailure, out.Kind)
}
