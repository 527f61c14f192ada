package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ncdist/rw-automator/internal/domain/model"
	"github.com/ncdist/rw-automator/internal/screen"
)

// Prompts and markers the RealWorld menu tree emits. These are part of the
// protocol contract: the remote application identifies itself only through
// this exact human-oriented text.
const (
	promptLogin            = "login:"
	promptPassword         = "Password:"
	promptCompanyID        = "company-ID"
	promptRightCompany     = "Right company"
	promptPressEnter       = "Press ENTER to continue"
	promptEmployeeNumber   = "employee #"
	promptAnyChange        = "Any change"
	promptEmployeePassword = "Please enter password"

	markerLoginIncorrect = "Login incorrect"
	markerOrderNotOnFile = "Order not on file"
	markerComplete       = "procedure complete" // matched case-insensitively

	labelShipTotal = "Ship total"

	keyEnter = "\r"
	keyF3    = "\x1b[13~"
	// keyNavBack returns from the order view to the main menu:
	// TAB TAB ENTER TAB TAB.
	keyNavBack = "\t\t\r\t\t"
)

// Timings holds every wait the procedure performs. The remote protocol has no
// ready signal, so these constants are load-bearing: shortening them changes
// behavior against a slow screen, not just run time.
type Timings struct {
	Dial          time.Duration // TCP/telnet connect
	Prompt        time.Duration // generic expect window for login prompts
	MenuPrompt    time.Duration // expect window for menu prompts after login
	LoginSettle   time.Duration // pause after sending password, before checking for rejection
	PostLogin     time.Duration // main menu paint window after login
	Settle        time.Duration // default pause between menu keystrokes
	FieldSettle   time.Duration // pause before typing into an input field
	OrderSettle   time.Duration // pause after submitting the order number
	OrderCheck    time.Duration // window to catch the order-not-on-file banner
	ShipTotal     time.Duration // window for the ship-total screen after F3
	NavBack       time.Duration // pause while backing out to the main menu
	ResetMenu     time.Duration // pause between reset-menu selections
	ConfirmSettle time.Duration // pause between reset confirmation keystrokes
	Completion    time.Duration // final window to catch the completion banner
}

// DefaultTimings mirrors the cadence human operators settled on against the
// production system.
func DefaultTimings() Timings {
	return Timings{
		Dial:          30 * time.Second,
		Prompt:        30 * time.Second,
		MenuPrompt:    10 * time.Second,
		LoginSettle:   3500 * time.Millisecond,
		PostLogin:     3 * time.Second,
		Settle:        time.Second,
		FieldSettle:   750 * time.Millisecond,
		OrderSettle:   1250 * time.Millisecond,
		OrderCheck:    2 * time.Second,
		ShipTotal:     2500 * time.Millisecond,
		NavBack:       3 * time.Second,
		ResetMenu:     2 * time.Second,
		ConfirmSettle: 2 * time.Second,
		Completion:    10 * time.Second,
	}
}

// Config carries connection parameters and credentials for one engine.
type Config struct {
	Host             string
	Port             int
	Username         string
	Password         string
	EmployeeNumber   string
	EmployeePassword string

	Timings Timings
	Dialer  Dialer       // optional; defaults to TelnetDialer
	Logger  *slog.Logger // optional
}

// Engine executes one complete reset attempt over a single terminal
// connection. It performs no persistence; callers project the Outcome onto
// whatever records they keep.
type Engine struct {
	cfg     Config
	timings Timings
	dialer  Dialer
	logger  *slog.Logger
}

// NewEngine builds an engine. Zero-valued timings are replaced by defaults.
func NewEngine(cfg Config) *Engine {
	timings := cfg.Timings
	if timings == (Timings{}) {
		timings = DefaultTimings()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		timings: timings,
		dialer:  cfg.Dialer,
		logger:  logger.With("component", "session_engine"),
	}
}

// ResetOrder runs the full reset procedure for one order. Validation failures
// come back as business failures without a connection ever being opened;
// anything unexpected mid-run comes back as a technical failure with the
// transport closed either way.
func (e *Engine) ResetOrder(ctx context.Context, orderNumber, dc string, transcript io.Writer) model.Outcome {
	if !model.ValidDistributionCenter(dc) {
		return model.BusinessFailure("Invalid company / distribution center")
	}
	if strings.TrimSpace(orderNumber) == "" {
		return model.BusinessFailure("Missing order number")
	}

	dialer := e.dialer
	if dialer == nil {
		dialer = TelnetDialer(transcript)
	}

	e.logger.Info("connecting to RealWorld",
		"host", e.cfg.Host, "port", e.cfg.Port,
		"user", e.cfg.Username, "employee", e.cfg.EmployeeNumber,
		"order", orderNumber, "dc", dc)

	t, err := dialer(e.cfg.Host, e.cfg.Port, e.timings.Dial)
	if err != nil {
		return model.TechnicalFailure(fmt.Sprintf("connect failed: %v", err))
	}
	defer func() {
		if cerr := t.Close(); cerr != nil {
			e.logger.Warn("close session", "error", cerr)
		}
	}()

	outcome, err := e.run(ctx, t, orderNumber, dc)
	if err != nil {
		e.logger.Error("session aborted", "order", orderNumber, "error", err)
		return model.TechnicalFailure(err.Error())
	}
	return outcome
}

// run walks the strictly linear menu sequence. Abort conditions surface as
// business-failure outcomes; transport errors bubble up for the caller to
// classify as technical failures.
func (e *Engine) run(ctx context.Context, t Transport, orderNumber, dc string) (model.Outcome, error) {
	if out, done, err := e.authenticate(t); done || err != nil {
		return out, err
	}
	if err := e.selectCompany(t, dc); err != nil {
		return model.Outcome{}, err
	}
	if err := e.employeeLogin(t); err != nil {
		return model.Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	shipTotal, out, done, err := e.retrieveShipTotal(t, orderNumber)
	if done || err != nil {
		return out, err
	}
	e.logger.Info("ship total retrieved", "order", orderNumber, "ship_total", shipTotal)

	if err := e.navigateToResetMenu(t); err != nil {
		return model.Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}
	if err := e.submitReset(t, orderNumber, shipTotal); err != nil {
		return model.Outcome{}, err
	}
	return e.verifyCompletion(t, orderNumber), nil
}

// authenticate logs into the host. A rejected login is a business failure,
// reported with done=true.
func (e *Engine) authenticate(t Transport) (model.Outcome, bool, error) {
	if _, err := t.Expect(promptLogin, e.timings.Prompt); err != nil {
		return model.Outcome{}, false, err
	}
	if err := t.Send(e.cfg.Username + "\n"); err != nil {
		return model.Outcome{}, false, err
	}
	if _, err := t.Expect(promptPassword, e.timings.Prompt); err != nil {
		return model.Outcome{}, false, err
	}
	if err := t.Send(e.cfg.Password + "\n"); err != nil {
		return model.Outcome{}, false, err
	}

	banner := t.Drain(e.timings.LoginSettle)
	if strings.Contains(banner, markerLoginIncorrect) {
		e.logger.Error("login rejected")
		return model.BusinessFailure("Login incorrect"), true, nil
	}

	// Let the main menu finish painting, then pick accounting. No drain
	// after the selection: the company prompt may arrive at any point and
	// must stay buffered for the Expect that follows.
	t.Drain(e.timings.PostLogin)
	if err := t.Send("1\n"); err != nil {
		return model.Outcome{}, false, err
	}
	return model.Outcome{}, false, nil
}

func (e *Engine) selectCompany(t Transport, dc string) error {
	if _, err := t.Expect(promptCompanyID, e.timings.MenuPrompt); err != nil {
		return err
	}
	t.Drain(e.timings.FieldSettle)
	if err := t.Send(dc + keyEnter); err != nil {
		return err
	}
	if _, err := t.Expect(promptRightCompany, e.timings.MenuPrompt); err != nil {
		return err
	}
	if err := t.Send(keyEnter); err != nil {
		return err
	}
	if _, err := t.Expect(promptPressEnter, e.timings.MenuPrompt); err != nil {
		return err
	}
	return t.Send(keyEnter)
}

func (e *Engine) employeeLogin(t Transport) error {
	if _, err := t.Expect(promptEmployeeNumber, e.timings.MenuPrompt); err != nil {
		return err
	}
	t.Drain(e.timings.FieldSettle)
	if err := t.Send(e.cfg.EmployeeNumber + keyEnter); err != nil {
		return err
	}
	if _, err := t.Expect(promptAnyChange, e.timings.MenuPrompt); err != nil {
		return err
	}
	if err := t.Send(keyEnter); err != nil {
		return err
	}
	if _, err := t.Expect(promptEmployeePassword, e.timings.MenuPrompt); err != nil {
		return err
	}
	t.Drain(e.timings.FieldSettle)
	if err := t.Send(e.cfg.EmployeePassword + keyEnter); err != nil {
		return err
	}
	t.Drain(e.timings.Settle)
	return nil
}

// retrieveShipTotal opens Order Entry -> View Order, submits the order and
// scrapes the ship total off the resulting screen. done=true carries an abort
// outcome (order unknown, no usable total).
func (e *Engine) retrieveShipTotal(t Transport, orderNumber string) (string, model.Outcome, bool, error) {
	for _, keys := range []string{"3" + keyEnter, "2" + keyEnter, keyEnter + keyEnter} {
		if err := t.Send(keys); err != nil {
			return "", model.Outcome{}, false, err
		}
		t.Drain(e.timings.Settle)
	}
	if err := t.Send(orderNumber + keyEnter); err != nil {
		return "", model.Outcome{}, false, err
	}
	// The rejection notice can land in either window after the submit, so
	// both drains feed the check.
	banner := t.Drain(e.timings.OrderSettle)
	banner += t.Drain(e.timings.OrderCheck)
	if strings.Contains(screen.Strip(banner), markerOrderNotOnFile) {
		e.logger.Error("order not on file", "order", orderNumber)
		return "", model.BusinessFailure("Order not found in system"), true, nil
	}

	// F3 exits the view; the totals line shows on the way out.
	if err := t.Send(keyF3); err != nil {
		return "", model.Outcome{}, false, err
	}
	totals := t.Drain(e.timings.ShipTotal)

	shipTotal, ok := screen.ExtractLabeledAmount(banner+totals, labelShipTotal)
	if !ok || shipTotal == "0.00" {
		e.logger.Error("no usable ship total", "order", orderNumber)
		return "", model.BusinessFailure("Could not find a ship total"), true, nil
	}
	return shipTotal, model.Outcome{}, false, nil
}

func (e *Engine) navigateToResetMenu(t Transport) error {
	if err := t.Send(keyNavBack); err != nil {
		return err
	}
	t.Drain(e.timings.NavBack)
	for _, keys := range []string{"8" + keyEnter, "22" + keyEnter} {
		if err := t.Send(keys); err != nil {
			return err
		}
		t.Drain(e.timings.ResetMenu)
	}
	return nil
}

func (e *Engine) submitReset(t Transport, orderNumber, shipTotal string) error {
	if err := t.Send(keyEnter); err != nil {
		return err
	}
	t.Drain(e.timings.Settle)

	type stroke struct {
		keys  string
		pause time.Duration
	}
	sequence := []stroke{
		{orderNumber + keyEnter, e.timings.ConfirmSettle},
		{keyEnter + keyEnter, e.timings.ConfirmSettle},
		{"Y" + keyEnter, e.timings.ConfirmSettle},
		{shipTotal + keyEnter, e.timings.ConfirmSettle},
	}
	for _, s := range sequence {
		if err := t.Send(s.keys); err != nil {
			return err
		}
		t.Drain(s.pause)
	}
	// Final confirmation. No drain here: the completion banner follows this
	// keystroke and must stay buffered for verifyCompletion to read.
	return t.Send("Y" + keyEnter)
}

func (e *Engine) verifyCompletion(t Transport, orderNumber string) model.Outcome {
	final := t.Drain(e.timings.NavBack + e.timings.Completion)
	if strings.Contains(strings.ToLower(final), markerComplete) {
		e.logger.Info("reset completed", "order", orderNumber)
		return model.Success("Reset completed successfully")
	}
	e.logger.Warn("completion marker absent", "order", orderNumber, "final_output", final)
	return model.BusinessFailure("Reset failed")
}
