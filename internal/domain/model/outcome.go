package model

// OutcomeKind classifies how a session run ended.
type OutcomeKind int

const (
	// OutcomeSuccess means the reset procedure completed on the remote side.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeBusinessFailure means the remote system rejected the operation
	// (bad login, unknown order, missing ship total, no completion marker).
	OutcomeBusinessFailure
	// OutcomeTechnicalFailure means the session itself broke (dial failure,
	// expect timeout, dropped connection).
	OutcomeTechnicalFailure
)

// Outcome is the transient result of one session run. It is never persisted
// directly; the runner projects it onto a job update.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Success builds a success outcome.
func Success(message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Message: message}
}

// BusinessFailure builds a business-failure outcome.
func BusinessFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeBusinessFailure, Message: reason}
}

// TechnicalFailure builds a technical-failure outcome.
func TechnicalFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeTechnicalFailure, Message: reason}
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
