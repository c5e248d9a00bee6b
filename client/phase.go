package client

// Phase represents the lifecycle state of a transaction.
// Transitions are strictly one-way; no phase is ever revisited.
type Phase int

const (
	// NotStarted indicates the transaction has not been opened on the server.
	NotStarted Phase = iota
	// Open indicates the server has assigned an id and accepts statements.
	Open
	// Committed is terminal: the transaction committed successfully.
	Committed
	// RolledBack is terminal: the transaction was abandoned by the caller.
	RolledBack
	// Failed is terminal: an open or send failure made the transaction unusable.
	Failed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "NOT_STARTED"
	case Open:
		return "OPEN"
	case Committed:
		return "COMMITTED"
	case RolledBack:
		return "ROLLED_BACK"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == Committed || p == RolledBack || p == Failed
}

// legalTransition is the single place phase legality is decided.
//
// Legal transitions:
//   - NOT_STARTED → OPEN (successful begin)
//   - NOT_STARTED → FAILED (failed begin)
//   - OPEN → COMMITTED | ROLLED_BACK | FAILED
func legalTransition(from, to Phase) bool {
	switch from {
	case NotStarted:
		return to == Open || to == Failed
	case Open:
		return to == Committed || to == RolledBack || to == Failed
	default:
		return false
	}
}
