package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Error taxonomy (spec.md §7). Per-line failures
 *		(SignalRejected, Filtered, MalformedPacket, InsufficientMargin)
 *		are folded into the output stream as sentinels and never abort
 *		a run; ConfigError and IOError are fatal for the whole run.
 *
 *------------------------------------------------------------------*/

import "fmt"

// Kind classifies an Error without requiring callers to match on type.
type Kind int

const (
	// SignalRejected: detection thresholds not met for this line.
	SignalRejected Kind = iota
	// Filtered: line's MRAG falls outside the selected mags/rows.
	Filtered
	// MalformedPacket: 42-byte buffer fails a structural check.
	MalformedPacket
	// InsufficientMargin: pattern-matcher input too short for the window.
	InsufficientMargin
	// SliceBelowNoise: the threshold/differential fallback decoder found
	// too little amplitude in a line to slice bits from it.
	SliceBelowNoise
	// ConfigError: missing or invalid configuration. Fatal for the run.
	ConfigError
	// IOError: input file unreadable. Fatal for the run.
	IOError
)

func (k Kind) String() string {
	switch k {
	case SignalRejected:
		return "SignalRejected"
	case Filtered:
		return "Filtered"
	case MalformedPacket:
		return "MalformedPacket"
	case InsufficientMargin:
		return "InsufficientMargin"
	case SliceBelowNoise:
		return "SliceBelowNoise"
	case ConfigError:
		return "ConfigError"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Fatal reports whether this kind of error should abort the whole run,
// rather than being folded into the output stream as a per-line sentinel.
func (k Kind) Fatal() bool {
	return k == ConfigError || k == IOError
}

// Error is the concrete error type for every failure kind in the taxonomy.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
