package hotspot

import (
	"errors"
	"fmt"
)

// Kind classifies flow failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindMalformedURL
	KindIO
	KindParse
	KindPlaybackUnavailable
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrTimeout             = errors.New("hotspot discovery timed out")
	ErrMalformedURL        = errors.New("malformed URL")
	ErrIO                  = errors.New("I/O error")
	ErrParse               = errors.New("capabilities parse error")
	ErrPlaybackUnavailable = errors.New("playback unavailable")
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindMalformedURL:
		return "MalformedURL"
	case KindIO:
		return "IO"
	case KindParse:
		return "ParseError"
	case KindPlaybackUnavailable:
		return "PlaybackUnavailable"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindMalformedURL:
		return ErrMalformedURL
	case KindIO:
		return ErrIO
	case KindParse:
		return ErrParse
	case KindPlaybackUnavailable:
		return ErrPlaybackUnavailable
	default:
		return nil
	}
}

// Error is a classified flow failure.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "fetch capabilities"
	Err  error  // underlying cause, may be nil
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage returns the short text shown to the user for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "Could not find a hotspot on this network"
	case KindMalformedURL:
		return "Malformed hotspot URL"
	case KindIO:
		return "Could not reach the hotspot"
	case KindParse:
		return "Hotspot sent an invalid capabilities list"
	case KindPlaybackUnavailable:
		return "Playback unavailable"
	default:
		return "Unexpected error"
	}
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}

// UserMessage returns the user-visible text for any error.
func UserMessage(err error) string {
	var he *Error
	if errors.As(err, &he) {
		return he.UserMessage()
	}
	return fmt.Sprintf("Error: %v", err)
}
