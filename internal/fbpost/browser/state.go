package browser

import "errors"

// State is the lifecycle position of a Bot.
type State int

const (
	Uninitialized State = iota
	LaunchingBrowser
	LoggedOut
	LoggingIn
	LoggedIn
	Posting
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LaunchingBrowser:
		return "launching"
	case LoggedOut:
		return "logged-out"
	case LoggingIn:
		return "logging-in"
	case LoggedIn:
		return "logged-in"
	case Posting:
		return "posting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrInvalidState is returned when an operation is called from a state that
// does not allow it.
var ErrInvalidState = errors.New("invalid bot state")
