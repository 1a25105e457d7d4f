package fbpost

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrConfig           = errors.New("configuration error")
	ErrAuth             = errors.New("authentication failed")
	ErrPermission       = errors.New("permission denied")
	ErrTwoFactorTimeout = errors.New("two-factor verification timed out")
	ErrLaunch           = errors.New("browser launch failed")
	ErrComposition      = errors.New("composer not found")
	ErrValidation       = errors.New("invalid request")
	ErrUpload           = errors.New("media upload failed")
	ErrPostFailed       = errors.New("post not confirmed")
	ErrNetwork          = errors.New("network failure")
	ErrIO               = errors.New("i/o failure")
)

// Error attaches a kind, the provider, and the failed step to an underlying cause.
type Error struct {
	Kind     error
	Provider string
	Step     string
	Err      error
}

// NewError returns an *Error for the given kind.
func NewError(kind error, provider, step string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Step: step, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	if e.Step != "" {
		b.WriteString(e.Step)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if e.Kind != nil {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}

// Is reports MissingEnvError as a configuration error.
func (e MissingEnvError) Is(target error) bool { return target == ErrConfig }

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

// Is reports ValidationError as ErrValidation.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }
