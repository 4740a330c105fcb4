package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can react without parsing messages.
type ErrorKind string

const (
	KindInput       ErrorKind = "input"
	KindRender      ErrorKind = "render"
	KindRecognition ErrorKind = "recognition"
	KindAggregation ErrorKind = "aggregation"
	KindNotFound    ErrorKind = "not_found"
	KindNotReady    ErrorKind = "not_ready"
	KindOverloaded  ErrorKind = "overloaded"
	KindInternal    ErrorKind = "internal"
)

// DomainError carries a kind alongside the message and the wrapped cause.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by kind, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func NewError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

func InputError(message string, err error) *DomainError {
	return NewError(KindInput, message, err)
}

func RenderError(message string, err error) *DomainError {
	return NewError(KindRender, message, err)
}

func RecognitionError(message string, err error) *DomainError {
	return NewError(KindRecognition, message, err)
}

func AggregationError(message string, err error) *DomainError {
	return NewError(KindAggregation, message, err)
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound   = &DomainError{Kind: KindNotFound}
	ErrNotReady   = &DomainError{Kind: KindNotReady}
	ErrOverloaded = &DomainError{Kind: KindOverloaded}
)

// KindOf returns the kind of the first DomainError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
