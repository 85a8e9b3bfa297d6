package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed sync cycle
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindResolution    ErrorKind = "ResolutionError"
	KindConfigParsing ErrorKind = "ConfigParsingError"
	KindPublish       ErrorKind = "PublishError"
	KindUnknown       ErrorKind = "UnknownError"
)

var (
	ErrResolution    = errors.New("ip resolution failed")
	ErrConfigParsing = errors.New("config parsing failed")
	ErrPublish       = errors.New("publish failed")
)

// Error is an error tagged with its kind and the operation that produced it
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with kind and op
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrResolution:
		return e.Kind == KindResolution
	case ErrConfigParsing:
		return e.Kind == KindConfigParsing
	case ErrPublish:
		return e.Kind == KindPublish
	}
	return false
}

// KindOf returns the kind carried by err, KindNone for nil
// and KindUnknown for untagged errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Causes flattens the wrap chain of err, outermost first
func Causes(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
