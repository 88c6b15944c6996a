package util

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ProtocolFormatError ErrorKind = "ProtocolFormatError"
	ResolutionError     ErrorKind = "ResolutionError"
	ArityOrLengthError  ErrorKind = "ArityOrLengthError"
	IllegalUseError     ErrorKind = "IllegalUseError"
	InvocationError     ErrorKind = "InvocationError"
	TransportError      ErrorKind = "TransportError"
	RejectionError      ErrorKind = "RejectionError"
)

//	Error is the typed error carried both inside the host and across the wire.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (err *Error) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%s: %s: %s", err.Kind, err.Message, err.Err.Error())
	}
	return fmt.Sprintf("%s: %s", err.Kind, err.Message)
}

func (err *Error) Unwrap() error {
	return err.Err
}

//	Is matches another *Error of the same kind and message, so sentinel
//	values below work with errors.Is.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == err.Kind && t.Message == err.Message
}

func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

//	KindOf reports the kind of err, or InvocationError for foreign errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return InvocationError
}

func IsKind(err error, kind ErrorKind) bool {
	var typed *Error
	return errors.As(err, &typed) && typed.Kind == kind
}

var ErrNotFound = &Error{Kind: ResolutionError, Message: "this object does not exist"}
var ErrNoSuchMember = &Error{Kind: ResolutionError, Message: "no such member"}
var ErrUnknownRequest = &Error{Kind: ProtocolFormatError, Message: "request unknown"}

var ErrConnectionFailed = &Error{Kind: TransportError, Message: "the client failed to connect to the server"}
var ErrCallTooLong = &Error{Kind: TransportError, Message: "the reply from the server has exceeded the allowed time"}
var ErrConnection = &Error{Kind: TransportError, Message: "an exception occurred while processing the request"}
var ErrServerBusy = &Error{Kind: RejectionError, Message: "the server is busy and cannot process the requests"}
var ErrSecurityFailed = &Error{Kind: RejectionError, Message: "the server rejected the shared key"}
