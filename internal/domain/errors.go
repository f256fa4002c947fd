package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so every layer can turn it into a user-facing message.
type Kind string

const (
	KindIngestion    Kind = "ingestion"
	KindPrecondition Kind = "precondition"
	KindNoResult     Kind = "no_result"
	KindTransport    Kind = "transport"
	KindRemote       Kind = "remote"
)

// QuotaMessage is shown when the remote service rejects a request for rate or quota reasons.
const QuotaMessage = "service temporarily unavailable due to high demand"

var (
	ErrIngestion    = &Error{Kind: KindIngestion, Message: "Failed to read the selected file."}
	ErrPrecondition = &Error{Kind: KindPrecondition, Message: "Please upload both a person and a garment image."}
	ErrNoResult     = &Error{Kind: KindNoResult, Message: "The model did not return an image. Try different photos."}
	ErrTransport    = &Error{Kind: KindTransport, Message: "Could not reach the image generation service."}
	ErrRemote       = &Error{Kind: KindRemote, Message: "The image generation service returned an error."}
)

// maxDetailLen caps the remote service's own reason before it reaches users.
const maxDetailLen = 300

// Error is a classified failure. Message and Detail are safe to show to users;
// Err keeps the cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	// Detail is the reason the remote service gave, when it gave one.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTransport) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewIngestionError(err error) *Error {
	return newError(KindIngestion, ErrIngestion.Message, err)
}

func NewPreconditionError() *Error {
	return newError(KindPrecondition, ErrPrecondition.Message, nil)
}

// NewNoResultError appends the model's own explanation when it sent one.
func NewNoResultError(modelText string, err error) *Error {
	msg := ErrNoResult.Message
	if modelText != "" {
		msg = fmt.Sprintf("%s Model response: %s", msg, modelText)
	}
	return newError(KindNoResult, msg, err)
}

func NewTransportError(err error) *Error {
	return newError(KindTransport, ErrTransport.Message, err)
}

func NewRemoteError(message string, err error) *Error {
	if message == "" {
		message = ErrRemote.Message
	}
	return newError(KindRemote, message, err)
}

// NewRemoteErrorWithDetail keeps the service's own explanation for display.
func NewRemoteErrorWithDetail(detail string, err error) *Error {
	e := NewRemoteError("", err)
	detail = strings.TrimSpace(detail)
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}
	e.Detail = detail
	return e
}

// Message renders err as the single string stored in the view state.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Detail != "" {
			return fmt.Sprintf("%s (%s)", de.Message, de.Detail)
		}
		return de.Message
	}
	return err.Error()
}

// KindOf reports the kind of a classified error, or "" when err is unclassified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
