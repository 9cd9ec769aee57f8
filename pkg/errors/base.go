package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

/*
Kind classifies a failure coming back from one of the external services,
so callers can decide whether to abort, warn, or retry.
*/
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindAuth
	KindRateLimit
	KindNotReady
	KindTransient
	KindMalformed
)

func (kind Kind) String() string {
	switch kind {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindNotReady:
		return "not-ready"
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	}

	return "unknown"
}

/*
Error collects the underlying errors and messages of a failed operation,
tagged with the Kind it was classified as and the operation that failed.
*/
type Error struct {
	Kind Kind
	Op   string
	Errs []error
	Msgs []any
}

/*
Sentinels for errors.Is comparisons. Any *Error matches the sentinel
of its own Kind.
*/
var (
	ErrConfig    = &Error{Kind: KindConfig}
	ErrAuth      = &Error{Kind: KindAuth}
	ErrRateLimit = &Error{Kind: KindRateLimit}
	ErrNotReady  = &Error{Kind: KindNotReady}
	ErrTransient = &Error{Kind: KindTransient}
	ErrMalformed = &Error{Kind: KindMalformed}
)

/*
NewError builds an Error of unknown kind from a mix of errors and messages.
*/
func NewError(errs ...any) error {
	return New(KindUnknown, "", errs...)
}

/*
New builds an Error of the given kind for the named operation.
Arguments that are errors are kept as causes, everything else as messages.
*/
func New(kind Kind, op string, parts ...any) error {
	err := &Error{Kind: kind, Op: op}

	for _, part := range parts {
		switch v := part.(type) {
		case nil:
			continue
		case error:
			err.Errs = append(err.Errs, v)
		default:
			err.Msgs = append(err.Msgs, v)
		}
	}

	return err
}

func Config(op string, parts ...any) error    { return New(KindConfig, op, parts...) }
func Auth(op string, parts ...any) error      { return New(KindAuth, op, parts...) }
func RateLimit(op string, parts ...any) error { return New(KindRateLimit, op, parts...) }
func NotReady(op string, parts ...any) error  { return New(KindNotReady, op, parts...) }
func Transient(op string, parts ...any) error { return New(KindTransient, op, parts...) }
func Malformed(op string, parts ...any) error { return New(KindMalformed, op, parts...) }

func (err *Error) Error() string {
	parts := make([]string, 0, len(err.Errs)+len(err.Msgs))

	for _, msg := range err.Msgs {
		parts = append(parts, fmt.Sprintf("%v", msg))
	}

	for _, cause := range err.Errs {
		parts = append(parts, cause.Error())
	}

	builder := &strings.Builder{}

	if err.Op != "" {
		builder.WriteString(err.Op)
	}

	if err.Kind != KindUnknown {
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}

		builder.WriteString("(" + err.Kind.String() + ")")
	}

	if len(parts) > 0 {
		if builder.Len() > 0 {
			builder.WriteString(": ")
		}

		builder.WriteString(strings.Join(parts, ": "))
	}

	return builder.String()
}

func (err *Error) Unwrap() []error {
	return err.Errs
}

/*
Is matches sentinels by Kind, so errors.Is(err, ErrAuth) holds for any
auth failure regardless of its operation or causes.
*/
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	return t.Kind == err.Kind && t.Op == "" && len(t.Errs) == 0 && len(t.Msgs) == 0
}

/*
KindOf returns the Kind of the first classified Error in the chain.
*/
func KindOf(err error) Kind {
	var target *Error

	if stderrors.As(err, &target) {
		return target.Kind
	}

	return KindUnknown
}

/*
FromStatus classifies a non-success HTTP response from one of the
external APIs. The response body is kept verbatim in the message.
*/
func FromStatus(op string, status int, body string) error {
	msg := fmt.Sprintf("status %d", status)

	if body = strings.TrimSpace(body); body != "" {
		msg += " " + body
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Auth(op, msg)
	case status == http.StatusTooManyRequests:
		return RateLimit(op, msg)
	case status == http.StatusNotFound:
		return NotReady(op, msg)
	case status >= http.StatusInternalServerError:
		return Transient(op, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return Malformed(op, msg)
	}

	return New(KindUnknown, op, msg)
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
