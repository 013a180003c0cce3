package goerror

import (
	"errors"
	"net/http"
)

// Sentinels returned by repositories.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Code classifies an Error and selects its HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeBadGateway reports an upstream (mail relay, broker) failure.
	CodeBadGateway
)

var codeInfo = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"TIMEOUT", http.StatusRequestTimeout},
	CodeBadGateway:     {"BAD_GATEWAY", http.StatusBadGateway},
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}
	return codeInfo[CodeInternal].name
}

// Error is what handlers return to clients: a safe message, a code and
// optional details, wrapping the internal cause (if any) for logs.
type Error struct {
	cause  error
	msg    string
	code   Code
	fields map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.code.String()
	}
}

// Msg is the client facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Code() Code { return e.code }

// Fields are details rendered under "error" in the response envelope.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) StatusCode() int {
	if info, ok := codeInfo[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// pairs turns "k1", "v1", "k2", "v2" into a map. A trailing key without a
// value is dropped.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return &Error{cause: err, msg: "Internal server error", code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, code: code}
}

// NewBusinessWithFields is NewBusiness plus key/value details, for example
// "remaining_attempts", "2".
func NewBusinessWithFields(msg string, code Code, kv ...string) error {
	return &Error{msg: msg, code: code, fields: pairs(kv)}
}

// NewInvalidInput reports a 422. With a non nil err (typically a validator
// error) the cause supplies the field messages; otherwise kv does. An odd kv
// list is a programming error and degrades to a 400.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}
	return &Error{msg: "Validation error", code: CodeInvalidInput, fields: pairs(kv)}
}

// NewInvalidFormat reports a 400 for bodies or queries that cannot be parsed.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, code: CodeInvalidFormat}
}
