package errutil

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BaseError is the error type returned across service boundaries. Fields are
// flattened into the JSON body next to success, message and code.
type BaseError struct {
	Code    CoreStatus
	Message string
	Details []Detail
	Fields  map[string]any
	Err     error
}

func (e BaseError) Status() CoreStatus {
	return e.Code
}

func (e BaseError) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		body[k] = v
	}
	body["success"] = false
	body["message"] = e.Message
	body["code"] = e.Code
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return json.Marshal(body)
}

func (e BaseError) Unwrap() error {
	return e.Err
}

func (e BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

type Option func(*BaseError)

func WithDetails(details ...Detail) Option {
	return func(be *BaseError) { be.Details = details }
}

func WithErr(err error) Option {
	return func(be *BaseError) { be.Err = err }
}

// WithFields adds extra top-level keys to the rendered error body.
func WithFields(fields map[string]any) Option {
	return func(be *BaseError) {
		if be.Fields == nil {
			be.Fields = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			be.Fields[k] = v
		}
	}
}

func New(code CoreStatus, message string, opts ...Option) error {
	be := BaseError{Code: code, Message: message}
	for _, opt := range opts {
		opt(&be)
	}
	return be
}

func newWithErr(code CoreStatus, msg string, err error, options []Option) error {
	if err != nil {
		options = append([]Option{WithErr(err)}, options...)
	}
	return New(code, msg, options...)
}

// As extracts a BaseError from err's chain.
func As(err error) (BaseError, bool) {
	var be BaseError
	if errors.As(err, &be) {
		return be, true
	}
	return BaseError{}, false
}

// IsStatus reports whether err carries the given status.
func IsStatus(err error, code CoreStatus) bool {
	be, ok := As(err)
	return ok && be.Code == code
}

func NotFound(msg string, err error, options ...Option) error {
	return newWithErr(StatusNotFound, msg, err, options)
}

func Conflict(msg string, err error, options ...Option) error {
	return newWithErr(StatusConflict, msg, err, options)
}

func BadRequest(msg string, err error, options ...Option) error {
	return newWithErr(StatusBadRequest, msg, err, options)
}

func ValidationFailed(msg string, err error, options ...Option) error {
	return newWithErr(StatusValidationFailed, msg, err, options)
}

func PaymentRequired(msg string, err error, options ...Option) error {
	return newWithErr(StatusPaymentRequired, msg, err, options)
}

func Internal(msg string, err error, options ...Option) error {
	return newWithErr(StatusInternal, msg, err, options)
}

func TooManyRequest(msg string, err error, options ...Option) error {
	return newWithErr(StatusTooManyRequests, msg, err, options)
}

func ServiceUnavailable(msg string, err error, options ...Option) error {
	return newWithErr(StatusServiceUnavailable, msg, err, options)
}
