package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// RequestError is the only failure kind the API client produces. Callers
// present Message as-is; Op and StatusCode are there for diagnostics.
type RequestError struct {
	Op         string `json:"-"`
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Status builds the error for a non-2xx backend response.
func Status(op string, code int, message string) *RequestError {
	return &RequestError{
		Op:         op,
		StatusCode: code,
		Message:    message,
	}
}

// Transport builds the error for a request that never produced a usable
// response. The message is the cause's own message.
func Transport(op string, err error) *RequestError {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return &RequestError{
		Op:      op,
		Message: msg,
		Err:     errors.WithStack(err),
	}
}

// StatusCode reports the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if stderrors.As(err, &reqErr) && reqErr.StatusCode != 0 {
		return reqErr.StatusCode, true
	}
	return 0, false
}

// IsRequestError reports whether err is, or wraps, a *RequestError.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return stderrors.As(err, &reqErr)
}
