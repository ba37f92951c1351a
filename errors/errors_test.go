package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	err := Status("client.GetVideoInfo", http.StatusBadRequest, "video URL not provided")

	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, err.StatusCode)
	}
	if err.Error() != "video URL not provided" {
		t.Errorf("expected error string 'video URL not provided', got '%s'", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected no cause, got %v", err.Unwrap())
	}
}

func TestTransportKeepsCauseMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp 127.0.0.1:5000: connect: connection refused")
	err := Transport("client.CheckStatus", cause)

	if err.Error() != cause.Error() {
		t.Errorf("expected '%s', got '%s'", cause.Error(), err.Error())
	}
	if err.Unwrap() == nil {
		t.Fatal("expected cause to be preserved")
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{
			name:     "status error",
			err:      Status("op", http.StatusNotFound, "not found"),
			wantCode: http.StatusNotFound,
			wantOK:   true,
		},
		{
			name:     "wrapped status error",
			err:      fmt.Errorf("outer: %w", Status("op", http.StatusInternalServerError, "boom")),
			wantCode: http.StatusInternalServerError,
			wantOK:   true,
		},
		{
			name:   "transport error",
			err:    Transport("op", fmt.Errorf("refused")),
			wantOK: false,
		},
		{
			name:   "non-custom error",
			err:    fmt.Errorf("standard error"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := StatusCode(tt.err)
			if ok != tt.wantOK || code != tt.wantCode {
				t.Errorf("StatusCode() = (%d, %v), want (%d, %v)", code, ok, tt.wantCode, tt.wantOK)
			}
		})
	}
}

func TestIsRequestError(t *testing.T) {
	if !IsRequestError(Transport("op", fmt.Errorf("x"))) {
		t.Error("expected transport error to be a request error")
	}
	if IsRequestError(fmt.Errorf("plain")) {
		t.Error("expected plain error not to be a request error")
	}
}
