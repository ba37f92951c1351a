package validation

import (
	"net/url"
	"strings"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateURL checks a video URL before it is sent to the backend.
func ValidateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &ValidationError{Message: "error: URL is required"}
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return &ValidationError{Message: "error: invalid URL format"}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Message: "error: URL must start with http or https"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Message: "error: URL must have a host"}
	}

	// youtube.com/watch links carry the video id in "v"
	if strings.Contains(parsedURL.Host, "youtube.com") && parsedURL.Path == "/watch" {
		if parsedURL.Query().Get("v") == "" {
			return &ValidationError{Message: "error: YouTube URL must contain a valid video ID"}
		}
	}

	return nil
}

// ValidateJobID rejects ids that cannot form a single path segment.
func ValidateJobID(jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return &ValidationError{Message: "error: job ID is required"}
	}
	if strings.Contains(jobID, "/") {
		return &ValidationError{Message: "error: job ID must not contain '/'"}
	}
	return nil
}
