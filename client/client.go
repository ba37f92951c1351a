package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Generic messages used when a failed response carries no usable "error" field.
const (
	msgVideoInfo   = "Error fetching video info"
	msgAnalysis    = "Error starting video analysis"
	msgStatus      = "Error checking processing status"
	msgSaveSummary = "Error saving summary"
)

// Client talks to the video-analysis backend. It holds no per-call state and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimiter throttles outgoing requests. A nil limiter disables throttling.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// New returns a client rooted at baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: middleware.NewLoggingTransport(http.DefaultTransport, c.logger),
		}
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type urlRequest struct {
	URL string `json:"url"`
}

type saveSummaryRequest struct {
	Summary string `json:"summary"`
	VideoID string `json:"video_id"`
}

// GetVideoInfo handles POST /video-info.
func (c *Client) GetVideoInfo(ctx context.Context, videoURL string) (json.RawMessage, error) {
	return c.do(ctx, "client.GetVideoInfo", http.MethodPost, "/video-info", urlRequest{URL: videoURL}, msgVideoInfo)
}

// StartAnalysis handles POST /analyze. The body is expected to carry a job_id.
func (c *Client) StartAnalysis(ctx context.Context, videoURL string) (json.RawMessage, error) {
	return c.do(ctx, "client.StartAnalysis", http.MethodPost, "/analyze", urlRequest{URL: videoURL}, msgAnalysis)
}

// CheckStatus handles GET /status/{jobID}.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.do(ctx, "client.CheckStatus", http.MethodGet, "/status/"+url.PathEscape(jobID), nil, msgStatus)
}

// SaveSummary handles POST /save-summary.
func (c *Client) SaveSummary(ctx context.Context, summary, videoID string) (json.RawMessage, error) {
	body := saveSummaryRequest{Summary: summary, VideoID: videoID}
	return c.do(ctx, "client.SaveSummary", http.MethodPost, "/save-summary", body, msgSaveSummary)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}, fallback string) (json.RawMessage, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"op":     op,
		"method": method,
		"path":   path,
	})

	result, err := c.roundTrip(ctx, op, method, path, payload, fallback)
	if err != nil {
		fields := logrus.Fields{}
		if code, ok := apierrors.StatusCode(err); ok {
			fields["status"] = code
		}
		logger.WithFields(fields).WithError(err).Error("API request failed")
		return nil, err
	}
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload interface{}, fallback string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := encodeJSON(payload)
		if err != nil {
			return nil, apierrors.Transport(op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apierrors.Transport(op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apierrors.Transport(op, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.Transport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.Transport(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.Status(op, resp.StatusCode, errorMessage(data, fallback))
	}

	if !json.Valid(data) {
		return nil, apierrors.Transport(op, fmt.Errorf("malformed response: body is not valid JSON"))
	}
	return json.RawMessage(data), nil
}

// errorMessage extracts the backend's "error" field, falling back when the
// body is not JSON or the field is missing, empty or not a string.
func errorMessage(data []byte, fallback string) string {
	var payload struct {
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}
	if msg, ok := payload.Error.(string); ok && msg != "" {
		return msg
	}
	return fallback
}

// encodeJSON matches the compact, unescaped form a browser's JSON.stringify
// would send.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
