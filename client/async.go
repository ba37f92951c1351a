package client

import (
	"context"
	"encoding/json"
)

// Result is the outcome of an operation started with Go.
type Result struct {
	Body json.RawMessage
	Err  error
}

// Call is any of the Client operations with its arguments bound.
type Call func(ctx context.Context) (json.RawMessage, error)

// Go runs call on its own goroutine. The returned channel receives exactly
// one Result and is then closed.
func Go(ctx context.Context, call Call) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		body, err := call(ctx)
		out <- Result{Body: body, Err: err}
	}()
	return out
}

// Bound helpers so callers can write client.Go(ctx, c.StatusCall(id)).

func (c *Client) VideoInfoCall(videoURL string) Call {
	return func(ctx context.Context) (json.RawMessage, error) { return c.GetVideoInfo(ctx, videoURL) }
}

func (c *Client) AnalysisCall(videoURL string) Call {
	return func(ctx context.Context) (json.RawMessage, error) { return c.StartAnalysis(ctx, videoURL) }
}

func (c *Client) StatusCall(jobID string) Call {
	return func(ctx context.Context) (json.RawMessage, error) { return c.CheckStatus(ctx, jobID) }
}

func (c *Client) SaveSummaryCall(summary, videoID string) Call {
	return func(ctx context.Context) (json.RawMessage, error) { return c.SaveSummary(ctx, summary, videoID) }
}
