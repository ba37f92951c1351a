package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nijaru/yt-summary/client"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Recorder persists each status observed while waiting.
type Recorder interface {
	SetJobStatus(ctx context.Context, jobID, status, message string, progress int) error
}

// Watcher polls a job's status until it reaches a terminal state.
type Watcher struct {
	StatusFunc func(ctx context.Context, jobID string) (json.RawMessage, error)
	OnUpdate   func(status *models.JobStatus)
	Recorder   Recorder
	Interval   time.Duration
	Timeout    time.Duration
	logger     *logrus.Logger
}

func NewWatcher(c *client.Client, recorder Recorder, interval, timeout time.Duration, logger *logrus.Logger) *Watcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Watcher{
		StatusFunc: c.CheckStatus,
		Recorder:   recorder,
		Interval:   interval,
		Timeout:    timeout,
		logger:     logger,
	}
}

// Wait returns the first terminal status seen for jobID. A status request
// that fails ends the wait with that error; nothing is retried.
func (w *Watcher) Wait(ctx context.Context, jobID string) (*models.JobStatus, error) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	logger := w.log().WithField("job_id", jobID)
	limiter := rate.NewLimiter(rate.Every(w.Interval), 1)

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			logger.WithError(err).WithField("attempt", attempt).Warn("Stopped waiting for job")
			return nil, errors.Wrapf(err, "waiting for job %s", jobID)
		}

		raw, err := w.StatusFunc(ctx, jobID)
		if err != nil {
			return nil, err
		}

		status, err := models.Decode[models.JobStatus](raw)
		if err != nil {
			logger.WithError(err).Error("Failed to decode job status")
			return nil, errors.Wrap(err, "decoding job status")
		}
		if status.JobID == "" {
			status.JobID = jobID
		}

		logger.WithFields(logrus.Fields{
			"attempt":  attempt,
			"status":   status.Status,
			"progress": status.Progress,
		}).Debug("Polled job status")

		w.record(ctx, &status)
		if w.OnUpdate != nil {
			w.OnUpdate(&status)
		}

		if status.IsFailed() {
			return &status, errors.Errorf("job %s failed: %s", jobID, status.Message)
		}
		if status.Status.IsTerminal() {
			return &status, nil
		}
	}
}

func (w *Watcher) record(ctx context.Context, status *models.JobStatus) {
	if w.Recorder == nil {
		return
	}
	err := w.Recorder.SetJobStatus(ctx, status.JobID, string(status.Status), status.Message, status.Progress)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		w.log().WithField("job_id", status.JobID).Debug("Job not in local history, status not recorded")
	default:
		w.log().WithError(err).WithField("job_id", status.JobID).Warn("Failed to record job status")
	}
}

func (w *Watcher) log() *logrus.Logger {
	if w.logger == nil {
		return logrus.StandardLogger()
	}
	return w.logger
}
