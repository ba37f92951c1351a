package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    job_id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    message TEXT NOT NULL DEFAULT '',
    progress INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL,
    filename TEXT NOT NULL DEFAULT '',
    saved_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_summaries_video_id ON summaries(video_id);
`

// Job is the local record of an analysis job submitted to the backend.
type Job struct {
	JobID     string
	URL       string
	Status    string
	Message   string
	Progress  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SummaryRecord struct {
	ID       int64
	VideoID  string
	Filename string
	SavedAt  time.Time
}

// Store keeps a local history of jobs and saved summaries.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Debug("Initializing database")

	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "error creating directory for database")
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "error creating tables")
	}

	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob inserts a job, or resets url and status if the id is already known.
func (s *Store) SaveJob(ctx context.Context, jobID, url, status string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO jobs (job_id, url, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET url=excluded.url, status=excluded.status, updated_at=excluded.updated_at`,
		jobID, url, status, now, now)
	if err != nil {
		return errors.Wrapf(err, "error saving job %s", jobID)
	}
	return nil
}

func (s *Store) SetJobStatus(ctx context.Context, jobID, status, message string, progress int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error beginning transaction")
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE jobs SET status = ?, message = ?, progress = ?, updated_at = ? WHERE job_id = ?",
		status, message, progress, time.Now().UTC(), jobID)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "error executing statement")
	}

	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "error reading affected rows")
	}
	if n == 0 {
		tx.Rollback()
		return errors.Wrapf(ErrNotFound, "job %s", jobID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing transaction")
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := s.db.QueryRowContext(ctx,
		"SELECT job_id, url, status, message, progress, created_at, updated_at FROM jobs WHERE job_id = ?",
		jobID).Scan(&job.JobID, &job.URL, &job.Status, &job.Message, &job.Progress, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "job %s", jobID)
		}
		return nil, errors.Wrap(err, "error querying database")
	}
	return &job, nil
}

// ListJobs returns the most recently updated jobs first. limit <= 0 means no limit.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT job_id, url, status, message, progress, created_at, updated_at FROM jobs ORDER BY updated_at DESC, job_id LIMIT ?",
		limit)
	if err != nil {
		return nil, errors.Wrap(err, "error querying database")
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.JobID, &job.URL, &job.Status, &job.Message, &job.Progress, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning job")
		}
		jobs = append(jobs, job)
	}
	return jobs, errors.Wrap(rows.Err(), "error iterating jobs")
}

func (s *Store) DeleteJob(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE job_id = ?", jobID); err != nil {
		return errors.Wrap(err, "error executing delete statement")
	}
	return nil
}

func (s *Store) RecordSummary(ctx context.Context, videoID, filename string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO summaries (video_id, filename, saved_at) VALUES (?, ?, ?)",
		videoID, filename, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "error recording summary for %s", videoID)
	}
	return nil
}

func (s *Store) ListSummaries(ctx context.Context, videoID string) ([]SummaryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, video_id, filename, saved_at FROM summaries WHERE video_id = ? ORDER BY id",
		videoID)
	if err != nil {
		return nil, errors.Wrap(err, "error querying database")
	}
	defer rows.Close()

	var records []SummaryRecord
	for rows.Next() {
		var r SummaryRecord
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Filename, &r.SavedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning summary")
		}
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "error iterating summaries")
}
