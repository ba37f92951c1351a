package models

import (
	"encoding/json"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// StatusMessages are the human-readable descriptions the backend attaches
// to each status.
var StatusMessages = map[Status]string{
	StatusPending:      "Waiting for processing",
	StatusExtracting:   "Extracting audio from video",
	StatusTranscribing: "Transcribing content",
	StatusAnalyzing:    "Analyzing and generating summary",
	StatusCompleted:    "Analysis completed",
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type VideoInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Views       string `json:"views"`
	Likes       string `json:"likes"`
	Comments    string `json:"comments"`
	PublishDate string `json:"publishDate"`
	Duration    string `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
}

type VideoInfoResponse struct {
	VideoInfo VideoInfo `json:"video_info"`
}

type AnalysisResponse struct {
	JobID  string `json:"job_id"`
	Status Status `json:"status,omitempty"`
}

type JobStatus struct {
	JobID    string `json:"job_id"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress"`
}

func (j *JobStatus) IsCompleted() bool { return j.Status == StatusCompleted }
func (j *JobStatus) IsFailed() bool    { return j.Status == StatusFailed }

type SaveSummaryResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// Decode unmarshals an opaque response body into one of the typed views.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
