// Package mockapi serves a local stand-in for the video-analysis backend so
// the client and CLI can be exercised without it.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// pollStep is how far a job created through /analyze advances per status poll.
const pollStep = 20

type Server struct {
	summaryDir string
	limiter    *rate.Limiter

	mu     sync.Mutex
	videos map[string]models.VideoInfo
	jobs   map[string]int
	nextID int
}

type Option func(*Server)

// WithRateLimiter rejects requests over the limit with 429.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(s *Server) { s.limiter = limiter }
}

func New(summaryDir string, opts ...Option) *Server {
	s := &Server{
		summaryDir: summaryDir,
		videos:     make(map[string]models.VideoInfo),
		jobs:       make(map[string]int),
		nextID:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddVideo registers the metadata returned for url.
func (s *Server) AddVideo(videoURL string, info models.VideoInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[videoURL] = info
}

// Handler routes the backend endpoints under /api.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/video-info", s.handleVideoInfo)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/status/{id}", s.handleStatus)
	mux.HandleFunc("POST /api/save-summary", s.handleSaveSummary)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.HandleError(w, "Not found", http.StatusNotFound)
	})
	return middleware.LoggingMiddleware(s.rateLimit(mux))
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			utils.HandleError(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type urlRequest struct {
	URL string `json:"url"`
}

type saveSummaryRequest struct {
	Summary string `json:"summary"`
	VideoID string `json:"video_id"`
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.HandleError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		utils.HandleError(w, "video URL not provided", http.StatusBadRequest)
		return
	}

	info, err := s.lookupVideo(req.URL)
	if err != nil {
		utils.HandleError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.VideoInfoResponse{VideoInfo: info})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.HandleError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		utils.HandleError(w, "video URL not provided", http.StatusBadRequest)
		return
	}
	if _, err := s.lookupVideo(req.URL); err != nil {
		utils.HandleError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	jobID := strconv.Itoa(s.nextID)
	s.nextID++
	s.jobs[jobID] = 0
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"job_id": jobID, "url": req.URL}).Info("Analysis job created")
	utils.RespondWithJSON(w, http.StatusOK, models.AnalysisResponse{JobID: jobID, Status: models.StatusPending})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	n, err := s.advance(jobID)
	if err != nil {
		utils.HandleError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, simulateStatus(jobID, n))
}

func (s *Server) handleSaveSummary(w http.ResponseWriter, r *http.Request) {
	var req saveSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.HandleError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Summary == "" || req.VideoID == "" {
		utils.HandleError(w, "summary or video ID not provided", http.StatusBadRequest)
		return
	}
	if strings.ContainsAny(req.VideoID, `/\`) || req.VideoID == "." || req.VideoID == ".." {
		utils.HandleError(w, "invalid video ID", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(s.summaryDir, 0o755); err != nil {
		utils.HandleError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	filename := filepath.Join(s.summaryDir, fmt.Sprintf("summary_%s.md", req.VideoID))
	if err := os.WriteFile(filename, []byte(req.Summary), 0o644); err != nil {
		utils.HandleError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.SaveSummaryResponse{Success: true, Filename: filename})
}

// advance returns the simulation position for jobID. Jobs created through
// /analyze move forward on every poll; any other numeric id maps to id mod 100.
func (s *Server) advance(jobID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.jobs[jobID]; ok {
		s.jobs[jobID] = n + pollStep
		return n, nil
	}

	id, err := strconv.Atoi(jobID)
	if err != nil {
		return 0, fmt.Errorf("invalid job ID: %s", jobID)
	}
	// floored modulo, so negative ids land in [0, 100) as well
	return ((id % 100) + 100) % 100, nil
}

func simulateStatus(jobID string, n int) models.JobStatus {
	var (
		status   models.Status
		progress int
	)
	switch {
	case n < 20:
		status, progress = models.StatusExtracting, n*5
	case n < 50:
		status, progress = models.StatusTranscribing, n*2
	case n < 80:
		status, progress = models.StatusAnalyzing, n+20
	default:
		status, progress = models.StatusCompleted, 100
	}
	return models.JobStatus{
		JobID:    jobID,
		Status:   status,
		Message:  models.StatusMessages[status],
		Progress: progress,
	}
}

func (s *Server) lookupVideo(videoURL string) (models.VideoInfo, error) {
	s.mu.Lock()
	info, ok := s.videos[videoURL]
	s.mu.Unlock()
	if ok {
		return info, nil
	}

	id := videoID(videoURL)
	if id == "" {
		return models.VideoInfo{}, fmt.Errorf("could not get video information: unrecognized video URL %s", videoURL)
	}
	return models.VideoInfo{
		ID:          id,
		Title:       "Video " + id,
		Channel:     "N/A",
		Views:       "0",
		Likes:       "N/A",
		Comments:    "N/A",
		PublishDate: "N/A",
		Duration:    "0:00",
		Thumbnail:   fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id),
	}, nil
}

// videoID extracts the YouTube id from watch, short and youtu.be links.
func videoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.Trim(u.Path, "/")
	switch {
	case host == "youtu.be":
		return path
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if rest, ok := strings.CutPrefix(path, "shorts/"); ok {
			return rest
		}
	}
	return ""
}
