package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nijaru/yt-summary/client"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/jobs"
	"github.com/nijaru/yt-summary/logger"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/mockapi"
	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	client *client.Client
	out    io.Writer
}

func printUsage() {
	fmt.Println("Usage: yt-summary <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  info <url>                       Fetch video metadata")
	fmt.Println("  analyze [-wait] <url>            Start an analysis job")
	fmt.Println("  status [-wait] <job-id>          Check a job's processing status")
	fmt.Println("  save -video-id <id> [-file f]    Save a summary (reads stdin without -file)")
	fmt.Println("  jobs [-limit n]                  List locally recorded jobs")
	fmt.Println("  mock                             Run a local mock backend")
	fmt.Println()
	fmt.Println("Configuration is read from the environment and an optional .env file.")
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	if err := config.ValidateConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log, err := logger.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}

	c, err := newClient(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize API client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: log, client: c, out: os.Stdout}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "info":
		err = a.runInfo(ctx, args)
	case "analyze":
		err = a.runAnalyze(ctx, args)
	case "status":
		err = a.runStatus(ctx, args)
	case "save":
		err = a.runSave(ctx, args)
	case "jobs":
		err = a.runJobs(ctx, args)
	case "mock":
		err = a.runMock(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newClient(cfg *config.Config, log *logrus.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithLogger(log),
		client.WithHTTPClient(&http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: middleware.NewLoggingTransport(http.DefaultTransport, log),
		}),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, client.WithRateLimiter(rate.NewLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimit)))
	}
	return client.New(cfg.APIBaseURL, opts...)
}

func (a *app) openStore() (*db.Store, error) {
	return db.Open(a.cfg.DBPath)
}

func (a *app) runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: info <url>")
	}
	url := fs.Arg(0)
	if err := validation.ValidateURL(url); err != nil {
		return err
	}

	raw, err := a.client.GetVideoInfo(ctx, url)
	if err != nil {
		return err
	}
	return a.printJSON(raw)
}

func (a *app) runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	wait := fs.Bool("wait", false, "Poll the job until it completes")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: analyze [-wait] <url>")
	}
	url := fs.Arg(0)
	if err := validation.ValidateURL(url); err != nil {
		return err
	}

	raw, err := a.client.StartAnalysis(ctx, url)
	if err != nil {
		return err
	}
	if err := a.printJSON(raw); err != nil {
		return err
	}

	started, err := models.Decode[models.AnalysisResponse](raw)
	if err != nil || started.JobID == "" {
		a.log.WithField("url", url).Warn("Analysis response carried no job_id, nothing to track")
		return nil
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	status := started.Status
	if status == "" {
		status = models.StatusPending
	}
	if err := store.SaveJob(ctx, started.JobID, url, string(status)); err != nil {
		a.log.WithError(err).WithField("job_id", started.JobID).Warn("Failed to record job")
	}

	if !*wait {
		return nil
	}
	return a.wait(ctx, store, started.JobID)
}

func (a *app) runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	wait := fs.Bool("wait", false, "Poll the job until it completes")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: status [-wait] <job-id>")
	}
	jobID := fs.Arg(0)
	if err := validation.ValidateJobID(jobID); err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if *wait {
		return a.wait(ctx, store, jobID)
	}

	raw, err := a.client.CheckStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if status, err := models.Decode[models.JobStatus](raw); err == nil && status.Status != "" {
		if err := store.SetJobStatus(ctx, jobID, string(status.Status), status.Message, status.Progress); err != nil {
			a.log.WithError(err).WithField("job_id", jobID).Debug("Status not recorded")
		}
	}
	return a.printJSON(raw)
}

func (a *app) wait(ctx context.Context, store *db.Store, jobID string) error {
	w := jobs.NewWatcher(a.client, store, a.cfg.PollInterval, a.cfg.PollTimeout, a.log)
	w.OnUpdate = func(s *models.JobStatus) {
		fmt.Fprintf(a.out, "[%3d%%] %s %s\n", s.Progress, s.Status, s.Message)
	}
	_, err := w.Wait(ctx, jobID)
	return err
}

func (a *app) runSave(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	videoID := fs.String("video-id", "", "Video ID the summary belongs to")
	file := fs.String("file", "", "Markdown file with the summary (default: stdin)")
	fs.Parse(args)
	if *videoID == "" {
		return fmt.Errorf("usage: save -video-id <id> [-file summary.md]")
	}

	var (
		summary []byte
		err     error
	)
	if *file != "" {
		summary, err = os.ReadFile(*file)
	} else {
		summary, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading summary: %w", err)
	}

	raw, err := a.client.SaveSummary(ctx, string(summary), *videoID)
	if err != nil {
		return err
	}

	if saved, err := models.Decode[models.SaveSummaryResponse](raw); err == nil {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.RecordSummary(ctx, *videoID, saved.Filename); err != nil {
			a.log.WithError(err).WithField("video_id", *videoID).Warn("Failed to record saved summary")
		}
	}
	return a.printJSON(raw)
}

func (a *app) runJobs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of jobs to list (0 for all)")
	fs.Parse(args)

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.ListJobs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No jobs recorded.")
		return nil
	}
	for _, job := range list {
		fmt.Fprintf(a.out, "%-10s %-13s %3d%%  %s  %s\n",
			job.JobID, job.Status, job.Progress, job.UpdatedAt.Local().Format("2006-01-02 15:04:05"), job.URL)
	}
	return nil
}

func (a *app) runMock(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mock", flag.ExitOnError)
	port := fs.String("port", a.cfg.MockPort, "Port to listen on")
	summaryDir := fs.String("summary-dir", a.cfg.SummaryDir, "Directory saved summaries are written to")
	fs.Parse(args)

	var opts []mockapi.Option
	if a.cfg.RateLimit > 0 {
		opts = append(opts, mockapi.WithRateLimiter(rate.NewLimiter(rate.Every(a.cfg.RateLimitInterval), a.cfg.RateLimit)))
	}
	backend := mockapi.New(*summaryDir, opts...)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      backend.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", *port).Info("Mock backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down the mock backend...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *app) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := a.out.Write(buf.Bytes())
	return err
}
