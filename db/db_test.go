package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetJob(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveJob(ctx, "42", "https://youtu.be/abc", "pending"); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	job, err := store.GetJob(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.URL != "https://youtu.be/abc" {
		t.Errorf("expected url 'https://youtu.be/abc', got '%s'", job.URL)
	}
	if job.Status != "pending" {
		t.Errorf("expected status 'pending', got '%s'", job.Status)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestSetJobStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveJob(ctx, "42", "https://youtu.be/abc", "pending"); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}
	if err := store.SetJobStatus(ctx, "42", "transcribing", "Transcribing content", 84); err != nil {
		t.Fatalf("Failed to set job status: %v", err)
	}

	job, err := store.GetJob(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.Status != "transcribing" || job.Message != "Transcribing content" || job.Progress != 84 {
		t.Errorf("unexpected job state: %+v", job)
	}
}

func TestSetJobStatus_UnknownJob(t *testing.T) {
	store := openTestStore(t)

	err := store.SetJobStatus(context.Background(), "missing", "completed", "", 100)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteJob(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveJob(ctx, "42", "https://youtu.be/abc", "pending"); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}
	if err := store.DeleteJob(ctx, "42"); err != nil {
		t.Fatalf("Failed to delete job: %v", err)
	}

	_, err := store.GetJob(ctx, "42")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListJobs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if err := store.SaveJob(ctx, id, "https://youtu.be/"+id, "pending"); err != nil {
			t.Fatalf("Failed to save job: %v", err)
		}
	}
	if err := store.SetJobStatus(ctx, "1", "completed", "Analysis completed", 100); err != nil {
		t.Fatalf("Failed to set job status: %v", err)
	}

	jobs, err := store.ListJobs(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].JobID != "1" {
		t.Errorf("expected most recently updated job first, got %s", jobs[0].JobID)
	}

	limited, err := store.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(limited))
	}
}

func TestRecordSummary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordSummary(ctx, "abc", "summaries/summary_abc.md"); err != nil {
		t.Fatalf("Failed to record summary: %v", err)
	}
	if err := store.RecordSummary(ctx, "xyz", "summaries/summary_xyz.md"); err != nil {
		t.Fatalf("Failed to record summary: %v", err)
	}

	records, err := store.ListSummaries(ctx, "abc")
	if err != nil {
		t.Fatalf("Failed to list summaries: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "summaries/summary_abc.md" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestOpen_Error(t *testing.T) {
	// A regular file where the parent directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(filepath.Join(blocker, "sub", "test.db")); err == nil {
		t.Fatal("expected error, got nil")
	}
}
