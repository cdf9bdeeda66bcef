package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// statusStep is one point in a job's scripted lifecycle.
type statusStep struct {
	after  time.Duration
	status string
}

// mockJob tracks when a job was first observed so its status can
// progress with wall-clock time.
type mockJob struct {
	createdAt time.Time
	plan      []statusStep
}

// plans describes how each job kind progresses. A job reports the status
// of the last step whose offset has elapsed since the first request.
var plans = map[string][]statusStep{
	"training": {
		{0, "training"},
		{25 * time.Second, "ready"},
	},
	"generation": {
		{0, "pending"},
		{8 * time.Second, "generating"},
		{20 * time.Second, "success"},
	},
	"look": {
		{0, "processing"},
		{15 * time.Second, "completed"},
	},
}

// StartMockJobServer runs a mock job-status API. Each job starts its
// lifecycle on the first request for it and progresses through its
// kind's plan as wall-clock time passes.
// Call this in a goroutine before tracking any jobs.
func StartMockJobServer(addr string) {
	var (
		jobs = make(map[string]*mockJob)
		mu   sync.Mutex
	)

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("job")
		kind := r.URL.Query().Get("kind")
		plan, ok := plans[kind]
		if id == "" || !ok {
			http.Error(w, "unknown job", http.StatusNotFound)
			return
		}

		mu.Lock()
		job, exists := jobs[id]
		if !exists {
			job = &mockJob{createdAt: time.Now(), plan: plan}
			jobs[id] = job
			slog.Info("job started", "job", id, "kind", kind)
		}
		elapsed := time.Since(job.createdAt)
		status := job.plan[0].status
		for _, step := range job.plan {
			if elapsed >= step.after {
				status = step.status
			}
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]string{
			"id":     id,
			"status": status,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
