// Standalone mock job-status server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/jobpoll watch -c example/jobs.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	fmt.Println("Mock job server starting on :9999")
	fmt.Println("Jobs progress through their lifecycle as time passes")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

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
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":     id,
			"status": status,
		})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type statusStep struct {
	after  time.Duration
	status string
}

type mockJob struct {
	createdAt time.Time
	plan      []statusStep
}

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
