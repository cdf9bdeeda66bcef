package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heyarsen/jobpoll"
	"github.com/heyarsen/jobpoll/track"
)

// checkStatus builds a StatusFunc that queries the mock server for one job.
func checkStatus(url string) track.StatusFunc {
	return func(ctx context.Context) (track.Status, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return track.StatusUnknown, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return track.StatusUnknown, err
		}
		defer resp.Body.Close()

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return track.StatusUnknown, err
		}
		return track.ParseStatus(body.Status), nil
	}
}

func main() {
	// start mock server (see mock_server.go)
	go StartMockJobServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// cancelling the context tears down every active poll
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := jobpoll.New(
		jobpoll.WithLogger(logger),
		jobpoll.WithContext(ctx),
	)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer eng.StopAll()

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   jobpoll Demo                                        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Tracking three mock jobs until they finish:         ║")
	fmt.Println("  ║   • avatar-1   (training, ready after ~25s)           ║")
	fmt.Println("  ║   • portrait-1 (generation, success after ~20s)       ║")
	fmt.Println("  ║   • look-1     (look, completed after ~15s)           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop early                          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// training: fixed-cadence polling, shortened from the default 30s
	training, err := track.NewTrainingTracker(eng,
		track.WithTrainingInterval(5*time.Second),
		track.WithTrainingLogger(logger),
		track.WithOnReady(func(id string, status track.Status) {
			fmt.Printf("  ✔ %s is %s\n", id, status)
		}),
	)
	if err != nil {
		slog.Error("failed to create training tracker", "error", err)
		os.Exit(1)
	}

	// generation: staged progress callbacks as the job advances
	generation, err := track.NewGenerationTracker(eng,
		track.WithGenerationDelay(3*time.Second),
		track.WithGenerationTimeout(2*time.Minute),
		track.WithGenerationLogger(logger),
		track.WithOnStage(func(id string, stage track.Stage) {
			fmt.Printf("  • %s stage: %s\n", id, stage)
		}),
		track.WithOnGenerationError(func(id string, err error) {
			fmt.Printf("  ✘ %s failed: %v\n", id, err)
		}),
	)
	if err != nil {
		slog.Error("failed to create generation tracker", "error", err)
		os.Exit(1)
	}

	// look: bounded by attempts and a wall-clock cutoff
	look, err := track.NewLookTracker(eng,
		track.WithLookDelay(3*time.Second),
		track.WithLookTimeout(2*time.Minute),
		track.WithLookLogger(logger),
		track.WithOnLookDone(func(id string, status track.Status, err error) {
			if err != nil {
				fmt.Printf("  ✘ %s: %v\n", id, err)
				return
			}
			fmt.Printf("  ✔ %s finished with status %s\n", id, status)
		}),
	)
	if err != nil {
		slog.Error("failed to create look tracker", "error", err)
		os.Exit(1)
	}

	handles := []jobpoll.Handle{
		training.Track("avatar-1", checkStatus("http://localhost:9999/status?job=avatar-1&kind=training")),
		generation.Track("portrait-1", checkStatus("http://localhost:9999/status?job=portrait-1&kind=generation")),
		look.Track("look-1", checkStatus("http://localhost:9999/status?job=look-1&kind=look")),
	}

	for _, h := range handles {
		<-h.Done()
	}

	fmt.Println()
	fmt.Println("  All jobs finished.")
}
