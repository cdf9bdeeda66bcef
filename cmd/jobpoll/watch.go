package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/heyarsen/jobpoll"
	"github.com/heyarsen/jobpoll/config"
	"github.com/heyarsen/jobpoll/internal/statuscheck"
	"github.com/heyarsen/jobpoll/track"
	"github.com/spf13/cobra"
)

// watchCmd polls every job in the config file until it finishes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll jobs until they reach a terminal state",
	Long: `Watch loads the configuration file and polls every job it defines
until each job reaches a terminal state or the process receives SIGINT/SIGTERM.

The exit code is non-zero if any job failed or timed out.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("config", "c", "", "Path to configuration file (required)")
	watchCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(watchCmd)
}

// newLogger creates a structured JSON logger writing to stderr.
// Stderr keeps log output separate from anything written to stdout.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func runWatch(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return fmt.Errorf("failed to build jobs: %w", err)
	}

	logger := newLogger()

	// Cancelling the context tears down every active poll.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := jobpoll.New(
		jobpoll.WithLogger(logger),
		jobpoll.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.StopAll()

	client := statuscheck.NewClient(logger)
	defer client.Close()

	logger.Info("watching jobs", "count", len(jobs))

	var failures atomic.Int32
	var wg sync.WaitGroup
	for _, job := range jobs {
		h, err := watchJob(eng, logger, client, job, &failures)
		if err != nil {
			return fmt.Errorf("failed to start job %q: %w", job.Name(), err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-h.Done()
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.Info("interrupted, shutting down")
		return nil
	}
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d job(s) did not succeed", n)
	}
	logger.Info("all jobs finished")
	return nil
}

// watchJob builds the tracker matching the job's kind and starts polling it.
// Per-job interval and max-attempt overrides from the config take effect here.
func watchJob(eng *jobpoll.Engine, logger *slog.Logger, client *statuscheck.Client, job track.Job, failures *atomic.Int32) (jobpoll.Handle, error) {
	check := statuscheck.Probe(client, job)
	name := job.Name()

	switch job.Kind() {
	case track.KindTraining:
		opts := []track.TrainingOption{
			track.WithTrainingLogger(logger),
			track.WithOnReady(func(id string, status track.Status) {
				logger.Info("training finished", "job", id, "status", string(status))
			}),
		}
		if job.Interval() > 0 {
			opts = append(opts, track.WithTrainingInterval(job.Interval()))
		}
		tr, err := track.NewTrainingTracker(eng, opts...)
		if err != nil {
			return jobpoll.Handle{}, err
		}
		return tr.Track(name, check), nil

	case track.KindGeneration:
		opts := []track.GenerationOption{
			track.WithGenerationLogger(logger),
			track.WithOnStage(func(id string, stage track.Stage) {
				logger.Info("generation stage", "job", id, "stage", string(stage))
			}),
			track.WithOnGenerationError(func(id string, err error) {
				failures.Add(1)
				logger.Error("generation failed", "job", id, "error", err)
			}),
		}
		if job.Interval() > 0 {
			opts = append(opts, track.WithGenerationDelay(job.Interval()))
		}
		if job.MaxAttempts() > 0 {
			opts = append(opts, track.WithGenerationMaxAttempts(job.MaxAttempts()))
		}
		tr, err := track.NewGenerationTracker(eng, opts...)
		if err != nil {
			return jobpoll.Handle{}, err
		}
		return tr.Track(name, check), nil

	case track.KindLook:
		opts := []track.LookOption{
			track.WithLookLogger(logger),
			track.WithOnLookDone(func(id string, status track.Status, err error) {
				if err != nil || status == track.StatusFailed {
					failures.Add(1)
					logger.Error("look generation failed", "job", id, "status", string(status), "error", err)
					return
				}
				logger.Info("look generation finished", "job", id, "status", string(status))
			}),
		}
		if job.Interval() > 0 {
			opts = append(opts, track.WithLookDelay(job.Interval()))
		}
		if job.MaxAttempts() > 0 {
			opts = append(opts, track.WithLookMaxAttempts(job.MaxAttempts()))
		}
		tr, err := track.NewLookTracker(eng, opts...)
		if err != nil {
			return jobpoll.Handle{}, err
		}
		return tr.Track(name, check), nil
	}

	return jobpoll.Handle{}, fmt.Errorf("unknown job kind %q", job.Kind())
}
