package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Stage is a single set-based transform in the pipeline. Run reads complete
// input tables from the store and publishes its full output; it must not
// publish anything when it returns an error.
type Stage interface {
	// ID returns the unique identifier for this stage.
	ID() string

	// Name returns the human-readable name for this stage.
	Name() string

	// Run executes the stage against the snapshot store.
	Run(ctx context.Context, store *SnapshotStore) error
}

// StageReport records the outcome of one stage execution.
type StageReport struct {
	StageID  string
	Name     string
	Duration time.Duration
	Err      error
}

// Report summarizes one pipeline run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Stages   []StageReport
}

// Runner executes stages sequentially against one snapshot store.
type Runner struct {
	store   *SnapshotStore
	metrics *Metrics
	stages  []Stage
	log     *slog.Logger
}

// NewRunner creates a runner over the given store and stages.
func NewRunner(store *SnapshotStore, metrics *Metrics, log *slog.Logger, stages ...Stage) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{store: store, metrics: metrics, stages: stages, log: log}
}

// Run executes every stage in order. The first stage error aborts the run;
// downstream stages do not execute and every table published before the
// failure stays visible.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}
	log := r.log.With(slog.String("run_id", report.RunID))
	log.Info("pipeline run starting", slog.Int("stages", len(r.stages)))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return report, &StageError{StageID: stage.ID(), Err: err}
		}

		start := time.Now()
		log.Info("stage starting",
			slog.String("stage", stage.ID()),
			slog.String("name", stage.Name()))

		err := stage.Run(ctx, r.store)
		sr := StageReport{
			StageID:  stage.ID(),
			Name:     stage.Name(),
			Duration: time.Since(start),
			Err:      err,
		}
		report.Stages = append(report.Stages, sr)

		if err != nil {
			if r.metrics != nil {
				r.metrics.StageFailures.WithLabelValues(stage.ID()).Inc()
			}
			log.Error("stage failed",
				slog.String("stage", stage.ID()),
				slog.Duration("duration", sr.Duration),
				slog.Any("error", err))
			report.Duration = time.Since(report.Started)
			return report, &StageError{StageID: stage.ID(), Err: err}
		}

		log.Info("stage completed",
			slog.String("stage", stage.ID()),
			slog.Duration("duration", sr.Duration))
	}

	report.Duration = time.Since(report.Started)
	log.Info("pipeline run completed", slog.Duration("duration", report.Duration))
	return report, nil
}
