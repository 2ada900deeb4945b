package temporal

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"olympics/internal/config"
	"olympics/internal/datasource"
	"olympics/internal/parser/csv"
	"olympics/internal/load"
	"olympics/internal/logger"
	"olympics/internal/metrics"
	"olympics/internal/pipeline"
	"olympics/internal/reconcile"
	"olympics/internal/storage"
	"olympics/internal/transformer/builtin"
)

// Runner is implemented by *pipeline.Controller.
type Runner interface {
	Run(ctx context.Context, p pipeline.Params) (pipeline.Summary, error)
}

var _ Runner = (*pipeline.Controller)(nil)

// Activities holds the activity implementations.
type Activities struct {
	Runner Runner
	Log    *logger.Logger
}

// Run executes one pipeline run. Metrics recorded by the run are flushed
// before it returns, whether or not it succeeded.
func (a *Activities) Run(ctx context.Context, in RunInput) (RunResult, error) {
	if a == nil || a.Runner == nil {
		return RunResult{}, temporal.NewNonRetryableApplicationError("olympics: activity not configured", "config", nil)
	}
	log := a.Log
	if log == nil {
		log = logger.Nop()
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", "error", err)
		}
	}()

	sum, err := a.Runner.Run(ctx, pipeline.Params{
		Bucket:    in.Bucket,
		Subfolder: in.Subfolder,
		LocalPath: in.LocalPath,
	})
	if err != nil {
		log.Error("pipeline run failed", "bucket", in.Bucket, "subfolder", in.Subfolder, "error", err)
		return RunResult{}, classify(err)
	}

	res := RunResult{
		Landed:       len(sum.Landed),
		Regions:      sum.Reconcile.Regions,
		Athletes:     sum.Reconcile.Athletes,
		EventResults: sum.Reconcile.EventResults,
		Unmatched:    sum.Reconcile.Unmatched,
		Elapsed:      sum.Elapsed,
	}
	for _, l := range sum.Loaded {
		res.Applied += l.Applied
	}
	return res, nil
}

// classify marks errors that a retry cannot fix as non-retryable. The error
// type is the failing stage, or "config".
func classify(err error) error {
	errType := "pipeline"
	var se *pipeline.StageError
	if errors.As(err, &se) {
		errType = "pipeline." + se.Stage
	}

	var (
		cfgErr *config.ConfigurationError
		noFile *datasource.NoFilesFoundError
		miss   *reconcile.MissingInputError
		sv     *reconcile.SchemaViolationError
		tnf    *storage.TableNotFoundError
		cv     *storage.ConstraintViolationError
		rse    *load.RowSchemaError
		coerce *builtin.CoerceError
		row    *csv.RowError
	)
	switch {
	case errors.As(err, &cfgErr):
		return temporal.NewNonRetryableApplicationError(err.Error(), "config", err)
	case errors.As(err, &noFile), errors.As(err, &miss), errors.As(err, &sv),
		errors.As(err, &tnf), errors.As(err, &cv), errors.As(err, &rse), errors.As(err, &coerce),
		errors.As(err, &row):
		return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
	}
	return temporal.NewApplicationErrorWithCause(fmt.Sprintf("olympics: %v", err), errType, err)
}
