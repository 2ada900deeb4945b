package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ActivityTimeout bounds one pipeline attempt.
const ActivityTimeout = time.Hour

// RetryPolicy is applied to the pipeline activity. Errors the activity marks
// non-retryable (bad input, constraint failures) fail the run immediately.
var RetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    30 * time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    10 * time.Minute,
	MaximumAttempts:    3,
}

// Workflow runs the pipeline once with in.
func Workflow(ctx workflow.Context, in RunInput) (RunResult, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy:         RetryPolicy,
	})

	var out RunResult
	if err := workflow.ExecuteActivity(ctx, ActivityRun, in).Get(ctx, &out); err != nil {
		return RunResult{}, err
	}
	workflow.GetLogger(ctx).Info("olympics run complete",
		"landed", out.Landed, "athletes", out.Athletes, "event_results", out.EventResults)
	return out, nil
}
