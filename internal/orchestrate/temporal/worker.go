package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Registrar is the registration half of worker.Worker.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds the workflow and activities to r under their stable names.
func Register(r Registrar, acts *Activities) {
	r.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	r.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: ActivityRun})
}

// NewWorker builds a worker on taskQueue. One activity at a time keeps runs
// from writing concurrently.
func NewWorker(c client.Client, taskQueue string, acts *Activities) (worker.Worker, error) {
	if c == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Runner == nil {
		return nil, fmt.Errorf("temporal worker missing pipeline runner")
	}
	w := worker.New(c, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})
	Register(w, acts)
	return w, nil
}

// Serve starts w and blocks until ctx is done.
func Serve(ctx context.Context, w worker.Worker) error {
	if err := w.Start(); err != nil {
		return fmt.Errorf("temporal worker start: %w", err)
	}
	<-ctx.Done()
	w.Stop()
	return nil
}
