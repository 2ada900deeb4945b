// Package temporal hosts the pipeline on Temporal: a workflow that runs one
// pipeline activity with an orchestrator-owned retry policy, the worker that
// serves it, and the schedule that starts it.
package temporal

import "time"

const (
	WorkflowName = "olympics_etl"
	ActivityRun  = "olympics_etl_run"
)

// Defaults of the scheduled deployment.
const (
	DefaultBucket    = "raw-csv-storage"
	DefaultSubfolder = "raw-olympics"
	DefaultLocalPath = "data/raw"
)

// RunInput is the workflow and activity argument.
type RunInput struct {
	Bucket    string `json:"bucket"`
	Subfolder string `json:"subfolder"`
	LocalPath string `json:"local_path"`
}

// DefaultRunInput returns the parameters the schedule starts runs with.
func DefaultRunInput() RunInput {
	return RunInput{Bucket: DefaultBucket, Subfolder: DefaultSubfolder, LocalPath: DefaultLocalPath}
}

// RunResult summarizes a completed run.
type RunResult struct {
	Landed       int           `json:"landed"`
	Regions      int           `json:"regions"`
	Athletes     int           `json:"athletes"`
	EventResults int           `json:"event_results"`
	Unmatched    int           `json:"unmatched"`
	Applied      int64         `json:"applied"`
	Elapsed      time.Duration `json:"elapsed"`
}
