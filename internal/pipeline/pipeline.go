// Package pipeline runs one end-to-end load: land the extracts from the
// object store, read them from local disk, reconcile them into entities and
// upsert each entity table in foreign-key order.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"olympics/internal/config"
	"olympics/internal/datasource"
	"olympics/internal/datasource/file"
	"olympics/internal/load"
	"olympics/internal/logger"
	"olympics/internal/metrics"
	"olympics/internal/parser"
	"olympics/internal/reconcile"
	"olympics/internal/records"
	"olympics/internal/schema"
	"olympics/internal/storage"
)

// Stage names, as reported in StageError and metrics.
const (
	StageExtract   = "extract"
	StageRead      = "read"
	StageReconcile = "reconcile"
	StageLoad      = "load"
)

// StageError wraps the failure of one stage. Target names the table, path
// or object prefix the stage was working on.
type StageError struct {
	Stage  string
	Target string
	Err    error
}

func (e *StageError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pipeline: %s %s: %v", e.Stage, e.Target, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Params are the per-run inputs.
type Params struct {
	Bucket    string
	Subfolder string
	LocalPath string
}

func (p Params) validate() error {
	var issues []config.Issue
	for _, f := range []struct{ path, env, v string }{
		{"source.bucket", "BUCKET_NAME", p.Bucket},
		{"source.subfolder", "SUBFOLDER", p.Subfolder},
		{"source.local_path", "LOCAL_PATH", p.LocalPath},
	} {
		if strings.TrimSpace(f.v) == "" {
			issues = append(issues, config.Issue{Severity: config.SeverityError, Path: f.path, Env: f.env, Message: "must not be empty"})
		}
	}
	return config.Err(issues)
}

// Summary describes a completed run.
type Summary struct {
	Landed    []string
	Reconcile reconcile.Report
	Loaded    []load.Result
	Elapsed   time.Duration
}

// Controller wires the collaborators of a run. Repo must already hold the
// provisioned tables.
type Controller struct {
	Lander datasource.Lander
	Parser parser.Parser
	Repo   storage.Repository
	Log    *logger.Logger

	// Job labels metrics; defaults to "olympics".
	Job string
	// NormalizeText is passed through to reconcile.Options.
	NormalizeText bool
}

// Run executes one pipeline run. It fails fast: the first error aborts the
// run and is returned as a *StageError. Tables loaded before the failure stay
// committed; a rerun converges because every write is an idempotent upsert.
func (c *Controller) Run(ctx context.Context, p Params) (Summary, error) {
	start := time.Now()
	var sum Summary
	if err := p.validate(); err != nil {
		return sum, err
	}
	log := c.Log
	if log == nil {
		log = logger.Nop()
	}
	job := c.Job
	if job == "" {
		job = "olympics"
	}
	log = log.With("job", job)

	stage := func(name, target string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: name, Target: target, Err: err}
		}
		t0 := time.Now()
		err := fn()
		metrics.RecordStep(job, name, err, time.Since(t0))
		if err != nil {
			log.Error("stage failed", "stage", name, "target", target, "error", err)
			return &StageError{Stage: name, Target: target, Err: err}
		}
		log.Info("stage done", "stage", name, "target", target, "elapsed", time.Since(t0).Round(time.Millisecond).String())
		return nil
	}

	uri := fmt.Sprintf("s3://%s/%s", p.Bucket, strings.Trim(p.Subfolder, "/"))
	if err := stage(StageExtract, uri, func() error {
		var err error
		sum.Landed, err = c.Lander.Land(ctx, p.Bucket, p.Subfolder, p.LocalPath)
		return err
	}); err != nil {
		return sum, err
	}

	var in map[string]records.Frame
	if err := stage(StageRead, p.LocalPath, func() error {
		var err error
		in, err = file.ReadExtracts(ctx, p.LocalPath, c.Parser)
		return err
	}); err != nil {
		return sum, err
	}

	var ents *reconcile.Entities
	if err := stage(StageReconcile, "", func() error {
		var err error
		ents, sum.Reconcile, err = reconcile.Reconcile(in, reconcile.Options{NormalizeText: c.NormalizeText, Log: log})
		return err
	}); err != nil {
		return sum, err
	}
	for name, er := range sum.Reconcile.Extracts {
		metrics.RecordRows(job, name, "duplicates", int64(er.Duplicates))
	}
	metrics.RecordRows(job, schema.TableEventResults, "unmatched", int64(sum.Reconcile.Unmatched))

	loader := load.New(c.Repo, log, job)
	for _, t := range schema.All() {
		t := t
		f, _ := ents.For(t)
		if err := stage(StageLoad, t.Name, func() error {
			res, err := loader.Apply(ctx, t, f)
			if err == nil {
				sum.Loaded = append(sum.Loaded, res)
			}
			return err
		}); err != nil {
			return sum, err
		}
	}

	sum.Elapsed = time.Since(start)
	log.Info("pipeline complete",
		"landed", len(sum.Landed),
		"regions", sum.Reconcile.Regions,
		"athletes", sum.Reconcile.Athletes,
		"event_results", sum.Reconcile.EventResults,
		"elapsed", sum.Elapsed.Round(time.Millisecond).String(),
	)
	return sum, nil
}
