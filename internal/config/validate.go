package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is the dotted configuration key (e.g. "postgres.user") and Env the
// environment variable that sets it, when there is one.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Env      string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	if i.Env != "" {
		return fmt.Sprintf("%s at %s (%s): %s", i.Severity, i.Path, i.Env, i.Message)
	}
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ConfigurationError reports every error-severity issue found by Check.
type ConfigurationError struct {
	Issues []Issue
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		parts[i] = iss.Error()
	}
	return "configuration: " + strings.Join(parts, "; ")
}

// Scope selects which sections Validate checks.
type Scope int

const (
	// ScopeRun covers everything a pipeline run needs.
	ScopeRun Scope = iota
	// ScopeStorage covers only the database connection (provision, analyze).
	ScopeStorage
	// ScopeTemporal covers the database connection plus the Temporal client,
	// for the worker and schedule commands.
	ScopeTemporal
	// ScopeSchedule covers only the Temporal client.
	ScopeSchedule
)

// Validate performs static validation of c for scope. It does not mutate c.
func Validate(c Config, scope Scope) []Issue {
	var issues []Issue
	if scope == ScopeSchedule {
		issues = append(issues, validateLog(c.Log)...)
		return append(issues, validateTemporal(c.Temporal)...)
	}
	if scope == ScopeRun || scope == ScopeTemporal {
		issues = append(issues, validateSource(c)...)
	}
	issues = append(issues, validateStorage(c)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)
	if scope == ScopeTemporal {
		issues = append(issues, validateTemporal(c.Temporal)...)
	}
	return issues
}

// Check validates c and returns a *ConfigurationError when any issue has
// error severity.
func Check(c Config, scope Scope) error {
	return Err(Validate(c, scope))
}

// Err returns a *ConfigurationError holding the error-severity issues, or nil.
func Err(issues []Issue) error {
	var errs []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ConfigurationError{Issues: errs}
}

func required(path, value string) []Issue {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     path,
		Env:      envBindings[path],
		Message:  "must not be empty",
	}}
}

func validateSource(c Config) []Issue {
	var issues []Issue
	issues = append(issues, required("source.bucket", c.Source.Bucket)...)
	issues = append(issues, required("source.subfolder", c.Source.Subfolder)...)
	issues = append(issues, required("source.local_path", c.Source.LocalPath)...)
	issues = append(issues, required("aws.access_key_id", c.AWS.AccessKeyID)...)
	issues = append(issues, required("aws.secret_access_key", c.AWS.SecretAccessKey)...)
	if c.Source.DownloadConcurrency < 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.download_concurrency",
			Env:      envBindings["source.download_concurrency"],
			Message:  "should be >= 1; downloads will run one at a time",
		})
	}
	return issues
}

func validateStorage(c Config) []Issue {
	switch c.Storage.Kind {
	case "postgres":
		var issues []Issue
		issues = append(issues, required("postgres.user", c.Postgres.User)...)
		issues = append(issues, required("postgres.password", c.Postgres.Password)...)
		issues = append(issues, required("postgres.server", c.Postgres.Server)...)
		issues = append(issues, required("postgres.db", c.Postgres.DB)...)
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "postgres.port",
				Env:      envBindings["postgres.port"],
				Message:  fmt.Sprintf("invalid port %d", c.Postgres.Port),
			})
		}
		return issues
	case "sqlite":
		return required("storage.sqlite_dsn", c.Storage.SQLiteDSN)
	case "":
		return required("storage.kind", "")
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "storage.kind",
			Env:      envBindings["storage.kind"],
			Message:  fmt.Sprintf("unknown storage kind %q; want postgres or sqlite", c.Storage.Kind),
		}}
	}
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		return required("metrics.pushgateway_url", m.PushgatewayURL)
	case "datadog":
		return required("metrics.dogstatsd_addr", m.DogStatsDAddr)
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Env:      envBindings["metrics.backend"],
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		}}
	}
}

func validateLog(l Log) []Issue {
	switch strings.ToLower(l.Mode) {
	case "", "dev", "development", "prod", "production":
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "log.mode",
		Env:      envBindings["log.mode"],
		Message:  fmt.Sprintf("unknown log mode %q; using dev", l.Mode),
	}}
}

func validateTemporal(t Temporal) []Issue {
	var issues []Issue
	issues = append(issues, required("temporal.address", t.Address)...)
	issues = append(issues, required("temporal.namespace", t.Namespace)...)
	issues = append(issues, required("temporal.task_queue", t.TaskQueue)...)
	issues = append(issues, required("temporal.schedule_id", t.ScheduleID)...)
	return issues
}
