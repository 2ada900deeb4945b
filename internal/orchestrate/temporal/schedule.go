package temporal

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"olympics/internal/logger"
)

// ScheduleConfig describes the recurring deployment.
type ScheduleConfig struct {
	ID        string
	Cron      string
	TaskQueue string
	Input     RunInput
}

func (c ScheduleConfig) spec() client.ScheduleSpec {
	return client.ScheduleSpec{CronExpressions: []string{c.Cron}}
}

func (c ScheduleConfig) action() *client.ScheduleWorkflowAction {
	return &client.ScheduleWorkflowAction{
		// Temporal suffixes the start time, so every run shares this prefix.
		ID:        c.ID + "-run",
		Workflow:  WorkflowName,
		Args:      []interface{}{c.Input},
		TaskQueue: c.TaskQueue,
	}
}

// EnsureSchedule creates the schedule, or updates its spec and action when it
// already exists. Overlapping runs are skipped.
func EnsureSchedule(ctx context.Context, sc client.ScheduleClient, cfg ScheduleConfig, log *logger.Logger) (client.ScheduleHandle, error) {
	if cfg.ID == "" || cfg.Cron == "" || cfg.TaskQueue == "" {
		return nil, fmt.Errorf("temporal schedule: id, cron and task queue are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	h, err := sc.Create(ctx, client.ScheduleOptions{
		ID:      cfg.ID,
		Spec:    cfg.spec(),
		Action:  cfg.action(),
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err == nil {
		log.Info("schedule created", "schedule_id", cfg.ID, "cron", cfg.Cron)
		return h, nil
	}
	if !errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		return nil, fmt.Errorf("temporal schedule create %s: %w", cfg.ID, err)
	}

	h = sc.GetHandle(ctx, cfg.ID)
	err = h.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(in client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			s := in.Description.Schedule
			spec := cfg.spec()
			s.Spec = &spec
			s.Action = cfg.action()
			if s.Policy == nil {
				s.Policy = &client.SchedulePolicies{}
			}
			s.Policy.Overlap = enumspb.SCHEDULE_OVERLAP_POLICY_SKIP
			return &client.ScheduleUpdate{Schedule: &s}, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("temporal schedule update %s: %w", cfg.ID, err)
	}
	log.Info("schedule updated", "schedule_id", cfg.ID, "cron", cfg.Cron)
	return h, nil
}

// Trigger starts an immediate run of the schedule, skipped if one is running.
func Trigger(ctx context.Context, h client.ScheduleHandle) error {
	return h.Trigger(ctx, client.ScheduleTriggerOptions{Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP})
}
