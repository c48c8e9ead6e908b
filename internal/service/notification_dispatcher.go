package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/pkg/jobs"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

// Notification job types.
const (
	JobAcademicRecordMutated = "academic_record_mutated"
	JobFollowCreated         = "follow_created"
	JobSendNotification      = "send_notification"
)

// AcademicRecordPayload identifies the academic year whose results changed.
type AcademicRecordPayload struct {
	LearnerID      string
	AcademicYearID string
}

// FollowCreatedPayload describes a new provider follow.
type FollowCreatedPayload struct {
	LearnerID    string
	ProviderName string
	FollowID     string
}

type notificationSink interface {
	OnAcademicRecordMutated(ctx context.Context, learnerID, academicYearID string) error
	OnFollowCreated(ctx context.Context, learnerID, providerName, followID string) error
	Send(ctx context.Context, n models.Notification) error
}

// NotificationDispatcher hands notification work to a background queue after the triggering
// write has committed. Without a queue the work runs inline. Failures are logged and never
// surface to the caller.
type NotificationDispatcher struct {
	sink    notificationSink
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationDispatcher builds a dispatcher. A zero QueueConfig.Workers disables the queue.
func NewNotificationDispatcher(sink notificationSink, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{sink: sink, metrics: metrics, logger: logger}
	if cfg.Workers > 0 {
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		d.queue = jobs.NewQueue("notifications", d.handle, cfg)
	}
	return d
}

// Start launches the queue workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	if d.queue != nil {
		d.queue.Start(ctx)
	}
}

// Stop stops the workers and delivers any jobs still buffered.
func (d *NotificationDispatcher) Stop() {
	if d.queue != nil {
		d.queue.Stop()
	}
}

// Stats reports queue counters; zero when running inline.
func (d *NotificationDispatcher) Stats() jobs.Stats {
	if d.queue == nil {
		return jobs.Stats{}
	}
	return d.queue.Stats()
}

// AcademicRecordMutated schedules the result_update fan-out for the learner's followers.
func (d *NotificationDispatcher) AcademicRecordMutated(ctx context.Context, learnerID, academicYearID string) {
	d.dispatch(ctx, jobs.Job{
		Type:    JobAcademicRecordMutated,
		Payload: AcademicRecordPayload{LearnerID: learnerID, AcademicYearID: academicYearID},
	})
}

// FollowCreated schedules the new_follower notification.
func (d *NotificationDispatcher) FollowCreated(ctx context.Context, learnerID, providerName, followID string) {
	d.dispatch(ctx, jobs.Job{
		Type:    JobFollowCreated,
		Payload: FollowCreatedPayload{LearnerID: learnerID, ProviderName: providerName, FollowID: followID},
	})
}

// Notify schedules a single-recipient notification.
func (d *NotificationDispatcher) Notify(ctx context.Context, n models.Notification) {
	d.dispatch(ctx, jobs.Job{Type: JobSendNotification, Payload: n})
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, job jobs.Job) {
	if d == nil || d.sink == nil {
		return
	}
	job.ID = uuid.NewString()
	if d.queue != nil {
		err := d.queue.TryEnqueue(job)
		d.metrics.SetQueueDepth(d.queue.Stats().Pending)
		if err == nil {
			return
		}
		reqlog.FromContext(ctx, d.logger).Warn("notification queue unavailable, delivering inline", zap.String("type", job.Type), zap.Error(err))
	}
	if err := d.handle(context.WithoutCancel(ctx), job); err != nil {
		reqlog.FromContext(ctx, d.logger).Warn("notification delivery failed", zap.String("type", job.Type), zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	switch payload := job.Payload.(type) {
	case AcademicRecordPayload:
		return d.sink.OnAcademicRecordMutated(ctx, payload.LearnerID, payload.AcademicYearID)
	case FollowCreatedPayload:
		return d.sink.OnFollowCreated(ctx, payload.LearnerID, payload.ProviderName, payload.FollowID)
	case models.Notification:
		return d.sink.Send(ctx, payload)
	default:
		return fmt.Errorf("unsupported notification job %s (%T)", job.Type, job.Payload)
	}
}
