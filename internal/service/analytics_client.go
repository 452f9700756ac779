package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

// TaskTypeAnalyticsCapture is the asynq task type delivering one analytics event
const TaskTypeAnalyticsCapture = "analytics:capture"

// AnalyticsQueue is the asynq queue analytics tasks are enqueued on
const AnalyticsQueue = "analytics"

// PostHogClient sends events to the PostHog capture API
type PostHogClient struct {
	apiKey     string
	host       string
	httpClient domain.HTTPClient
	now        func() time.Time
}

func NewPostHogClient(apiKey, host string, httpClient domain.HTTPClient) *PostHogClient {
	return &PostHogClient{
		apiKey:     apiKey,
		host:       strings.TrimRight(host, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

type posthogPayload struct {
	APIKey     string                 `json:"api_key"`
	Event      string                 `json:"event"`
	DistinctID string                 `json:"distinct_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

func (c *PostHogClient) Capture(ctx context.Context, event domain.AnalyticsEvent) (err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "PostHogClient", "Capture")
	defer func() { tracing.EndSpan(span, err) }()

	body, err := json.Marshal(posthogPayload{
		APIKey:     c.apiKey,
		Event:      event.Event,
		DistinctID: event.DistinctID,
		Properties: event.Properties,
		Timestamp:  c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/capture/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send analytics event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics API returned status %d", resp.StatusCode)
	}
	return nil
}

// taskEnqueuer is the part of *asynq.Client used for analytics
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedAnalyticsClient hands events to the worker through asynq so requests
// never wait on the analytics API
type QueuedAnalyticsClient struct {
	queue taskEnqueuer
}

func NewQueuedAnalyticsClient(queue taskEnqueuer) *QueuedAnalyticsClient {
	return &QueuedAnalyticsClient{queue: queue}
}

func (c *QueuedAnalyticsClient) Capture(ctx context.Context, event domain.AnalyticsEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	task := asynq.NewTask(TaskTypeAnalyticsCapture, payload)
	if _, err := c.queue.EnqueueContext(ctx, task, asynq.Queue(AnalyticsQueue), asynq.MaxRetry(3), asynq.Timeout(30*time.Second)); err != nil {
		return fmt.Errorf("failed to enqueue analytics event: %w", err)
	}
	return nil
}

// NoopAnalyticsClient drops every event
type NoopAnalyticsClient struct{}

func (NoopAnalyticsClient) Capture(context.Context, domain.AnalyticsEvent) error {
	return nil
}

// AnalyticsTaskHandler delivers queued analytics events on the worker
type AnalyticsTaskHandler struct {
	client domain.AnalyticsClient
	logger logger.Logger
}

func NewAnalyticsTaskHandler(client domain.AnalyticsClient, logger logger.Logger) *AnalyticsTaskHandler {
	return &AnalyticsTaskHandler{client: client, logger: logger}
}

// ProcessTask implements asynq.Handler. Malformed payloads are dropped
// without retry.
func (h *AnalyticsTaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx, span := tracing.StartServiceSpan(ctx, "AnalyticsTaskHandler", "ProcessTask")
	defer span.End()

	var event domain.AnalyticsEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		h.logger.Error(fmt.Sprintf("Dropping malformed analytics task: %v", err))
		tracing.MarkSpanError(ctx, err)
		return fmt.Errorf("invalid analytics payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.client.Capture(ctx, event); err != nil {
		h.logger.WithField("event", event.Event).Warn(fmt.Sprintf("Failed to deliver analytics event: %v", err))
		tracing.MarkSpanError(ctx, err)
		return err
	}
	return nil
}

// captureEvent records an analytics event without affecting the caller's result
func captureEvent(ctx context.Context, client domain.AnalyticsClient, log logger.Logger, event domain.AnalyticsEvent) {
	if client == nil {
		return
	}
	if err := client.Capture(ctx, event); err != nil {
		log.WithField("event", event.Event).Warn(fmt.Sprintf("Failed to capture analytics event: %v", err))
	}
}
