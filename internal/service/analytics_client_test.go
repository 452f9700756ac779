package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/domain/mocks"
	"github.com/encanta/encanta/pkg/logger"
)

func TestPostHogClient_Capture(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/capture/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPostHogClient("phc_key", server.URL+"/", server.Client())
	client.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	err := client.Capture(context.Background(), domain.AnalyticsEvent{
		DistinctID: "u1",
		Event:      domain.EventWorkspaceCreated,
		Properties: map[string]interface{}{"workspace_id": "ws-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "phc_key", received["api_key"])
	assert.Equal(t, "workspace_created", received["event"])
	assert.Equal(t, "u1", received["distinct_id"])
	assert.Equal(t, "2026-10-14T09:30:00Z", received["timestamp"])
	assert.Equal(t, map[string]interface{}{"workspace_id": "ws-1"}, received["properties"])
}

func TestPostHogClient_CaptureErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := NewPostHogClient("phc_key", "https://eu.posthog.example", httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(&http.Response{
		StatusCode: http.StatusUnauthorized,
		Body:       io.NopCloser(bytes.NewBufferString(`{"error":"invalid key"}`)),
	}, nil)
	err := client.Capture(context.Background(), domain.AnalyticsEvent{DistinctID: "u1", Event: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("dial tcp: timeout"))
	err = client.Capture(context.Background(), domain.AnalyticsEvent{DistinctID: "u1", Event: "x"})
	assert.Error(t, err)
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: AnalyticsQueue}, nil
}

func TestQueuedAnalyticsClient_Capture(t *testing.T) {
	queue := &recordingEnqueuer{}
	client := NewQueuedAnalyticsClient(queue)

	event := domain.AnalyticsEvent{DistinctID: "u1", Event: domain.EventCheckoutStarted, Properties: map[string]interface{}{"price_id": "price_1"}}
	require.NoError(t, client.Capture(context.Background(), event))

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskTypeAnalyticsCapture, queue.tasks[0].Type())

	var decoded domain.AnalyticsEvent
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &decoded))
	assert.Equal(t, event.DistinctID, decoded.DistinctID)
	assert.Equal(t, event.Event, decoded.Event)

	var queueName string
	for _, opt := range queue.opts[0] {
		if opt.Type() == asynq.QueueOpt {
			queueName, _ = opt.Value().(string)
		}
	}
	assert.Equal(t, AnalyticsQueue, queueName)

	queue.err = errors.New("redis: connection refused")
	assert.Error(t, client.Capture(context.Background(), event))
}

func TestAnalyticsTaskHandler_ProcessTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	delivered := mocks.NewMockAnalyticsClient(ctrl)
	handler := NewAnalyticsTaskHandler(delivered, logger.NewMockLogger(t))

	t.Run("delivers the event", func(t *testing.T) {
		payload, _ := json.Marshal(domain.AnalyticsEvent{DistinctID: "u1", Event: "document_created"})
		delivered.EXPECT().Capture(gomock.Any(), domain.AnalyticsEvent{DistinctID: "u1", Event: "document_created"}).Return(nil)

		assert.NoError(t, handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsCapture, payload)))
	})

	t.Run("delivery failure is retried", func(t *testing.T) {
		payload, _ := json.Marshal(domain.AnalyticsEvent{DistinctID: "u1", Event: "document_created"})
		delivered.EXPECT().Capture(gomock.Any(), gomock.Any()).Return(errors.New("503"))

		err := handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsCapture, payload))
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed payload skips retry", func(t *testing.T) {
		err := handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsCapture, []byte("{")))
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestCaptureEvent_IgnoresFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockAnalyticsClient(ctrl)
	client.EXPECT().Capture(gomock.Any(), gomock.Any()).Return(errors.New("down"))

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField("event", "x").Return(mockLogger)
	mockLogger.EXPECT().Warn(gomock.Any())

	captureEvent(context.Background(), client, mockLogger, domain.AnalyticsEvent{Event: "x"})
	captureEvent(context.Background(), nil, mockLogger, domain.AnalyticsEvent{Event: "y"})
}
