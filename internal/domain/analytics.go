package domain

import (
	"context"
	"net/http"
)

//go:generate mockgen -destination mocks/mock_analytics_client.go -package mocks github.com/encanta/encanta/internal/domain AnalyticsClient
//go:generate mockgen -destination mocks/mock_http_client.go -package mocks github.com/encanta/encanta/internal/domain HTTPClient

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AnalyticsEvent is a product analytics event attributed to a user
type AnalyticsEvent struct {
	DistinctID string                 `json:"distinct_id"`
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

const (
	EventWorkspaceCreated    = "workspace_created"
	EventDocumentCreated     = "document_created"
	EventCheckoutStarted     = "checkout_started"
	EventSubscriptionChanged = "subscription_changed"
)

// AnalyticsClient records analytics events. Delivery is best-effort: callers
// log a returned error and carry on.
type AnalyticsClient interface {
	Capture(ctx context.Context, event AnalyticsEvent) error
}
