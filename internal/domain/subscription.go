package domain

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_subscription_repository.go -package mocks github.com/encanta/encanta/internal/domain SubscriptionRepository
//go:generate mockgen -destination mocks/mock_payments_provider.go -package mocks github.com/encanta/encanta/internal/domain PaymentsProvider

type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// ParsePlan maps provider product metadata to a plan. "business" is accepted
// as a legacy alias of enterprise.
func ParsePlan(s string) (SubscriptionPlan, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return PlanFree, true
	case "pro":
		return PlanPro, true
	case "enterprise", "business":
		return PlanEnterprise, true
	}
	return "", false
}

// Subscription statuses as reported by the payments provider
const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusPaused            = "paused"
	SubscriptionStatusUnpaid            = "unpaid"
)

// EffectivePlan returns the plan a user is entitled to for a provider status:
// active and trialing subscriptions keep their plan, everything else is free.
func EffectivePlan(status string, plan SubscriptionPlan) SubscriptionPlan {
	switch status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return plan
	default:
		return PlanFree
	}
}

// Subscription is owned by a user rather than a workspace
type Subscription struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"user_id"`
	StripeCustomerID     string           `json:"stripe_customer_id"`
	StripeSubscriptionID string           `json:"stripe_subscription_id"`
	PriceID              string           `json:"price_id,omitempty"`
	Plan                 SubscriptionPlan `json:"plan"`
	Status               string           `json:"status"`
	CurrentPeriodStart   *time.Time       `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time       `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool             `json:"cancel_at_period_end"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

type SubscriptionRepository interface {
	// GetActiveByUserID returns the user's active subscription with the latest
	// period end, or *ErrNotFound. The second value is the number of active rows.
	GetActiveByUserID(ctx context.Context, userID string) (*Subscription, int, error)
	GetLatestByUserID(ctx context.Context, userID string) (*Subscription, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*Subscription, error)
	// Upsert inserts or updates the row keyed by StripeSubscriptionID
	Upsert(ctx context.Context, subscription *Subscription) error
}

// Plan is a purchasable subscription tier listed by the payments provider
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Interval    string   `json:"interval"`
	Features    []string `json:"features"`
	PriceID     string   `json:"price_id"`
	Popular     bool     `json:"popular"`
}

// CheckoutRequest carries what the provider needs to open a hosted checkout
type CheckoutRequest struct {
	PriceID       string
	SuccessURL    string
	CancelURL     string
	CustomerID    string
	CustomerEmail string
	Metadata      map[string]string
}

// ProviderSubscription is the provider-side view of a subscription
type ProviderSubscription struct {
	ID                string
	CustomerID        string
	PriceID           string
	ProductID         string
	Status            string
	Plan              SubscriptionPlan
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
}

// WebhookEvent is a verified provider event
type WebhookEvent struct {
	ID             string
	Type           string
	ObjectID       string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
	ClientRefID    string
}

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// PaymentsProvider is the boundary to the external billing system
type PaymentsProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)
	ParseWebhookEvent(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

type CreateCheckoutRequest struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (r *CreateCheckoutRequest) Validate() error {
	if r.PriceID == "" {
		return NewValidationError("price_id is required")
	}
	if r.SuccessURL != "" && !govalidator.IsRequestURL(r.SuccessURL) {
		return NewValidationError("success_url must be a valid URL")
	}
	if r.CancelURL != "" && !govalidator.IsRequestURL(r.CancelURL) {
		return NewValidationError("cancel_url must be a valid URL")
	}
	return nil
}

type CreatePortalRequest struct {
	ReturnURL string `json:"return_url"`
}

func (r *CreatePortalRequest) Validate() error {
	if r.ReturnURL != "" && !govalidator.IsRequestURL(r.ReturnURL) {
		return NewValidationError("return_url must be a valid URL")
	}
	return nil
}

// SessionURL is the redirect target returned for checkout and portal sessions
type SessionURL struct {
	URL string `json:"url"`
}
