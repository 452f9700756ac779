package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/cache"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

const plansCacheKey = "plans"

// SubscriptionService ties callers to billing. Subscriptions belong to the
// user, so no workspace authority is consulted here.
type SubscriptionService struct {
	repo      domain.SubscriptionRepository
	provider  domain.PaymentsProvider
	plans     *cache.TTLCache[[]domain.Plan]
	appURL    string
	analytics domain.AnalyticsClient
	logger    logger.Logger
}

func NewSubscriptionService(
	repo domain.SubscriptionRepository,
	provider domain.PaymentsProvider,
	plans *cache.TTLCache[[]domain.Plan],
	appURL string,
	analytics domain.AnalyticsClient,
	logger logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		provider:  provider,
		plans:     plans,
		appURL:    strings.TrimRight(appURL, "/"),
		analytics: analytics,
		logger:    logger,
	}
}

func (s *SubscriptionService) subscriptionPage() string {
	return s.appURL + "/dashboard/subscription"
}

// GetCurrent returns the caller's active subscription
func (s *SubscriptionService) GetCurrent(ctx context.Context) domain.ActionResult[*domain.Subscription] {
	ctx, span := tracing.StartServiceSpan(ctx, "SubscriptionService", "GetCurrent")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.Subscription]())
	}

	sub, count, err := s.repo.GetActiveByUserID(ctx, identity.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[*domain.Subscription](domain.FailureNotFound, "No active subscription found"))
		}
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to get subscription: %v", err))
		return endResult(span, domain.Fail[*domain.Subscription](domain.FailureUpstream, "Failed to get subscription"))
	}
	if count > 1 {
		s.logger.WithFields(map[string]interface{}{
			"user_id": identity.UserID,
			"count":   count,
		}).Warn("User has more than one active subscription")
	}
	return endResult(span, domain.Succeed("", sub))
}

// ListPlans is public and served from the plans cache
func (s *SubscriptionService) ListPlans(ctx context.Context) domain.ActionResult[[]domain.Plan] {
	ctx, span := tracing.StartServiceSpan(ctx, "SubscriptionService", "ListPlans")

	fetch := func() ([]domain.Plan, error) { return s.provider.ListActivePlans(ctx) }
	var plans []domain.Plan
	var err error
	if s.plans != nil {
		plans, err = s.plans.GetOrSet(plansCacheKey, fetch)
	} else {
		plans, err = fetch()
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to list plans: %v", err))
		return endResult(span, domain.Fail[[]domain.Plan](domain.FailureUpstream, "Failed to list plans"))
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	return endResult(span, domain.Succeed("", plans))
}

func (s *SubscriptionService) CreateCheckout(ctx context.Context, req *domain.CreateCheckoutRequest) domain.ActionResult[*domain.SessionURL] {
	ctx, span := tracing.StartServiceSpan(ctx, "SubscriptionService", "CreateCheckout")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.SessionURL]())
	}
	if req == nil {
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureValidation, msgInvalidRequestBody))
	}
	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureValidation, validationMessage(err)))
	}

	checkout := domain.CheckoutRequest{
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   map[string]string{"userId": identity.UserID},
	}
	if checkout.SuccessURL == "" {
		checkout.SuccessURL = s.subscriptionPage() + "?success=true"
	}
	if checkout.CancelURL == "" {
		checkout.CancelURL = s.subscriptionPage() + "?canceled=true"
	}

	existing, err := s.repo.GetLatestByUserID(ctx, identity.UserID)
	switch {
	case err == nil && existing.StripeCustomerID != "":
		checkout.CustomerID = existing.StripeCustomerID
	case err != nil && !domain.IsNotFound(err):
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to look up billing customer: %v", err))
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureUpstream, "Failed to create checkout session"))
	default:
		checkout.CustomerEmail = identity.Email
	}

	sessionURL, err := s.provider.CreateCheckoutSession(ctx, checkout)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  identity.UserID,
			"price_id": req.PriceID,
		}).Error(fmt.Sprintf("Failed to create checkout session: %v", err))
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureUpstream, "Failed to create checkout session"))
	}

	captureEvent(ctx, s.analytics, s.logger, domain.AnalyticsEvent{
		DistinctID: identity.UserID,
		Event:      domain.EventCheckoutStarted,
		Properties: map[string]interface{}{"price_id": req.PriceID},
	})
	return endResult(span, domain.Succeed("", &domain.SessionURL{URL: sessionURL}))
}

func (s *SubscriptionService) CreatePortal(ctx context.Context, req *domain.CreatePortalRequest) domain.ActionResult[*domain.SessionURL] {
	ctx, span := tracing.StartServiceSpan(ctx, "SubscriptionService", "CreatePortal")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.SessionURL]())
	}
	if req == nil {
		req = &domain.CreatePortalRequest{}
	}
	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureValidation, validationMessage(err)))
	}

	existing, err := s.repo.GetLatestByUserID(ctx, identity.UserID)
	if err != nil && !domain.IsNotFound(err) {
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to look up billing customer: %v", err))
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureUpstream, "Failed to create portal session"))
	}
	if err != nil || existing.StripeCustomerID == "" {
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureNotFound, "No billing account found"))
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.subscriptionPage()
	}

	sessionURL, err := s.provider.CreatePortalSession(ctx, existing.StripeCustomerID, returnURL)
	if err != nil {
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to create portal session: %v", err))
		return endResult(span, domain.Fail[*domain.SessionURL](domain.FailureUpstream, "Failed to create portal session"))
	}
	return endResult(span, domain.Succeed("", &domain.SessionURL{URL: sessionURL}))
}

// HandleWebhook verifies and applies a provider event. The result data is the
// event id. Events that need no action are acknowledged.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) domain.ActionResult[string] {
	ctx, span := tracing.StartServiceSpan(ctx, "SubscriptionService", "HandleWebhook")

	event, err := s.provider.ParseWebhookEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrProviderDisabled) {
			s.logger.Error("Received webhook but payments are not configured")
			return endResult(span, domain.Fail[string](domain.FailureUpstream, "Payments are not configured"))
		}
		s.logger.Warn(fmt.Sprintf("Rejected webhook: %v", err))
		return endResult(span, domain.Fail[string](domain.FailureValidation, "Invalid webhook signature"))
	}

	log := s.logger.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})
	tracing.AddAttribute(ctx, "webhook.event_type", event.Type)

	var userID string
	switch event.Type {
	case domain.EventCheckoutCompleted:
		userID = event.Metadata["userId"]
		if userID == "" {
			userID = event.ClientRefID
		}
		if userID == "" {
			log.Warn("Checkout session carries no user reference, nothing to record")
			return endResult(span, domain.Succeed("Webhook received", event.ID))
		}
		if event.SubscriptionID == "" {
			log.Info("Checkout session has no subscription, nothing to record")
			return endResult(span, domain.Succeed("Webhook received", event.ID))
		}

	case domain.EventSubscriptionUpdated, domain.EventSubscriptionDeleted:
		existing, err := s.repo.GetByStripeCustomerID(ctx, event.CustomerID)
		if err != nil {
			if domain.IsNotFound(err) {
				log.WithField("customer_id", event.CustomerID).Warn("No subscription on record for webhook customer")
				return endResult(span, domain.Succeed("Webhook received", event.ID))
			}
			log.Error(fmt.Sprintf("Failed to resolve webhook customer: %v", err))
			return endResult(span, domain.Fail[string](domain.FailureUpstream, "Failed to process webhook"))
		}
		userID = existing.UserID

	default:
		log.Debug("Ignoring unhandled webhook event")
		return endResult(span, domain.Succeed("Webhook received", event.ID))
	}

	sub, err := s.syncSubscription(ctx, userID, event.SubscriptionID)
	if err != nil {
		log.WithField("subscription_id", event.SubscriptionID).Error(fmt.Sprintf("Failed to sync subscription: %v", err))
		return endResult(span, domain.Fail[string](domain.FailureUpstream, "Failed to process webhook"))
	}

	captureEvent(ctx, s.analytics, s.logger, domain.AnalyticsEvent{
		DistinctID: userID,
		Event:      domain.EventSubscriptionChanged,
		Properties: map[string]interface{}{
			"plan":   string(sub.Plan),
			"status": sub.Status,
		},
	})
	log.WithField("user_id", userID).Info("Subscription synced")
	return endResult(span, domain.Succeed("Webhook processed", event.ID))
}

// syncSubscription fetches the provider's view and upserts it for userID
func (s *SubscriptionService) syncSubscription(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	remote, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		UserID:               userID,
		StripeCustomerID:     remote.CustomerID,
		StripeSubscriptionID: remote.ID,
		PriceID:              remote.PriceID,
		Plan:                 domain.EffectivePlan(remote.Status, remote.Plan),
		Status:               remote.Status,
		CurrentPeriodStart:   timePtr(remote.PeriodStart),
		CurrentPeriodEnd:     timePtr(remote.PeriodEnd),
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
