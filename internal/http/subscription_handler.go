package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
)

// maxWebhookBody matches the payload ceiling Stripe documents for events
const maxWebhookBody = 65536

type SubscriptionGateway interface {
	GetCurrent(ctx context.Context) domain.ActionResult[*domain.Subscription]
	ListPlans(ctx context.Context) domain.ActionResult[[]domain.Plan]
	CreateCheckout(ctx context.Context, req *domain.CreateCheckoutRequest) domain.ActionResult[*domain.SessionURL]
	CreatePortal(ctx context.Context, req *domain.CreatePortalRequest) domain.ActionResult[*domain.SessionURL]
	HandleWebhook(ctx context.Context, payload []byte, signature string) domain.ActionResult[string]
}

type SubscriptionHandler struct {
	service SubscriptionGateway
	logger  logger.Logger
}

func NewSubscriptionHandler(service SubscriptionGateway, logger logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, logger: logger}
}

// RegisterPublicRoutes mounts the routes reachable without an identity
func (h *SubscriptionHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/subscriptions/plans", h.Plans)
	r.Post("/webhooks/stripe", h.Webhook)
}

func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/subscriptions/current", h.Current)
	r.Post("/subscriptions/checkout", h.Checkout)
	r.Post("/subscriptions/portal", h.Portal)
}

func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.service.ListPlans(r.Context()))
}

func (h *SubscriptionHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.service.GetCurrent(r.Context()))
}

func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCheckoutRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeResult(w, http.StatusOK, h.service.CreateCheckout(r.Context(), &req))
}

func (h *SubscriptionHandler) Portal(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePortalRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	writeResult(w, http.StatusOK, h.service.CreatePortal(r.Context(), &req))
}

// Webhook verifies and applies a Stripe event. The raw body is required for
// signature verification.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to read webhook body")
		WriteJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if !result.Ok {
		WriteJSONError(w, result.Message, statusFor(result.Kind))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
		"message":  result.Message,
	})
}
