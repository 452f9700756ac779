package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/crypto"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

const (
	defaultStripeAPIBase = "https://api.stripe.com/v1"
	// webhookTolerance bounds the age of a signed webhook timestamp
	webhookTolerance = 5 * time.Minute
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// StripeService implements domain.PaymentsProvider over the Stripe REST API
type StripeService struct {
	secretKey     string
	webhookSecret string
	apiBase       string
	httpClient    domain.HTTPClient
	logger        logger.Logger
	now           func() time.Time
}

func NewStripeService(cfg config.PaymentsConfig, httpClient domain.HTTPClient, logger logger.Logger) *StripeService {
	apiBase := cfg.StripeAPIBase
	if apiBase == "" {
		apiBase = defaultStripeAPIBase
	}
	return &StripeService{
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		apiBase:       apiBase,
		httpClient:    httpClient,
		logger:        logger,
		now:           time.Now,
	}
}

// do calls the Stripe REST API inside a span and returns the parsed body
func (s *StripeService) do(ctx context.Context, method, path string, form url.Values) (gjson.Result, error) {
	return tracing.TraceMethodWithResult(ctx, "StripeService", "Request", func(ctx context.Context) (gjson.Result, error) {
		tracing.AddAttribute(ctx, "stripe.method", method)
		tracing.AddAttribute(ctx, "stripe.path", path)
		return s.request(ctx, method, path, form)
	})
}

func (s *StripeService) request(ctx context.Context, method, path string, form url.Values) (gjson.Result, error) {
	if s.secretKey == "" {
		return gjson.Result{}, domain.ErrProviderDisabled
	}

	endpoint := s.apiBase + path
	var body io.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			endpoint += "?" + form.Encode()
		}
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to call stripe: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read stripe response: %w", err)
	}

	parsed := gjson.ParseBytes(raw)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := parsed.Get("error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, fmt.Errorf("stripe returned %d: %s", resp.StatusCode, msg)
	}
	return parsed, nil
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", req.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.CustomerID != "" {
		form.Set("customer", req.CustomerID)
	} else if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
		form.Set("subscription_data[metadata]["+k+"]", v)
	}
	if userID, ok := req.Metadata["userId"]; ok {
		form.Set("client_reference_id", userID)
	}

	res, err := s.do(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return "", err
	}
	sessionURL := res.Get("url").String()
	if sessionURL == "" {
		return "", errors.New("stripe checkout session has no url")
	}
	return sessionURL, nil
}

func (s *StripeService) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	res, err := s.do(ctx, http.MethodPost, "/billing_portal/sessions", form)
	if err != nil {
		return "", err
	}
	sessionURL := res.Get("url").String()
	if sessionURL == "" {
		return "", errors.New("stripe portal session has no url")
	}
	return sessionURL, nil
}

func (s *StripeService) GetSubscription(ctx context.Context, id string) (*domain.ProviderSubscription, error) {
	if id == "" {
		return nil, errors.New("subscription id is required")
	}
	form := url.Values{}
	form.Add("expand[]", "items.data.price.product")

	res, err := s.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(id), form)
	if err != nil {
		return nil, err
	}

	item := res.Get("items.data.0")
	product := item.Get("price.product")
	sub := &domain.ProviderSubscription{
		ID:                res.Get("id").String(),
		CustomerID:        res.Get("customer").String(),
		PriceID:           item.Get("price.id").String(),
		ProductID:         product.Get("id").String(),
		Status:            res.Get("status").String(),
		Plan:              planFromMetadata(product.Get("metadata")),
		PeriodStart:       unixTime(periodField(res, item, "current_period_start")),
		PeriodEnd:         unixTime(periodField(res, item, "current_period_end")),
		CancelAtPeriodEnd: res.Get("cancel_at_period_end").Bool(),
	}
	if !product.IsObject() {
		sub.ProductID = product.String()
	}
	return sub, nil
}

// periodField reads a billing period bound from the subscription, falling
// back to the first item for API versions that moved it there
func periodField(sub, item gjson.Result, field string) int64 {
	if v := sub.Get(field); v.Exists() {
		return v.Int()
	}
	return item.Get(field).Int()
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func planFromMetadata(metadata gjson.Result) domain.SubscriptionPlan {
	for _, key := range []string{"plan", "membership"} {
		if plan, ok := domain.ParsePlan(metadata.Get(key).String()); ok {
			return plan
		}
	}
	return domain.PlanFree
}

func (s *StripeService) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	form := url.Values{}
	form.Set("active", "true")
	form.Set("limit", "100")
	form.Add("expand[]", "data.default_price")

	res, err := s.do(ctx, http.MethodGet, "/products", form)
	if err != nil {
		return nil, err
	}

	plans := []domain.Plan{}
	res.Get("data").ForEach(func(_, product gjson.Result) bool {
		if product.Get("metadata.type").String() != "subscription" {
			return true
		}
		price := product.Get("default_price")
		interval := price.Get("recurring.interval").String()
		if interval == "" {
			interval = "month"
		}

		features := []string{}
		if raw := product.Get("metadata.features").String(); raw != "" {
			parsed := gjson.Parse(raw)
			if parsed.IsArray() {
				for _, f := range parsed.Array() {
					features = append(features, f.String())
				}
			} else {
				s.logger.WithField("product_id", product.Get("id").String()).Warn("Ignoring malformed product features metadata")
			}
		}

		plans = append(plans, domain.Plan{
			ID:          product.Get("id").String(),
			Name:        product.Get("name").String(),
			Description: product.Get("description").String(),
			Price:       float64(price.Get("unit_amount").Int()) / 100,
			Interval:    interval,
			Features:    features,
			PriceID:     price.Get("id").String(),
			Popular:     product.Get("metadata.popular").String() == "true",
		})
		return true
	})

	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

// ParseWebhookEvent verifies the Stripe-Signature header and extracts the
// fields the webhook handler needs
func (s *StripeService) ParseWebhookEvent(payload []byte, signatureHeader string) (*domain.WebhookEvent, error) {
	if s.secretKey == "" || s.webhookSecret == "" {
		return nil, domain.ErrProviderDisabled
	}
	if err := verifySignature(payload, signatureHeader, s.webhookSecret, s.now()); err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(payload) {
		return nil, domain.NewValidationError("malformed webhook payload")
	}
	event := gjson.ParseBytes(payload)
	object := event.Get("data.object")

	metadata := map[string]string{}
	object.Get("metadata").ForEach(func(k, v gjson.Result) bool {
		metadata[k.String()] = v.String()
		return true
	})

	out := &domain.WebhookEvent{
		ID:          event.Get("id").String(),
		Type:        event.Get("type").String(),
		ObjectID:    object.Get("id").String(),
		CustomerID:  object.Get("customer").String(),
		Metadata:    metadata,
		ClientRefID: object.Get("client_reference_id").String(),
	}
	if strings.HasPrefix(out.Type, "customer.subscription.") {
		out.SubscriptionID = out.ObjectID
	} else {
		out.SubscriptionID = object.Get("subscription").String()
	}
	return out, nil
}

// verifySignature checks a `t=<unix>,v1=<hex>[,v1=<hex>]` header against an
// HMAC-SHA256 of "<t>.<payload>"
func verifySignature(payload []byte, header, secret string, now time.Time) error {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	sec, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := now.Sub(time.Unix(sec, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return ErrInvalidSignature
	}

	signed := append([]byte(timestamp+"."), payload...)
	for _, sig := range signatures {
		if crypto.VerifyHMAC256(signed, secret, sig) {
			return nil
		}
	}
	return ErrInvalidSignature
}
