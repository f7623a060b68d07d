// Package stripe is a thin, explicitly typed client for the billing
// provider's REST API. It performs no local caching and surfaces every
// failure to the caller.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ventrahq/ventra/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

type ClientParam struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func NewClient(p ClientParam) *Client {
	timeout := p.Cfg.Billing.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: p.Cfg.Billing.BaseURL,
		apiKey:  p.Cfg.Billing.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: p.Log.Named("payment.stripe"),
	}
}

var Module = fx.Module("payment.stripe",
	fx.Provide(NewClient),
)

// CreateCustomer registers the organization as a provider customer. The
// organization id travels in metadata so webhook events can be traced
// back to the tenant.
func (c *Client) CreateCustomer(ctx context.Context, orgID, name, email string) (Customer, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)
	form.Set("metadata[organization_id]", orgID)

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// ListActiveSubscriptions returns the customer's active subscriptions.
// Zero or one entries are expected; more indicates upstream drift.
func (c *Client) ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("status", "active")
	form.Set("limit", "3")

	var list subscriptionList
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions?"+form.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// RetrieveSubscription fetches one subscription by id.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, &sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// UpdateSubscriptionItem swaps the subscription's single line item to a
// new price with prorated billing. The same subscription object is
// adjusted; no second subscription is ever created.
func (c *Client) UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (Subscription, error) {
	form := url.Values{}
	form.Set("items[0][id]", itemID)
	form.Set("items[0][price]", priceID)
	form.Set("proration_behavior", "create_prorations")

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form, &sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// CheckoutSessionParams configures a hosted checkout flow.
type CheckoutSessionParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	TrialDays  int
	Metadata   map[string]string
}

// CreateCheckoutSession opens a provider-hosted subscription checkout.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", params.CustomerID)
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.TrialDays > 0 {
		form.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialDays))
	}
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
		form.Set(fmt.Sprintf("subscription_data[metadata][%s]", key), value)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}

// RetrievePrice fetches one price by id.
func (c *Client) RetrievePrice(ctx context.Context, priceID string) (Price, error) {
	var price Price
	if err := c.do(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(priceID), nil, &price); err != nil {
		return Price{}, err
	}
	return price, nil
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if IsTimeout(err) {
			c.log.Warn("provider request timed out",
				zap.String("method", method),
				zap.String("path", path),
			)
			return ErrTimeout
		}
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if IsTimeout(err) {
			return ErrTimeout
		}
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.Unmarshal(payload, out)
	}

	var envelope errorEnvelope
	_ = json.Unmarshal(payload, &envelope)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, envelope.Error.Message)
	}

	providerErr := &Error{
		HTTPStatus: resp.StatusCode,
		Type:       envelope.Error.Type,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
	}
	c.log.Warn("provider returned error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("code", providerErr.Code),
	)
	return providerErr
}
