package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/Lordkro/nullupload/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Form   map[string]string
}

type fakeStripe struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeStripe(t *testing.T) (*fakeStripe, *httptest.Server) {
	t.Helper()
	f := &fakeStripe{routes: map[string]func(w http.ResponseWriter, r *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k, v := range r.Form {
			form[k] = v[0]
		}
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Form: form})
		handler, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"Unrecognized request URL"}}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeStripe) handle(route, body string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func (f *fakeStripe) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeStripe) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testBackends(url string) *stripe.Backends {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(url),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func newTestClient(t *testing.T) (*Client, *fakeStripe) {
	t.Helper()
	fake, srv := newFakeStripe(t)
	c := New(config.Stripe{
		SecretKey:   "sk_test_123",
		PriceID:     "price_123",
		FrontendURL: "https://nullupload.dev/",
	}, WithBackends(testBackends(srv.URL)))
	return c, fake
}

func TestClient_NotConfigured(t *testing.T) {
	ctx := context.Background()
	c := New(config.Stripe{FrontendURL: "https://nullupload.dev"})
	assert.False(t, c.Configured())
	assert.False(t, c.CheckoutConfigured())

	_, err := c.CreateCheckoutSession(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.CreatePortalSession(ctx, "cus_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.CheckoutSession(ctx, "cs_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ActiveSubscription(ctx, "cus_1")
	assert.ErrorIs(t, err, ErrNotConfigured)

	withoutPrice := New(config.Stripe{SecretKey: "sk_test_123"})
	assert.True(t, withoutPrice.Configured())
	assert.False(t, withoutPrice.CheckoutConfigured())
	_, err = withoutPrice.CreateCheckoutSession(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_RedirectURLs(t *testing.T) {
	c := New(config.Stripe{FrontendURL: "https://nullupload.dev/"})
	assert.Equal(t, "https://nullupload.dev/pro?success=true&session_id={CHECKOUT_SESSION_ID}", c.SuccessURL())
	assert.Equal(t, "https://nullupload.dev/pro?canceled=true", c.CancelURL())
	assert.Equal(t, "https://nullupload.dev/pro", c.ReturnURL())
}

func TestClient_CreateCheckoutSession(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("POST /v1/checkout/sessions",
		`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, http.StatusOK)

	url, err := c.CreateCheckoutSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)

	req := fake.last()
	assert.Equal(t, "subscription", req.Form["mode"])
	assert.Equal(t, "price_123", req.Form["line_items[0][price]"])
	assert.Equal(t, "1", req.Form["line_items[0][quantity]"])
	assert.Equal(t, "https://nullupload.dev/pro?success=true&session_id={CHECKOUT_SESSION_ID}", req.Form["success_url"])
	assert.Equal(t, "https://nullupload.dev/pro?canceled=true", req.Form["cancel_url"])
}

func TestClient_CreateCheckoutSession_ProviderError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("POST /v1/checkout/sessions",
		`{"error":{"type":"invalid_request_error","message":"No such price: 'price_123'"}}`, http.StatusBadRequest)

	_, err := c.CreateCheckoutSession(context.Background())
	require.Error(t, err)
	var stripeErr *stripe.Error
	require.True(t, errors.As(err, &stripeErr))
	assert.Equal(t, "No such price: 'price_123'", stripeErr.Msg)
}

func TestClient_CreatePortalSession(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("POST /v1/billing_portal/sessions",
		`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.stripe.com/p/session/bps_1"}`, http.StatusOK)

	url, err := c.CreatePortalSession(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session/bps_1", url)

	req := fake.last()
	assert.Equal(t, "cus_1", req.Form["customer"])
	assert.Equal(t, "https://nullupload.dev/pro", req.Form["return_url"])
}

func TestClient_CheckoutSession(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErr    error
		wantEmail  string
		wantActive bool
	}{
		{
			name: "active subscription",
			body: `{"id":"cs_1","object":"checkout.session","customer":"cus_1",
				"customer_details":{"email":"buyer@example.com"},
				"subscription":{"id":"sub_1","object":"subscription","status":"active","current_period_end":1735689600}}`,
			wantEmail:  "buyer@example.com",
			wantActive: true,
		},
		{
			name: "incomplete subscription",
			body: `{"id":"cs_1","object":"checkout.session","customer":"cus_1",
				"subscription":{"id":"sub_1","object":"subscription","status":"incomplete","current_period_end":1735689600}}`,
		},
		{
			name: "no subscription",
			body: `{"id":"cs_1","object":"checkout.session","customer":"cus_1","subscription":null}`,
		},
		{
			name:    "no customer",
			body:    `{"id":"cs_1","object":"checkout.session","customer":null}`,
			wantErr: ErrMissingCustomer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t)
			fake.handle("GET /v1/checkout/sessions/cs_1", tt.body, http.StatusOK)

			res, err := c.CheckoutSession(context.Background(), "cs_1")
			assert.Equal(t, "subscription", fake.last().Form["expand[0]"])
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "cus_1", res.CustomerID)
			assert.Equal(t, tt.wantEmail, res.Email)
			if tt.wantActive {
				require.NotNil(t, res.Subscription)
				assert.Equal(t, "active", res.Subscription.Status)
				assert.Equal(t, int64(1735689600), res.Subscription.CurrentPeriodEnd)
			} else {
				assert.Nil(t, res.Subscription)
			}
		})
	}
}

func TestClient_ActiveSubscription(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("GET /v1/subscriptions",
		`{"object":"list","url":"/v1/subscriptions","has_more":false,
		  "data":[{"id":"sub_1","object":"subscription","status":"active","current_period_end":1735689600,"customer":"cus_1"}]}`,
		http.StatusOK)

	sub, err := c.ActiveSubscription(context.Background(), "cus_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, int64(1735689600), sub.CurrentPeriodEnd)

	req := fake.last()
	assert.Equal(t, "cus_1", req.Form["customer"])
	assert.Equal(t, "active", req.Form["status"])
	assert.Equal(t, "1", req.Form["limit"])
	assert.Equal(t, 1, fake.count())
}

func TestClient_ActiveSubscription_None(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("GET /v1/subscriptions",
		`{"object":"list","url":"/v1/subscriptions","has_more":false,"data":[]}`, http.StatusOK)

	sub, err := c.ActiveSubscription(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestClient_ActiveSubscription_ProviderError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.handle("GET /v1/subscriptions",
		`{"error":{"type":"invalid_request_error","message":"No such customer: 'cus_1'"}}`, http.StatusNotFound)

	sub, err := c.ActiveSubscription(context.Background(), "cus_1")
	require.Error(t, err)
	assert.Nil(t, sub)
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "No such price", Detail(fmt.Errorf("op: %w", &stripe.Error{Msg: "No such price"})))
	assert.Equal(t, "stripe not configured", Detail(fmt.Errorf("op: %w", ErrNotConfigured)))
	assert.Equal(t, "", Detail(errors.New("dial tcp: connection refused")))
}
