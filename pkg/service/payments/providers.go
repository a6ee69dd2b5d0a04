package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

type CheckoutRequest struct {
	UserID        string
	Amount        float64
	Currency      domain.Currency
	TransactionID string
}

// CheckoutSession is what the client needs to hand the user over to the
// provider. ProviderOrderID is the key the webhook will settle against.
type CheckoutSession struct {
	ProviderOrderID string
	PaymentURL      string
	QRCode          string
	ClientSecret    string
}

type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// StripeProvider creates hosted checkout sessions through the Stripe REST
// API. The checkout session id doubles as the provider order id.
type StripeProvider struct {
	secretKey string
	appURL    string
	client    *http.Client
}

func NewStripeProvider(secretKey, appURL string) *StripeProvider {
	return &StripeProvider{
		secretKey: secretKey,
		appURL:    appURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("payment_method_types[]", "card")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(string(req.Currency)))
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", int(req.Amount*100)))
	form.Set("line_items[0][price_data][product_data][name]", "Tarot Reading Credits")
	form.Set("line_items[0][quantity]", "1")
	form.Set("mode", "payment")
	form.Set("success_url", p.appURL+"/payment/success?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", p.appURL+"/purchase")
	form.Set("metadata[transactionId]", req.TransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.stripe.com/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stripe checkout: HTTP %d: %s", resp.StatusCode, msg)
	}

	var session struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("stripe checkout: decode response: %w", err)
	}
	return &CheckoutSession{
		ProviderOrderID: session.ID,
		PaymentURL:      session.URL,
		ClientSecret:    session.ClientSecret,
	}, nil
}

// placeholderQR stands in until the CN providers are fully onboarded; the
// merchant-side signature flow is not implemented yet.
const placeholderQR = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// AlipayProvider builds gateway redirects for Alipay orders.
type AlipayProvider struct{}

func (AlipayProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	orderID := "alipay_" + uuid.New().String()
	return &CheckoutSession{
		ProviderOrderID: orderID,
		PaymentURL:      "https://openapi.alipay.com/gateway.do?out_trade_no=" + orderID,
		QRCode:          placeholderQR,
	}, nil
}

// WechatProvider builds native-pay links for WeChat Pay orders.
type WechatProvider struct{}

func (WechatProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	orderID := "wechat_" + uuid.New().String()
	return &CheckoutSession{
		ProviderOrderID: orderID,
		PaymentURL:      "weixin://wxpay/bizpayurl?out_trade_no=" + orderID,
		QRCode:          placeholderQR,
	}, nil
}
