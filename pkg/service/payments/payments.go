// Package payments creates payment orders and fulfills them from provider
// webhooks. readingsGranted is fixed when the order is created; webhook
// confirmation only ever applies it.
package payments

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/ledger"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/repository/store"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/notify"
)

// WebhookStatusSucceeded is the provider status that completes a
// transaction; every other status fails it.
const WebhookStatusSucceeded = "succeeded"

type Service struct {
	store     *store.Store
	providers map[domain.PaymentProvider]Provider
	notifier  notify.Notifier
}

func NewService(st *store.Store, providers map[domain.PaymentProvider]Provider, notifier notify.Notifier) *Service {
	return &Service{store: st, providers: providers, notifier: notifier}
}

type CreateOrderInput struct {
	Type     domain.TransactionType
	Amount   float64
	Currency domain.Currency
	Provider domain.PaymentProvider
}

type OrderResponse struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	ClientSecret  string `json:"client_secret,omitempty"`
}

// CreateOrder records a PENDING transaction with its credit grant computed
// up front and hands the user to the payment provider.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*OrderResponse, error) {
	if err := validateOrder(in); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	provider, ok := s.providers[in.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment provider %q", domain.ErrInvalidInput, in.Provider)
	}

	transactionID := uuid.New().String()
	session, err := provider.CreateCheckout(ctx, CheckoutRequest{
		UserID:        userID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		TransactionID: transactionID,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	now := time.Now().UTC()
	t := &domain.Transaction{
		ID:                transactionID,
		UserID:            userID,
		Type:              in.Type,
		Amount:            in.Amount,
		Currency:          in.Currency,
		Provider:          in.Provider,
		Status:            domain.PaymentPending,
		ReadingsGranted:   ledger.ReadingsToGrant(in.Type, in.Amount, user.Region),
		IsLifetimeUpgrade: in.Type == domain.TransactionLifetime,
		ProviderOrderID:   session.ProviderOrderID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	return &OrderResponse{
		TransactionID: t.ID,
		PaymentURL:    session.PaymentURL,
		QRCode:        session.QRCode,
		ClientSecret:  session.ClientSecret,
	}, nil
}

func validateOrder(in CreateOrderInput) error {
	switch in.Type {
	case domain.TransactionSingle, domain.TransactionBundle, domain.TransactionLifetime, domain.TransactionTip:
	default:
		return fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, in.Type)
	}
	switch in.Currency {
	case domain.CurrencyUSD, domain.CurrencyCNY:
	default:
		return fmt.Errorf("%w: unknown currency %q", domain.ErrInvalidInput, in.Currency)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// HandleWebhook settles a transaction from a provider event. Settlement is
// one atomic unit in the store; notifications go out after the commit and
// their failures are logged, never propagated. A redelivered webhook for an
// already settled transaction is acknowledged without effects.
func (s *Service) HandleWebhook(ctx context.Context, providerOrderID, status string) (*store.Settlement, error) {
	if providerOrderID == "" || status == "" {
		return nil, fmt.Errorf("%w: provider order id and status are required", domain.ErrInvalidInput)
	}

	settlement, err := s.store.SettlePayment(ctx, providerOrderID, status == WebhookStatusSucceeded, time.Now())
	if err != nil {
		return nil, err
	}
	if settlement.AlreadyProcessed || !settlement.Applied {
		return settlement, nil
	}

	t := settlement.Transaction
	if err := s.notifier.SendPaymentConfirmation(ctx, settlement.UserEmail, t.ReadingsGranted, t.IsLifetimeUpgrade); err != nil {
		log.Printf("payments: confirmation email for %s: %v", t.ID, err)
	}
	if settlement.ReferralRewarded {
		if err := s.notifier.SendReferralReward(ctx, settlement.ReferrerEmail); err != nil {
			log.Printf("payments: referral reward email for %s: %v", t.ID, err)
		}
	}
	return settlement, nil
}
