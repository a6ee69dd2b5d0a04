// Package notify is the outbound notification collaborator. Sends are
// fire-and-forget from the caller's point of view: a failed email is logged
// and never rolls back the ledger mutation that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Notifier interface {
	SendWelcome(ctx context.Context, email string, freeReadings int) error
	SendPaymentConfirmation(ctx context.Context, email string, readingsGranted int, isLifetime bool) error
	SendReferralReward(ctx context.Context, email string) error
	SendReadingReady(ctx context.Context, email, readingID string) error
}

// EmailNotifier sends through the SendGrid v3 mail API.
type EmailNotifier struct {
	apiKey string
	from   string
	appURL string
	client *http.Client
}

func NewEmailNotifier(apiKey, from, appURL string) *EmailNotifier {
	return &EmailNotifier{
		apiKey: apiKey,
		from:   from,
		appURL: appURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *EmailNotifier) SendWelcome(ctx context.Context, email string, freeReadings int) error {
	return n.send(ctx, email, "Welcome to AI Tarot Life",
		fmt.Sprintf("Welcome! You have %d free readings to start with.", freeReadings))
}

func (n *EmailNotifier) SendPaymentConfirmation(ctx context.Context, email string, readingsGranted int, isLifetime bool) error {
	body := fmt.Sprintf("Payment confirmed! %d readings have been added to your account.", readingsGranted)
	if isLifetime {
		body = "Payment confirmed! You now have Lifetime Membership with up to 365 readings per year."
	}
	return n.send(ctx, email, "Payment Confirmed - Thank You!", body)
}

func (n *EmailNotifier) SendReferralReward(ctx context.Context, email string) error {
	return n.send(ctx, email, "You Earned a Free Reading!",
		"Your friend completed their first purchase. We added 1 free reading to your account.")
}

func (n *EmailNotifier) SendReadingReady(ctx context.Context, email, readingID string) error {
	return n.send(ctx, email, "Your Tarot Reading is Ready",
		fmt.Sprintf("Your reading is ready: %s/reading/%s", n.appURL, readingID))
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, text string) error {
	if n.apiKey == "" {
		log.Printf("notify: no mail API key configured, skipping %q to %s", subject, to)
		return nil
	}
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": n.from},
		"subject": subject,
		"content": []map[string]string{{"type": "text/plain", "value": text}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.sendgrid.com/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send mail: HTTP %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// Nop discards every notification. Used in tests and when mail is disabled.
type Nop struct{}

func (Nop) SendWelcome(context.Context, string, int) error { return nil }

func (Nop) SendPaymentConfirmation(context.Context, string, int, bool) error { return nil }

func (Nop) SendReferralReward(context.Context, string) error { return nil }

func (Nop) SendReadingReady(context.Context, string, string) error { return nil }
