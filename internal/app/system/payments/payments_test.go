package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

// signPayload produces a Stripe-Signature header value for payload,
// matching the v1 signing scheme (HMAC-SHA256 over "timestamp.payload").
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedEventPayload() []byte {
	return []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"client_reference_id": "5c88fa8cf4afda39709c2955",
				"customer_email": "ayla@example.com",
				"amount_total": 49700
			}
		}
	}`)
}

func TestParseWebhook_CompletedSession(t *testing.T) {
	s := &Stripe{webhookSecret: testSecret}
	payload := completedEventPayload()

	order, err := s.ParseWebhook(payload, signPayload(payload, testSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if order == nil {
		t.Fatal("completed session produced no order")
	}
	if order.TourID != "5c88fa8cf4afda39709c2955" {
		t.Errorf("tour id: got %q", order.TourID)
	}
	if order.CustomerEmail != "ayla@example.com" {
		t.Errorf("email: got %q", order.CustomerEmail)
	}
	if order.AmountCents != 49700 {
		t.Errorf("amount: got %d", order.AmountCents)
	}
}

func TestParseWebhook_BadSignature(t *testing.T) {
	s := &Stripe{webhookSecret: testSecret}
	payload := completedEventPayload()

	if _, err := s.ParseWebhook(payload, signPayload(payload, "whsec_wrong", time.Now())); err == nil {
		t.Fatal("forged signature accepted")
	}
}

func TestParseWebhook_StaleTimestamp(t *testing.T) {
	s := &Stripe{webhookSecret: testSecret}
	payload := completedEventPayload()

	sig := signPayload(payload, testSecret, time.Now().Add(-time.Hour))
	if _, err := s.ParseWebhook(payload, sig); err == nil {
		t.Fatal("replayed (stale) signature accepted")
	}
}

func TestParseWebhook_IgnoresOtherEvents(t *testing.T) {
	s := &Stripe{webhookSecret: testSecret}
	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "payment_intent.created",
		"data": {"object": {"id": "pi_1", "object": "payment_intent"}}
	}`)

	order, err := s.ParseWebhook(payload, signPayload(payload, testSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if order != nil {
		t.Errorf("non-checkout event produced an order: %+v", order)
	}
}
