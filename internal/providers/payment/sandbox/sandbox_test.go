package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestChargeApprovesTokenized(t *testing.T) {
	g := New(zap.NewNop())

	result, err := g.Charge(context.Background(), paymentdomain.ChargeRequest{
		Amount:             decimal.RequireFromString("0.30"),
		Currency:           "USD",
		CustomerProfileRef: "sandbox_cust_abc",
		PaymentProfileRef:  "sandbox_pm_abc",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !strings.HasPrefix(result.TransactionRef, "simulated_txn_") {
		t.Fatalf("unexpected transaction ref %q", result.TransactionRef)
	}
	if result.ResponseCode != "1" {
		t.Fatalf("expected approval code 1, got %s", result.ResponseCode)
	}
}

func TestChargeApprovesRawDetails(t *testing.T) {
	g := New(zap.NewNop())

	_, err := g.Charge(context.Background(), paymentdomain.ChargeRequest{
		Amount:   decimal.RequireFromString("1.00"),
		Currency: "USD",
		Raw: &paymentdomain.RawDetails{
			MethodKind: paymentdomain.MethodKindCard,
			Card:       &paymentdomain.CardDetails{Number: "4111111111111111", Expiry: "1227", SecurityCode: "123"},
		},
	})
	if err != nil {
		t.Fatalf("raw charge: %v", err)
	}
}

func TestChargeScriptedDecline(t *testing.T) {
	g := New(zap.NewNop())
	g.DeclineProfile("sandbox_pm_bad", "card_declined")

	_, err := g.Charge(context.Background(), paymentdomain.ChargeRequest{
		Amount:             decimal.RequireFromString("0.10"),
		Currency:           "USD",
		CustomerProfileRef: "sandbox_cust_abc",
		PaymentProfileRef:  "sandbox_pm_bad",
	})
	var gatewayErr *paymentdomain.Error
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected a gateway error, got %v", err)
	}
	if gatewayErr.Reason != "card_declined" {
		t.Fatalf("expected the scripted reason, got %q", gatewayErr.Reason)
	}
}

func TestChargeRejectsInvalidRequests(t *testing.T) {
	g := New(zap.NewNop())
	ctx := context.Background()

	// Zero amount.
	if _, err := g.Charge(ctx, paymentdomain.ChargeRequest{
		CustomerProfileRef: "c", PaymentProfileRef: "p",
	}); !errors.Is(err, paymentdomain.ErrInvalidCharge) {
		t.Fatalf("expected invalid-charge for zero amount, got %v", err)
	}

	// No instrument at all.
	if _, err := g.Charge(ctx, paymentdomain.ChargeRequest{
		Amount: decimal.RequireFromString("0.10"),
	}); !errors.Is(err, paymentdomain.ErrInvalidCharge) {
		t.Fatalf("expected invalid-charge without instrument, got %v", err)
	}
}

func TestTokenizeReusesCustomerProfile(t *testing.T) {
	g := New(zap.NewNop())
	ctx := context.Background()

	first, err := g.TokenizeCredential(ctx, paymentdomain.TokenizeRequest{UserRef: "42"})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if !strings.HasPrefix(first.CustomerProfileRef, "sandbox_cust_") {
		t.Fatalf("unexpected customer ref %q", first.CustomerProfileRef)
	}

	second, err := g.TokenizeCredential(ctx, paymentdomain.TokenizeRequest{
		UserRef:            "42",
		CustomerProfileRef: first.CustomerProfileRef,
	})
	if err != nil {
		t.Fatalf("tokenize again: %v", err)
	}
	if second.CustomerProfileRef != first.CustomerProfileRef {
		t.Fatal("expected the existing customer profile to be reused")
	}
	if second.PaymentProfileRef == first.PaymentProfileRef {
		t.Fatal("expected a fresh payment profile per instrument")
	}
}
