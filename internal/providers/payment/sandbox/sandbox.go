// Package sandbox is an in-process gateway stand-in for development and
// self-hosted installs without processor credentials. Charges approve unless
// the instrument matches a scripted decline.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	"go.uber.org/zap"
)

type Gateway struct {
	log *zap.Logger

	mu       sync.Mutex
	declines map[string]string // payment profile ref -> decline reason
}

func New(log *zap.Logger) *Gateway {
	return &Gateway{
		log:      log.Named("gateway.sandbox"),
		declines: make(map[string]string),
	}
}

func (g *Gateway) Provider() string { return "sandbox" }

// DeclineProfile scripts a decline for a payment profile ref.
func (g *Gateway) DeclineProfile(ref, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declines[ref] = reason
}

func (g *Gateway) Charge(ctx context.Context, req paymentdomain.ChargeRequest) (*paymentdomain.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, paymentdomain.NewError(err.Error())
	}
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidCharge
	}
	if req.Raw == nil && (req.CustomerProfileRef == "" || req.PaymentProfileRef == "") {
		return nil, paymentdomain.ErrInvalidCharge
	}

	if req.PaymentProfileRef != "" {
		g.mu.Lock()
		reason, declined := g.declines[req.PaymentProfileRef]
		g.mu.Unlock()
		if declined {
			return nil, paymentdomain.NewError(reason)
		}
	}

	result := &paymentdomain.ChargeResult{
		TransactionRef: "simulated_txn_" + uuid.NewString(),
		AuthCode:       strings.ToUpper(uuid.NewString()[:6]),
		ResponseCode:   "1",
		Message:        "This transaction has been approved.",
	}
	g.log.Debug("sandbox charge approved",
		zap.String("transaction_ref", result.TransactionRef),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return result, nil
}

func (g *Gateway) TokenizeCredential(ctx context.Context, req paymentdomain.TokenizeRequest) (*paymentdomain.TokenizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, paymentdomain.NewError(err.Error())
	}

	customerRef := req.CustomerProfileRef
	if customerRef == "" {
		customerRef = fmt.Sprintf("sandbox_cust_%s", uuid.NewString())
	}
	return &paymentdomain.TokenizeResult{
		CustomerProfileRef: customerRef,
		PaymentProfileRef:  fmt.Sprintf("sandbox_pm_%s", uuid.NewString()),
	}, nil
}
