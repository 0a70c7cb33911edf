// Package domain declares the payment-gateway capability the settlement
// engine consumes. The wire client behind it (Authorize.net, Stripe, ...) is
// an external collaborator; only this surface matters here.
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type MethodKind string

const (
	MethodKindCard MethodKind = "card"
	MethodKindBank MethodKind = "bank"
)

// CardDetails is the raw card shape accepted at tokenization or raw charge.
// Expiry is MMYY.
type CardDetails struct {
	Number       string `json:"number"`
	Expiry       string `json:"expiry"`
	SecurityCode string `json:"security_code"`
}

type BankDetails struct {
	AccountType   string `json:"account_type"` // checking | savings
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name,omitempty"`
}

// RawDetails is the tagged union of chargeable raw instruments. Exactly one
// of Card/Bank is set, discriminated by MethodKind.
type RawDetails struct {
	MethodKind MethodKind   `json:"method_kind"`
	Card       *CardDetails `json:"card,omitempty"`
	Bank       *BankDetails `json:"bank,omitempty"`
}

type ChargeRequest struct {
	Amount   decimal.Decimal
	Currency string

	// Tokenized mode: both refs set, Raw nil.
	CustomerProfileRef string
	PaymentProfileRef  string

	// Raw-credential mode: decrypted details, refs empty.
	Raw *RawDetails

	Note string
}

type ChargeResult struct {
	TransactionRef string
	AuthCode       string
	ResponseCode   string
	Message        string
}

type TokenizeRequest struct {
	UserRef            string // stable merchant-side identity for the owner
	OwnerName          string
	OwnerEmail         string
	CustomerProfileRef string // reuse when the owner already has one
	Details            RawDetails
}

type TokenizeResult struct {
	CustomerProfileRef string
	PaymentProfileRef  string
}

// Gateway is the processor capability. Charge failures (declines, timeouts)
// come back as *Error so callers can surface the processor's reason.
type Gateway interface {
	Provider() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	TokenizeCredential(ctx context.Context, req TokenizeRequest) (*TokenizeResult, error)
}

var (
	ErrInvalidCharge = errors.New("invalid_charge_request")
	ErrNoResponse    = errors.New("no_response_from_processor")
)

// Error is a processor-reported failure carrying a human-readable reason.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func NewError(reason string) *Error { return &Error{Reason: reason} }
