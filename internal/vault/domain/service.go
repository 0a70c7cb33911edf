package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
)

type StoreCredentialRequest struct {
	UserID    snowflake.ID             `json:"user_id"`
	Details   paymentdomain.RawDetails `json:"details"`
	IsDefault bool                     `json:"is_default"`
}

type Service interface {
	// StoreCredential validates, tokenizes (when a gateway is configured),
	// encrypts and persists a raw instrument. The demotion of previous
	// defaults and the insert are one atomic unit.
	StoreCredential(ctx context.Context, req StoreCredentialRequest) (*PaymentCredential, error)

	// DefaultCredential returns the user's default entry, nil if none.
	DefaultCredential(ctx context.Context, userID snowflake.ID) (*PaymentCredential, error)

	ListCredentials(ctx context.Context, userID snowflake.ID) ([]CredentialSummary, error)

	// Open decrypts a credential back to its raw details. Settlement-time and
	// privileged use only.
	Open(cred *PaymentCredential) (*paymentdomain.RawDetails, error)

	// Reveal is the privileged read path: load by id and decrypt.
	Reveal(ctx context.Context, credentialID snowflake.ID) (*paymentdomain.RawDetails, error)
}

var (
	// ErrSecretMissing means no vault secret was configured. The vault never
	// falls back to a built-in key.
	ErrSecretMissing = errors.New("vault_secret_missing")

	ErrInvalidDetails     = errors.New("invalid_credential_details")
	ErrCredentialNotFound = errors.New("credential_not_found")

	// ErrPayloadMalformed is a structural failure (bad lengths, bad JSON);
	// ErrPayloadIntegrity is a GCM authentication failure, i.e. tampering or
	// a wrong key.
	ErrPayloadMalformed = errors.New("vault_payload_malformed")
	ErrPayloadIntegrity = errors.New("vault_payload_integrity")
)
