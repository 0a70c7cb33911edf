package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type SettleRequest struct {
	UserIDs []snowflake.ID `json:"user_ids"`
	Note    string         `json:"note"`
}

type Service interface {
	// Settle charges each user's unpaid usage against their default payment
	// method, independently and with bounded concurrency. The report covers
	// every id; only an unusable request fails the call itself.
	Settle(ctx context.Context, req SettleRequest) (*Report, error)
}

var (
	ErrEmptyUserSet = errors.New("empty_user_set")

	// MsgNoDefaultPaymentMethod is the per-user failure message when no
	// default credential exists; no charge is attempted and no ledger entry
	// is written for that user.
	MsgNoDefaultPaymentMethod = "no_default_payment_method"
)
