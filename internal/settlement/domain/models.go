package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the result of one user's settlement unit. Failures live here as
// data; they never cross the fan-out boundary as errors.
type Outcome struct {
	UserID        snowflake.ID    `json:"user_id"`
	Status        OutcomeStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Minutes       int64           `json:"minutes"`
	PaidIntervals int             `json:"paid_intervals"`
	LedgerEntryID *snowflake.ID   `json:"ledger_entry_id,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// Report aggregates a settlement run. Every requested user id appears in
// Outcomes exactly once; ordering between users is unspecified.
type Report struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Outcomes  []Outcome `json:"outcomes"`
}
