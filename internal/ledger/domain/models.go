// Package domain contains the append-only settlement ledger model. Entries
// are the billing-history source of truth: one row per settlement attempt,
// never revised, never deleted.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type EntryOutcome string

const (
	EntryOutcomeSuccess EntryOutcome = "success"
	EntryOutcomeFailed  EntryOutcome = "failed"
)

// TransactionEntry records one settlement attempt and its processor outcome.
// A retry appends a new entry; the old one stands.
type TransactionEntry struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID snowflake.ID `gorm:"not null;index" json:"user_id"`

	// UsageIntervalIDs is the covered interval set; on success each of those
	// intervals points back at this entry through payment_ref.
	UsageIntervalIDs datatypes.JSONSlice[snowflake.ID] `gorm:"not null" json:"usage_interval_ids"`

	Amount   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Currency string          `gorm:"type:text;not null" json:"currency"`

	MethodKind  paymentdomain.MethodKind `gorm:"type:text;not null" json:"method_kind"`
	ExternalRef string                   `gorm:"type:text;not null;default:''" json:"external_ref"`

	Outcome       EntryOutcome `gorm:"type:text;not null" json:"outcome"`
	FailureReason *string      `gorm:"type:text" json:"failure_reason,omitempty"`
	Note          string       `gorm:"type:text;not null;default:''" json:"note"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TransactionEntry) TableName() string { return "transaction_entries" }
