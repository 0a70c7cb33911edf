package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
)

// PaymentCredential is a vault entry: the raw instrument is stored only as
// (ciphertext, iv) under the process-wide vault key. Rows are insert-only;
// rotation adds a new record and flips the default.
type PaymentCredential struct {
	ID         snowflake.ID             `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID             `gorm:"not null;index" json:"user_id"`
	MethodKind paymentdomain.MethodKind `gorm:"type:text;not null" json:"method_kind"`
	Ciphertext []byte                   `gorm:"not null" json:"-"`
	IV         []byte                   `gorm:"not null" json:"-"`

	// ProfileRef is the gateway payment-profile id when the instrument was
	// tokenized at registration; settlement prefers it over raw decryption.
	ProfileRef *string `gorm:"type:text" json:"profile_ref,omitempty"`

	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentCredential) TableName() string { return "payment_credentials" }

// CredentialSummary is the masked display form; raw fields never leave the
// vault through listings.
type CredentialSummary struct {
	ID          snowflake.ID             `json:"id"`
	MethodKind  paymentdomain.MethodKind `json:"method_kind"`
	Last4       string                   `json:"last4"`
	Brand       string                   `json:"brand,omitempty"`
	ExpiryMonth string                   `json:"expiry_month,omitempty"`
	ExpiryYear  string                   `json:"expiry_year,omitempty"`
	AccountType string                   `json:"account_type,omitempty"`
	BankName    string                   `json:"bank_name,omitempty"`
	IsDefault   bool                     `json:"is_default"`
	CreatedAt   time.Time                `json:"created_at"`
}
