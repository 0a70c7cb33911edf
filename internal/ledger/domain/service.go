package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Append inserts a new entry, assigning id and created_at. There is no
	// update or delete path.
	Append(ctx context.Context, entry *TransactionEntry) (*TransactionEntry, error)

	// EntriesForUser returns the user's entries ordered by creation time
	// ascending, for audit and reconciliation.
	EntriesForUser(ctx context.Context, userID snowflake.ID) ([]*TransactionEntry, error)
}

var (
	ErrInvalidEntry   = errors.New("invalid_ledger_entry")
	ErrInvalidOutcome = errors.New("invalid_ledger_outcome")
)
