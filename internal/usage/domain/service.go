// Package domain declares the read-only unpaid-usage aggregation surface.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/timebill/internal/activity/domain"
)

type Service interface {
	// UnpaidTotalMinutes sums the durations of the user's closed, unpaid
	// intervals. Zero when there are none.
	UnpaidTotalMinutes(ctx context.Context, userID snowflake.ID) (int64, error)

	// UnpaidIntervals returns the same set in insertion order; settlement
	// consumes it to build deterministic ledger entries.
	UnpaidIntervals(ctx context.Context, userID snowflake.ID) ([]*activitydomain.UsageInterval, error)
}
