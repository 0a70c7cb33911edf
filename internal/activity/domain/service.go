package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Start opens a new interval. If one is already open for the pair, the
	// existing interval is returned together with ErrActivityAlreadyOpen and
	// nothing is created or closed.
	Start(ctx context.Context, userID snowflake.ID, activityType int32) (*UsageInterval, error)

	// End closes the most recently started open interval for the pair,
	// fixing its duration. ErrNoOpenActivity if there is none.
	End(ctx context.Context, userID snowflake.ID, activityType int32) (*UsageInterval, error)
}

var (
	ErrInvalidActivityType = errors.New("invalid_activity_type")
	ErrActivityAlreadyOpen = errors.New("activity_already_open")
	ErrNoOpenActivity      = errors.New("no_open_activity")
)
