package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/timebill/internal/activity/domain"
	usagedomain "github.com/smallbiznis/timebill/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),
	}
}

func (s *Service) UnpaidTotalMinutes(ctx context.Context, userID snowflake.ID) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(duration_minutes), 0)
		 FROM usage_intervals
		 WHERE user_id = ? AND paid = FALSE AND end_time IS NOT NULL`,
		userID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) UnpaidIntervals(ctx context.Context, userID snowflake.ID) ([]*activitydomain.UsageInterval, error) {
	var intervals []*activitydomain.UsageInterval
	// Snowflake ids are time-ordered, so id order is insertion order.
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND paid = ? AND end_time IS NOT NULL", userID, false).
		Order("id ASC").
		Find(&intervals).Error
	if err != nil {
		return nil, err
	}
	return intervals, nil
}
