package service

import (
	"context"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/timebill/internal/activity/domain"
	"github.com/smallbiznis/timebill/internal/clock"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	"github.com/smallbiznis/timebill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	UserSvc userdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	userSvc userdomain.Service
	repo    repository.Repository[activitydomain.UsageInterval]
}

func NewService(p Params) activitydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("activity.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		userSvc: p.UserSvc,
		repo:    repository.ProvideStore[activitydomain.UsageInterval](p.DB),
	}
}

func (s *Service) Start(ctx context.Context, userID snowflake.ID, activityType int32) (*activitydomain.UsageInterval, error) {
	if activityType < 1 {
		return nil, activitydomain.ErrInvalidActivityType
	}
	if _, err := s.userSvc.Get(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.findOpen(ctx, userID, activityType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Hand the open interval back so the caller can decide what to do
		// with it; starting never implicitly closes.
		return existing, activitydomain.ErrActivityAlreadyOpen
	}

	now := s.clock.Now().UTC()
	interval := &activitydomain.UsageInterval{
		ID:           s.genID.Generate(),
		UserID:       userID,
		ActivityType: activityType,
		StartTime:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, interval); err != nil {
		return nil, err
	}

	s.log.Info("activity started",
		zap.String("user_id", userID.String()),
		zap.Int32("activity_type", activityType),
		zap.String("interval_id", interval.ID.String()),
	)
	return interval, nil
}

func (s *Service) End(ctx context.Context, userID snowflake.ID, activityType int32) (*activitydomain.UsageInterval, error) {
	if activityType < 1 {
		return nil, activitydomain.ErrInvalidActivityType
	}

	interval, err := s.findOpen(ctx, userID, activityType)
	if err != nil {
		return nil, err
	}
	if interval == nil {
		return nil, activitydomain.ErrNoOpenActivity
	}

	now := s.clock.Now().UTC()
	minutes := ceilMinutes(now.Sub(interval.StartTime))

	// Guarded so a concurrent End of the same interval closes it once; the
	// duration is fixed here and never recomputed.
	result := s.db.WithContext(ctx).Exec(
		`UPDATE usage_intervals
		 SET end_time = ?, duration_minutes = ?, updated_at = ?
		 WHERE id = ? AND end_time IS NULL`,
		now,
		minutes,
		now,
		interval.ID,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, activitydomain.ErrNoOpenActivity
	}

	interval.EndTime = &now
	interval.DurationMinutes = minutes
	interval.UpdatedAt = now

	s.log.Info("activity ended",
		zap.String("user_id", userID.String()),
		zap.Int32("activity_type", activityType),
		zap.String("interval_id", interval.ID.String()),
		zap.Int64("duration_minutes", minutes),
	)
	return interval, nil
}

// findOpen returns the most recently started open interval for the pair.
func (s *Service) findOpen(ctx context.Context, userID snowflake.ID, activityType int32) (*activitydomain.UsageInterval, error) {
	var intervals []*activitydomain.UsageInterval
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND activity_type = ? AND end_time IS NULL", userID, activityType).
		Order("start_time DESC").
		Limit(1).
		Find(&intervals).Error
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, nil
	}
	return intervals[0], nil
}

// ceilMinutes rounds a span up to whole minutes: partial minutes always bill
// as full minutes, matching the audited billing rule.
func ceilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Minutes()))
}
