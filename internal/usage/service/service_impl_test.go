package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activitydomain "github.com/smallbiznis/timebill/internal/activity/domain"
	usagedomain "github.com/smallbiznis/timebill/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUsage(t *testing.T) (usagedomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&activitydomain.UsageInterval{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewService(Params{DB: db, Log: zap.NewNop()}), db, node
}

func seedInterval(t *testing.T, db *gorm.DB, node *snowflake.Node, userID snowflake.ID, minutes int64, paid, open bool) snowflake.ID {
	t.Helper()

	now := time.Now().UTC()
	interval := &activitydomain.UsageInterval{
		ID:           node.Generate(),
		UserID:       userID,
		ActivityType: 1,
		StartTime:    now.Add(-time.Duration(minutes) * time.Minute),
		Paid:         paid,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !open {
		interval.EndTime = &now
		interval.DurationMinutes = minutes
	}
	if err := db.Create(interval).Error; err != nil {
		t.Fatalf("seed interval: %v", err)
	}
	return interval.ID
}

func TestUnpaidTotalMinutes(t *testing.T) {
	svc, db, node := setupUsage(t)
	ctx := context.Background()
	userID := node.Generate()
	otherID := node.Generate()

	seedInterval(t, db, node, userID, 3, false, false)
	seedInterval(t, db, node, userID, 2, false, false)
	seedInterval(t, db, node, userID, 5, true, false)  // already settled
	seedInterval(t, db, node, userID, 7, false, true)  // still running
	seedInterval(t, db, node, otherID, 9, false, false)

	total, err := svc.UnpaidTotalMinutes(ctx, userID)
	if err != nil {
		t.Fatalf("unpaid total: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 unpaid minutes, got %d", total)
	}
}

func TestUnpaidTotalMinutesEmpty(t *testing.T) {
	svc, _, node := setupUsage(t)

	total, err := svc.UnpaidTotalMinutes(context.Background(), node.Generate())
	if err != nil {
		t.Fatalf("unpaid total: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 for a user with no usage, got %d", total)
	}
}

func TestUnpaidIntervalsInsertionOrder(t *testing.T) {
	svc, db, node := setupUsage(t)
	ctx := context.Background()
	userID := node.Generate()

	first := seedInterval(t, db, node, userID, 1, false, false)
	second := seedInterval(t, db, node, userID, 2, false, false)
	third := seedInterval(t, db, node, userID, 3, false, false)
	seedInterval(t, db, node, userID, 4, true, false)
	seedInterval(t, db, node, userID, 5, false, true)

	intervals, err := svc.UnpaidIntervals(ctx, userID)
	if err != nil {
		t.Fatalf("unpaid intervals: %v", err)
	}
	if len(intervals) != 3 {
		t.Fatalf("expected 3 unpaid closed intervals, got %d", len(intervals))
	}
	for i, want := range []snowflake.ID{first, second, third} {
		if intervals[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, intervals[i].ID)
		}
	}
}
