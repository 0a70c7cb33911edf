package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupUsers(t *testing.T) userdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userdomain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewService(Params{DB: db, Log: zap.NewNop(), GenID: node})
}

func TestRegisterAndGet(t *testing.T) {
	svc := setupUsers(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, userdomain.RegisterRequest{
		Name:     "Pat Example",
		Email:    "  Pat@Example.COM ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "pat@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	got, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Fatalf("get mismatch: %+v", got)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupUsers(t)
	ctx := context.Background()

	req := userdomain.RegisterRequest{Name: "Pat", Email: "dup@example.com", Password: "correct-horse"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("register first: %v", err)
	}

	req.Name = "Other Pat"
	if _, err := svc.Register(ctx, req); !errors.Is(err, userdomain.ErrEmailTaken) {
		t.Fatalf("expected email-taken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setupUsers(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  userdomain.RegisterRequest
		want error
	}{
		{"blank name", userdomain.RegisterRequest{Email: "a@b.com", Password: "correct-horse"}, userdomain.ErrInvalidName},
		{"bad email", userdomain.RegisterRequest{Name: "Pat", Email: "not-an-email", Password: "correct-horse"}, userdomain.ErrInvalidEmail},
		{"short password", userdomain.RegisterRequest{Name: "Pat", Email: "a@b.com", Password: "short"}, userdomain.ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := setupUsers(t)
	if _, err := svc.Get(context.Background(), snowflake.ID(12345)); !errors.Is(err, userdomain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSetCustomerProfileRefIsWriteOnce(t *testing.T) {
	svc := setupUsers(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, userdomain.RegisterRequest{
		Name:     "Pat",
		Email:    "ref@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SetCustomerProfileRef(ctx, user.ID, "cust_first"); err != nil {
		t.Fatalf("set first: %v", err)
	}
	if err := svc.SetCustomerProfileRef(ctx, user.ID, "cust_second"); err != nil {
		t.Fatalf("set second: %v", err)
	}

	got, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CustomerProfileRef == nil || *got.CustomerProfileRef != "cust_first" {
		t.Fatalf("expected the first ref to stick, got %v", got.CustomerProfileRef)
	}
}
