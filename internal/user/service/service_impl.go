package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	"github.com/smallbiznis/timebill/pkg/db"
	"github.com/smallbiznis/timebill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[userdomain.User]
}

func NewService(p Params) userdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) Register(ctx context.Context, req userdomain.RegisterRequest) (*userdomain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, userdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, userdomain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, userdomain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	user, err := s.repo.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrNotFound
	}
	return user, nil
}

func (s *Service) SetCustomerProfileRef(ctx context.Context, id snowflake.ID, ref string) error {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET customer_profile_ref = ?, updated_at = ?
		 WHERE id = ? AND customer_profile_ref IS NULL`,
		ref,
		time.Now().UTC(),
		id,
	)
	return result.Error
}
