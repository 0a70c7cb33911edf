package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/timebill/internal/ledger/domain"
	"github.com/smallbiznis/timebill/pkg/db/option"
	"github.com/smallbiznis/timebill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
	repo  repository.Repository[ledgerdomain.TransactionEntry]
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[ledgerdomain.TransactionEntry](p.DB),
	}
}

func (s *Service) Append(ctx context.Context, entry *ledgerdomain.TransactionEntry) (*ledgerdomain.TransactionEntry, error) {
	if entry == nil || entry.UserID == 0 {
		return nil, ledgerdomain.ErrInvalidEntry
	}
	if entry.Amount.IsNegative() {
		return nil, ledgerdomain.ErrInvalidEntry
	}
	switch entry.Outcome {
	case ledgerdomain.EntryOutcomeSuccess, ledgerdomain.EntryOutcomeFailed:
	default:
		return nil, ledgerdomain.ErrInvalidOutcome
	}

	entry.ID = s.genID.Generate()
	entry.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("ledger entry appended",
		zap.String("entry_id", entry.ID.String()),
		zap.String("user_id", entry.UserID.String()),
		zap.String("outcome", string(entry.Outcome)),
		zap.String("amount", entry.Amount.StringFixed(2)),
	)
	return entry, nil
}

func (s *Service) EntriesForUser(ctx context.Context, userID snowflake.ID) ([]*ledgerdomain.TransactionEntry, error) {
	return s.repo.Find(ctx,
		&ledgerdomain.TransactionEntry{UserID: userID},
		option.WithOrderBy("created_at ASC, id ASC"),
	)
}
