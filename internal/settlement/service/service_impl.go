package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/timebill/internal/config"
	ledgerdomain "github.com/smallbiznis/timebill/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	settlementdomain "github.com/smallbiznis/timebill/internal/settlement/domain"
	usagedomain "github.com/smallbiznis/timebill/internal/usage/domain"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	vaultdomain "github.com/smallbiznis/timebill/internal/vault/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Billing   *config.BillingConfigHolder
	UserSvc   userdomain.Service
	UsageSvc  usagedomain.Service
	VaultSvc  vaultdomain.Service
	LedgerSvc ledgerdomain.Service
	Gateway   paymentdomain.Gateway
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	billing   *config.BillingConfigHolder
	userSvc   userdomain.Service
	usageSvc  usagedomain.Service
	vaultSvc  vaultdomain.Service
	ledgerSvc ledgerdomain.Service
	gateway   paymentdomain.Gateway
}

func NewService(p Params) settlementdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("settlement.service"),
		billing:   p.Billing,
		userSvc:   p.UserSvc,
		usageSvc:  p.UsageSvc,
		vaultSvc:  p.VaultSvc,
		ledgerSvc: p.LedgerSvc,
		gateway:   p.Gateway,
	}
}

func (s *Service) Settle(ctx context.Context, req settlementdomain.SettleRequest) (*settlementdomain.Report, error) {
	userIDs := dedupe(req.UserIDs)
	if len(userIDs) == 0 {
		return nil, settlementdomain.ErrEmptyUserSet
	}

	billing := s.billing.Get()
	outcomes := make([]settlementdomain.Outcome, len(userIDs))

	// Each user settles as an independent unit: a decline, timeout or bug in
	// one unit is recorded as that user's outcome and nothing else. Units
	// never return errors, so the group never cancels siblings.
	g := new(errgroup.Group)
	g.SetLimit(billing.Concurrency)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			outcomes[i] = s.settleOne(ctx, billing, userID, req.Note)
			return nil
		})
	}
	_ = g.Wait()

	report := &settlementdomain.Report{
		Total:    len(outcomes),
		Outcomes: outcomes,
	}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case settlementdomain.OutcomeSuccess:
			report.Succeeded++
		case settlementdomain.OutcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	s.log.Info("settlement run finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *Service) settleOne(ctx context.Context, billing config.BillingConfig, userID snowflake.ID, note string) settlementdomain.Outcome {
	outcome := settlementdomain.Outcome{UserID: userID, Amount: decimal.Zero}

	// Caller cancellation stops dispatching further charges; units already
	// past this point run to completion (see charge below).
	if err := ctx.Err(); err != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = "settlement canceled"
		return outcome
	}

	user, err := s.userSvc.Get(ctx, userID)
	if err != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		if errors.Is(err, userdomain.ErrNotFound) {
			outcome.Message = "user not found"
		} else {
			outcome.Message = err.Error()
		}
		return outcome
	}

	cred, err := s.vaultSvc.DefaultCredential(ctx, userID)
	if err != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = err.Error()
		return outcome
	}
	if cred == nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = settlementdomain.MsgNoDefaultPaymentMethod
		return outcome
	}

	intervals, err := s.usageSvc.UnpaidIntervals(ctx, userID)
	if err != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = err.Error()
		return outcome
	}

	var totalMinutes int64
	intervalIDs := make([]snowflake.ID, 0, len(intervals))
	for _, interval := range intervals {
		totalMinutes += interval.DurationMinutes
		intervalIDs = append(intervalIDs, interval.ID)
	}
	if totalMinutes <= 0 {
		outcome.Status = settlementdomain.OutcomeSkipped
		outcome.Message = "no unpaid usage"
		return outcome
	}

	amount := billing.Rate().Mul(decimal.NewFromInt(totalMinutes))
	outcome.Minutes = totalMinutes
	outcome.Amount = amount

	result, chargeErr := s.charge(ctx, billing, user, cred, amount, note)

	// Exactly one ledger entry per gateway outcome, success or failure. A
	// skipped user or a missing credential above never reaches this point.
	entry := &ledgerdomain.TransactionEntry{
		UserID:           userID,
		UsageIntervalIDs: datatypes.NewJSONSlice(intervalIDs),
		Amount:           amount,
		Currency:         billing.Currency,
		MethodKind:       cred.MethodKind,
		Note:             note,
	}
	if chargeErr != nil {
		reason := failureReason(chargeErr)
		entry.Outcome = ledgerdomain.EntryOutcomeFailed
		entry.FailureReason = &reason
	} else {
		entry.Outcome = ledgerdomain.EntryOutcomeSuccess
		entry.ExternalRef = result.TransactionRef
	}

	stored, err := s.ledgerSvc.Append(ctx, entry)
	if err != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = err.Error()
		return outcome
	}
	outcome.LedgerEntryID = &stored.ID

	if chargeErr != nil {
		outcome.Status = settlementdomain.OutcomeFailed
		outcome.Message = failureReason(chargeErr)
		return outcome
	}

	paid, err := s.markPaid(ctx, intervalIDs, stored.ID)
	if err != nil || paid != int64(len(intervalIDs)) {
		// The external charge and its ledger entry stand; unpaid rows are a
		// recoverable inconsistency for operator reconciliation. Retrying
		// here could double-charge the processor.
		s.log.Warn("covered intervals not fully marked paid",
			zap.String("user_id", userID.String()),
			zap.String("entry_id", stored.ID.String()),
			zap.Int64("marked", paid),
			zap.Int("expected", len(intervalIDs)),
			zap.Error(err),
		)
	}

	outcome.Status = settlementdomain.OutcomeSuccess
	outcome.PaidIntervals = int(paid)
	outcome.Message = result.Message
	return outcome
}

// charge invokes the gateway under its own timeout, detached from caller
// cancellation so an in-flight charge is never abandoned half-known.
func (s *Service) charge(
	ctx context.Context,
	billing config.BillingConfig,
	user *userdomain.User,
	cred *vaultdomain.PaymentCredential,
	amount decimal.Decimal,
	note string,
) (*paymentdomain.ChargeResult, error) {

	chargeReq := paymentdomain.ChargeRequest{
		Amount:   amount,
		Currency: billing.Currency,
		Note:     note,
	}
	if cred.ProfileRef != nil && user.CustomerProfileRef != nil {
		chargeReq.CustomerProfileRef = *user.CustomerProfileRef
		chargeReq.PaymentProfileRef = *cred.ProfileRef
	} else {
		raw, err := s.vaultSvc.Open(cred)
		if err != nil {
			return nil, err
		}
		chargeReq.Raw = raw
	}

	chargeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), billing.Timeout())
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, chargeReq)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, paymentdomain.ErrNoResponse
	}
	return result, nil
}

// markPaid flips every covered interval in one guarded statement. The
// paid = FALSE guard makes overlapping runs safe: an interval transitions at
// most once, whichever run gets there first.
func (s *Service) markPaid(ctx context.Context, intervalIDs []snowflake.ID, entryID snowflake.ID) (int64, error) {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE usage_intervals
		 SET paid = TRUE, payment_ref = ?, updated_at = ?
		 WHERE id IN ? AND paid = FALSE`,
		entryID,
		time.Now().UTC(),
		intervalIDs,
	)
	return result.RowsAffected, result.Error
}

func failureReason(err error) string {
	var gatewayErr *paymentdomain.Error
	if errors.As(err, &gatewayErr) {
		return gatewayErr.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "gateway timeout"
	}
	return err.Error()
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
