package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	vaultdomain "github.com/smallbiznis/timebill/internal/vault/domain"
	"github.com/smallbiznis/timebill/pkg/db/option"
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
	Cipher  *Cipher
	UserSvc userdomain.Service
	Gateway paymentdomain.Gateway `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	cipher  *Cipher
	userSvc userdomain.Service
	gateway paymentdomain.Gateway
	repo    repository.Repository[vaultdomain.PaymentCredential]
}

func NewService(p Params) vaultdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("vault.service"),
		genID:   p.GenID,
		cipher:  p.Cipher,
		userSvc: p.UserSvc,
		gateway: p.Gateway,
		repo:    repository.ProvideStore[vaultdomain.PaymentCredential](p.DB),
	}
}

func (s *Service) StoreCredential(ctx context.Context, req vaultdomain.StoreCredentialRequest) (*vaultdomain.PaymentCredential, error) {
	if err := validateDetails(req.Details); err != nil {
		return nil, err
	}

	user, err := s.userSvc.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var profileRef *string
	if s.gateway != nil {
		ref, err := s.tokenize(ctx, user, req.Details)
		if err != nil {
			return nil, err
		}
		profileRef = &ref
	}

	plaintext, err := json.Marshal(req.Details)
	if err != nil {
		return nil, vaultdomain.ErrInvalidDetails
	}
	ciphertext, iv, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	cred := &vaultdomain.PaymentCredential{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		MethodKind: req.Details.MethodKind,
		Ciphertext: ciphertext,
		IV:         iv,
		ProfileRef: profileRef,
		IsDefault:  req.IsDefault,
		CreatedAt:  time.Now().UTC(),
	}

	// Demotion and insert are one transaction so no reader ever observes two
	// defaults for the same user.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Exec(
				`UPDATE payment_credentials SET is_default = FALSE WHERE user_id = ? AND is_default = TRUE`,
				req.UserID,
			).Error; err != nil {
				return err
			}
		}
		return s.repo.WithTrx(tx).Create(ctx, cred)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("credential stored",
		zap.String("user_id", req.UserID.String()),
		zap.String("method_kind", string(req.Details.MethodKind)),
		zap.Bool("is_default", req.IsDefault),
	)
	return cred, nil
}

func (s *Service) tokenize(ctx context.Context, user *userdomain.User, details paymentdomain.RawDetails) (string, error) {
	tokReq := paymentdomain.TokenizeRequest{
		UserRef:    user.ID.String(),
		OwnerName:  user.Name,
		OwnerEmail: user.Email,
		Details:    details,
	}
	if user.CustomerProfileRef != nil {
		tokReq.CustomerProfileRef = *user.CustomerProfileRef
	}

	result, err := s.gateway.TokenizeCredential(ctx, tokReq)
	if err != nil {
		return "", err
	}
	if user.CustomerProfileRef == nil {
		if err := s.userSvc.SetCustomerProfileRef(ctx, user.ID, result.CustomerProfileRef); err != nil {
			return "", err
		}
	}
	return result.PaymentProfileRef, nil
}

func (s *Service) DefaultCredential(ctx context.Context, userID snowflake.ID) (*vaultdomain.PaymentCredential, error) {
	return s.repo.FindOne(ctx, &vaultdomain.PaymentCredential{UserID: userID, IsDefault: true})
}

func (s *Service) ListCredentials(ctx context.Context, userID snowflake.ID) ([]vaultdomain.CredentialSummary, error) {
	creds, err := s.repo.Find(ctx,
		&vaultdomain.PaymentCredential{UserID: userID},
		option.WithOrderBy("id ASC"),
	)
	if err != nil {
		return nil, err
	}

	summaries := make([]vaultdomain.CredentialSummary, 0, len(creds))
	for _, cred := range creds {
		details, err := s.Open(cred)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(cred, details))
	}
	return summaries, nil
}

func (s *Service) Open(cred *vaultdomain.PaymentCredential) (*paymentdomain.RawDetails, error) {
	if cred == nil {
		return nil, vaultdomain.ErrCredentialNotFound
	}
	plaintext, err := s.cipher.Decrypt(cred.Ciphertext, cred.IV)
	if err != nil {
		return nil, err
	}

	var details paymentdomain.RawDetails
	if err := json.Unmarshal(plaintext, &details); err != nil {
		return nil, vaultdomain.ErrPayloadMalformed
	}
	if details.MethodKind != cred.MethodKind {
		return nil, vaultdomain.ErrPayloadMalformed
	}
	return &details, nil
}

func (s *Service) Reveal(ctx context.Context, credentialID snowflake.ID) (*paymentdomain.RawDetails, error) {
	cred, err := s.repo.FindOne(ctx, &vaultdomain.PaymentCredential{ID: credentialID})
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, vaultdomain.ErrCredentialNotFound
	}
	return s.Open(cred)
}

func summarize(cred *vaultdomain.PaymentCredential, details *paymentdomain.RawDetails) vaultdomain.CredentialSummary {
	summary := vaultdomain.CredentialSummary{
		ID:         cred.ID,
		MethodKind: cred.MethodKind,
		IsDefault:  cred.IsDefault,
		CreatedAt:  cred.CreatedAt,
	}
	switch cred.MethodKind {
	case paymentdomain.MethodKindCard:
		summary.Last4 = lastN(details.Card.Number, 4)
		summary.Brand = cardBrand(details.Card.Number)
		if len(details.Card.Expiry) == 4 {
			summary.ExpiryMonth = details.Card.Expiry[:2]
			summary.ExpiryYear = details.Card.Expiry[2:]
		}
	case paymentdomain.MethodKindBank:
		summary.Last4 = lastN(details.Bank.AccountNumber, 4)
		summary.AccountType = details.Bank.AccountType
		summary.BankName = details.Bank.BankName
	}
	return summary
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var cardPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{"visa", regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?$`)},
	{"mastercard", regexp.MustCompile(`^5[1-5][0-9]{14}$`)},
	{"amex", regexp.MustCompile(`^3[47][0-9]{13}$`)},
	{"discover", regexp.MustCompile(`^6(?:011|5[0-9]{2})[0-9]{12}$`)},
	{"diners", regexp.MustCompile(`^3(?:0[0-5]|[68][0-9])[0-9]{11}$`)},
	{"jcb", regexp.MustCompile(`^(?:2131|1800|35\d{3})\d{11}$`)},
}

func cardBrand(number string) string {
	cleaned := strings.ReplaceAll(number, " ", "")
	for _, p := range cardPatterns {
		if p.pattern.MatchString(cleaned) {
			return p.brand
		}
	}
	return "unknown"
}

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])[0-9]{2}$`)

func validateDetails(details paymentdomain.RawDetails) error {
	switch details.MethodKind {
	case paymentdomain.MethodKindCard:
		card := details.Card
		if card == nil || details.Bank != nil {
			return vaultdomain.ErrInvalidDetails
		}
		if strings.TrimSpace(card.Number) == "" || strings.TrimSpace(card.SecurityCode) == "" {
			return vaultdomain.ErrInvalidDetails
		}
		if !expiryPattern.MatchString(card.Expiry) {
			return vaultdomain.ErrInvalidDetails
		}
	case paymentdomain.MethodKindBank:
		bank := details.Bank
		if bank == nil || details.Card != nil {
			return vaultdomain.ErrInvalidDetails
		}
		accountType := strings.ToLower(bank.AccountType)
		if accountType != "checking" && accountType != "savings" {
			return vaultdomain.ErrInvalidDetails
		}
		if strings.TrimSpace(bank.RoutingNumber) == "" ||
			strings.TrimSpace(bank.AccountNumber) == "" ||
			strings.TrimSpace(bank.HolderName) == "" {
			return vaultdomain.ErrInvalidDetails
		}
	default:
		return fmt.Errorf("%w: unknown method kind %q", vaultdomain.ErrInvalidDetails, details.MethodKind)
	}
	return nil
}
