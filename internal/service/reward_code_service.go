package service

import (
	"context"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/metrics"
	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/repository"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

// Defaults applied when a reward code is created without text
const (
	DefaultRewardTitle       = "Reward code"
	DefaultRewardDescription = "Enter the code to receive a gift"
)

// CreateRewardCodeInput holds the arguments of a reward code creation.
// An empty Code is generated; empty Title and Description take the defaults.
type CreateRewardCodeInput struct {
	Code        string
	Title       string
	Description string
	Reward      model.Reward
	ExpiresDays *int  `validate:"omitempty,gte=0"` // nil = never expires
	MaxClaims   int64 `validate:"gte=0"`           // 0 = unlimited
}

// RewardCodeService manages the reward code lifecycle
type RewardCodeService struct {
	db   store.Store
	repo *repository.RewardCodeRepository
	options
}

// NewRewardCodeService creates a new RewardCodeService instance
func NewRewardCodeService(db store.Store, opts ...Option) *RewardCodeService {
	return &RewardCodeService{
		db:      db,
		repo:    repository.NewRewardCodeRepository(),
		options: buildOptions(opts),
	}
}

// NormalizeCode uppercases and trims a code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create builds and writes a new reward code, generating the code when
// in.Code is empty. A taken code fails with store.ErrAlreadyExists and
// leaves the existing record untouched.
func (s *RewardCodeService) Create(ctx context.Context, in CreateRewardCodeInput) (code *model.RewardCode, err error) {
	defer func() { metrics.RecordRewardCode("create", err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	raw := in.Code
	if strings.TrimSpace(raw) == "" {
		if raw, err = GenerateRewardCode(DefaultCodeLength); err != nil {
			return nil, err
		}
	}
	code = s.build(NormalizeCode(raw), in)

	if err := s.repo.Create(ctx, s.db, code); err != nil {
		return nil, err
	}

	s.log.Info("reward code created",
		zap.String("code", code.Code),
		zap.Int64("coins", code.Reward.Coins),
		zap.Int64("diamonds", code.Reward.Diamonds),
		zap.Int64("xp", code.Reward.XP),
		zap.Int64("max_claims", code.MaxClaims),
	)
	return code, nil
}

// build assembles the record; CreatedAt is left for the store to assign.
func (s *RewardCodeService) build(code string, in CreateRewardCodeInput) *model.RewardCode {
	rc := &model.RewardCode{
		Code:          code,
		Title:         in.Title,
		Description:   in.Description,
		Reward:        in.Reward,
		MaxClaims:     in.MaxClaims,
		CurrentClaims: 0,
		IsActive:      true,
	}
	if rc.Title == "" {
		rc.Title = DefaultRewardTitle
	}
	if rc.Description == "" {
		rc.Description = DefaultRewardDescription
	}
	if in.ExpiresDays != nil {
		expiresAt := daysFrom(s.now(), *in.ExpiresDays).UTC()
		rc.ExpiresAt = &expiresAt
	}
	return rc
}

// Get returns the reward code stored under the normalized code
func (s *RewardCodeService) Get(ctx context.Context, code string) (*model.RewardCode, error) {
	return s.repo.Get(ctx, s.db, NormalizeCode(code))
}

// List lazily yields reward codes, filtered to active ones unless
// includeInactive is set. Each call re-queries the store.
func (s *RewardCodeService) List(ctx context.Context, includeInactive bool) iter.Seq2[*model.RewardCode, error] {
	return s.repo.List(ctx, s.db, includeInactive)
}

// Deactivate sets is_active to false. Deactivating an inactive code
// succeeds and changes nothing.
func (s *RewardCodeService) Deactivate(ctx context.Context, code string) (err error) {
	defer func() { metrics.RecordRewardCode("deactivate", err) }()

	code = NormalizeCode(code)
	if err := s.repo.Deactivate(ctx, s.db, code); err != nil {
		return err
	}
	s.log.Info("reward code deactivated", zap.String("code", code))
	return nil
}

// Delete permanently removes a reward code
func (s *RewardCodeService) Delete(ctx context.Context, code string) (err error) {
	defer func() { metrics.RecordRewardCode("delete", err) }()

	code = NormalizeCode(code)
	if err := s.repo.Delete(ctx, s.db, code); err != nil {
		return err
	}
	s.log.Info("reward code deleted", zap.String("code", code))
	return nil
}
