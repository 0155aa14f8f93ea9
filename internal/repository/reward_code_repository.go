package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

// RewardCodeCollection holds one document per reward code
const RewardCodeCollection = "reward_codes"

// RewardCodeRepository handles reward code documents
type RewardCodeRepository struct{}

// NewRewardCodeRepository creates a new reward code repository
func NewRewardCodeRepository() *RewardCodeRepository {
	return &RewardCodeRepository{}
}

func (r *RewardCodeRepository) ref(code string) (store.DocRef, error) {
	return store.Doc(RewardCodeCollection, code)
}

// Create writes a new reward code. created_at is assigned by the store.
// Returns store.ErrAlreadyExists if the code is taken.
func (r *RewardCodeRepository) Create(ctx context.Context, db store.Store, code *model.RewardCode) error {
	ref, err := r.ref(code.Code)
	if err != nil {
		return err
	}

	var expiresAt any
	if code.ExpiresAt != nil {
		expiresAt = code.ExpiresAt.UTC()
	}

	err = db.Create(ctx, ref, store.Fields{
		"title":          code.Title,
		"description":    code.Description,
		"reward":         rewardFields(code.Reward),
		"created_at":     store.ServerTimestamp,
		"expires_at":     expiresAt,
		"max_claims":     code.MaxClaims,
		"current_claims": code.CurrentClaims,
		"is_active":      code.IsActive,
	})
	if err != nil {
		return fmt.Errorf("reward code %s: %w", code.Code, err)
	}
	return nil
}

// Get retrieves a reward code by its normalized code
func (r *RewardCodeRepository) Get(ctx context.Context, db store.Store, code string) (*model.RewardCode, error) {
	ref, err := r.ref(code)
	if err != nil {
		return nil, err
	}
	snap, err := db.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("reward code %s: %w", code, err)
	}
	return decodeRewardCode(snap)
}

// List yields reward codes, only active ones unless includeInactive is set
func (r *RewardCodeRepository) List(ctx context.Context, db store.Store, includeInactive bool) iter.Seq2[*model.RewardCode, error] {
	q := store.Query{Collection: RewardCodeCollection}
	if !includeInactive {
		q.Where = []store.Filter{{Field: "is_active", Value: true}}
	}
	return decodeAll(db.Query(ctx, q), decodeRewardCode)
}

// Deactivate sets is_active to false. Returns store.ErrNotFound if the code
// doesn't exist.
func (r *RewardCodeRepository) Deactivate(ctx context.Context, db store.Store, code string) error {
	ref, err := r.ref(code)
	if err != nil {
		return err
	}
	if err := db.Update(ctx, ref, store.Fields{"is_active": false}); err != nil {
		return fmt.Errorf("reward code %s: %w", code, err)
	}
	return nil
}

// Delete permanently removes a reward code
func (r *RewardCodeRepository) Delete(ctx context.Context, db store.Store, code string) error {
	ref, err := r.ref(code)
	if err != nil {
		return err
	}
	if err := db.Delete(ctx, ref); err != nil {
		return fmt.Errorf("reward code %s: %w", code, err)
	}
	return nil
}

func decodeRewardCode(snap *store.Snapshot) (*model.RewardCode, error) {
	var code model.RewardCode
	if err := snap.DataTo(&code); err != nil {
		return nil, fmt.Errorf("failed to decode reward code %s: %w", snap.Ref.ID, err)
	}
	code.Code = snap.Ref.ID
	return &code, nil
}
