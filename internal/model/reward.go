package model

import (
	"time"
)

// Reward is the bundle of in-game currency and experience granted by a
// reward code or attached to a mail.
type Reward struct {
	Coins    int64 `json:"coins" firestore:"coins" validate:"gte=0"`
	Diamonds int64 `json:"diamonds" firestore:"diamonds" validate:"gte=0"`
	XP       int64 `json:"xp" firestore:"xp" validate:"gte=0"`
}

// IsEmpty reports whether nothing would be granted.
func (r Reward) IsEmpty() bool {
	return r.Coins <= 0 && r.Diamonds <= 0 && r.XP <= 0
}

// RewardCode represents a redeemable code stored at reward_codes/{Code}
type RewardCode struct {
	Code          string     `json:"-" firestore:"-"` // document id
	Title         string     `json:"title" firestore:"title"`
	Description   string     `json:"description" firestore:"description"`
	Reward        Reward     `json:"reward" firestore:"reward"`
	CreatedAt     time.Time  `json:"created_at" firestore:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at" firestore:"expires_at"` // nil = never expires
	MaxClaims     int64      `json:"max_claims" firestore:"max_claims"` // 0 = unlimited
	CurrentClaims int64      `json:"current_claims" firestore:"current_claims"`
	IsActive      bool       `json:"is_active" firestore:"is_active"`
}

// Unlimited reports whether the code has no claim cap.
func (c *RewardCode) Unlimited() bool {
	return c.MaxClaims == 0
}
