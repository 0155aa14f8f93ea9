package repository

import (
	"iter"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

func rewardFields(r model.Reward) store.Fields {
	return store.Fields{
		"coins":    r.Coins,
		"diamonds": r.Diamonds,
		"xp":       r.XP,
	}
}

// decodeAll maps a snapshot sequence to records, stopping at the first error.
func decodeAll[T any](seq iter.Seq2[*store.Snapshot, error], decode func(*store.Snapshot) (*T, error)) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for snap, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := decode(snap)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
