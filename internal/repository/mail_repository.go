package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

// GlobalMailCollection holds mail visible to every user
const GlobalMailCollection = "mailbox/global/mails"

// MailRepository handles global and per-user mail documents
type MailRepository struct{}

// NewMailRepository creates a new mail repository
func NewMailRepository() *MailRepository {
	return &MailRepository{}
}

// UserMailCollection returns the collection of one user's mail
func UserMailCollection(userID string) (string, error) {
	return store.Collection("mailbox", "users", userID)
}

func (r *MailRepository) ref(mail *model.MailMessage) (store.DocRef, error) {
	collection := GlobalMailCollection
	if !mail.IsGlobal() {
		var err error
		if collection, err = UserMailCollection(mail.UserID); err != nil {
			return store.DocRef{}, err
		}
	}
	return store.Doc(collection, mail.ID)
}

// Create writes a new mail into the global or the user's partition.
// sent_at is assigned by the store. Returns store.ErrAlreadyExists if the
// id is taken in that partition.
func (r *MailRepository) Create(ctx context.Context, db store.Store, mail *model.MailMessage) error {
	ref, err := r.ref(mail)
	if err != nil {
		return err
	}

	fields := store.Fields{
		"title":      mail.Title,
		"content":    mail.Content,
		"type":       string(mail.Type),
		"sent_at":    store.ServerTimestamp,
		"expires_at": mail.ExpiresAt.UTC(),
		"is_active":  mail.IsActive,
	}
	if mail.Reward != nil && !mail.Reward.IsEmpty() {
		fields["reward"] = rewardFields(*mail.Reward)
	}

	if err := db.Create(ctx, ref, fields); err != nil {
		return fmt.Errorf("mail %s: %w", ref, err)
	}
	return nil
}

// Get retrieves a mail; userID is empty for global mail
func (r *MailRepository) Get(ctx context.Context, db store.Store, userID, mailID string) (*model.MailMessage, error) {
	ref, err := r.ref(&model.MailMessage{ID: mailID, UserID: userID})
	if err != nil {
		return nil, err
	}
	snap, err := db.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("mail %s: %w", ref, err)
	}
	mail, err := decodeMail(snap)
	if err != nil {
		return nil, err
	}
	mail.UserID = userID
	return mail, nil
}

// ListGlobal yields up to limit global mails in store order
func (r *MailRepository) ListGlobal(ctx context.Context, db store.Store, limit int) iter.Seq2[*model.MailMessage, error] {
	return decodeAll(db.Query(ctx, store.Query{Collection: GlobalMailCollection, Limit: limit}), decodeMail)
}

// DeleteGlobal permanently removes a global mail
func (r *MailRepository) DeleteGlobal(ctx context.Context, db store.Store, mailID string) error {
	ref, err := store.Doc(GlobalMailCollection, mailID)
	if err != nil {
		return err
	}
	if err := db.Delete(ctx, ref); err != nil {
		return fmt.Errorf("mail %s: %w", ref, err)
	}
	return nil
}

func decodeMail(snap *store.Snapshot) (*model.MailMessage, error) {
	var mail model.MailMessage
	if err := snap.DataTo(&mail); err != nil {
		return nil, fmt.Errorf("failed to decode mail %s: %w", snap.Ref.ID, err)
	}
	mail.ID = snap.Ref.ID
	return &mail, nil
}
