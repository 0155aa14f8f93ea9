package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/metrics"
	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/repository"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

// Mail defaults
const (
	DefaultMailTitle       = "Notice"
	DefaultMailExpiryDays  = 30
	DefaultGlobalMailLimit = 20
)

// MailInput holds the content shared by every send operation.
// An empty Title takes DefaultMailTitle, an empty Type is system and a nil
// ExpiresDays is DefaultMailExpiryDays. Zero days expires the mail at send time.
type MailInput struct {
	Title       string
	Content     string
	Type        model.MailType `validate:"omitempty,oneof=system reward event welcome update"`
	Reward      model.Reward
	ExpiresDays *int `validate:"omitempty,gte=0"`
}

func (in MailInput) withDefaults() MailInput {
	if in.Title == "" {
		in.Title = DefaultMailTitle
	}
	if in.Type == "" {
		in.Type = model.MailTypeSystem
	}
	if in.ExpiresDays == nil {
		days := DefaultMailExpiryDays
		in.ExpiresDays = &days
	}
	return in
}

// MailService sends and manages global and per-user mail
type MailService struct {
	db   store.Store
	repo *repository.MailRepository
	options
}

// NewMailService creates a new MailService instance
func NewMailService(db store.Store, opts ...Option) *MailService {
	return &MailService{
		db:      db,
		repo:    repository.NewMailRepository(),
		options: buildOptions(opts),
	}
}

// build assembles the record. The reward is attached only when something
// would be granted; SentAt is left for the store to assign.
func (s *MailService) build(userID, mailID string, in MailInput) *model.MailMessage {
	mail := &model.MailMessage{
		ID:        mailID,
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Type:      in.Type,
		ExpiresAt: daysFrom(s.now(), *in.ExpiresDays).UTC(),
		IsActive:  true,
	}
	if !in.Reward.IsEmpty() {
		reward := in.Reward
		mail.Reward = &reward
	}
	return mail
}

func (s *MailService) mailID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	return GenerateMailID(s.now())
}

// SendGlobal writes a mail visible to every user, generating the id when
// mailID is empty. A taken id fails with store.ErrAlreadyExists.
func (s *MailService) SendGlobal(ctx context.Context, mailID string, in MailInput) (mail *model.MailMessage, err error) {
	defer func() { metrics.RecordMail("send_global", err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if mailID, err = s.mailID(mailID); err != nil {
		return nil, err
	}

	mail = s.build("", mailID, in.withDefaults())
	if err := s.repo.Create(ctx, s.db, mail); err != nil {
		return nil, err
	}

	s.log.Info("global mail sent", zap.String("mail_id", mailID), zap.String("type", string(mail.Type)))
	return mail, nil
}

// SendToUser writes a mail into one user's partition, generating the id
// when mailID is empty. Like global mail, a reused id fails with
// store.ErrAlreadyExists instead of overwriting.
func (s *MailService) SendToUser(ctx context.Context, userID, mailID string, in MailInput) (mail *model.MailMessage, err error) {
	defer func() { metrics.RecordMail("send_user", err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := store.ValidateID(userID); err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, err)
	}
	if mailID, err = s.mailID(mailID); err != nil {
		return nil, err
	}

	mail = s.build(userID, mailID, in.withDefaults())
	if err := s.repo.Create(ctx, s.db, mail); err != nil {
		return nil, err
	}

	s.log.Info("user mail sent", zap.String("user_id", userID), zap.String("mail_id", mailID))
	return mail, nil
}

// SendToUsers sends the same mail to each user in order, one independent
// write per user with id prefix + "_" + userID. A failed user is recorded in
// the report and the loop moves on. The error return is reserved for input
// that makes every send pointless.
func (s *MailService) SendToUsers(ctx context.Context, userIDs []string, prefix string, in MailInput) (*model.BatchReport, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var err error
	if prefix, err = s.mailID(prefix); err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("batch_id", uuid.NewString()), zap.String("prefix", prefix))
	log.Info("sending mail to users", zap.Int("users", len(userIDs)))

	report := &model.BatchReport{
		Prefix:  prefix,
		Results: make([]model.SendResult, 0, len(userIDs)),
	}
	for _, userID := range userIDs {
		mailID := prefix + "_" + userID
		_, err := s.SendToUser(ctx, userID, mailID, in)
		metrics.RecordBatchItem(err)
		if err != nil {
			log.Warn("mail send failed", zap.String("user_id", userID), zap.Error(err))
		}
		report.Results = append(report.Results, model.SendResult{UserID: userID, MailID: mailID, Err: err})
	}

	log.Info("mail batch finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", len(report.Failed())),
	)
	return report, nil
}

// GetGlobal returns a global mail
func (s *MailService) GetGlobal(ctx context.Context, mailID string) (*model.MailMessage, error) {
	return s.repo.Get(ctx, s.db, "", mailID)
}

// GetForUser returns a mail from one user's partition
func (s *MailService) GetForUser(ctx context.Context, userID, mailID string) (*model.MailMessage, error) {
	return s.repo.Get(ctx, s.db, userID, mailID)
}

// ListGlobal lazily yields up to limit global mails; limit <= 0 uses
// DefaultGlobalMailLimit.
func (s *MailService) ListGlobal(ctx context.Context, limit int) iter.Seq2[*model.MailMessage, error] {
	if limit <= 0 {
		limit = DefaultGlobalMailLimit
	}
	return s.repo.ListGlobal(ctx, s.db, limit)
}

// DeleteGlobal permanently removes a global mail
func (s *MailService) DeleteGlobal(ctx context.Context, mailID string) (err error) {
	defer func() { metrics.RecordMail("delete_global", err) }()

	if err := s.repo.DeleteGlobal(ctx, s.db, mailID); err != nil {
		return err
	}
	s.log.Info("global mail deleted", zap.String("mail_id", mailID))
	return nil
}
