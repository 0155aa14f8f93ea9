package model

import (
	"fmt"
	"time"
)

// MailType classifies a mail message
type MailType string

const (
	MailTypeSystem  MailType = "system"
	MailTypeReward  MailType = "reward"
	MailTypeEvent   MailType = "event"
	MailTypeWelcome MailType = "welcome"
	MailTypeUpdate  MailType = "update"
)

// MailTypeOption is a menu entry for picking a mail type.
type MailTypeOption struct {
	Choice string
	Type   MailType
	Label  string
}

// MailTypeOptions lists the types in menu order.
var MailTypeOptions = []MailTypeOption{
	{"1", MailTypeSystem, "System"},
	{"2", MailTypeReward, "Gift"},
	{"3", MailTypeEvent, "Event"},
	{"4", MailTypeWelcome, "Welcome"},
	{"5", MailTypeUpdate, "Update"},
}

// MailTypeForChoice maps a menu choice to a type; unknown choices fall back
// to system.
func MailTypeForChoice(choice string) MailType {
	for _, opt := range MailTypeOptions {
		if opt.Choice == choice {
			return opt.Type
		}
	}
	return MailTypeSystem
}

// ParseMailType validates a type name
func ParseMailType(s string) (MailType, error) {
	for _, opt := range MailTypeOptions {
		if string(opt.Type) == s {
			return opt.Type, nil
		}
	}
	return "", fmt.Errorf("unknown mail type %q", s)
}

// MailMessage is a mail stored at mailbox/global/mails/{ID} or
// mailbox/users/{UserID}/{ID}
type MailMessage struct {
	ID        string    `json:"-" firestore:"-"` // document id
	UserID    string    `json:"-" firestore:"-"` // empty for global mail
	Title     string    `json:"title" firestore:"title"`
	Content   string    `json:"content" firestore:"content"`
	Type      MailType  `json:"type" firestore:"type"`
	SentAt    time.Time `json:"sent_at" firestore:"sent_at"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expires_at"`
	IsActive  bool      `json:"is_active" firestore:"is_active"`
	Reward    *Reward   `json:"reward,omitempty" firestore:"reward,omitempty"` // nil when nothing is attached
}

// IsGlobal reports whether the mail is visible to every user.
func (m *MailMessage) IsGlobal() bool {
	return m.UserID == ""
}
