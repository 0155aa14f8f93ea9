package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/service"
)

// Quick gift mail defaults
const (
	QuickGiftTitle       = "Special gift!"
	QuickGiftContent     = "Here is a gift for you!"
	QuickGiftExpiresDays = 7
)

// QuickGiftReward is the bundle attached by a quick send unless overridden.
var QuickGiftReward = model.Reward{Coins: 10000, Diamonds: 50, XP: 100}

// parseUserIDs splits a comma-separated list, trimming entries and
// dropping empty ones.
func parseUserIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func requireUserIDs(s string) ([]string, error) {
	ids := parseUserIDs(s)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: user list is empty", service.ErrInvalidInput)
	}
	return ids, nil
}

// mailFlags binds the content flags shared by the send commands.
type mailFlags struct {
	in       service.MailInput
	mailType string
	expires  int
}

func (f *mailFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.in.Title, "title", service.DefaultMailTitle, "mail title")
	fs.StringVar(&f.in.Content, "content", "", "mail body")
	fs.StringVar(&f.mailType, "type", string(model.MailTypeSystem), "mail type: system, reward, event, welcome or update")
	fs.IntVar(&f.expires, "expires-days", service.DefaultMailExpiryDays, "days until the mail expires")
	addRewardFlags(cmd, &f.in.Reward)
}

func (f *mailFlags) input() (service.MailInput, error) {
	t, err := model.ParseMailType(f.mailType)
	if err != nil {
		return service.MailInput{}, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	in := f.in
	in.Type = t
	in.ExpiresDays = &f.expires
	return in, nil
}

func newMailCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Send and manage mailbox messages",
	}
	cmd.AddCommand(
		newMailSendGlobalCommand(a),
		newMailSendUserCommand(a),
		newMailSendMultiCommand(a),
		newMailListGlobalCommand(a),
		newMailDeleteGlobalCommand(a),
		newMailQuickCommand(a),
		&cobra.Command{
			Use:   "menu",
			Short: "Interactive mailbox menu",
			Args:  cobra.NoArgs,
			RunE:  a.run(func(cmd *cobra.Command, _ []string) error { return a.mailMenu(cmd.Context()) }),
		},
	)
	return cmd
}

func newMailSendGlobalCommand(a *app) *cobra.Command {
	var (
		f  mailFlags
		id string
	)
	cmd := &cobra.Command{
		Use:   "send-global",
		Short: "Send a mail to every user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		in, err := f.input()
		if err != nil {
			return err
		}
		return a.sendGlobal(cmd.Context(), id, in)
	})
	cmd.Flags().StringVar(&id, "id", "", "mail id (generated when empty)")
	f.register(cmd)
	return cmd
}

func newMailSendUserCommand(a *app) *cobra.Command {
	var (
		f  mailFlags
		id string
	)
	cmd := &cobra.Command{
		Use:   "send-user USER_ID",
		Short: "Send a mail to one user",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		in, err := f.input()
		if err != nil {
			return err
		}
		return a.sendUser(cmd.Context(), args[0], id, in)
	})
	cmd.Flags().StringVar(&id, "id", "", "mail id (generated when empty)")
	f.register(cmd)
	return cmd
}

func newMailSendMultiCommand(a *app) *cobra.Command {
	var (
		f      mailFlags
		users  string
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "send-multi",
		Short: "Send the same mail to several users",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		ids, err := requireUserIDs(users)
		if err != nil {
			return err
		}
		in, err := f.input()
		if err != nil {
			return err
		}
		return a.sendMulti(cmd.Context(), ids, prefix, in)
	})
	cmd.Flags().StringVar(&users, "users", "", "comma-separated user ids")
	cmd.Flags().StringVar(&prefix, "prefix", "", "mail id prefix (generated when empty)")
	_ = cmd.MarkFlagRequired("users")
	f.register(cmd)
	return cmd
}

func newMailListGlobalCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list-global",
		Short: "List global mail",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		_, err := a.printer.GlobalMails(a.mail.ListGlobal(cmd.Context(), limit))
		return err
	})
	cmd.Flags().IntVar(&limit, "limit", service.DefaultGlobalMailLimit, "maximum number of mails to show")
	return cmd
}

func newMailDeleteGlobalCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-global MAIL_ID",
		Short: "Permanently delete a global mail",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		if !yes {
			ok, err := a.prompter().confirm("Delete '" + args[0] + "'?")
			if err != nil || !ok {
				return err
			}
		}
		return a.deleteGlobal(cmd.Context(), args[0])
	})
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newMailQuickCommand(a *app) *cobra.Command {
	var (
		global bool
		users  string
		title  string
		body   string
		reward = QuickGiftReward
	)
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Send a gift mail with default text to everyone or to listed users",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		in := quickGift(title, body, reward)
		if global {
			return a.sendGlobal(cmd.Context(), "", in)
		}
		ids, err := requireUserIDs(users)
		if err != nil {
			return err
		}
		return a.sendMulti(cmd.Context(), ids, "", in)
	})

	fs := cmd.Flags()
	fs.BoolVar(&global, "global", false, "send to every user")
	fs.StringVar(&users, "users", "", "comma-separated user ids")
	fs.StringVar(&title, "title", QuickGiftTitle, "mail title")
	fs.StringVar(&body, "content", QuickGiftContent, "mail body")
	addRewardFlags(cmd, &reward)
	cmd.MarkFlagsOneRequired("global", "users")
	cmd.MarkFlagsMutuallyExclusive("global", "users")
	return cmd
}

func quickGift(title, content string, reward model.Reward) service.MailInput {
	days := QuickGiftExpiresDays
	return service.MailInput{
		Title:       title,
		Content:     content,
		Type:        model.MailTypeReward,
		Reward:      reward,
		ExpiresDays: &days,
	}
}

func (a *app) sendGlobal(ctx context.Context, id string, in service.MailInput) error {
	mail, err := a.mail.SendGlobal(ctx, id, in)
	if err != nil {
		return err
	}
	a.printer.Success("Global mail sent")
	a.printer.MailSent(mail, "all users")
	return nil
}

func (a *app) sendUser(ctx context.Context, userID, id string, in service.MailInput) error {
	mail, err := a.mail.SendToUser(ctx, userID, id, in)
	if err != nil {
		return err
	}
	a.printer.Success("Mail sent to %s", userID)
	a.printer.MailSent(mail, userID)
	return nil
}

func (a *app) sendMulti(ctx context.Context, userIDs []string, prefix string, in service.MailInput) error {
	report, err := a.mail.SendToUsers(ctx, userIDs, prefix, in)
	if err != nil {
		return err
	}
	a.printer.BatchReport(in.Title, in.Reward, report)
	if len(report.Results) > 0 && report.Succeeded() == 0 {
		return ErrReported
	}
	return nil
}

func (a *app) deleteGlobal(ctx context.Context, id string) error {
	if err := a.mail.DeleteGlobal(ctx, id); err != nil {
		return err
	}
	a.printer.Success("Deleted mail: %s", id)
	return nil
}

// promptMail asks for the content shared by the three send entries.
func (p *prompter) promptMail() (service.MailInput, error) {
	var (
		in  service.MailInput
		err error
	)
	if in.Title, err = p.textOr("Title: ", service.DefaultMailTitle); err != nil {
		return in, err
	}
	if in.Content, err = p.text("Content: "); err != nil {
		return in, err
	}
	if in.Type, err = p.mailType(); err != nil {
		return in, err
	}
	p.printf("\n--- Gift (Enter = 0) ---\n")
	if in.Reward, err = p.reward(model.Reward{}); err != nil {
		return in, err
	}
	days, err := p.intOr(fmt.Sprintf("Expires after (days, default %d): ", service.DefaultMailExpiryDays), service.DefaultMailExpiryDays)
	if err != nil {
		return in, err
	}
	in.ExpiresDays = &days
	return in, nil
}

func (a *app) mailMenu(ctx context.Context) error {
	p := a.prompter()

	return a.loop(p, "📬 MAILBOX", 50, []menuItem{
		{"1", "Send mail to ALL users (global)", func() error {
			p.printf("\n--- GLOBAL MAIL ---\n")
			id, err := p.text("Mail ID (Enter = generate): ")
			if err != nil {
				return err
			}
			in, err := p.promptMail()
			if err != nil {
				return err
			}
			return a.sendGlobal(ctx, id, in)
		}},
		{"2", "Send mail to one user", func() error {
			p.printf("\n--- USER MAIL ---\n")
			userID, err := p.text("User ID: ")
			if err != nil {
				return err
			}
			if userID == "" {
				return fmt.Errorf("%w: user id must not be empty", service.ErrInvalidInput)
			}
			in, err := p.promptMail()
			if err != nil {
				return err
			}
			return a.sendUser(ctx, userID, "", in)
		}},
		{"3", "Send mail to several users", func() error {
			p.printf("\n--- MULTI-USER MAIL ---\n")
			list, err := p.text("User IDs (comma-separated): ")
			if err != nil {
				return err
			}
			ids, err := requireUserIDs(list)
			if err != nil {
				return err
			}
			p.printf("📋 Sending to %d users: %s\n", len(ids), strings.Join(ids, ", "))
			in, err := p.promptMail()
			if err != nil {
				return err
			}
			return a.sendMulti(ctx, ids, "", in)
		}},
		{"4", "List global mail", func() error {
			_, err := a.printer.GlobalMails(a.mail.ListGlobal(ctx, service.DefaultGlobalMailLimit))
			return err
		}},
		{"5", "Delete global mail", func() error {
			id, err := p.text("Mail ID to delete: ")
			if err != nil || id == "" {
				return err
			}
			ok, err := p.confirm("Delete '" + id + "'?")
			if err != nil || !ok {
				return err
			}
			return a.deleteGlobal(ctx, id)
		}},
		{"6", "Quick gift mail", func() error {
			p.printf("\n--- QUICK GIFT MAIL ---\n1. Global (all users)\n2. Specific users\n")
			target, err := p.text("Choose: ")
			if err != nil {
				return err
			}
			title, err := p.textOr("Title: ", QuickGiftTitle)
			if err != nil {
				return err
			}
			content, err := p.textOr("Content: ", QuickGiftContent)
			if err != nil {
				return err
			}
			reward, err := p.reward(QuickGiftReward)
			if err != nil {
				return err
			}
			in := quickGift(title, content, reward)

			switch target {
			case "1":
				return a.sendGlobal(ctx, "", in)
			case "2":
				list, err := p.text("User IDs (comma-separated): ")
				if err != nil {
					return err
				}
				ids, err := requireUserIDs(list)
				if err != nil {
					return err
				}
				return a.sendMulti(ctx, ids, "", in)
			default:
				return fmt.Errorf("%w: unknown target %q", service.ErrInvalidInput, target)
			}
		}},
	})
}
