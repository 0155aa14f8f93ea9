// Package console formats reward codes and mail for the terminal.
package console

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kkkkikiki/gameadmin/internal/model"
)

const (
	dateLayout     = "02/01/2006"
	previewLength  = 50
	narrowRuleSize = 40
	mailRuleSize   = 50
	wideRuleSize   = 60
)

// Printer writes human-readable output.
type Printer struct {
	w   io.Writer
	now func() time.Time
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, now: time.Now}
}

// WithClock returns a copy of p that computes relative times against now.
func (p *Printer) WithClock(now func() time.Time) *Printer {
	return &Printer{w: p.w, now: now}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func rule(n int) string {
	return strings.Repeat("=", n)
}

func (p *Printer) expiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(dateLayout), humanize.RelTime(*t, p.now(), "ago", "from now"))
}

func rewardLine(r model.Reward) string {
	return fmt.Sprintf("💰 %s | 💎 %s | ⭐ %s", humanize.Comma(r.Coins), humanize.Comma(r.Diamonds), humanize.Comma(r.XP))
}

func claims(c *model.RewardCode) string {
	limit := "∞"
	if !c.Unlimited() {
		limit = humanize.Comma(c.MaxClaims)
	}
	return fmt.Sprintf("%s/%s", humanize.Comma(c.CurrentClaims), limit)
}

// Preview shortens content to the first 50 characters followed by "...".
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// Success prints a confirmation line
func (p *Printer) Success(format string, args ...any) {
	p.printf("✅ "+format+"\n", args...)
}

// Failure prints an error line
func (p *Printer) Failure(format string, args ...any) {
	p.printf("❌ "+format+"\n", args...)
}

// RewardCodeCreated prints the details of a new reward code
func (p *Printer) RewardCodeCreated(c *model.RewardCode) {
	p.printf("\n✅ Reward code created!\n")
	p.printf("%s\n", rule(narrowRuleSize))
	p.printf("📝 Code: %s\n", c.Code)
	p.printf("📌 Title: %s\n", c.Title)
	p.printf("📄 Description: %s\n", c.Description)
	p.printf("💰 Coins: %s\n", humanize.Comma(c.Reward.Coins))
	p.printf("💎 Diamonds: %s\n", humanize.Comma(c.Reward.Diamonds))
	p.printf("⭐ XP: %s\n", humanize.Comma(c.Reward.XP))
	p.printf("⏰ Expires: %s\n", p.expiry(c.ExpiresAt))
	if c.Unlimited() {
		p.printf("👥 Claim limit: unlimited\n")
	} else {
		p.printf("👥 Claim limit: %s\n", humanize.Comma(c.MaxClaims))
	}
	p.printf("%s\n\n", rule(narrowRuleSize))
}

// RewardCodes consumes seq and prints every code followed by the total.
// It stops at the first error and returns it with the count printed so far.
func (p *Printer) RewardCodes(seq iter.Seq2[*model.RewardCode, error]) (int, error) {
	p.printf("\n%s\n📋 REWARD CODES\n%s\n", rule(wideRuleSize), rule(wideRuleSize))

	count := 0
	for c, err := range seq {
		if err != nil {
			return count, err
		}
		count++
		status := "✅"
		if !c.IsActive {
			status = "❌"
		}
		p.printf("\n%s %s\n", status, c.Code)
		p.printf("   📌 %s\n", c.Title)
		p.printf("   %s\n", rewardLine(c.Reward))
		p.printf("   👥 %s | ⏰ %s\n", claims(c), p.expiry(c.ExpiresAt))
	}

	p.printf("\n%s\nTotal: %d codes\n%s\n\n", rule(wideRuleSize), count, rule(wideRuleSize))
	return count, nil
}

// MailSent prints the details of a sent mail. target names the recipient.
func (p *Printer) MailSent(m *model.MailMessage, target string) {
	p.printf("%s\n", rule(mailRuleSize))
	p.printf("📧 ID: %s\n", m.ID)
	p.printf("📌 Title: %s\n", m.Title)
	p.printf("📝 Type: %s\n", m.Type)
	p.printf("📄 Content: %s\n", Preview(m.Content))
	if m.Reward != nil {
		p.printf("💰 Coins: %s\n", humanize.Comma(m.Reward.Coins))
		p.printf("💎 Diamonds: %s\n", humanize.Comma(m.Reward.Diamonds))
		p.printf("⭐ XP: %s\n", humanize.Comma(m.Reward.XP))
	} else {
		p.printf("🎁 Gift: none\n")
	}
	p.printf("⏰ Expires: %s\n", p.expiry(&m.ExpiresAt))
	p.printf("👥 Sent to: %s\n", target)
	p.printf("%s\n\n", rule(mailRuleSize))
}

// BatchReport prints the per-user outcome of a multi-user send
func (p *Printer) BatchReport(title string, reward model.Reward, report *model.BatchReport) {
	p.printf("\n📧 Mail: %q\n", title)
	if !reward.IsEmpty() {
		p.printf("   %s\n", rewardLine(reward))
	}
	p.printf("   📤 Sent to %d users (id prefix %s)\n", len(report.Results), report.Prefix)
	for _, r := range report.Results {
		if r.OK() {
			p.printf("   ✓ %s\n", r.UserID)
		} else {
			p.printf("   ✗ %s: %v\n", r.UserID, r.Err)
		}
	}
	p.printf("   → Succeeded: %d, Failed: %d\n", report.Succeeded(), len(report.Failed()))
}

// GlobalMails consumes seq and prints every mail followed by the total
func (p *Printer) GlobalMails(seq iter.Seq2[*model.MailMessage, error]) (int, error) {
	p.printf("\n%s\n📋 GLOBAL MAIL\n%s\n", rule(wideRuleSize), rule(wideRuleSize))

	count := 0
	for m, err := range seq {
		if err != nil {
			return count, err
		}
		count++
		p.printf("\n📧 %s\n", m.ID)
		p.printf("   📌 %s\n", m.Title)
		p.printf("   📝 %s\n", m.Type)
		if m.Reward != nil {
			p.printf("   %s\n", rewardLine(*m.Reward))
		}
	}

	p.printf("\n%s\nTotal: %d mails\n%s\n\n", rule(wideRuleSize), count, rule(wideRuleSize))
	return count, nil
}
