package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kkkkikiki/gameadmin/internal/service"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

func execute(t *testing.T, db store.Store, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(Options{
		Open: func(context.Context) (store.Store, error) { return db, nil },
		In:   strings.NewReader(input),
		Out:  &out,
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCodesCreate(t *testing.T) {
	db := store.NewMemoryStore()
	out, err := execute(t, db, "", "codes", "create",
		"--code", " tet2024 ", "--title", "Tet", "--coins", "1000000", "--diamonds", "5",
		"--expires-days", "7", "--max-claims", "100")
	if err != nil {
		t.Fatalf("codes create: %v", err)
	}
	mustContain(t, out, "Code: TET2024", "Coins: 1,000,000", "Claim limit: 100")

	code, err := service.NewRewardCodeService(db).Get(context.Background(), "TET2024")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code.ExpiresAt == nil || code.MaxClaims != 100 || code.Reward.Diamonds != 5 {
		t.Errorf("stored code = %+v", code)
	}
}

func TestCodesCreateDuplicateIsReported(t *testing.T) {
	db := store.NewMemoryStore()
	if _, err := execute(t, db, "", "codes", "create", "--code", "DUP"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	out, err := execute(t, db, "", "codes", "create", "--code", "dup", "--coins", "5")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	mustContain(t, out, "❌", "DUP", "already exists")

	code, _ := service.NewRewardCodeService(db).Get(context.Background(), "DUP")
	if code.Reward.Coins != 0 {
		t.Errorf("existing code was overwritten: %+v", code)
	}
}

func TestCodesListHidesInactive(t *testing.T) {
	db := store.NewMemoryStore()
	for _, c := range []string{"AAA", "BBB"} {
		if _, err := execute(t, db, "", "codes", "create", "--code", c); err != nil {
			t.Fatalf("create %s: %v", c, err)
		}
	}
	if _, err := execute(t, db, "", "codes", "deactivate", "bbb"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	out, err := execute(t, db, "", "codes", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	mustContain(t, out, "✅ AAA", "Total: 1 codes")

	out, err = execute(t, db, "", "codes", "list", "--all")
	if err != nil {
		t.Fatalf("list --all: %v", err)
	}
	mustContain(t, out, "❌ BBB", "Total: 2 codes")
}

func TestCodesDeactivateMissing(t *testing.T) {
	out, err := execute(t, store.NewMemoryStore(), "", "codes", "deactivate", "NOPE")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	mustContain(t, out, "NOPE", "not found")
}

func TestCodesDeleteConfirmation(t *testing.T) {
	db := store.NewMemoryStore()
	svc := service.NewRewardCodeService(db)
	if _, err := execute(t, db, "", "codes", "create", "--code", "GONE"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := execute(t, db, "n\n", "codes", "delete", "GONE"); err != nil {
		t.Fatalf("delete declined: %v", err)
	}
	if _, err := svc.Get(context.Background(), "GONE"); err != nil {
		t.Fatalf("code removed without confirmation: %v", err)
	}

	out, err := execute(t, db, "y\n", "codes", "delete", "gone")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	mustContain(t, out, "Deleted code: GONE")
	if _, err := svc.Get(context.Background(), "GONE"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestMailSendMulti(t *testing.T) {
	db := store.NewMemoryStore()
	out, err := execute(t, db, "", "mail", "send-multi",
		"--users", " u1, ,u2 ", "--prefix", "batch1", "--title", "Hi", "--coins", "10")
	if err != nil {
		t.Fatalf("send-multi: %v", err)
	}
	mustContain(t, out, "✓ u1", "✓ u2", "Succeeded: 2, Failed: 0")

	svc := service.NewMailService(db)
	for _, u := range []string{"u1", "u2"} {
		mail, err := svc.GetForUser(context.Background(), u, "batch1_"+u)
		if err != nil {
			t.Fatalf("GetForUser(%s): %v", u, err)
		}
		if mail.Reward == nil || mail.Reward.Coins != 10 {
			t.Errorf("mail for %s = %+v", u, mail)
		}
	}
}

func TestMailSendUserReusedID(t *testing.T) {
	db := store.NewMemoryStore()
	if _, err := execute(t, db, "", "mail", "send-user", "u1", "--id", "m1"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	_, err := execute(t, db, "", "mail", "send-user", "u1", "--id", "m1")
	if !errors.Is(err, ErrReported) {
		t.Errorf("err = %v, want ErrReported", err)
	}
}

func TestMailQuickGlobal(t *testing.T) {
	db := store.NewMemoryStore()
	out, err := execute(t, db, "", "mail", "quick", "--global")
	if err != nil {
		t.Fatalf("quick: %v", err)
	}
	mustContain(t, out, "Special gift!", "Coins: 10,000", "Sent to: all users")

	out, err = execute(t, db, "", "mail", "list-global")
	if err != nil {
		t.Fatalf("list-global: %v", err)
	}
	mustContain(t, out, "💰 10,000 | 💎 50 | ⭐ 100", "Total: 1 mails")
}

func TestMailDeleteGlobal(t *testing.T) {
	db := store.NewMemoryStore()
	if _, err := execute(t, db, "", "mail", "send-global", "--id", "notice1", "--content", "maintenance"); err != nil {
		t.Fatalf("send-global: %v", err)
	}
	out, err := execute(t, db, "", "mail", "delete-global", "notice1", "--yes")
	if err != nil {
		t.Fatalf("delete-global: %v", err)
	}
	mustContain(t, out, "Deleted mail: notice1")
	if _, err := service.NewMailService(db).GetGlobal(context.Background(), "notice1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetGlobal after delete = %v", err)
	}

	if _, err := execute(t, db, "", "mail", "delete-global", "notice1", "--yes"); !errors.Is(err, ErrReported) {
		t.Errorf("second delete err = %v, want ErrReported", err)
	}
}

func TestMailQuickNeedsTarget(t *testing.T) {
	_, err := execute(t, store.NewMemoryStore(), "", "mail", "quick")
	if err == nil || errors.Is(err, ErrReported) {
		t.Errorf("err = %v, want a flag error", err)
	}
}

func TestMailUnknownType(t *testing.T) {
	db := store.NewMemoryStore()
	out, err := execute(t, db, "", "mail", "send-global", "--type", "spam")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	mustContain(t, out, "spam")

	n := 0
	for _, err := range service.NewMailService(db).ListGlobal(context.Background(), 0) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 0 {
		t.Errorf("%d mails written", n)
	}
}

func TestOpenFailureIsReturned(t *testing.T) {
	boom := fmt.Errorf("%w: no route", store.ErrUnavailable)
	cmd := NewRootCommand(Options{
		Open: func(context.Context) (store.Store, error) { return nil, boom },
		In:   strings.NewReader(""),
		Out:  &bytes.Buffer{},
	})
	cmd.SetArgs([]string{"codes", "list"})
	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if Remediation(err) == "" {
		t.Error("no remediation for an unavailable store")
	}
}

func TestHelpDoesNotOpenStore(t *testing.T) {
	for _, args := range [][]string{
		{"help", "codes"},
		{"help", "mail", "send-multi"},
		{"codes", "--help"},
		{"completion", "bash"},
	} {
		opened := 0
		var out bytes.Buffer
		cmd := NewRootCommand(Options{
			Open: func(context.Context) (store.Store, error) {
				opened++
				return nil, store.ErrCredentialsNotFound
			},
			In:  strings.NewReader(""),
			Out: &out,
		})
		cmd.SetArgs(args)
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Errorf("%v: %v", args, err)
		}
		if opened != 0 {
			t.Errorf("%v opened the store %d times", args, opened)
		}
		if out.Len() == 0 {
			t.Errorf("%v printed nothing", args)
		}
	}
}

// closeCounter counts Close calls on the wrapped store.
type closeCounter struct {
	store.Store
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Store.Close()
}

func TestStoreClosedAfterFailedCommand(t *testing.T) {
	db := &closeCounter{Store: store.NewMemoryStore()}
	if _, err := execute(t, db, "", "codes", "deactivate", "NOPE"); !errors.Is(err, ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	if db.closed != 1 {
		t.Errorf("Close called %d times, want 1", db.closed)
	}
}

func TestMailSendExpiresDaysZero(t *testing.T) {
	db := store.NewMemoryStore()
	before := time.Now()
	if _, err := execute(t, db, "", "mail", "send-user", "u1", "--id", "now", "--expires-days", "0"); err != nil {
		t.Fatalf("send-user: %v", err)
	}
	after := time.Now()
	mail, err := service.NewMailService(db).GetForUser(context.Background(), "u1", "now")
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if mail.ExpiresAt.Before(before) || mail.ExpiresAt.After(after) {
		t.Errorf("expires_at = %v, want between %v and %v", mail.ExpiresAt, before, after)
	}
}

func TestMailSendMultiAllFailed(t *testing.T) {
	db := store.NewMemoryStore()
	out, err := execute(t, db, "", "mail", "send-multi", "--users", "a/b,..", "--prefix", "batch1")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("err = %v, want ErrReported", err)
	}
	mustContain(t, out, "✗ a/b", "✗ ..", "Succeeded: 0, Failed: 2")

	// one success is enough for a zero exit
	if _, err := execute(t, db, "", "mail", "send-multi", "--users", "a/b,u1", "--prefix", "batch2"); err != nil {
		t.Errorf("partial batch err = %v", err)
	}
}

func TestCodesMenu(t *testing.T) {
	db := store.NewMemoryStore()
	// quick create, list with inactive, exit
	input := "2\n100\n\n\n3\ny\n0\n"
	out, err := execute(t, db, input, "codes", "menu")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	mustContain(t, out, "Reward code created", "Coins: 100", "Total: 1 codes", "Goodbye")
}

func TestCodesMenuRecoversFromBadNumber(t *testing.T) {
	db := store.NewMemoryStore()
	input := "1\n\n\n\nabc\n9\n0\n"
	out, err := execute(t, db, input, "codes", "menu")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	mustContain(t, out, `"abc" is not a whole number`, `Invalid choice "9"`, "Goodbye")
}

func TestMenuEndsAtEOF(t *testing.T) {
	out, err := execute(t, store.NewMemoryStore(), "", "mail", "menu")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	mustContain(t, out, "MAILBOX", "Goodbye")
}

func TestMailMenuQuickGiftToUsers(t *testing.T) {
	db := store.NewMemoryStore()
	input := "6\n2\n\n\n\n\n\nu1,u2\n0\n"
	out, err := execute(t, db, input, "mail", "menu")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	mustContain(t, out, "✓ u1", "✓ u2", "Succeeded: 2, Failed: 0")
}

func TestMailMenuEmptyUserID(t *testing.T) {
	out, err := execute(t, store.NewMemoryStore(), "2\n\n0\n", "mail", "menu")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	mustContain(t, out, "user id must not be empty")
}

func TestParseUserIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"u1,u2", []string{"u1", "u2"}},
		{" u1 , , u2 ,", []string{"u1", "u2"}},
		{"u1,u1", []string{"u1", "u1"}},
		{" , ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := parseUserIDs(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseUserIDs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemediation(t *testing.T) {
	err := fmt.Errorf("open firestore: %w", store.ErrCredentialsNotFound)
	if got := Remediation(err); !strings.Contains(got, "Generate new private key") {
		t.Errorf("Remediation = %q", got)
	}
	if got := Remediation(errors.New("other")); got != "" {
		t.Errorf("Remediation(other) = %q", got)
	}
}
