// Package cli wires the reward-code and mail operations to cobra
// subcommands and to the two interactive menus.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/console"
	"github.com/kkkkikiki/gameadmin/internal/service"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

// ErrReported means the failure was already shown to the user.
var ErrReported = errors.New("operation failed")

// Opener connects the document store on first use.
type Opener func(ctx context.Context) (store.Store, error)

// Options configures the command tree
type Options struct {
	Open    Opener
	Log     *zap.Logger
	In      io.Reader
	Out     io.Writer
	Service []service.Option
}

// app holds what a running command needs. The store is opened and closed
// by run, so help and completion never touch it.
type app struct {
	opts    Options
	db      store.Store
	codes   *service.RewardCodeService
	mail    *service.MailService
	printer *console.Printer
	in      *bufio.Reader
}

func (a *app) open(ctx context.Context) error {
	db, err := a.opts.Open(ctx)
	if err != nil {
		return err
	}
	svcOpts := append([]service.Option{service.WithLogger(a.opts.Log)}, a.opts.Service...)
	a.db = db
	a.codes = service.NewRewardCodeService(db, svcOpts...)
	a.mail = service.NewMailService(db, svcOpts...)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	return db.Close()
}

// run wraps a command body: it opens the store, always releases it, and
// prints expected failures once.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.open(cmd.Context()); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, a.close()) }()
		return a.fail(fn(cmd, args))
	}
}

func (a *app) prompter() *prompter {
	return &prompter{in: a.in, out: a.opts.Out}
}

// NewRootCommand builds the admin command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	a := &app{
		opts:    opts,
		printer: console.NewPrinter(opts.Out),
		in:      bufio.NewReader(opts.In),
	}

	root := &cobra.Command{
		Use:           "game-admin",
		Short:         "Manage reward codes and mailbox messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Out)

	root.AddCommand(newCodesCommand(a), newMailCommand(a))
	return root
}

// isUserError reports whether err is an expected per-record failure that
// should be shown and survived rather than abort the process.
func isUserError(err error) bool {
	return errors.Is(err, store.ErrAlreadyExists) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrInvalidID) ||
		errors.Is(err, service.ErrInvalidInput)
}

// fail prints expected failures and passes the rest through.
func (a *app) fail(err error) error {
	if isUserError(err) {
		a.printer.Failure("%v", err)
		return ErrReported
	}
	return err
}

// Remediation returns instructions for startup failures, or "" when there
// is nothing to suggest.
func Remediation(err error) string {
	if errors.Is(err, store.ErrCredentialsNotFound) {
		return fmt.Sprintf("❌ %v\n"+
			"📝 How to fix:\n"+
			"   1. Open Firebase Console > Project Settings > Service Accounts\n"+
			"   2. Click 'Generate new private key'\n"+
			"   3. Save the JSON file and point FIRESTORE_CREDENTIALS_FILE at it\n", err)
	}
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Sprintf("❌ %v\n📝 Check the STORE_BACKEND settings and that the database is reachable.\n", err)
	}
	return ""
}
