package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/service"
)

// prompter reads answers line by line. io.EOF ends the menu.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) text(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) textOr(label, def string) (string, error) {
	s, err := p.text(label)
	if err != nil || s != "" {
		return s, err
	}
	return def, nil
}

func (p *prompter) int64Or(label string, def int64) (int64, error) {
	s, err := p.text(label)
	if err != nil || s == "" {
		return def, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", service.ErrInvalidInput, s)
	}
	return n, nil
}

func (p *prompter) intOr(label string, def int) (int, error) {
	n, err := p.int64Or(label, int64(def))
	return int(n), err
}

// optionalInt returns nil for an empty answer
func (p *prompter) optionalInt(label string) (*int, error) {
	s, err := p.text(label)
	if err != nil || s == "" {
		return nil, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a whole number", service.ErrInvalidInput, s)
	}
	return &n, nil
}

func (p *prompter) confirm(label string) (bool, error) {
	s, err := p.text(label + " (y/N): ")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}

func (p *prompter) reward(defaults model.Reward) (model.Reward, error) {
	var (
		r   model.Reward
		err error
	)
	if r.Coins, err = p.int64Or(fmt.Sprintf("Coins (%d): ", defaults.Coins), defaults.Coins); err != nil {
		return r, err
	}
	if r.Diamonds, err = p.int64Or(fmt.Sprintf("Diamonds (%d): ", defaults.Diamonds), defaults.Diamonds); err != nil {
		return r, err
	}
	if r.XP, err = p.int64Or(fmt.Sprintf("XP (%d): ", defaults.XP), defaults.XP); err != nil {
		return r, err
	}
	return r, nil
}

func (p *prompter) mailType() (model.MailType, error) {
	fmt.Fprintln(p.out, "\nMail type:")
	for _, opt := range model.MailTypeOptions {
		fmt.Fprintf(p.out, "  %s. %s\n", opt.Choice, opt.Label)
	}
	choice, err := p.textOr("Choose type (1-5): ", "1")
	if err != nil {
		return "", err
	}
	return model.MailTypeForChoice(choice), nil
}

// menuItem is one numbered entry; "0" always exits.
type menuItem struct {
	key   string
	label string
	run   func() error
}

// loop shows the menu until "0" or end of input. Expected failures are
// printed and the loop continues; anything else aborts.
func (a *app) loop(p *prompter, title string, width int, items []menuItem) error {
	bar := strings.Repeat("=", width)
	for {
		fmt.Fprintf(p.out, "\n%s\n%s\n%s\n", bar, title, bar)
		for _, it := range items {
			fmt.Fprintf(p.out, "%s. %s\n", it.key, it.label)
		}
		fmt.Fprintf(p.out, "0. Exit\n%s\n", bar)

		choice, err := p.text("Choose: ")
		if errors.Is(err, io.EOF) || choice == "0" {
			fmt.Fprintln(p.out, "👋 Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		var item *menuItem
		for i := range items {
			if items[i].key == choice {
				item = &items[i]
			}
		}
		if item == nil {
			a.printer.Failure("Invalid choice %q", choice)
			continue
		}

		err = item.run()
		switch {
		case err == nil, errors.Is(err, ErrReported):
		case errors.Is(err, io.EOF):
			fmt.Fprintln(p.out, "👋 Goodbye!")
			return nil
		case isUserError(err):
			a.printer.Failure("%v", err)
		default:
			return err
		}
	}
}
