package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/gameadmin/internal/model"
	"github.com/kkkkikiki/gameadmin/internal/service"
)

func newCodesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage reward codes",
	}
	cmd.AddCommand(
		newCodesCreateCommand(a),
		newCodesQuickCommand(a),
		newCodesListCommand(a),
		newCodesDeactivateCommand(a),
		newCodesDeleteCommand(a),
		&cobra.Command{
			Use:   "menu",
			Short: "Interactive reward code menu",
			Args:  cobra.NoArgs,
			RunE:  a.run(func(cmd *cobra.Command, _ []string) error { return a.codesMenu(cmd.Context()) }),
		},
	)
	return cmd
}

func addRewardFlags(cmd *cobra.Command, r *model.Reward) {
	cmd.Flags().Int64Var(&r.Coins, "coins", r.Coins, "coins granted")
	cmd.Flags().Int64Var(&r.Diamonds, "diamonds", r.Diamonds, "diamonds granted")
	cmd.Flags().Int64Var(&r.XP, "xp", r.XP, "experience points granted")
}

func newCodesCreateCommand(a *app) *cobra.Command {
	var (
		in      service.CreateRewardCodeInput
		expires int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reward code",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("expires-days") {
			in.ExpiresDays = &expires
		}
		return a.createCode(cmd, in)
	})

	f := cmd.Flags()
	f.StringVar(&in.Code, "code", "", "code to create (generated when empty)")
	f.StringVar(&in.Title, "title", "", "title shown to players")
	f.StringVar(&in.Description, "description", "", "description shown to players")
	f.IntVar(&expires, "expires-days", 0, "days until the code expires (never when omitted)")
	f.Int64Var(&in.MaxClaims, "max-claims", 0, "maximum redemptions (0 = unlimited)")
	addRewardFlags(cmd, &in.Reward)
	return cmd
}

func newCodesQuickCommand(a *app) *cobra.Command {
	var reward model.Reward
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Create a random reward code with default text, no expiry and unlimited claims",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		return a.createCode(cmd, service.CreateRewardCodeInput{Reward: reward})
	})
	addRewardFlags(cmd, &reward)
	return cmd
}

func (a *app) createCode(cmd *cobra.Command, in service.CreateRewardCodeInput) error {
	code, err := a.codes.Create(cmd.Context(), in)
	if err != nil {
		return err
	}
	a.printer.RewardCodeCreated(code)
	return nil
}

func newCodesListCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reward codes",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		_, err := a.printer.RewardCodes(a.codes.List(cmd.Context(), all))
		return err
	})
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated codes")
	return cmd
}

func newCodesDeactivateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate CODE",
		Short: "Deactivate a reward code",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		code := service.NormalizeCode(args[0])
		if err := a.codes.Deactivate(cmd.Context(), code); err != nil {
			return err
		}
		a.printer.Success("Deactivated code: %s", code)
		return nil
	})
	return cmd
}

func newCodesDeleteCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete CODE",
		Short: "Permanently delete a reward code",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		code := service.NormalizeCode(args[0])
		if !yes {
			ok, err := a.prompter().confirm("Delete '" + code + "'?")
			if err != nil || !ok {
				return err
			}
		}
		if err := a.codes.Delete(cmd.Context(), code); err != nil {
			return err
		}
		a.printer.Success("Deleted code: %s", code)
		return nil
	})
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) codesMenu(ctx context.Context) error {
	p := a.prompter()

	return a.loop(p, "🎁 REWARD CODES", 40, []menuItem{
		{"1", "Create reward code", func() error {
			p.printf("\n--- NEW REWARD CODE ---\n")
			var (
				in  service.CreateRewardCodeInput
				err error
			)
			if in.Code, err = p.text("Code (Enter = generate): "); err != nil {
				return err
			}
			if in.Title, err = p.textOr("Title: ", service.DefaultRewardTitle); err != nil {
				return err
			}
			if in.Description, err = p.textOr("Description: ", service.DefaultRewardDescription); err != nil {
				return err
			}
			if in.Reward, err = p.reward(model.Reward{}); err != nil {
				return err
			}
			if in.ExpiresDays, err = p.optionalInt("Expires after (days, Enter = never): "); err != nil {
				return err
			}
			if in.MaxClaims, err = p.int64Or("Claim limit (0 = unlimited): ", 0); err != nil {
				return err
			}
			code, err := a.codes.Create(ctx, in)
			if err != nil {
				return err
			}
			a.printer.RewardCodeCreated(code)
			return nil
		}},
		{"2", "Quick create (random code)", func() error {
			p.printf("\n--- QUICK REWARD CODE ---\n")
			reward, err := p.reward(model.Reward{})
			if err != nil {
				return err
			}
			code, err := a.codes.Create(ctx, service.CreateRewardCodeInput{Reward: reward})
			if err != nil {
				return err
			}
			a.printer.RewardCodeCreated(code)
			return nil
		}},
		{"3", "List codes", func() error {
			all, err := p.confirm("Include deactivated codes?")
			if err != nil {
				return err
			}
			_, err = a.printer.RewardCodes(a.codes.List(ctx, all))
			return err
		}},
		{"4", "Deactivate code", func() error {
			code, err := p.text("Code to deactivate: ")
			if err != nil || code == "" {
				return err
			}
			code = service.NormalizeCode(code)
			if err := a.codes.Deactivate(ctx, code); err != nil {
				return err
			}
			a.printer.Success("Deactivated code: %s", code)
			return nil
		}},
		{"5", "Delete code", func() error {
			code, err := p.text("Code to delete: ")
			if err != nil || code == "" {
				return err
			}
			code = service.NormalizeCode(code)
			ok, err := p.confirm("Delete '" + code + "'?")
			if err != nil || !ok {
				return err
			}
			if err := a.codes.Delete(ctx, code); err != nil {
				return err
			}
			a.printer.Success("Deleted code: %s", code)
			return nil
		}},
	})
}
