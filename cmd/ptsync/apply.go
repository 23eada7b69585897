package main

import (
	"fmt"

	"github.com/signadot/ptsync/libdiff"
	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/schema"

	"github.com/scott-cotton/cli"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: expected a patch file and a value file", cli.ErrUsage)
	}
	var ps []patch.Patch
	if err := readValue(cc, args[0], &ps); err != nil {
		return fmt.Errorf("error reading patches: %w", err)
	}
	var v any
	if err := readValue(cc, args[1], &v); err != nil {
		return fmt.Errorf("error reading value: %w", err)
	}
	res, err := patch.Apply(v, ps...)
	if err != nil {
		return err
	}
	return cfg.output(cc.Out, res)
}

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: expected 2 files", cli.ErrUsage)
	}
	var from, to any
	if err := readValue(cc, args[0], &from); err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}
	if err := readValue(cc, args[1], &to); err != nil {
		return fmt.Errorf("error reading %s: %w", args[1], err)
	}
	ps := libdiff.Diff(from, to)
	if len(ps) == 0 {
		return nil
	}
	if err := cfg.output(cc.Out, ps); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}

func validate(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Validate.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: expected a value file", cli.ErrUsage)
	}
	typ, err := cfg.schemaType(cfg.Schema)
	if err != nil {
		return err
	}
	var v any
	if err := readValue(cc, args[0], &v); err != nil {
		return fmt.Errorf("error reading value: %w", err)
	}
	if !cfg.Fix {
		res, err := schema.Validate(typ, v)
		if err != nil {
			return err
		}
		if res == nil {
			return nil
		}
		if err := cfg.output(cc.Out, res); err != nil {
			return err
		}
		return cli.ExitCodeErr(1)
	}
	fixed, res, err := fix(typ, v)
	if err != nil {
		return err
	}
	if err := cfg.output(cc.Out, fixed); err != nil {
		return err
	}
	if res != nil {
		cfg.console(cc.Out).Push(notifyUnfixable(res))
		return cli.ExitCodeErr(1)
	}
	return nil
}

// maxFixes bounds the number of resolutions applied by fix.
const maxFixes = 1000

// fix applies resolutions to v until it validates or a problem has no
// patches. It returns the remaining resolution, if any.
func fix(typ *schema.Type, v any) (any, *schema.Resolution, error) {
	for range maxFixes {
		res, err := schema.Validate(typ, v)
		if err != nil {
			return nil, nil, err
		}
		if !res.Fixable() {
			return v, res, nil
		}
		v, err = patch.Apply(v, res.Patches...)
		if err != nil {
			return nil, nil, fmt.Errorf("applying resolution %q: %w", res.Action, err)
		}
	}
	return nil, nil, fmt.Errorf("value still invalid after %d fixes", maxFixes)
}

func notifyUnfixable(res *schema.Resolution) notify.Notification {
	return notify.Notification{Severity: notify.Error, Title: "invalid value", Description: res.String()}
}
