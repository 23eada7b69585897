package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "ptsync").
		WithSynopsis("ptsync [opts] command [opts]").
		WithDescription("ptsync applies, diffs, validates and replays portable text patches.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return ptsyncMain(cfg, cc, args)
		}).
		WithSubs(
			ApplyCommand(cfg),
			DiffCommand(cfg),
			ValidateCommand(cfg),
			ReplayCommand(cfg),
			ServeCommand(cfg))
}

func ptsyncMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if err := cfg.setup(cc); err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

type ApplyConfig struct {
	*MainConfig
	Apply *cli.Command
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Apply, "apply").
		WithAliases("a").
		WithSynopsis("apply <patches> <value>").
		WithDescription("apply a list of patches to a value and print the result").
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
}

type DiffConfig struct {
	*MainConfig
	Diff *cli.Command
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff <from> <to>").
		WithDescription("print the patches turning one value into another; exits 1 if they differ").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

type ValidateConfig struct {
	*MainConfig
	Validate *cli.Command
	Schema   string `cli:"name=schema desc='schema type name or file (yaml)'"`
	Fix      bool   `cli:"name=fix desc='apply resolutions until the value is valid and print it'"`
}

func ValidateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValidateConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Validate, "validate").
		WithAliases("v").
		WithSynopsis("validate [-schema <type>] [-fix] <value>").
		WithDescription("check a value against a schema type; exits 1 if it is invalid").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return validate(cfg, cc, args)
		})
}

type ReplayConfig struct {
	*MainConfig
	Replay *cli.Command
	Schema string `cli:"name=schema desc='schema type name or file (yaml)'"`
}

func ReplayCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ReplayConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Replay, "replay").
		WithAliases("r").
		WithSynopsis("replay [-schema <type>] <session>").
		WithDescription("run a scripted editing session and print what the form observes").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return replay(cfg, cc, args)
		})
}

type ServeConfig struct {
	*MainConfig
	Serve  *cli.Command
	Schema string `cli:"name=schema desc='schema type name or file (yaml) checked against published snapshots'"`
	Gops   bool   `cli:"name=gops desc='start the gops diagnostics agent'"`
}

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ServeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Serve, "serve").
		WithSynopsis("serve [-schema <type>] [-gops]").
		WithDescription("serve the patch transport over JSON-RPC on stdin/stdout").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}
