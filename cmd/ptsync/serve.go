package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/schema"
	"github.com/signadot/ptsync/transport"
	"github.com/signadot/ptsync/transport/rpc"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
)

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Gops || cfg.File.Serve.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cfg.Log.Warn("gops agent failed", "error", err)
		} else {
			defer agent.Close()
		}
	}
	srvCfg := &rpc.Config{Log: cfg.Log}
	if cfg.Schema != "" || cfg.File.Schema != "" {
		typ, err := cfg.schemaType(cfg.Schema)
		if err != nil {
			return err
		}
		srvCfg.Check = snapshotCheck(typ)
	}
	srv := rpc.NewServer(srvCfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cfg.Log.Info("serving on stdio")
	if err := srv.ServeConn(ctx, rpc.Stdio()); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// snapshotCheck warns the publisher of a batch whose snapshot is invalid.
func snapshotCheck(typ *schema.Type) func(transport.Batch) *notify.Notification {
	return func(b transport.Batch) *notify.Notification {
		if b.Snapshot == nil {
			return nil
		}
		res, err := schema.Validate(typ, b.Snapshot)
		switch {
		case err != nil:
			return &notify.Notification{Severity: notify.Error, Title: typ.Name, Description: err.Error()}
		case res != nil:
			return &notify.Notification{Severity: notify.Warning, Title: typ.Name, Description: res.String()}
		}
		return nil
	}
}
