package main

import (
	"context"
	"flag"

	"github.com/STTM-NSU/fund-tracker/internal/feed"
	"github.com/STTM-NSU/fund-tracker/internal/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	port     string
	readOnly bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve portfolio reports and the price sync over HTTP" }
func (*serveCmd) Usage() string {
	return `fund-tracker serve [-port <port>] [-read-only]

  GET  /api/health
  GET  /api/portfolio?account=<name>&type=SIP|LUMPSUM|all
  GET  /api/realized?account=<name>&type=SIP|LUMPSUM|all
  POST /api/sync
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Listen port, overrides the config")
	f.BoolVar(&c.readOnly, "read-only", false, "Disable POST /api/sync")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}
	port := a.cfg.Server.Port
	if c.port != "" {
		port = c.port
	}

	var syncer server.SyncRunner
	if !c.readOnly {
		prices := feed.NewClient(a.cfg.Feed, a.logger.With("component", "feed"))
		defer prices.Close()
		history := a.historyClient()
		defer history.Close()
		syncer = a.syncer(prices, history)
	}

	h := server.NewHandler(a.valuation(), syncer, a.cfg.Server.SyncTimeout, a.logger.With("component", "http"))
	a.logger.Infof("listening on :%s", port)
	if err := server.NewHTTPServer(ctx, port, h.Routes()).Run(ctx); err != nil {
		a.logger.Errorf("%s: server stopped", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
