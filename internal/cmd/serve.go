package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimezsa/hackcli/internal/api"
)

type ServeCmd struct {
	Addr    string `help:"Listen address (default server.addr, or :$PORT)."`
	Proxies string `help:"Comma-separated proxy URLs." env:"HACKCLI_PROXIES"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(runCtx, ctx, s.Proxies)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := s.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}

	srv := api.New(a.pipeline, api.Options{
		AccessToken: ctx.Config.Server.AccessToken,
		TokenHeader: ctx.Config.Server.TokenHeader,
		Metrics:     a.metrics,
		Logger:      ctx.Logger.With().Str("component", "api").Logger(),
	})
	return srv.Listen(runCtx, addr)
}
