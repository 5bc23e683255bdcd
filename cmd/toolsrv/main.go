// Command toolsrv serves the arithmetic and weather tools over MCP,
// on stdio by default or over Streamable HTTP with --listen.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/effective-security/toolchat/pkg/ecweather"
	"github.com/effective-security/toolchat/pkg/nws"
	"github.com/effective-security/toolchat/pkg/tools/calculator"
	"github.com/effective-security/toolchat/pkg/tools/weather"
	"github.com/effective-security/toolchat/pkg/toolserver"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "toolsrv")

type CLI struct {
	Listen string `name:"listen" help:"Serve Streamable HTTP on this address (eg. :8080) instead of stdio"`
	Debug  bool   `name:"debug" short:"D" help:"Enable debug logging"`
}

func main() {
	cli := CLI{}
	parsed := kong.Parse(&cli,
		kong.Name("toolsrv"),
		kong.Description("MCP server exposing arithmetic and weather tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// stdout carries the protocol in stdio mode, logs go to stderr
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if cli.Debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.WARNING)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	parsed.FatalIfErrorf(run(ctx, &cli))
}

func run(ctx context.Context, cli *CLI) error {
	srv := toolserver.New("toolsrv", "1.0.0")

	calcTools, err := calculator.All()
	if err != nil {
		return err
	}
	weatherTools, err := weather.All(nws.New(), ecweather.New())
	if err != nil {
		return err
	}
	if err := srv.RegisterAll(append(calcTools, weatherTools...)...); err != nil {
		return err
	}

	if cli.Listen == "" {
		return srv.Run(ctx)
	}

	hs := &http.Server{
		Addr:              cli.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logger.KV(xlog.INFO, "status", "listening", "addr", cli.Listen)
	err = hs.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
