// Command toolchat is an interactive chat shell that lets a language
// model answer queries by calling tools on an MCP server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/chat"
	"github.com/effective-security/toolchat/pkg/llms"
	"github.com/effective-security/toolchat/pkg/llms/openai"
	"github.com/effective-security/toolchat/pkg/mcpclient"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "toolchat")

type CLI struct {
	Server string `arg:"" help:"Tool server target: path to a server program, or an http(s):// URL"`

	APIBase     string   `name:"api-base" env:"API_BASE" help:"Base URL of the chat-completions endpoint"`
	APIKey      string   `name:"api-key" env:"API_KEY" default:"not-required" help:"Bearer credential for the endpoint"`
	Model       string   `name:"model" env:"MODEL" help:"Model identifier"`
	HTTPHeaders Headers  `name:"http-headers" env:"MCP_HTTP_HEADERS" help:"JSON object of extra HTTP headers for http(s) server targets"`
	Temperature *float64 `name:"temperature" env:"TEMPERATURE" help:"Sampling temperature passed to the endpoint"`
	MaxTurns    int      `name:"max-turns" env:"MAX_TURNS" help:"Maximum tool-calling turns per query"`
	Cfg         string   `name:"cfg" help:"Configuration file"`
	Debug       bool     `name:"debug" short:"D" help:"Enable debug logging"`
}

// Headers is a set of HTTP headers supplied as a JSON object, the
// format MCP_HTTP_HEADERS carries.
type Headers map[string]string

func (h *Headers) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*h = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return errors.WithMessage(err, "must be a JSON object of header names and values")
	}
	*h = m
	return nil
}

// Config is the optional file-based configuration; flags and
// environment take precedence.
type Config struct {
	APIBase     string   `json:"api_base" yaml:"api_base"`
	APIKey      string   `json:"api_key" yaml:"api_key"`
	Model       string   `json:"model" yaml:"model"`
	Temperature *float64 `json:"temperature" yaml:"temperature"`
	MaxTurns    int      `json:"max_turns" yaml:"max_turns"`
}

func main() {
	cli := CLI{}
	parsed := kong.Parse(&cli,
		kong.Name("toolchat"),
		kong.Description("Interactive tool-calling chat client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

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
	var cfg Config
	if cli.Cfg != "" {
		if err := configloader.UnmarshalAndExpand(cli.Cfg, &cfg); err != nil {
			return err
		}
	}

	apiBase := values.StringsCoalesce(cli.APIBase, cfg.APIBase)
	if apiBase == "" {
		return errors.New("API_BASE is not set")
	}

	llm, err := openai.New(
		openai.WithBaseURL(apiBase),
		openai.WithToken(values.StringsCoalesce(cli.APIKey, cfg.APIKey)),
		openai.WithModel(values.StringsCoalesce(cli.Model, cfg.Model, openai.DefaultChatModel)),
	)
	if err != nil {
		return err
	}

	session, err := mcpclient.Dial(ctx, cli.Server, mcpclient.WithHeaders(cli.HTTPHeaders))
	if err != nil {
		return err
	}
	defer session.Close()

	chatOpts := []chat.Option{
		chat.WithMaxTurns(values.NumbersCoalesce(cli.MaxTurns, cfg.MaxTurns, chat.DefaultMaxTurns)),
	}
	if temp := coalescePtr(cli.Temperature, cfg.Temperature); temp != nil {
		chatOpts = append(chatOpts, chat.WithCallOptions(llms.WithTemperature(*temp)))
	}
	client := chat.New(session, llm, chatOpts...)

	fmt.Println("Tool-calling chat started. Type your queries, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nQuery: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isExitCommand(query) {
			break
		}

		// a bad query is logged but never terminates the shell
		res, err := client.ProcessQuery(ctx, query)
		if err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "err", err.Error())
			fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
			continue
		}
		fmt.Println("\n" + res)
	}
	return scanner.Err()
}

func isExitCommand(query string) bool {
	return strings.EqualFold(query, "quit") || strings.EqualFold(query, "exit")
}

func coalescePtr[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
