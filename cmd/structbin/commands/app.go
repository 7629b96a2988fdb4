package commands

import (
	"context"
	"encoding/binary"
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"

	"github.com/chaisql/structbin/internal/codec"
)

// NewApp creates the structbin CLI app.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "structbin"
	app.Usage = "Encode, decode and inspect structbin streams"
	app.EnableBashCompletion = true

	app.Commands = []*cli.Command{
		NewEncodeCommand(),
		NewDecodeCommand(),
		NewInspectCommand(),
		NewAssetsCommand(),
		NewVersionCommand(),
	}

	// inject cancelable context to all commands
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer cancel()
		<-ch
	}()

	for i := range app.Commands {
		wrapAction(app.Commands[i], ctx)
	}

	app.Before = func(c *cli.Context) error {
		setupLogging(logging.WARNING)
		return nil
	}

	app.After = func(c *cli.Context) error {
		cancel()
		return nil
	}

	return app
}

func wrapAction(cmd *cli.Command, ctx context.Context) {
	for _, sub := range cmd.Subcommands {
		wrapAction(sub, ctx)
	}

	action := cmd.Action
	if action == nil {
		return
	}
	cmd.Action = func(c *cli.Context) error {
		c.Context = ctx
		return action(c)
	}
}

// codecFlags are the flags shared by the commands reading or writing streams.
func codecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "schema",
			Aliases:  []string{"s"},
			Usage:    "Path of the JSON schema of the stream.",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "legacy",
			Usage: "Use the fixed, headerless layout.",
		},
		&cli.BoolFlag{
			Name:  "big-endian",
			Usage: "Write and read numbers in big-endian order.",
		},
		&cli.BoolFlag{
			Name:  "strict-enums",
			Usage: "Fail on enum values missing from the schema instead of writing them as absent.",
		},
	}
}

func codecOptions(c *cli.Context) *codec.Options {
	var opts codec.Options
	if c.Bool("legacy") {
		l := codec.LegacyLayout
		opts.Layout = &l
	}
	if c.Bool("big-endian") {
		opts.ByteOrder = binary.BigEndian
	}
	opts.StrictEnums = c.Bool("strict-enums")
	return &opts
}
