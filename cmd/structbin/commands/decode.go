package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/chaisql/structbin/cmd/structbin/dbutil"
	"github.com/chaisql/structbin/internal/asset"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/schema"
)

// NewDecodeCommand returns a cli.Command for "structbin decode".
func NewDecodeCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "decode",
		Usage:     "Decode a binary stream to JSON",
		UsageText: `structbin decode -s schema.json [options] [file]`,
		Description: `The decode command reads a binary stream and writes it as JSON.

$ structbin decode -s schema.json brick.bin
{"name": "brick"}

When an asset database is given, asset UUIDs are replaced by the assets they identify:

$ structbin decode -s scene.json --db assets.db scene.bin

Values referenced several times are repeated in the output, cyclic values cannot be decoded to JSON.`,
		Flags: append(codecFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "name of the file to output to. Defaults to STDOUT.",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path of the asset database used to load assets.",
			},
			&cli.IntFlag{
				Name:  "max-concurrent",
				Usage: "Maximum number of assets loaded at the same time. Defaults to no limit.",
			},
		),
	}

	cmd.Action = func(c *cli.Context) error {
		s, err := dbutil.ReadSchema(c.String("schema"))
		if err != nil {
			return err
		}

		data, err := dbutil.ReadFile(c.Args().First())
		if err != nil {
			return err
		}

		opts := codecOptions(c)

		v, err := decode(c, data, s, opts)
		if err != nil {
			return err
		}

		w, closeFn, err := dbutil.Output(c.String("output"))
		if err != nil {
			return err
		}
		if err := dbutil.WriteJSON(w, v); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	}

	return &cmd
}

func decode(c *cli.Context, data []byte, s *schema.Schema, opts *codec.Options) (any, error) {
	path := c.String("db")
	if path == "" {
		return codec.Decode(data, s, opts)
	}

	store, err := dbutil.OpenStore(c.Context, path, opts)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return asset.Decode(c.Context, data, s, store, &asset.Options{
		Codec:         opts,
		MaxConcurrent: c.Int("max-concurrent"),
	})
}
