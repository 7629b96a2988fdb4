package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/chaisql/structbin/cmd/structbin/dbutil"
	"github.com/chaisql/structbin/internal/asset"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/schema"
)

// NewEncodeCommand returns a cli.Command for "structbin encode".
func NewEncodeCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "encode",
		Usage:     "Encode a JSON document",
		UsageText: `structbin encode -s schema.json [options] [file]`,
		Description: `The encode command reads a JSON document and writes it in binary, as described by the schema.

By default, the document is read from the standard input and the result is sent to the standard output:

$ echo '{"name": "brick"}' | structbin encode -s schema.json > brick.bin

When an asset database is given, asset aliases are replaced by the canonical ids:

$ structbin encode -s scene.json --db assets.db -o scene.bin scene.json`,
		Flags: append(codecFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "name of the file to output to. Defaults to STDOUT.",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path of the asset database used to resolve aliases.",
			},
		),
	}

	cmd.Action = func(c *cli.Context) error {
		s, err := dbutil.ReadSchema(c.String("schema"))
		if err != nil {
			return err
		}

		v, err := dbutil.ReadValue(c.Args().First())
		if err != nil {
			return err
		}

		opts := codecOptions(c)

		data, err := encode(c, v, s, opts)
		if err != nil {
			return err
		}

		w, closeFn, err := dbutil.Output(c.String("output"))
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	}

	return &cmd
}

func encode(c *cli.Context, v any, s *schema.Schema, opts *codec.Options) ([]byte, error) {
	path := c.String("db")
	if path == "" {
		return codec.Encode(v, s, opts)
	}

	store, err := dbutil.OpenStore(c.Context, path, opts)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return asset.Encode(c.Context, v, s, store, opts)
}
