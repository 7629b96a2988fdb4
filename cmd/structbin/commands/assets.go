package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/chaisql/structbin/cmd/structbin/dbutil"
	"github.com/chaisql/structbin/internal/assetstore"
)

// NewAssetsCommand returns a cli.Command for "structbin assets".
func NewAssetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "Manage an asset database",
		Description: `The assets command stores assets, with their schema, in a Pebble database.
Assets can then be loaded while decoding with "structbin decode --db".`,
		Subcommands: []*cli.Command{
			newAssetsPutCommand(),
			newAssetsGetCommand(),
			newAssetsAliasCommand(),
			newAssetsListCommand(),
			newAssetsDeleteCommand(),
			newAssetsDumpCommand(),
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path of the asset database to open.",
		Required: true,
	}
}

func withStore(c *cli.Context, fn func(s *assetstore.Store) error) error {
	s, err := dbutil.OpenStore(c.Context, c.String("db"), nil)
	if err != nil {
		return err
	}

	err = fn(s)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

func parseID(c *cli.Context, i int) (uuid.UUID, error) {
	arg := c.Args().Get(i)
	if arg == "" {
		return uuid.Nil, errors.Newf("missing argument %d\n%s", i+1, c.Command.UsageText)
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid id %q", arg)
	}
	return id, nil
}

func newAssetsPutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Store a JSON document as an asset",
		UsageText: `structbin assets put -d assets.db -s schema.json [--id uuid] [file]`,
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:     "schema",
				Aliases:  []string{"s"},
				Usage:    "Path of the JSON schema of the asset.",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Id of the asset. Defaults to a random id.",
			},
		},
		Action: func(c *cli.Context) error {
			id := uuid.New()
			if raw := c.String("id"); raw != "" {
				var err error
				id, err = uuid.Parse(raw)
				if err != nil {
					return errors.Wrapf(err, "invalid id %q", raw)
				}
			}

			s, err := dbutil.ReadSchema(c.String("schema"))
			if err != nil {
				return err
			}
			v, err := dbutil.ReadValue(c.Args().First())
			if err != nil {
				return err
			}

			return withStore(c, func(store *assetstore.Store) error {
				if err := store.Put(c.Context, id, v, s); err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, id)
				return nil
			})
		},
	}
}

func newAssetsGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Output an asset as JSON",
		UsageText: `structbin assets get -d assets.db id`,
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			id, err := parseID(c, 0)
			if err != nil {
				return err
			}

			return withStore(c, func(store *assetstore.Store) error {
				v, err := store.Lookup(c.Context, id)
				if err != nil {
					return err
				}
				return dbutil.WriteJSON(c.App.Writer, v)
			})
		},
	}
}

func newAssetsAliasCommand() *cli.Command {
	return &cli.Command{
		Name:      "alias",
		Usage:     "Make an id point to another one",
		UsageText: `structbin assets alias -d assets.db alias id`,
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			alias, err := parseID(c, 0)
			if err != nil {
				return err
			}
			id, err := parseID(c, 1)
			if err != nil {
				return err
			}

			return withStore(c, func(store *assetstore.Store) error {
				return store.Alias(c.Context, alias, id)
			})
		},
	}
}

func newAssetsListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the ids of the stored assets",
		UsageText: `structbin assets list -d assets.db`,
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			return withStore(c, func(store *assetstore.Store) error {
				return store.List(c.Context, func(id uuid.UUID) error {
					_, err := fmt.Fprintln(c.App.Writer, id)
					return err
				})
			})
		},
	}
}

func newAssetsDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete an asset or an alias",
		UsageText: `structbin assets rm -d assets.db id`,
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			id, err := parseID(c, 0)
			if err != nil {
				return err
			}

			return withStore(c, func(store *assetstore.Store) error {
				return store.Delete(c.Context, id)
			})
		},
	}
}

func newAssetsDumpCommand() *cli.Command {
	return &cli.Command{
		Name:        "dump",
		Usage:       "Outputs the content of the Pebble database",
		UsageText:   `structbin assets dump -d assets.db`,
		Description: `The dump command outputs every asset and alias stored in the database.`,
		Flags: []cli.Flag{
			dbFlag(),
			&cli.BoolFlag{
				Name:    "keys-only",
				Aliases: []string{"k"},
				Usage:   "Only output the keys.",
			},
		},
		Action: func(c *cli.Context) error {
			return withStore(c, func(store *assetstore.Store) error {
				return dbutil.DumpPebble(c.Context, c.App.Writer, store.DB(), dbutil.DumpPebbleOptions{
					KeysOnly: c.Bool("keys-only"),
				})
			})
		},
	}
}
