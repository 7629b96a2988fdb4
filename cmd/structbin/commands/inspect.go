package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/chaisql/structbin/cmd/structbin/dbutil"
)

// NewInspectCommand returns a cli.Command for "structbin inspect".
func NewInspectCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "inspect",
		Usage:     "Describe the content of a binary stream",
		UsageText: `structbin inspect -s schema.json [options] [file]`,
		Description: `The inspect command decodes a stream and outputs its widths, the number of references
and values it contains, and the assets it refers to.`,
		Flags: codecFlags(),
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

		r, err := dbutil.Inspect(data, s, codecOptions(c))
		if err != nil {
			return err
		}

		r.Print(c.App.Writer)
		return nil
	}

	return &cmd
}
