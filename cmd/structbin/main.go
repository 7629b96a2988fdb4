package main

import (
	"fmt"
	"os"

	"github.com/chaisql/structbin/cmd/structbin/commands"
)

func main() {
	app := commands.NewApp()

	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
