// Command docsite compiles a tree of Markdown documentation into a static
// HTML site.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/version"
)

func main() {
	// A .env file is optional; DOCSITE_* variables may come from anywhere.
	_ = godotenv.Load()

	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docsite"),
		kong.Description("Compile Markdown documentation into a static HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	global := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(global, &cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
