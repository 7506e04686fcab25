package main

import (
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/zqshi/metricstd/cmd/metricstd/commands"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("metricstd"),
		kong.Description("Standardize metric definitions and check source code for inconsistent metric usage."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(commands.StripUnknownFlags(parser, os.Args[1:]))
	parser.FatalIfErrorf(err)

	err = ctx.Run(&commands.Global{Logger: slog.Default()})
	if err == nil {
		return
	}

	var exit *commands.ExitCodeError
	if stderrors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
