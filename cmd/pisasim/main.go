// Command pisasim is the host process for the P-ISA simulator core: it
// loads a program plus an optional test vector and a hardware profile,
// then executes, dumps, validates, or reports on it.
package main

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:  "pisasim",
		Usage: "functional simulator and performance modeler for P-ISA programs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: 8192, Usage: "register width W"},
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("pisasim: bad log level: %v", err), exitParseOrRuntimeError)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			executeCommand(),
			dumpCommand(),
			validateCommand(),
			reportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("pisasim: fatal")
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(exitParseOrRuntimeError)
	}
}

// Exit statuses per §6's process interface: success / validation-failure /
// parse-or-runtime-error.
const (
	exitSuccess            = 0
	exitValidationFailure  = 1
	exitParseOrRuntimeError = 2
)

func defaultProfileSearchPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return home + "/.pisasim/profiles"
}
