package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/nocturnelabs/pisasim/depgraph"
	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/pisaparse"
	"github.com/nocturnelabs/pisasim/runtime"
)

func executeCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Usage:     "run a P-ISA program against an optional test vector",
		ArgsUsage: "<program.pisa>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "vector", Usage: "test vector JSON path"},
			&cli.BoolFlag{Name: "layered", Usage: "use the dependency-layered execution path"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("pisasim execute: expected exactly one program path", exitParseOrRuntimeError)
			}
			rt := runtime.New(c.Int("width"))
			if err := installVectorIfSet(c, rt); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			program, err := loadProgram(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			if c.Bool("layered") {
				err = rt.ExecuteLayeredProgram(depgraph.BuildInstructionLayers(program))
			} else {
				err = rt.ExecuteProgram(program)
			}
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			return nil
		},
	}
}

func loadProgram(path string) ([]isa.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "pisasim: opening program")
	}
	defer f.Close()
	program, err := pisaparse.ParseProgram(f)
	if err != nil {
		return nil, errors.Wrap(err, "pisasim: parsing program")
	}
	return program, nil
}
