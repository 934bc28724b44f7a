package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nocturnelabs/pisasim/runtime"
	"github.com/nocturnelabs/pisasim/testvector"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "execute a program and compare results against a test vector's expected outputs",
		ArgsUsage: "<program.pisa>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "vector", Usage: "test vector JSON path", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("pisasim validate: expected exactly one program path", exitParseOrRuntimeError)
			}
			rt := runtime.New(c.Int("width"))

			f, err := os.Open(c.String("vector"))
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			defer f.Close()
			vec, err := testvector.Load(f)
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			if err := testvector.Install(rt, vec); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			program, err := loadProgram(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			if err := rt.ExecuteProgram(program); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			if err := testvector.Validate(rt, vec); err != nil {
				return cli.Exit(err.Error(), exitValidationFailure)
			}
			return nil
		},
	}
}
