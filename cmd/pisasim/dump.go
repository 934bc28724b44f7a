package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nocturnelabs/pisasim/runtime"
)

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "execute a program and dump device memory as CSV",
		ArgsUsage: "<program.pisa>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "vector", Usage: "test vector JSON path"},
			&cli.StringSliceFlag{Name: "address", Usage: "restrict the dump to these register names (repeatable)"},
			&cli.StringFlag{Name: "out", Usage: "output path (defaults to stdout)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("pisasim dump: expected exactly one program path", exitParseOrRuntimeError)
			}
			rt := runtime.New(c.Int("width"))
			if err := installVectorIfSet(c, rt); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			program, err := loadProgram(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			if err := rt.ExecuteProgram(program); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			out := os.Stdout
			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return cli.Exit(err.Error(), exitParseOrRuntimeError)
				}
				defer f.Close()
				out = f
			}
			if err := rt.DumpDeviceMemory(out, c.StringSlice("address")); err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			return nil
		},
	}
}
