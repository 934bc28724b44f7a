package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/nocturnelabs/pisasim/runtime"
	"github.com/nocturnelabs/pisasim/testvector"
)

// installVectorIfSet loads and installs the --vector flag's test vector
// into rt, if the flag was given; a no-op otherwise.
func installVectorIfSet(c *cli.Context, rt *runtime.Runtime) error {
	path := c.String("vector")
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "pisasim: opening test vector")
	}
	defer f.Close()
	vec, err := testvector.Load(f)
	if err != nil {
		return err
	}
	return testvector.Install(rt, vec)
}
