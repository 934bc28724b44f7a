package runtime

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/multireg"
)

// SetDeviceMemory is DumpDeviceMemory's inverse: it reads CSV records
// produced in that format and installs them into the register file,
// modulus chain, and twiddle tables. Per §6, a trailing "\r" and empty
// fields are ignored, and any unrecognized leading tag is silently
// skipped rather than treated as an error.
func (rt *Runtime) SetDeviceMemory(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	nttFactors := make(map[int][]uint32)
	inttFactors := make(map[string]map[int][]uint32)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) == 0 {
			continue
		}
		tag := strings.TrimSpace(fields[0])
		rest := fields[1:]

		switch tag {
		case "memory":
			if len(rest) < 1 {
				continue
			}
			name := strings.TrimSpace(rest[0])
			vals, err := parseUint32Fields(rest[1:])
			if err != nil {
				return errors.Wrapf(err, "runtime: parsing memory record for %q", name)
			}
			rt.Model.Memory.Write(name, multireg.FromSlice(vals))

		case "modulus_chain":
			vals, err := parseUint32Fields(rest)
			if err != nil {
				return errors.Wrap(err, "runtime: parsing modulus_chain record")
			}
			rt.Model.SetModulusChain(vals)

		case "ntt":
			if len(rest) < 1 {
				continue
			}
			residual, err := strconv.Atoi(strings.TrimSpace(rest[0]))
			if err != nil {
				return errors.Wrap(err, "runtime: parsing ntt record residual index")
			}
			vals, err := parseUint32Fields(rest[1:])
			if err != nil {
				return errors.Wrap(err, "runtime: parsing ntt record values")
			}
			nttFactors[residual] = vals

		case "intt":
			if len(rest) < 2 {
				continue
			}
			ge := strings.TrimSpace(rest[0])
			residual, err := strconv.Atoi(strings.TrimSpace(rest[1]))
			if err != nil {
				return errors.Wrap(err, "runtime: parsing intt record residual index")
			}
			vals, err := parseUint32Fields(rest[2:])
			if err != nil {
				return errors.Wrap(err, "runtime: parsing intt record values")
			}
			if inttFactors[ge] == nil {
				inttFactors[ge] = make(map[int][]uint32)
			}
			inttFactors[ge][residual] = vals

		default:
			// Unknown leading tag: silently skipped per §6.
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "runtime: reading device memory stream")
	}

	if len(nttFactors) > 0 {
		rt.Model.SetNTTTwiddleFactors(denseByResidual(nttFactors))
	}
	if len(inttFactors) > 0 {
		table := make(map[string][][]uint32, len(inttFactors))
		for ge, byResidual := range inttFactors {
			table[ge] = denseByResidual(byResidual)
		}
		rt.Model.SetINTTTwiddleFactors(table)
	}
	return nil
}

func denseByResidual(byResidual map[int][]uint32) [][]uint32 {
	maxResidual := -1
	for r := range byResidual {
		if r > maxResidual {
			maxResidual = r
		}
	}
	out := make([][]uint32, maxResidual+1)
	for r, vals := range byResidual {
		out[r] = vals
	}
	return out
}

func parseUint32Fields(fields []string) ([]uint32, error) {
	out := make([]uint32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing value %q", f)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
