package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/nocturnelabs/pisasim/hwdesc"
	"github.com/nocturnelabs/pisasim/perfmodel"
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "run the performance modeler over a program and render a report",
		ArgsUsage: "<program.pisa>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Value: "example", Usage: "hardware descriptor: example, model1, model2, or a JSON file path"},
			&cli.BoolFlag{Name: "topology", Usage: "include graph topology statistics"},
			&cli.BoolFlag{Name: "serve", Usage: "serve the report and metrics over HTTP instead of printing once"},
			&cli.StringFlag{Name: "addr", Value: ":9090", Usage: "listen address for --serve"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("pisasim report: expected exactly one program path", exitParseOrRuntimeError)
			}
			descriptor, err := loadProfile(c.String("profile"))
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}
			program, err := loadProgram(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), exitParseOrRuntimeError)
			}

			opts := perfmodel.Options{QuickSchedule: true, IncludeTopology: c.Bool("topology")}

			if !c.Bool("serve") {
				report := perfmodel.Run(program, descriptor, opts)
				return json.NewEncoder(os.Stdout).Encode(report)
			}

			reg := prometheus.NewRegistry()
			metrics := perfmodel.NewMetrics(reg)

			r := chi.NewRouter()
			r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
				report := perfmodel.Run(program, descriptor, opts)
				metrics.Observe(report)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(report)
			})
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			fmt.Fprintf(os.Stderr, "pisasim report: serving on %s\n", c.String("addr"))
			return http.ListenAndServe(c.String("addr"), r)
		},
	}
}

// loadProfile resolves name against the three canonical profiles first,
// then a path as given, then the default profile search directory under
// the user's home (for a bare file name like "custom.json" dropped there).
func loadProfile(name string) (*hwdesc.Descriptor, error) {
	if _, ok := hwdesc.Profiles[name]; ok {
		return hwdesc.Load(name)
	}
	if f, err := os.Open(name); err == nil {
		defer f.Close()
		return hwdesc.LoadFile(f)
	}
	if searchPath := defaultProfileSearchPath(); searchPath != "" {
		f, err := os.Open(searchPath + "/" + name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return hwdesc.LoadFile(f)
	}
	return nil, os.ErrNotExist
}
