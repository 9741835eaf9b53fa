// Package main provides the flops CLI: static forward-pass cost estimation.
//
// Usage:
//
//	flops [flags] MODEL [MODEL2]
//
// MODEL is a YAML model file (.yaml, .yml), an ONNX file (.onnx), or a
// built-in preset written as preset:NAME (mnist-100, mnist-50). With a second
// model, both are estimated and compared.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/born-ml/flops/internal/arch"
	"github.com/born-ml/flops/internal/config"
	"github.com/born-ml/flops/internal/cost"
	"github.com/born-ml/flops/internal/onnx"
	"github.com/born-ml/flops/internal/parallel"
	"github.com/born-ml/flops/internal/report"
)

const version = "v0.1.0-dev"

// model is a named list of descriptors with the policy to cost them under.
type model struct {
	name   string
	layers []cost.LayerDescriptor
	policy cost.Policy
}

type options struct {
	strict      bool
	strictOps   bool
	parallel    bool
	softmaxCost int64
	reluCost    int64
	set         map[string]bool // flags given on the command line
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("flops: ")

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("flops %s\n", version)
		return
	}

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("flops", flag.ContinueOnError)
	var opts options
	fs.BoolVar(&opts.strict, "strict", false, "exit with an error when any layer descriptor is invalid")
	fs.BoolVar(&opts.strictOps, "strict-ops", false, "fail on ONNX operators that map to no layer kind")
	fs.BoolVar(&opts.parallel, "parallel", false, "cost layers on all CPUs")
	fs.Int64Var(&opts.reluCost, "relu-cost", 0, "override per-unit ReLU cost (default from the model policy)")
	fs.Int64Var(&opts.softmaxCost, "softmax-cost", 0, "override per-unit Softmax cost (default from the model policy)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: flops [flags] MODEL [MODEL2]\n\n")
		fmt.Fprintf(fs.Output(), "MODEL is a .yaml/.yml model file, an .onnx file, or preset:NAME (%s).\n\n",
			strings.Join(presetNames(), ", "))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("expected one or two models")
	}

	results := make([]cost.EstimationResult, 0, fs.NArg())
	names := make([]string, 0, fs.NArg())
	for _, src := range fs.Args() {
		m, err := load(src, opts)
		if err != nil {
			return err
		}
		est, err := estimator(m, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		r, err := est.Estimate(m.layers)
		if werr := report.Write(stdout, m.name, r); werr != nil {
			return werr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		fmt.Fprintln(stdout)
		results = append(results, r)
		names = append(names, m.name)
	}

	if len(results) == 2 {
		c := report.Compare(names[0], results[0], names[1], results[1])
		return report.WriteComparison(stdout, c)
	}
	return nil
}

func estimator(m *model, opts options) (*cost.Estimator, error) {
	p := m.policy
	if opts.set["relu-cost"] {
		p.ReLUPerUnit = opts.reluCost
	}
	if opts.set["softmax-cost"] {
		p.SoftmaxPerUnit = opts.softmaxCost
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	estOpts := []cost.Option{cost.WithPolicy(p)}
	if opts.strict {
		estOpts = append(estOpts, cost.WithInvalidPolicy(cost.RejectInvalid))
	}
	if opts.parallel {
		cfg := parallel.DefaultConfig()
		cfg.NumWorkers = runtime.GOMAXPROCS(0)
		estOpts = append(estOpts, cost.WithParallel(cfg))
	}
	return cost.NewEstimator(estOpts...), nil
}

// load resolves a model source to descriptors.
func load(src string, opts options) (*model, error) {
	if name, ok := strings.CutPrefix(src, "preset:"); ok {
		a, ok := arch.Presets[name]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(presetNames(), ", "))
		}
		layers, err := a.Descriptors()
		if err != nil {
			return nil, err
		}
		return &model{name: name, layers: layers, policy: cost.DefaultPolicy()}, nil
	}

	switch strings.ToLower(filepath.Ext(src)) {
	case ".onnx":
		layers, err := onnx.DescribeFile(src, onnx.DescribeOptions{StrictMode: opts.strictOps})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		return &model{name: filepath.Base(src), layers: layers, policy: cost.DefaultPolicy()}, nil
	case ".yaml", ".yml":
		m, err := config.Load(src)
		if err != nil {
			return nil, err
		}
		name := m.Name
		if name == "" {
			name = filepath.Base(src)
		}
		return &model{name: name, layers: m.Layers, policy: m.Policy}, nil
	default:
		return nil, fmt.Errorf("%s: unknown model format (want .yaml, .yml, .onnx or preset:NAME)", src)
	}
}

func presetNames() []string {
	names := make([]string, 0, len(arch.Presets))
	for name := range arch.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
