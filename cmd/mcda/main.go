// Command mcda ranks the alternatives of a decision matrix with one or more
// pipelines described in YAML.
//
// Usage:
//
//	mcda -pipeline topsis.yaml -matrix dm.yaml
//	mcda -pipeline ratio.yaml -pipeline fmf.yaml -random-seed 42
//
// With a single pipeline the result is printed. With several, every
// pipeline runs concurrently on the same matrix and the rankings are
// printed next to their pairwise Spearman correlation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/infrastructure/middleware"
	"github.com/ahrav/go-criteria/internal/application"
	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
	"github.com/ahrav/go-criteria/internal/testutils"
)

// pathList collects a repeatable string flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var pipelines pathList
	flag.Var(&pipelines, "pipeline", "path to a pipeline YAML file (repeatable)")
	var (
		matrixPath   = flag.String("matrix", "", "path to a decision matrix YAML file")
		seed         = flag.Int64("random-seed", 0, "generate a random decision matrix with this seed instead of reading -matrix")
		alternatives = flag.Int("alternatives", 10, "alternatives of the random matrix")
		criteria     = flag.Int("criteria", 5, "criteria of the random matrix")
		showMatrix   = flag.Bool("show-matrix", false, "print the decision matrix before the result")
		html         = flag.Bool("html", false, "print the decision matrix as an HTML table")
		metrics      = flag.Bool("metrics", false, "print step metrics in the Prometheus text format on exit")
		timeout      = flag.Duration("timeout", 30*time.Second, "evaluation timeout")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn or error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if len(pipelines) == 0 {
		logger.Error("at least one -pipeline is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	observers := []ports.StepObserver{middleware.NewLoggingObserver(logger)}
	var registry *prometheus.Registry
	if *metrics {
		registry = prometheus.NewRegistry()
		observers = append(observers, middleware.NewMetricsObserver(middleware.NewPrometheusMetrics(registry)))
	}

	loader, err := application.NewPipelineLoader(
		application.NewDefaultStageRegistry(),
		application.WithObserver(application.NewMultiObserver(observers...)),
	)
	if err != nil {
		logger.Error("failed to create pipeline loader", "error", err)
		os.Exit(1)
	}

	dm, err := loadMatrix(*matrixPath, *seed, *alternatives, *criteria)
	if err != nil {
		logger.Error("failed to load decision matrix", "error", err)
		os.Exit(1)
	}
	rows, cols := dm.Shape()
	logger.Info("decision matrix loaded", "alternatives", rows, "criteria", cols)

	if *showMatrix {
		if *html {
			if err := dm.WriteHTML(os.Stdout); err != nil {
				logger.Error("failed to render decision matrix", "error", err)
				os.Exit(1)
			}
		} else {
			fmt.Println(dm.String())
		}
		fmt.Println()
	}

	if err := run(ctx, os.Stdout, loader, pipelines, dm); err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	if registry != nil {
		if err := writeMetrics(os.Stdout, registry); err != nil {
			logger.Error("failed to write metrics", "error", err)
			os.Exit(1)
		}
	}
}

func loadMatrix(path string, seed int64, alternatives, criteria int) (*domain.DecisionMatrix, error) {
	if path == "" {
		if seed == 0 {
			return nil, fmt.Errorf("%w: either -matrix or -random-seed is required", domain.ErrMissingArgument)
		}
		spec := testutils.DefaultMatrixSpec()
		spec.MinAlternatives, spec.MaxAlternatives = alternatives, alternatives
		spec.MinCriteria, spec.MaxCriteria = criteria, criteria
		return testutils.GenerateDecisionMatrix(seed, spec)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return application.LoadDecisionMatrix(f)
}

func run(
	ctx context.Context,
	w io.Writer,
	loader *application.PipelineLoader,
	paths []string,
	dm *domain.DecisionMatrix,
) error {
	if len(paths) == 1 {
		pipe, err := loader.LoadFromFile(paths[0])
		if err != nil {
			return err
		}
		result, err := pipe.Evaluate(ctx, dm)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, result.String())
		return nil
	}

	cmp := application.NewComparator()
	for _, path := range paths {
		pipe, err := loader.LoadFromFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := cmp.Add(name, pipe); err != nil {
			return err
		}
	}

	comparison, err := cmp.Evaluate(ctx, dm)
	if err != nil {
		return err
	}
	for _, name := range comparison.Names() {
		result, err := comparison.Result(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n%s\n\n", name, result.String())
	}
	fmt.Fprintf(w, "Spearman correlation (%s)\n", strings.Join(comparison.Names(), ", "))
	fmt.Fprintf(w, "%v\n", mat.Formatted(comparison.Correlation(), mat.Squeeze()))
	return nil
}

func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
