package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/meadow/config"
)

// searchOptions holds the command line of one optimization run.
type searchOptions struct {
	configPath string
	outputDir  string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	stepSize   float64
}

func parseFlags() searchOptions {
	var o searchOptions
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for optimize_log.csv and best_config.yaml")
	flag.IntVar(&o.maxTicks, "max-ticks", 2000, "Ticks a run must survive to score full marks")
	flag.IntVar(&o.seeds, "seeds", 3, "Seeded runs averaged per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = 4 + 3n/2)")
	flag.Float64Var(&o.stepSize, "step", 0.3, "Initial CMA-ES step size in normalized units")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	if opts.outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(opts.configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector(baseCfg)
	if params.Dim() == 0 {
		log.Fatal("config has no species to tune")
	}

	evalSeeds := make([]int64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, evalSeeds, baseCfg)

	evalLog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer evalLog.Close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	fmt.Printf("Tuning %d parameters over %d seeds, %d ticks per run, population=%d, max_evals=%d\n",
		params.Dim(), opts.seeds, opts.maxTicks, popSize, opts.maxEvals)
	fmt.Printf("  start: %s\n", params.Describe(params.DefaultVector()))

	best := bestRun{fitness: math.Inf(1)}
	evalCount := 0
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			ev := evaluator.Last()
			evalCount++

			if fitness < best.fitness {
				best = bestRun{fitness: fitness, values: values, eval: ev, index: evalCount}
			}
			if err := evalLog.Write(evalCount, ev, values); err != nil {
				log.Printf("failed to log evaluation %d: %v", evalCount, err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(opts.maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: %s | best=%.0f (eval %d) | elapsed %s, ETA %s\n",
				evalCount, opts.maxEvals, summarize(ev), best.fitness, best.index,
				formatDuration(elapsed), formatDuration(remaining))
			fmt.Printf("  %s\n", params.Describe(values))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: opts.stepSize,
		Population:   popSize,
	}

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if best.values == nil && result != nil {
		best.values = params.Clamp(params.Denormalize(result.X))
	}
	if best.values == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best (eval %d): %s\n", best.index, summarize(best.eval))
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %-20s %s = %.6f\n", spec.Name, spec.Path, best.values[i])
	}

	path, err := writeBestConfig(baseCfg, params, best.values, opts.outputDir)
	if err != nil {
		log.Fatalf("failed to write best config: %v", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", path)
}

// bestRun is the lowest-fitness evaluation seen so far.
type bestRun struct {
	fitness float64
	values  []float64
	eval    Evaluation
	index   int
}

// summarize renders an evaluation for progress output, naming the species
// that died out first when any seed ended early.
func summarize(ev Evaluation) string {
	s := fmt.Sprintf("fitness=%.0f survived=%.0f quality=%.2f", ev.Fitness, ev.Survival, ev.Quality)
	x, ok := ev.FirstExtinction()
	if !ok {
		return s + " no extinctions"
	}
	kind := "extinct"
	if x.Functional {
		kind = "functionally extinct"
	}
	return fmt.Sprintf("%s %s %s at tick %d (seed %d, %d/%d seeds ended early)",
		s, x.Species, kind, x.Tick, x.Seed, len(ev.Extinctions), ev.Seeds)
}

// evalLog writes one CSV row per evaluation. The parameter columns depend on
// the config, so rows are built by hand rather than from a tagged struct.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}

	header := []string{"eval", "fitness", "survival", "quality", "first_extinct", "extinct_tick"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Write appends an evaluation and flushes it so a killed run keeps its log.
func (l *evalLog) Write(n int, ev Evaluation, values []float64) error {
	species, tick := "", ""
	if x, ok := ev.FirstExtinction(); ok {
		species, tick = x.Species, strconv.Itoa(x.Tick)
	}
	row := []string{
		strconv.Itoa(n),
		strconv.FormatFloat(ev.Fitness, 'f', 3, 64),
		strconv.FormatFloat(ev.Survival, 'f', 1, 64),
		strconv.FormatFloat(ev.Quality, 'f', 4, 64),
		species,
		tick,
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// writeBestConfig applies values to a copy of the base config and saves it
// as best_config.yaml in dir.
func writeBestConfig(base *config.Config, params *ParamVector, values []float64, dir string) (string, error) {
	cfg := cloneConfig(base)
	params.ApplyToConfig(cfg, values)
	path := filepath.Join(dir, "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		return "", err
	}
	return path, nil
}

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
