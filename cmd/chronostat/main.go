package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/chronostat/internal/config"
	"github.com/san-kum/chronostat/internal/engine"
	"github.com/san-kum/chronostat/internal/phase"
	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/series"
	"github.com/san-kum/chronostat/internal/store"
	"github.com/san-kum/chronostat/internal/synth"
	"github.com/san-kum/chronostat/internal/validation"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var (
	dataDir    string
	configFile string
	seed       int64
	unit       string
	verbose    bool

	withValidation bool
	withPhase      bool
	withEnrich     bool
	saveRun        bool
	jsonOut        bool

	benchN      int
	benchTrials int

	exportPath string
)

var log zerolog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "chronostat",
		Short: "AR(2) persistence analysis for biological time series",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chronostat", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [series.csv]",
		Short: "run the persistence pipeline over every channel in a CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: use config)")
	analyzeCmd.Flags().StringVar(&unit, "unit", "", "value unit for all channels")
	analyzeCmd.Flags().BoolVar(&withValidation, "validate", false, "bootstrap CI on the modulus")
	analyzeCmd.Flags().BoolVar(&withPhase, "phase", false, "run the phase-robustness panel")
	analyzeCmd.Flags().BoolVar(&withEnrich, "enrich", false, "root-space enrichment against the configured reference")
	analyzeCmd.Flags().BoolVar(&saveRun, "save", false, "persist the run under the data directory")
	analyzeCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full result as JSON to stdout")

	phaseCmd := &cobra.Command{
		Use:   "phase [series.csv]",
		Short: "phase-robustness panel only",
		Args:  cobra.ExactArgs(1),
		RunE:  runPhase,
	}
	phaseCmd.Flags().StringVar(&unit, "unit", "", "value unit for all channels")

	benchCmd := &cobra.Command{
		Use:   "bench [generator]",
		Short: "estimator accuracy benchmark on a synthetic process",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
	benchCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: use config)")
	benchCmd.Flags().IntVar(&benchN, "n", 24, "timepoints per trial")
	benchCmd.Flags().IntVar(&benchTrials, "trials", 500, "number of trials")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "-", "output path (- for stdout)")

	configCmd := &cobra.Command{
		Use:   "config-init [path]",
		Short: "write the default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(analyzeCmd, phaseCmd, benchCmd, listCmd, exportCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, badStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if configFile == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Warn().Err(err).Str("path", configFile).Msg("config load failed, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}

func effectiveSeed(cfg *config.Config) int64 {
	if seed != 0 {
		return seed
	}
	return cfg.Seed
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	channels, err := readChannels(args[0], unit)
	if err != nil {
		return err
	}
	log.Debug().Int("channels", len(channels)).Msg("loaded series")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := engine.Options{
		Seed:            effectiveSeed(cfg),
		WithValidation:  withValidation,
		BootstrapMethod: validation.BootstrapMethod(cfg.BootstrapMethod),
		Resamples:       cfg.Resamples,
		WithPhase:       withPhase,
		PhaseConfig:     cfg.PhasePanel(),
		WithEnrichment:  withEnrich,
		Reference:       engine.Reference{Modulus: cfg.Reference.Modulus, Angle: cfg.Reference.Angle},
		Permutations:    cfg.Permutations,
		Workers:         cfg.Workers,
	}
	result, err := engine.Analyze(ctx, channels, opts)
	if err != nil {
		return err
	}

	if jsonOut {
		return store.ExportJSON("-", result)
	}
	printResult(result, channels)

	if withEnrich {
		base := randx.NewSource(opts.Seed)
		for i, ts := range channels {
			// Child(2) of the per-channel source; the engine's bootstrap
			// uses Child(1).
			res, err := engine.ModulusEnrichment(ctx, ts, validation.NullPhaseSurrogate, cfg.Permutations, base.Child(int64(i)).Child(2))
			if err != nil {
				log.Warn().Err(err).Str("channel", ts.Name).Msg("surrogate enrichment unavailable")
				continue
			}
			fmt.Printf("%s modulus vs phase-surrogate null: p=%.3f effect=%.2f\n", ts.Name, res.PValue, res.EffectSize)
		}
	}

	if saveRun {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(result)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved as %s\n", id)
	}
	return nil
}

func printResult(result engine.RunResult, channels []series.TimeSeries) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("persistence analysis (seed %d)", result.Seed)))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "channel\tβ1\tβ2\t|λ|\tclass\tperiod\tr²\tLB p\tconfidence")
	for _, ch := range result.Channels {
		period := "-"
		if ch.ImpliedPeriod > 0 {
			period = fmt.Sprintf("%.1f", ch.ImpliedPeriod)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%s\t%s\t%.2f\t%.3f\t%s (%.0f)\n",
			ch.Name, ch.Beta1, ch.Beta2, ch.Modulus, ch.Stability, period,
			ch.R2, ch.LjungBox.PValue, ch.Confidence.Category, ch.Confidence.Score)
	}
	w.Flush()

	for _, ch := range result.Channels {
		if ch.Bootstrap != nil {
			fmt.Printf("%s modulus 95%% CI: [%.3f, %.3f] (%d resamples, %s)\n",
				ch.Name, ch.Bootstrap.Lower, ch.Bootstrap.Upper, ch.Bootstrap.Resamples, ch.Bootstrap.Method)
		}
		if ch.Phase != nil {
			printPhase(ch.Name, *ch.Phase)
		}
		for _, d := range ch.EdgeCases {
			if d.Triggered {
				fmt.Println(skipStyle.Render(fmt.Sprintf("  %s [%s] %s: %s", ch.Name, d.Severity, d.Name, d.Explanation)))
			}
		}
	}

	if result.Enrichment != nil {
		rep := result.Enrichment
		verdict := "not robust across thresholds: possible artifact"
		if rep.RobustAcrossSweep {
			verdict = "robust across thresholds"
		}
		fmt.Println()
		fmt.Println(headerStyle.Render("root-space enrichment"))
		fmt.Printf("mean distance %.3f vs null %.3f±%.3f, p=%.3f effect=%.2f (%s)\n",
			rep.Test.Observed, rep.Test.NullMean, rep.Test.NullStd, rep.Test.PValue, rep.Test.EffectSize, verdict)
		for _, pt := range rep.Sweep {
			fmt.Printf("  threshold %.3f: observed %.2f null %.2f ratio %.2f\n",
				pt.Threshold, pt.ObservedFraction, pt.NullFraction, pt.Ratio)
		}
	}

	if result.NoStructure {
		fmt.Println(skipStyle.Render("no temporal structure detected in any channel (all r² < 0.10); a negative result, not an engine failure"))
	}
	for _, sk := range result.Skipped {
		fmt.Println(skipStyle.Render(fmt.Sprintf("skipped %s: %s", sk.Name, sk.Reason)))
	}

	for _, ts := range channels {
		if len(ts.Values) == 0 {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(ts.Values,
			asciigraph.Height(6),
			asciigraph.Width(72),
			asciigraph.Caption(ts.Name),
		))
	}
}

func printPhase(name string, res phase.RobustnessResult) {
	verdict := "not robust"
	if res.Robust {
		verdict = "robust"
	}
	fmt.Printf("%s phase consensus: %.1fh ± %.1fh, agreement %.0f%% (%s)\n",
		name, res.MeanPhase, res.PhaseSD, res.Agreement*100, verdict)
	for _, e := range res.Estimates {
		mark := " "
		if !e.Valid() {
			mark = "!"
		}
		fmt.Printf("  %s %-14s phase=%.1fh period=%.1f amp=%.2f r²=%.2f\n",
			mark, e.Method, e.PhaseHours, e.Period, e.Amplitude, e.R2)
	}
}

func runPhase(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	channels, err := readChannels(args[0], unit)
	if err != nil {
		return err
	}
	for _, ts := range channels {
		if v := series.Validate(ts); !v.OK() {
			fmt.Println(skipStyle.Render(fmt.Sprintf("skipped %s: %v", ts.Name, v.Err)))
			continue
		}
		printPhase(ts.Name, phase.Panel(ts, cfg.PhasePanel()))
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	gen, ok := synth.Registry()[args[0]]
	if !ok {
		names := make([]string, 0)
		for n := range synth.Registry() {
			names = append(names, n)
		}
		return fmt.Errorf("unknown generator %q (have %v)", args[0], names)
	}

	src := randx.NewSource(effectiveSeed(cfg))
	moduli := make([]float64, 0, benchTrials)
	degenerate := 0
	for i := 0; i < benchTrials; i++ {
		values := gen.Make(benchN, 1, src.Stream(int64(i)))
		res, err := engine.Analyze(context.Background(),
			[]series.TimeSeries{synth.Series(gen.Name, "", 1, values)},
			engine.Options{Seed: src.Child(int64(i)).Seed()})
		if err != nil {
			return err
		}
		if len(res.Channels) == 0 || res.Channels[0].Degenerate {
			degenerate++
			continue
		}
		moduli = append(moduli, res.Channels[0].Modulus)
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("bench %s: n=%d, %d trials", gen.Name, benchN, benchTrials)))
	mean, sd := meanStd(moduli)
	fmt.Printf("modulus mean %.3f sd %.3f, degenerate fits %d/%d\n", mean, sd, degenerate, benchTrials)
	return nil
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	sum := 0.0
	for _, v := range xs {
		d := v - mean
		sum += d * d
	}
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, math.Sqrt(sum / float64(len(xs)-1))
}

func runList(cmd *cobra.Command, args []string) error {
	runs, err := store.New(dataDir).List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\ttimestamp\tseed\tchannels\tskipped")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Seed, r.Channels, r.Skipped)
	}
	return w.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	result, err := store.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return store.ExportJSON(exportPath, result)
}

// readChannels parses a wide CSV: a time column followed by one column
// per channel.
func readChannels(path, unit string) ([]series.TimeSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one channel column", path)
	}

	header := rows[0]
	times := make([]float64, 0, len(rows)-1)
	values := make([][]float64, len(header)-1)

	for _, row := range rows[1:] {
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad time value %q: %w", row[0], err)
		}
		times = append(times, t)
		for c := 1; c < len(header); c++ {
			v, err := strconv.ParseFloat(row[c], 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q in column %s: %w", row[c], header[c], err)
			}
			values[c-1] = append(values[c-1], v)
		}
	}

	channels := make([]series.TimeSeries, 0, len(values))
	for c, vals := range values {
		channels = append(channels, series.New(header[c+1], unit, times, vals))
	}
	return channels, nil
}
