package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/graspsim/internal/config"
	"github.com/san-kum/graspsim/internal/integrators"
	"github.com/san-kum/graspsim/internal/optim"
	"github.com/san-kum/graspsim/internal/scenario"
	"github.com/san-kum/graspsim/internal/storage"
	"github.com/san-kum/graspsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	integrator string
	ticks      int
	jsonOut    bool
	noSave     bool
	columns    []string
	params     []string
	metricName string
	workers    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "graspsim",
		Short:         "hand grasp simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".graspsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log grasp transitions to stderr")
	rootCmd.MarkFlagsMutuallyExclusive("config", "preset")

	runCmd := &cobra.Command{
		Use:   "run [scenario|file]",
		Short: "run a scenario and save its trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "override the scenario length")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print events and metrics as JSON")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write a run directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scenario.Names() {
				sc, err := scenario.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-10s %s\n", name, sc.Description)
			}
			return nil
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot trace columns of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "column", nil, "trace columns to plot (default: every hand's y, error and fingers)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario|file]",
		Short: "play a scenario with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&integrator, "integrator", "", "integrator")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario|file]",
		Short: "grid search hand parameters on a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneScenario,
	}
	tuneCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "grid axis as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "tracking_error", "metric to minimise")
	tuneCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs")
	_ = tuneCmd.MarkFlagRequired("param")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, scenariosCmd, plotCmd, liveCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadConfig resolves --preset or --config, then GRASPSIM_ environment
// overrides, then command flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("integrator"); f != nil && f.Changed {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func buildRun(cmd *cobra.Command, nameOrPath string) (*scenario.Run, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	sc, err := scenario.Resolve(nameOrPath)
	if err != nil {
		return nil, nil, err
	}
	if f := cmd.Flags().Lookup("ticks"); f != nil && f.Changed {
		sc.Ticks = ticks
	}
	run, err := scenario.Build(sc, cfg, scenario.Options{Logger: newLogger()})
	if err != nil {
		return nil, nil, err
	}
	return run, cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	run, cfg, err := buildRun(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := run.Execute(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		return storage.ExportJSON(os.Stdout, run.Scenario.Name, result)
	}

	for _, ev := range result.Events {
		fmt.Println(viz.EventLine(ev))
	}
	fmt.Println(viz.SummaryTable(run.Scenario.Name, result.Metrics))

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunInfo{
		Scenario:   run.Scenario.Name,
		Preset:     preset,
		TickRate:   cfg.TickRate,
		Integrator: cfg.Integrator,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("saved run: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tRATE\tINTEG\tGRABS\tBREAKS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0fHz\t%s\t%.0f\t%.0f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.TickRate,
			run.Integrator,
			run.Metrics["grabs"],
			run.Metrics["joint_breaks"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(trace.Rows))

	cols := columns
	if len(cols) == 0 {
		for h := 0; h < meta.Hands; h++ {
			cols = append(cols, fmt.Sprintf("h%d_y", h), fmt.Sprintf("h%d_error", h), fmt.Sprintf("h%d_fingers", h))
		}
	}

	for _, col := range cols {
		data, ok := trace.Column(col)
		if !ok {
			return fmt.Errorf("no column %q (have %s)", col, strings.Join(trace.Header, ", "))
		}
		fmt.Println(viz.PlotSeries(data, col, 80, 10))
		fmt.Println()
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	run, _, err := buildRun(cmd, args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewLiveModel(run), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := scenario.Resolve(args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(params))
	ranges := make([][]float64, 0, len(params))
	for _, p := range params {
		name, vals, err := optim.ParseParam(p)
		if err != nil {
			return err
		}
		if _, ok := cfg.Params()[name]; !ok {
			return fmt.Errorf("unknown param %q (tunable: %s)", name, strings.Join(optim.SortedNames(cfg.Params()), ", "))
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch(names, ranges)
	g.SetWorkers(workers)
	best, points, err := g.Search(ctx, optim.ScenarioEvaluator(sc, cfg), metricName)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metricName))
	for _, p := range points {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, fmt.Sprintf("%g", p.Params[n]))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.5f", p.Value))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.SummaryTable("best "+metricName, best.Params))
	fmt.Printf("%s = %.5f\n", metricName, best.Value)
	return nil
}
