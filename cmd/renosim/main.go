package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/renosim/internal/config"
	"github.com/san-kum/renosim/internal/experiment"
	"github.com/san-kum/renosim/internal/storage"
	"github.com/san-kum/renosim/internal/viz"
)

var (
	dataDir       string
	dt            float64
	durationHours float64
	integrator    string
	disease       string
	adaptive      bool
	tolerance     float64
	volumeScale   float64
	waterBolus    float64
	naBolus       float64
	configFile    string
	plotVars      string
	plotWidth     int
	plotHeight    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "renosim",
		Short: "blood pressure and renal fluid homeostasis simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".renosim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotVars, "vars", "map,blood_volume_l,gfr_ml_min,urine_ml_min", "comma-separated columns to plot")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run trajectory to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same scenario",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (minutes)")
	compareCmd.Flags().Float64Var(&durationHours, "hours", 0, "duration (hours)")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		RunE:  listScenarios,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd,
		exportJSONCmd, liveCmd, compareCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep (minutes)")
	cmd.Flags().Float64Var(&durationHours, "hours", 0, "duration (hours)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	cmd.Flags().StringVar(&disease, "disease", "", "disease override")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "adaptive error tolerance")
	cmd.Flags().Float64Var(&volumeScale, "volume-scale", 0, "initial blood volume scale (1.05 = +5%)")
	cmd.Flags().Float64Var(&waterBolus, "water-bolus", 0, "initial water bolus (ml)")
	cmd.Flags().Float64Var(&naBolus, "na-bolus", 0, "initial sodium bolus (mEq)")
}

// buildConfig resolves the run configuration: scenario preset, then the
// config file, then explicit flags, in increasing priority.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	scenario := "nominal"
	if len(args) > 0 {
		scenario = args[0]
	}

	cfg := config.GetPreset(scenario)
	if cfg == nil {
		return nil, fmt.Errorf("unknown scenario: %s (available: %v)", scenario, config.ListPresets())
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		fileCfg.Scenario = scenario
		cfg = fileCfg
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("hours") {
		cfg.DurationHours = durationHours
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("disease") {
		cfg.Disease = disease
	}
	if cmd.Flags().Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("volume-scale") {
		cfg.Perturb.BloodVolumeScale = volumeScale
	}
	if cmd.Flags().Changed("water-bolus") {
		cfg.Perturb.WaterBolusML = waterBolus
	}
	if cmd.Flags().Changed("na-bolus") {
		cfg.Perturb.NaBolusMEq = naBolus
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s for %.1f hours...\n", cfg.Scenario, cfg.DurationHours)
	start := time.Now()

	result, runErr := exp.Run(context.Background())
	elapsed := time.Since(start)

	model := exp.Model()
	meta := storage.RunMetadata{
		Scenario:      cfg.Scenario,
		Disease:       cfg.Disease,
		Dt:            cfg.Dt,
		DurationHours: cfg.DurationHours,
		Integrator:    cfg.Integrator,
		Adaptive:      cfg.Adaptive,
		StateNames:    model.StateNames(),
		DerivedNames:  model.DerivedNames(),
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.BoundViolations > 0 {
		fmt.Printf("bound violations: %d\n", result.BoundViolations)
	}
	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for name, val := range result.Metrics {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run ended early: %w", runErr)
	}
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
	fmt.Fprintln(w, "ID\tSCENARIO\tDISEASE\tTIME\tHOURS\tDT\tINTEG\tSTATUS")

	for _, run := range runs {
		diseaseName := run.Disease
		if diseaseName == "" {
			diseaseName = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.3f\t%s\t%s\n",
			run.ID,
			run.Scenario,
			diseaseName,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.DurationHours,
			run.Dt,
			run.Integrator,
			run.Status,
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

	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	columns := append([]string{}, meta.StateNames...)
	columns = append(columns, meta.DerivedNames...)

	for _, name := range strings.Split(plotVars, ",") {
		name = strings.TrimSpace(name)
		idx := -1
		for i, col := range columns {
			if col == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			fmt.Printf("unknown column: %s (available: %v)\n\n", name, columns)
			continue
		}
		data := make([]float64, len(states))
		for i := range states {
			if idx < len(states[i]) {
				data[i] = states[i][idx]
			}
		}
		fmt.Println(viz.PlotSeries(name, times, data, plotWidth, plotHeight))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time_min"}
	header = append(header, meta.StateNames...)
	header = append(header, meta.DerivedNames...)
	header = header[:1+len(states[0])]
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	doc := struct {
		Meta   storage.RunMetadata `json:"meta"`
		Times  []float64           `json:"times_min"`
		States [][]float64         `json:"states"`
	}{Meta: *meta, Times: times, States: states}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	model, err := cfg.BuildModel()
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	m := viz.NewModel(model, integ, cfg.InitialState(model), cfg.Dt, cfg.Scenario)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	scenario := args[0]
	names := args[1:]

	cfg := config.GetPreset(scenario)
	if cfg == nil {
		return fmt.Errorf("unknown scenario: %s (available: %v)", scenario, config.ListPresets())
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("hours") {
		cfg.DurationHours = durationHours
	}

	fmt.Printf("comparing integrators for %s (dt=%.3f min, %.1f h)\n\n",
		scenario, cfg.Dt, cfg.DurationHours)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s  %-12s\n",
		"integrator", "final_map", "final_bv", "steps", "time_ms")
	fmt.Println(strings.Repeat("-", 66))

	for _, name := range names {
		runCfg := *cfg
		runCfg.Integrator = name
		if name == "rk45" {
			runCfg.Adaptive = true
		}

		exp, err := experiment.New(&runCfg)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		finalMAP := 0.0
		if len(result.Derived) > 0 {
			finalMAP = result.Derived[len(result.Derived)-1][0]
		}
		finalBV := 0.0
		if final := result.Final(); final != nil {
			finalBV = final[0]
		}
		fmt.Printf("%-12s  %12.3f  %12.4f  %12d  %12.2f\n",
			name, finalMAP, finalBV, result.StepsTaken,
			float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDISEASE\tHOURS\tPERTURBATION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		perturb := "-"
		switch {
		case cfg.Perturb.BloodVolumeScale != 0 && cfg.Perturb.BloodVolumeScale != 1:
			perturb = fmt.Sprintf("blood volume x%.2f", cfg.Perturb.BloodVolumeScale)
		case cfg.Perturb.WaterBolusML != 0:
			perturb = fmt.Sprintf("water bolus %.0f ml", cfg.Perturb.WaterBolusML)
		case cfg.Perturb.NaBolusMEq != 0:
			perturb = fmt.Sprintf("sodium bolus %.0f mEq", cfg.Perturb.NaBolusMEq)
		}
		diseaseName := cfg.Disease
		if diseaseName == "" {
			diseaseName = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\n", name, diseaseName, cfg.DurationHours, perturb)
	}
	return w.Flush()
}
