package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"enermix/internal/dynamo"
	"enermix/internal/integrators"
	"enermix/internal/scenario"
	"enermix/internal/store"
	"enermix/internal/tui"
	"enermix/internal/viz"
)

var (
	dataDir    string
	dt         float64
	t0         float64
	tEnd       float64
	clipFinal  bool
	integrator string
	configFile string
	noPlot     bool
	chartWidth int
	chartRows  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "enermix",
		Short: "energy transition simulator based on replicator dynamics",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".enermix", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario (or all presets when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenarios,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&t0, "t0", 0, "start time override")
	runCmd.Flags().Float64Var(&tEnd, "t-end", 0, "end time override")
	runCmd.Flags().BoolVar(&clipFinal, "clip-final", false, "clip the last step to land exactly on t-end")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (rk4, euler)")
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the chart after the run")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenario presets",
		RunE:  listScenarios,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&chartWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&chartRows, "height", 12, "chart height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print run data as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [scenario]",
		Short: "compare final states across step-size refinements",
		Args:  cobra.ExactArgs(1),
		RunE:  compareSteps,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0.4, "coarsest timestep")
	compareCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (rk4, euler)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "watch a scenario run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := resolveScenario(args[0])
			if err != nil {
				return err
			}
			return tui.Run(sc)
		},
	}

	rootCmd.AddCommand(runCmd, scenariosCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, compareCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getIntegrator(name string) (func() dynamo.Integrator, error) {
	switch name {
	case "rk4":
		return func() dynamo.Integrator { return integrators.NewRK4() }, nil
	case "euler":
		return func() dynamo.Integrator { return integrators.NewEuler() }, nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func resolveScenario(name string) (*scenario.Scenario, error) {
	sc := scenario.Get(name)
	if sc == nil {
		return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, scenario.List())
	}
	return sc, nil
}

func applyOverrides(cmd *cobra.Command, sc *scenario.Scenario) {
	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("t0") {
		sc.T0 = t0
	}
	if cmd.Flags().Changed("t-end") {
		sc.TEnd = tEnd
	}
	if cmd.Flags().Changed("clip-final") {
		sc.ClipFinal = clipFinal
	}
}

func runScenarios(cmd *cobra.Command, args []string) error {
	var scenarios []*scenario.Scenario

	switch {
	case configFile != "":
		sc, err := scenario.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		scenarios = []*scenario.Scenario{sc}
	case len(args) == 1 && args[0] != "all":
		sc, err := resolveScenario(args[0])
		if err != nil {
			return err
		}
		scenarios = []*scenario.Scenario{sc}
	default:
		scenarios = scenario.All()
	}

	for _, sc := range scenarios {
		applyOverrides(cmd, sc)
	}

	factory, err := getIntegrator(integrator)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	results, err := scenario.RunAll(context.Background(), factory, scenarios)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tRUN ID\tSAMPLES\tFINAL SOLAR\tFINAL FOSSIL")

	for i, sc := range scenarios {
		traj := results[i]
		runID, err := st.Save(sc.Name, integrator, sc.RunConfig(), scenario.Technologies, traj)
		if err != nil {
			return err
		}

		solarShare, fossilShare := "-", "-"
		_, final := traj.Final()
		if len(final) == len(scenario.Technologies) {
			solarShare = fmt.Sprintf("%.1f%%", final[3]*100)
			fossilShare = fmt.Sprintf("%.1f%%", final[0]*100)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			sc.Name, runID, traj.Len(), solarShare, fossilShare)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompleted in %v\n", elapsed)

	if noPlot {
		return nil
	}
	for i, sc := range scenarios {
		fmt.Println()
		fmt.Println(viz.Chart(sc.Name, results[i], scenario.Technologies, 80, 12))
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHORIZON\tDT\tDESCRIPTION")
	for _, name := range scenario.List() {
		sc := scenario.Get(name)
		fmt.Fprintf(w, "%s\t%.0f\t%.2f\t%s\n", sc.Name, sc.TEnd-sc.T0, sc.Dt, sc.Description)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tT_END\tDT\tINTEG\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.4f\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TEnd,
			run.Dt,
			run.Integrator,
			run.Samples,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	labels, traj, err := st.LoadShares(args[0])
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	title := fmt.Sprintf("%s (%s, dt=%.4f)", meta.Scenario, meta.Integrator, meta.Dt)
	fmt.Println(viz.Chart(title, traj, labels, chartWidth, chartRows))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	labels, traj, err := st.LoadShares(args[0])
	if err != nil {
		return err
	}
	return store.WriteCSV(os.Stdout, labels, traj)
}

// compareSteps runs the same scenario at dt, dt/2 and dt/4 and reports
// how much the final state moves per refinement. A fourth-order scheme
// should shrink the difference roughly 16x per halving.
func compareSteps(cmd *cobra.Command, args []string) error {
	sc, err := resolveScenario(args[0])
	if err != nil {
		return err
	}
	sc.ClipFinal = true

	factory, err := getIntegrator(integrator)
	if err != nil {
		return err
	}

	steps := []float64{dt, dt / 2, dt / 4}
	finals := make([]dynamo.State, len(steps))

	for i, h := range steps {
		run := *sc
		run.Dt = h
		traj, err := run.Run(context.Background(), factory())
		if err != nil {
			return err
		}
		_, finals[i] = traj.Final()
	}

	fmt.Printf("step-size refinement for %s (%s)\n\n", sc.Name, integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tMAX DIFF TO DT/2\tRATIO")

	var prev float64
	for i := 0; i < len(steps)-1; i++ {
		diff := finals[i].Sub(finals[i+1]).MaxAbs()
		if i == 0 {
			fmt.Fprintf(w, "%.4f\t%.3e\t-\n", steps[i], diff)
		} else {
			ratio := prev / diff
			fmt.Fprintf(w, "%.4f\t%.3e\t%.1fx\n", steps[i], diff, ratio)
		}
		prev = diff
	}
	return w.Flush()
}
